// Package fingerprint computes content fingerprints for presentation decks.
//
// A fingerprint is the hex SHA-256 digest of a canonical encoding of a
// [Summary]: the document identity, the element count and, for each element in
// document order, its stable identifier, kind, geometry, text and children.
// Every field is length-prefixed so that no two distinct summaries share an
// encoding.
//
// Positional indexes are not part of the encoding. Renumbering elements while
// keeping their identifiers yields the same fingerprint; changing any
// identifier, geometry or text yields a different one.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/deckforge/model"
)

// Version is written first so a change to the encoding never collides with
// digests produced by an older one.
const Version = "deckforge/fp/v1"

// Summary is the structural view of a document that a fingerprint covers.
type Summary struct {
	// Name identifies the document, usually the base name of its file.
	Name     string    `json:"name"`
	Elements []Element `json:"elements"`
}

// Element is one slide or shape.
type Element struct {
	ID       string            `json:"id"`
	Kind     string            `json:"kind"`
	Index    int               `json:"index"` // position in the parent; not hashed
	Geometry model.EMUGeometry `json:"geometry"`
	Text     string            `json:"text,omitempty"`
	Children []Element         `json:"children,omitempty"`
}

// Count returns the number of elements in the summary, nested ones included.
func (s Summary) Count() int {
	return count(s.Elements)
}

func count(elems []Element) int {
	n := len(elems)
	for _, e := range elems {
		n += count(e.Children)
	}
	return n
}

// Compute returns the hex digest of s.
func Compute(s Summary) string {
	w := newWriter()
	w.field(Version)
	w.field(s.Name)
	w.int(int64(s.Count()))
	w.elements(s.Elements)
	return hex.EncodeToString(w.h.Sum(nil))
}

type writer struct {
	h   hash.Hash
	buf [8]byte
}

func newWriter() *writer {
	return &writer{h: sha256.New()}
}

// field writes an 8-byte big-endian length followed by the bytes of s.
func (w *writer) field(s string) {
	binary.BigEndian.PutUint64(w.buf[:], uint64(len(s)))
	w.h.Write(w.buf[:])
	w.h.Write([]byte(s))
}

func (w *writer) int(v int64) {
	w.field(strconv.FormatInt(v, 10))
}

func (w *writer) elements(elems []Element) {
	w.int(int64(len(elems)))
	for _, e := range elems {
		w.field(e.ID)
		w.field(e.Kind)
		w.int(e.Geometry.X)
		w.int(e.Geometry.Y)
		w.int(e.Geometry.Cx)
		w.int(e.Geometry.Cy)
		w.field(norm.NFC.String(e.Text))
		w.elements(e.Children)
	}
}
