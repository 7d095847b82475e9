package geometry

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Anchor is one of the nine reference points of a canvas.
type Anchor struct {
	Name string
	// FX and FY locate the point as a fraction of the canvas (0, 0.5 or 1).
	FX, FY float64
}

// The canonical anchors, row by row.
var anchors = []Anchor{
	{"top_left", 0, 0},
	{"top_center", 0.5, 0},
	{"top_right", 1, 0},
	{"middle_left", 0, 0.5},
	{"center", 0.5, 0.5},
	{"middle_right", 1, 0.5},
	{"bottom_left", 0, 1},
	{"bottom_center", 0.5, 1},
	{"bottom_right", 1, 1},
}

var anchorAliases = map[string]string{
	"top":           "top_center",
	"bottom":        "bottom_center",
	"left":          "middle_left",
	"right":         "middle_right",
	"middle":        "center",
	"middle_center": "center",
	"centre":        "center",
	"center_left":   "middle_left",
	"center_right":  "middle_right",
}

var folder = cases.Fold()

// LookupAnchor finds an anchor by name. Matching ignores case, and hyphens
// or spaces are treated as underscores.
func LookupAnchor(name string) (Anchor, bool) {
	key := folder.String(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if alias, ok := anchorAliases[key]; ok {
		key = alias
	}
	for _, a := range anchors {
		if a.Name == key {
			return a, true
		}
	}
	return Anchor{}, false
}

// AnchorNames returns the canonical anchor names, sorted.
func AnchorNames() []string {
	names := make([]string, 0, len(anchors))
	for _, a := range anchors {
		names = append(names, a.Name)
	}
	sort.Strings(names)
	return names
}
