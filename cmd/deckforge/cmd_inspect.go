package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/format"
	"github.com/tsawler/deckforge/model"
	"github.com/tsawler/deckforge/pptx"
	"github.com/tsawler/deckforge/session"
)

type infoReport struct {
	Path        string        `json:"path"`
	Format      string        `json:"format"`
	Title       string        `json:"title,omitempty"`
	Canvas      canvasReport  `json:"canvas"`
	Fingerprint string        `json:"fingerprint"`
	Slides      []slideReport `json:"slides"`
	Layouts     []pptx.Layout `json:"layouts"`
}

type canvasReport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type slideReport struct {
	Index  int           `json:"index"`
	ID     string        `json:"id"`
	Title  string        `json:"title,omitempty"`
	Layout string        `json:"layout,omitempty"`
	Shapes []shapeReport `json:"shapes"`
}

type shapeReport struct {
	ID          int                `json:"id"`
	Name        string             `json:"name"`
	Kind        string             `json:"kind"`
	Placeholder string             `json:"placeholder,omitempty"`
	Geometry    *model.EMUGeometry `json:"geometry,omitempty"`
	Children    []shapeReport      `json:"children,omitempty"`
}

func shapeReports(shapes []pptx.Shape) []shapeReport {
	out := make([]shapeReport, 0, len(shapes))
	for _, sh := range shapes {
		out = append(out, shapeReport{
			ID:          sh.ID,
			Name:        sh.Name,
			Kind:        string(sh.Kind),
			Placeholder: sh.Placeholder,
			Geometry:    sh.Geometry,
			Children:    shapeReports(sh.Children),
		})
	}
	return out
}

// checkFormat rejects files that are not an editable presentation.
func checkFormat(path string) (format.Format, error) {
	f, err := format.DetectFile(path)
	if err != nil {
		return f, deckerr.Wrap(deckerr.IO, "detect format", path, err)
	}
	if !f.IsPresentation() {
		return f, &deckerr.Error{Kind: deckerr.InvalidDocument, Op: "detect format", Path: path,
			Value: f.String(), Allowed: "PPTX, PPTM, POTX, PPSX"}
	}
	return f, nil
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Show slides, shapes, canvas and layouts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := checkFormat(path)
			if err != nil {
				return err
			}

			report := infoReport{Path: path, Format: f.String()}
			err = a.editor(path).Read(func(s *session.Session) error {
				doc, err := s.Document()
				if err != nil {
					return err
				}
				c := doc.Canvas()
				report.Canvas = canvasReport{Width: c.Width, Height: c.Height}
				report.Title = doc.Title()
				report.Layouts = doc.Layouts()
				for _, sl := range doc.Slides() {
					report.Slides = append(report.Slides, slideReport{
						Index:  sl.Index,
						ID:     sl.ID,
						Title:  sl.Title,
						Layout: sl.Layout,
						Shapes: shapeReports(sl.Shapes),
					})
				}
				report.Fingerprint, err = s.CurrentFingerprint()
				return err
			})
			if err != nil {
				return err
			}

			return a.emit(cmd, report, func(w io.Writer) {
				label(w, "File")
				fmt.Fprintf(w, "%s (%s)\n", report.Path, report.Format)
				if report.Title != "" {
					label(w, "Title")
					fmt.Fprintln(w, report.Title)
				}
				label(w, "Canvas")
				fmt.Fprintf(w, "%.0f x %.0f EMU (%.2f x %.2f in)\n", report.Canvas.Width, report.Canvas.Height,
					report.Canvas.Width/model.EMUPerInch, report.Canvas.Height/model.EMUPerInch)
				label(w, "Fingerprint")
				fmt.Fprintln(w, report.Fingerprint)

				names := make([]string, 0, len(report.Layouts))
				for _, l := range report.Layouts {
					names = append(names, l.Name)
				}
				label(w, "Layouts")
				fmt.Fprintln(w, strings.Join(names, ", "))

				for _, sl := range report.Slides {
					fmt.Fprintf(w, "\nSlide %d (id %s) %s\n", sl.Index, sl.ID, sl.Title)
					printShapes(w, sl.Shapes, "  ")
				}
			})
		},
	}
}

func printShapes(w io.Writer, shapes []shapeReport, indent string) {
	for _, sh := range shapes {
		where := "inherited"
		if g := sh.Geometry; g != nil {
			where = fmt.Sprintf("x=%d y=%d cx=%d cy=%d", g.X, g.Y, g.Cx, g.Cy)
		}
		fmt.Fprintf(w, "%s#%d %-20s %-12s %s\n", indent, sh.ID, sh.Name, sh.Kind, where)
		printShapes(w, sh.Children, indent+"  ")
	}
}

func (a *app) fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint FILE",
		Short: "Print the structural fingerprint",
		Long: `Print the SHA-256 fingerprint of the deck's structure: slide IDs and order,
shape IDs, kinds, text and geometry. Saving without changes keeps it stable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, err := a.editor(args[0]).Fingerprint()
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"path": args[0], "fingerprint": fp}, func(w io.Writer) {
				fmt.Fprintln(w, fp)
			})
		},
	}
}

func (a *app) checksumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checksum FILE",
		Short: "Print the xxhash64 of the raw file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := session.Checksum(args[0])
			if err != nil {
				return err
			}
			hex := fmt.Sprintf("%016x", sum)
			return a.emit(cmd, map[string]string{"path": args[0], "checksum": hex}, func(w io.Writer) {
				fmt.Fprintln(w, hex)
			})
		},
	}
}
