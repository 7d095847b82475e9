package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/deckforge"
	"github.com/tsawler/deckforge/contrast"
	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/geometry"
	"github.com/tsawler/deckforge/media"
	"github.com/tsawler/deckforge/model"
	"github.com/tsawler/deckforge/pptx"
	"github.com/tsawler/deckforge/session"
)

// parsePlacement decodes the --position and optional --size JSON objects.
func parsePlacement(posJSON, sizeJSON string) (geometry.PositionSpec, *geometry.SizeSpec, error) {
	var pos geometry.PositionSpec
	if err := json.Unmarshal([]byte(posJSON), &pos); err != nil {
		return pos, nil, err
	}
	if sizeJSON == "" {
		return pos, nil, nil
	}
	var size geometry.SizeSpec
	if err := json.Unmarshal([]byte(sizeJSON), &size); err != nil {
		return pos, nil, err
	}
	return pos, &size, nil
}

// parsePair splits "WxH".
func parsePair(s string) (string, string, bool) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	return strings.TrimSpace(w), strings.TrimSpace(h), ok && w != "" && h != ""
}

// parseCanvas reads "1280x720", "13.333in x 7.5in" or "1280px x 720px".
// Every "x" is tried as the separator since units may contain one.
func parseCanvas(s string) (model.Canvas, error) {
	const op = "parse canvas"
	v := strings.ToLower(strings.TrimSpace(s))
	var lastErr error
	for i := 0; i < len(v); i++ {
		if v[i] != 'x' {
			continue
		}
		w, errW := canvasSide(v[:i])
		h, errH := canvasSide(v[i+1:])
		if errW == nil && errH == nil {
			return model.NewCanvas(w, h), nil
		}
		lastErr = errors.Join(errW, errH)
	}
	return model.Canvas{}, &deckerr.Error{Kind: deckerr.OutOfRange, Op: op, Field: "canvas", Value: s,
		Allowed: "WIDTHxHEIGHT with positive absolute lengths", Err: lastErr}
}

func canvasSide(s string) (float64, error) {
	l, err := model.ParseLength(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	v, ok := l.ToEMU()
	if !ok || v <= 0 {
		return 0, fmt.Errorf("%q is not a positive absolute length", s)
	}
	return v, nil
}

// parseGrid reads "12x10".
func parseGrid(s string) (geometry.Grid, error) {
	c, r, ok := parsePair(s)
	cols, errC := strconv.Atoi(c)
	rows, errR := strconv.Atoi(r)
	if !ok || errC != nil || errR != nil || cols < 1 || rows < 1 {
		return geometry.Grid{}, deckerr.Field(deckerr.OutOfRange, "parse grid", "grid", s, "COLUMNSxROWS, both >= 1")
	}
	return geometry.Grid{Columns: cols, Rows: rows}, nil
}

type resolveReport struct {
	Left   float64           `json:"left"`
	Top    float64           `json:"top"`
	Width  float64           `json:"width"`
	Height float64           `json:"height"`
	EMU    model.EMUGeometry `json:"emu"`
}

func (a *app) resolveCmd() *cobra.Command {
	var canvasFlag, posFlag, sizeFlag, gridFlag, imageFlag string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a position and size against a canvas",
		Long: `Resolve a position and size to absolute geometry without opening a deck.

Positions:
  {"left":"50%","top":"50%"}        percent of the canvas
  {"left":"1in","top":"72pt"}       absolute lengths
  {"anchor":"center","offset_y":"-1in"}
  {"grid":"C4"} or {"grid":"B2:D4"} grid cell or span

Sizes:
  {"width":"20%","height":"10%"} or {"width":"4in","height":"auto"}

Examples:
  deckforge resolve --canvas 1280x720 --position '{"left":"50%","top":"50%"}' --size '{"width":"20%","height":"10%"}'
  deckforge resolve --canvas 13.333inx7.5in --grid 12x10 --position '{"grid":"C4"}'
  deckforge resolve --canvas 12192000x6858000 --position '{"anchor":"center"}' --image logo.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			canvas, err := parseCanvas(canvasFlag)
			if err != nil {
				return err
			}
			pos, size, err := parsePlacement(posFlag, sizeFlag)
			if err != nil {
				return err
			}
			allow := a.cfg.Placement.AllowOutOfBounds
			if err := pos.Validate(allow); err != nil {
				return err
			}
			if size != nil {
				if err := size.Validate(allow); err != nil {
					return err
				}
			}

			opts := geometry.Options{Grid: a.cfg.GridSpec()}
			if gridFlag != "" {
				if opts.Grid, err = parseGrid(gridFlag); err != nil {
					return err
				}
			}
			if imageFlag != "" {
				img, err := media.DecodeFile(imageFlag)
				if err != nil {
					return err
				}
				a.logger.Debug("decoded image", "path", imageFlag, "format", img.Format,
					"width", img.Width, "height", img.Height)
				opts.Intrinsic = img.Intrinsic()
			}

			g, err := geometry.Resolve(pos, size, canvas, opts)
			if err != nil {
				return err
			}
			report := resolveReport{Left: g.Left, Top: g.Top, Width: g.Width, Height: g.Height, EMU: g.EMU()}
			return a.emit(cmd, report, func(w io.Writer) {
				label(w, "Position")
				fmt.Fprintf(w, "%s, %s\n", num(g.Left), num(g.Top))
				label(w, "Size")
				fmt.Fprintf(w, "%s x %s\n", num(g.Width), num(g.Height))
				if !g.Within(canvas) {
					colorWarn.Fprintln(w, "warning: geometry extends past the canvas")
				}
			})
		},
	}
	cmd.Flags().StringVar(&canvasFlag, "canvas", "", "Canvas size WIDTHxHEIGHT in EMU or with units")
	cmd.Flags().StringVar(&posFlag, "position", "", "Position as a JSON object")
	cmd.Flags().StringVar(&sizeFlag, "size", "", "Size as a JSON object")
	cmd.Flags().StringVar(&gridFlag, "grid", "", "Grid COLUMNSxROWS (default from config)")
	cmd.Flags().StringVar(&imageFlag, "image", "", "Image whose natural size supplies auto and missing sizes")
	_ = cmd.MarkFlagRequired("canvas")
	_ = cmd.MarkFlagRequired("position")
	return cmd
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (a *app) contrastCmd() *cobra.Command {
	var large bool
	var require string

	cmd := &cobra.Command{
		Use:   "contrast FOREGROUND BACKGROUND",
		Short: "Check the WCAG contrast ratio of two colors",
		Long: `Compute the WCAG 2 contrast ratio of two hex colors and report AA and AAA
compliance. Large text (18pt, or 14pt bold) uses the lower thresholds.

Examples:
  deckforge contrast 0070C0 FFFFFF
  deckforge contrast '#777777' '#ffffff' --large
  deckforge contrast 333333 F5F5F5 --require aaa`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := strings.ToLower(require)
			if level != "" && level != "aa" && level != "aaa" {
				return fmt.Errorf("--require must be aa or aaa, got %q", require)
			}
			r, err := contrast.Check(args[0], args[1], large)
			if err != nil {
				return err
			}
			err = a.emit(cmd, r, func(w io.Writer) {
				label(w, "Colors")
				fmt.Fprintf(w, "%s on %s\n", r.FG, r.BG)
				label(w, "Ratio")
				fmt.Fprintf(w, "%.2f:1\n", r.Ratio)
				verdict(w, "AA", r.PassesAA)
				verdict(w, "AAA", r.PassesAAA)
			})
			if err != nil {
				return err
			}

			switch {
			case level == "aa" && !r.PassesAA:
				return fmt.Errorf("contrast %.2f:1 is below AA", r.Ratio)
			case level == "aaa" && !r.PassesAAA:
				return fmt.Errorf("contrast %.2f:1 is below AAA", r.Ratio)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&large, "large", false, "Evaluate as large text")
	cmd.Flags().StringVar(&require, "require", "", "Fail unless the level is met: aa or aaa")
	return cmd
}

func verdict(w io.Writer, level string, ok bool) {
	label(w, level)
	if ok {
		colorPass.Fprintln(w, "PASS")
		return
	}
	colorFail.Fprintln(w, "FAIL")
}

type changeReport struct {
	Path     string             `json:"path"`
	Before   string             `json:"before"`
	After    string             `json:"after"`
	Changed  bool               `json:"changed"`
	Geometry *model.EMUGeometry `json:"geometry,omitempty"`
	Overlaps []int              `json:"overlaps,omitempty"`
	SavedTo  string             `json:"saved_to,omitempty"`
}

// overlapping returns the IDs of the shapes that share a region with shape
// id. Only siblings are compared, since group members use the group's
// coordinate space.
func overlapping(shapes []pptx.Shape, id int) []int {
	for i := range shapes {
		if shapes[i].ID != id {
			if ids := overlapping(shapes[i].Children, id); ids != nil {
				return ids
			}
			continue
		}
		target := shapes[i].Geometry
		ids := []int{}
		if target == nil {
			return ids
		}
		for _, other := range shapes {
			if other.ID == id || other.Geometry == nil {
				continue
			}
			if target.Geometry().Overlaps(other.Geometry.Geometry()) {
				ids = append(ids, other.ID)
			}
		}
		return ids
	}
	return nil
}

func (a *app) printChange(cmd *cobra.Command, r changeReport) error {
	return a.emit(cmd, r, func(w io.Writer) {
		if !r.Changed {
			colorWarn.Fprintln(w, "no change")
			return
		}
		if g := r.Geometry; g != nil {
			label(w, "Geometry")
			fmt.Fprintf(w, "x=%d y=%d cx=%d cy=%d\n", g.X, g.Y, g.Cx, g.Cy)
		}
		for _, id := range r.Overlaps {
			colorWarn.Fprintf(w, "warning: overlaps shape #%d\n", id)
		}
		label(w, "Saved")
		fmt.Fprintln(w, r.SavedTo)
		label(w, "Fingerprint")
		fmt.Fprintln(w, r.After)
	})
}

// editWait returns the editor for path with --wait applied when given.
func (a *app) editWait(cmd *cobra.Command, path string, wait time.Duration) *deckforge.Editor {
	ed := a.editor(path)
	if cmd.Flags().Changed("wait") {
		ed = ed.Wait(wait)
	}
	return ed
}

func (a *app) setGeometryCmd() *cobra.Command {
	var slide, shape int
	var posFlag, sizeFlag, output string
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "set-geometry FILE",
		Short: "Move and resize a shape",
		Long: `Place a shape using a position and an optional size, then save the deck.
Without --size the shape keeps its current extent, or takes the grid span for
grid positions. An auto side keeps the aspect ratio of a picture's image or of
the shape's current extent.

Examples:
  deckforge set-geometry deck.pptx --slide 0 --shape 3 --position '{"grid":"B2:D4"}'
  deckforge set-geometry deck.pptx --slide 1 --shape 2 --position '{"anchor":"center"}'
  deckforge set-geometry deck.pptx --slide 1 --shape 4 --position '{"left":"10%","top":"10%"}' --size '{"width":"3in","height":"auto"}' --wait 30s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, size, err := parsePlacement(posFlag, sizeFlag)
			if err != nil {
				return err
			}

			report := changeReport{Path: args[0]}
			err = a.editWait(cmd, args[0], wait).RunContext(cmd.Context(), func(s *session.Session) error {
				change, err := s.SetGeometry(slide, shape, pos, size)
				if err != nil {
					return err
				}
				report.Before, report.After, report.Changed = change.Before, change.After, change.Changed()

				doc, err := s.Document()
				if err != nil {
					return err
				}
				if sh, err := doc.Shape(slide, shape); err == nil {
					report.Geometry = sh.Geometry
				}
				if sl, err := doc.Slide(slide); err == nil {
					report.Overlaps = overlapping(sl.Shapes, shape)
				}
				if !change.Changed() {
					return nil
				}
				report.SavedTo = savedTo(s, output)
				return s.Save(output)
			})
			if err != nil {
				return err
			}
			return a.printChange(cmd, report)
		},
	}
	cmd.Flags().IntVar(&slide, "slide", 0, "Slide index (0-based)")
	cmd.Flags().IntVar(&shape, "shape", 0, "Shape ID on the slide")
	cmd.Flags().StringVar(&posFlag, "position", "", "Position as a JSON object")
	cmd.Flags().StringVar(&sizeFlag, "size", "", "Size as a JSON object")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Save to this path instead of overwriting FILE")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait this long for a lock held elsewhere (default from config)")
	_ = cmd.MarkFlagRequired("shape")
	_ = cmd.MarkFlagRequired("position")
	return cmd
}

func savedTo(s *session.Session, output string) string {
	if output == "" {
		return s.Path()
	}
	return output
}

func (a *app) moveSlideCmd() *cobra.Command {
	var from, to int
	var output string
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "move-slide FILE",
		Short: "Move a slide to a new position",
		Long: `Move the slide at --from to --to (both 0-based) and save the deck. Slide
IDs are kept, so the slides keep their identity.

Examples:
  deckforge move-slide deck.pptx --from 0 --to 2
  deckforge move-slide deck.pptx --from 3 --to 0 --output reordered.pptx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := changeReport{Path: args[0]}
			err := a.editWait(cmd, args[0], wait).RunContext(cmd.Context(), func(s *session.Session) error {
				change, err := s.MoveSlide(from, to)
				if err != nil {
					return err
				}
				report.Before, report.After, report.Changed = change.Before, change.After, change.Changed()
				if !change.Changed() {
					return nil
				}
				report.SavedTo = savedTo(s, output)
				return s.Save(output)
			})
			if err != nil {
				return err
			}
			return a.printChange(cmd, report)
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "Current slide index (0-based)")
	cmd.Flags().IntVar(&to, "to", 0, "New slide index (0-based)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Save to this path instead of overwriting FILE")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait this long for a lock held elsewhere (default from config)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
