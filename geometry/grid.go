package geometry

import (
	"fmt"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/model"
)

// DefaultColumns is the column count of the default layout grid.
const DefaultColumns = 12

// DefaultRows is the row count of the default layout grid.
const DefaultRows = 12

// Grid partitions a canvas into Columns x Rows equal cells addressed like a
// spreadsheet: columns are letters, rows are 1-based numbers.
type Grid struct {
	Columns int
	Rows    int
}

// DefaultGrid returns the 12x12 grid.
func DefaultGrid() Grid {
	return Grid{Columns: DefaultColumns, Rows: DefaultRows}
}

// orDefault fills zero dimensions with the defaults.
func (g Grid) orDefault() Grid {
	if g.Columns == 0 {
		g.Columns = DefaultColumns
	}
	if g.Rows == 0 {
		g.Rows = DefaultRows
	}
	return g
}

// Validate rejects negative dimensions. Zero means the default.
func (g Grid) Validate() error {
	if g.Columns < 0 || g.Rows < 0 {
		return deckerr.Field(deckerr.OutOfRange, "validate grid", "grid",
			fmt.Sprintf("%dx%d", g.Columns, g.Rows), "positive columns and rows, or 0 for the default")
	}
	return nil
}

// CellSize returns the size of one cell on the canvas.
func (g Grid) CellSize(canvas model.Canvas) model.Size {
	g = g.orDefault()
	return model.Size{
		Width:  canvas.Width / float64(g.Columns),
		Height: canvas.Height / float64(g.Rows),
	}
}

// Span resolves a cell or cell range ("C4", "B2:D4") to its geometry on the
// canvas.
func (g Grid) Span(ref string, canvas model.Canvas) (model.Geometry, error) {
	const op = "resolve grid cell"
	g = g.orDefault()
	if g.Columns < 0 || g.Rows < 0 {
		return model.Geometry{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "grid",
			fmt.Sprintf("%dx%d", g.Columns, g.Rows), "positive columns and rows")
	}

	c0, r0, c1, r1, err := ParseCellRange(ref)
	if err != nil {
		return model.Geometry{}, &deckerr.Error{
			Kind:    deckerr.InvalidPositionSpec,
			Op:      op,
			Field:   "grid",
			Value:   ref,
			Allowed: "<column letters><row number>, e.g. C4 or B2:D4",
			Err:     err,
		}
	}

	allowed := fmt.Sprintf("A1..%s", CellRef(g.Columns-1, g.Rows-1))
	if c1 >= g.Columns || r1 >= g.Rows {
		return model.Geometry{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "grid", ref, allowed)
	}

	cell := g.CellSize(canvas)
	return model.Geometry{
		Left:   float64(c0) * cell.Width,
		Top:    float64(r0) * cell.Height,
		Width:  float64(c1-c0+1) * cell.Width,
		Height: float64(r1-r0+1) * cell.Height,
	}, nil
}
