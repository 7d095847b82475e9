package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCell parses a cell reference like "A1" or "AA10" into column and row
// indices (0-indexed).
func ParseCell(ref string) (col, row int, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}

	// Find where letters end and numbers begin
	i := 0
	for i < len(ref) && isLetter(ref[i]) {
		i++
	}

	if i == 0 {
		return 0, 0, fmt.Errorf("invalid cell reference %q: no column letters", ref)
	}
	if i == len(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference %q: no row number", ref)
	}

	col = ColumnToIndex(ref[:i])
	if col < 0 {
		return 0, 0, fmt.Errorf("invalid column %q", ref[:i])
	}

	// Rows are 1-indexed in the reference
	rowPart := ref[i:]
	for j := 0; j < len(rowPart); j++ {
		if rowPart[j] < '0' || rowPart[j] > '9' {
			return 0, 0, fmt.Errorf("invalid row %q", rowPart)
		}
	}
	rowNum, err := strconv.Atoi(rowPart)
	if err != nil || rowNum < 1 {
		return 0, 0, fmt.Errorf("invalid row %q", rowPart)
	}

	return col, rowNum - 1, nil
}

// ParseCellRange parses "B2:D4" into its corner cells (0-indexed). A single
// cell reference yields a one-cell range. Reversed corners are normalized.
func ParseCellRange(ref string) (startCol, startRow, endCol, endRow int, err error) {
	parts := strings.Split(ref, ":")
	switch len(parts) {
	case 1:
		startCol, startRow, err = ParseCell(parts[0])
		return startCol, startRow, startCol, startRow, err
	case 2:
	default:
		return 0, 0, 0, 0, fmt.Errorf("invalid range reference %q", ref)
	}

	startCol, startRow, err = ParseCell(parts[0])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid start cell: %w", err)
	}
	endCol, endRow, err = ParseCell(parts[1])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid end cell: %w", err)
	}

	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	return startCol, startRow, endCol, endRow, nil
}

// maxColumnLetters bounds column references so the index fits in an int
// on every platform.
const maxColumnLetters = 6

// ColumnToIndex converts a column letter(s) to a 0-indexed column number.
// A=0, B=1, ..., Z=25, AA=26, AB=27, etc. Empty, non-letter or overlong
// references give -1.
func ColumnToIndex(col string) int {
	if col == "" || len(col) > maxColumnLetters {
		return -1
	}
	col = strings.ToUpper(col)
	result := 0
	for _, c := range col {
		if c < 'A' || c > 'Z' {
			return -1
		}
		result = result*26 + int(c-'A') + 1
	}
	return result - 1
}

// IndexToColumn converts a 0-indexed column number to column letter(s).
// 0=A, 1=B, ..., 25=Z, 26=AA, 27=AB, etc.
func IndexToColumn(index int) string {
	if index < 0 {
		return ""
	}

	result := ""
	index++
	for index > 0 {
		index--
		result = string(rune('A'+index%26)) + result
		index /= 26
	}
	return result
}

// CellRef creates a cell reference string from column and row indices (0-indexed).
func CellRef(col, row int) string {
	return fmt.Sprintf("%s%d", IndexToColumn(col), row+1)
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
