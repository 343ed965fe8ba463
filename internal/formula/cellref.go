package formula

import (
	"strconv"
	"strings"

	"github.com/xlkit/xlkit/internal/address"
)

// parseCellRef parses an A1-form reference, possibly with "$" absolute
// markers (e.g. "$A$1", "A$1", "$A1"), into a CellRef.
func parseCellRef(s string) (CellRef, error) {
	colAbs := false
	rowAbs := false

	i := 0
	if i < len(s) && s[i] == '$' {
		colAbs = true
		i++
	}

	start := i
	for i < len(s) && isAlphaByte(s[i]) {
		i++
	}

	colStr := s[start:i]

	if i < len(s) && s[i] == '$' {
		rowAbs = true
		i++
	}

	rowStr := s[i:]

	col, err := address.ColumnFromLetters(colStr)
	if err != nil {
		return CellRef{}, err
	}

	row, err := strconv.Atoi(rowStr)
	if err != nil {
		return CellRef{}, err
	}

	return CellRef{Col: col, Row: row, ColAbs: colAbs, RowAbs: rowAbs}, nil
}

func isAlphaByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// formatCellRef renders a CellRef back to A1 form with "$" markers.
func formatCellRef(c CellRef) string {
	var b strings.Builder

	if c.ColAbs {
		b.WriteByte('$')
	}

	b.WriteString(address.ColumnToLetters(c.Col))

	if c.RowAbs {
		b.WriteByte('$')
	}

	b.WriteString(strconv.Itoa(c.Row))

	return b.String()
}
