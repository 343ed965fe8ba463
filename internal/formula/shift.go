package formula

import "fmt"

// RelativeMode selects which axes of a cell/range reference are eligible
// to shift, independent of the reference's own "$" flags: ordinary
// relative fill, and the two "paste special, keep one axis fixed"
// variants used when inserting whole columns or whole rows.
type RelativeMode int

const (
	// ModeExcel shifts each axis unless that axis's own "$" flag is set,
	// matching a normal fill-handle drag.
	ModeExcel RelativeMode = iota
	// ModeAbsCols never shifts the column axis, regardless of "$", and
	// shifts the row axis unless row-absolute. Used when rows are
	// inserted/deleted and column position must stay put.
	ModeAbsCols
	// ModeAbsRows never shifts the row axis, regardless of "$", and
	// shifts the column axis unless column-absolute. Used when columns
	// are inserted/deleted.
	ModeAbsRows
)

// Shift returns a new AST with every eligible cell/range reference moved
// by (deltaCol, deltaRow). Named ranges, table references, and external
// references are never touched. Shift fails if any eligible
// reference would move to column < 1 or row < 1.
func Shift(n *Node, deltaCol, deltaRow int, mode RelativeMode) (*Node, error) {
	if n == nil {
		return nil, nil
	}

	switch n.Kind {
	case KindLiteral:
		return &Node{Kind: KindLiteral, Literal: n.Literal}, nil

	case KindReference:
		ref, err := shiftReference(n.Ref, deltaCol, deltaRow, mode)
		if err != nil {
			return nil, err
		}

		return &Node{Kind: KindReference, Ref: ref}, nil

	case KindUnary:
		operand, err := Shift(n.Operand, deltaCol, deltaRow, mode)
		if err != nil {
			return nil, err
		}

		return &Node{Kind: KindUnary, UnaryOp: n.UnaryOp, Operand: operand}, nil

	case KindBinary:
		left, err := Shift(n.Left, deltaCol, deltaRow, mode)
		if err != nil {
			return nil, err
		}

		right, err := Shift(n.Right, deltaCol, deltaRow, mode)
		if err != nil {
			return nil, err
		}

		return &Node{Kind: KindBinary, BinaryOp: n.BinaryOp, Left: left, Right: right}, nil

	case KindFunction:
		args := make([]*Node, len(n.Args))

		for i, a := range n.Args {
			shifted, err := Shift(a, deltaCol, deltaRow, mode)
			if err != nil {
				return nil, err
			}

			args[i] = shifted
		}

		return &Node{Kind: KindFunction, FuncName: n.FuncName, Args: args}, nil

	case KindArray:
		rows := make([][]*Node, len(n.Rows))

		for i, row := range n.Rows {
			out := make([]*Node, len(row))

			for j, c := range row {
				shifted, err := Shift(c, deltaCol, deltaRow, mode)
				if err != nil {
					return nil, err
				}

				out[j] = shifted
			}

			rows[i] = out
		}

		return &Node{Kind: KindArray, Rows: rows}, nil

	default:
		return nil, fmt.Errorf("formula: shift: unknown node kind %d", n.Kind)
	}
}

func shiftReference(r *Reference, deltaCol, deltaRow int, mode RelativeMode) (*Reference, error) {
	out := *r

	switch r.Kind {
	case RefNamedRange, RefTable, RefExternal:
		return &out, nil

	case RefCell:
		start, err := shiftCellRef(r.Start, deltaCol, deltaRow, mode)
		if err != nil {
			return nil, err
		}

		out.Start = start

		return &out, nil

	case RefRange:
		start, err := shiftCellRef(r.Start, deltaCol, deltaRow, mode)
		if err != nil {
			return nil, err
		}

		end, err := shiftCellRef(r.End, deltaCol, deltaRow, mode)
		if err != nil {
			return nil, err
		}

		out.Start = start
		out.End = end

		return &out, nil

	default:
		return &out, nil
	}
}

func shiftCellRef(c CellRef, deltaCol, deltaRow int, mode RelativeMode) (CellRef, error) {
	out := c

	if mode == ModeAbsCols {
		out.ColAbs = true
	} else if !c.ColAbs {
		out.Col = c.Col + deltaCol
		if out.Col < 1 {
			return CellRef{}, fmt.Errorf("formula: shift moves column before A (col=%d)", out.Col)
		}
	}

	if mode == ModeAbsRows {
		out.RowAbs = true
	} else if !c.RowAbs {
		out.Row = c.Row + deltaRow
		if out.Row < 1 {
			return CellRef{}, fmt.Errorf("formula: shift moves row before 1 (row=%d)", out.Row)
		}
	}

	return out, nil
}
