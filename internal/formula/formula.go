package formula

import "fmt"

// ShiftFormula parses raw (a full formula string, leading "=" optional),
// shifts every eligible reference by (deltaCol, deltaRow), and renders the
// result back to a canonical "=..." formula string.
func ShiftFormula(raw string, deltaCol, deltaRow int, mode RelativeMode) (string, error) {
	ast, err := Parse(raw)
	if err != nil {
		return "", fmt.Errorf("formula: parse: %w", err)
	}

	shifted, err := Shift(ast, deltaCol, deltaRow, mode)
	if err != nil {
		return "", fmt.Errorf("formula: shift: %w", err)
	}

	return "=" + Canonical(shifted), nil
}

// References walks ast and returns every Reference it contains, in
// left-to-right, depth-first order. Used by internal/recalc to build the
// per-cell dependency set.
func References(n *Node) []*Reference {
	var out []*Reference
	collectReferences(n, &out)

	return out
}

func collectReferences(n *Node, out *[]*Reference) {
	if n == nil {
		return
	}

	switch n.Kind {
	case KindReference:
		*out = append(*out, n.Ref)
	case KindUnary:
		collectReferences(n.Operand, out)
	case KindBinary:
		collectReferences(n.Left, out)
		collectReferences(n.Right, out)
	case KindFunction:
		for _, a := range n.Args {
			collectReferences(a, out)
		}
	case KindArray:
		for _, row := range n.Rows {
			for _, c := range row {
				collectReferences(c, out)
			}
		}
	}
}
