package recalc

import (
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/xlkit/xlkit/internal/address"
	"github.com/xlkit/xlkit/internal/formula"
)

// cellKey identifies one cell across all sheets of a workbook.
type cellKey struct {
	Sheet string
	Addr  string // A1 form, normalized without "$" markers
}

// maxRangeExpansion bounds how many individual cells a single range
// reference contributes as dependency edges. Ranges larger than this are
// treated as opaque (no edges contributed) rather than blowing up the
// graph; a formula referencing a huge range still evaluates correctly via
// excelize's own resolution, it just isn't ordered relative to every cell
// in that range for cycle-detection purposes.
const maxRangeExpansion = 20000

// node is one formula cell in the dependency graph.
type node struct {
	key     cellKey
	formula string
	deps    []cellKey
}

// graph is the per-recalc dependency graph. It is built fresh for each
// Recalculate call and discarded afterward.
type graph struct {
	nodes map[cellKey]*node
	order []cellKey // insertion order, for deterministic iteration
}

func newGraph() *graph {
	return &graph{nodes: map[cellKey]*node{}}
}

// buildGraph scans every sheet of f for formula cells and records each
// one's parsed reference dependencies. Unparsable formulas are still
// added as nodes (with no resolved deps) so evaluation attempts and
// reports an eval_error rather than silently skipping the cell.
func buildGraph(f *excelize.File) (*graph, []string) {
	g := newGraph()

	var parseWarnings []string

	sheets := f.GetSheetList()
	sort.Strings(sheets)

	for _, sheet := range sheets {
		rows, err := f.Rows(sheet)
		if err != nil {
			continue
		}

		rowIdx := 0

		for rows.Next() {
			rowIdx++

			cols, err := rows.Columns()
			if err != nil {
				continue
			}

			for colIdx := range cols {
				cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
				if err != nil {
					continue
				}

				f2, err := f.GetCellFormula(sheet, cellName)
				if err != nil || f2 == "" {
					continue
				}

				key := cellKey{Sheet: sheet, Addr: cellName}

				deps, perr := resolveDeps(sheet, f2)
				if perr != nil {
					parseWarnings = append(parseWarnings, sheet+"!"+cellName+": "+perr.Error())
				}

				g.nodes[key] = &node{key: key, formula: f2, deps: deps}
				g.order = append(g.order, key)
			}
		}

		_ = rows.Close()
	}

	return g, parseWarnings
}

// resolveDeps parses raw (a formula without its leading "=") in the
// context of defaultSheet and returns every cell it depends on, expanding
// range references up to maxRangeExpansion cells. Named ranges, tables,
// and external references contribute no edges.
func resolveDeps(defaultSheet, raw string) ([]cellKey, error) {
	ast, err := formula.Parse("=" + raw)
	if err != nil {
		return nil, err
	}

	var deps []cellKey

	for _, ref := range formula.References(ast) {
		sheet := ref.Sheet
		if sheet == "" {
			sheet = defaultSheet
		}

		switch ref.Kind {
		case formula.RefCell:
			deps = append(deps, cellKey{Sheet: sheet, Addr: address.Format(ref.Start.Col, ref.Start.Row)})
		case formula.RefRange:
			deps = append(deps, expandRange(sheet, ref.Start, ref.End)...)
		default:
			// named ranges, tables, externals: opaque, no edges.
		}
	}

	return deps, nil
}

func expandRange(sheet string, start, end formula.CellRef) []cellKey {
	c0, c1 := start.Col, end.Col
	if c1 < c0 {
		c0, c1 = c1, c0
	}

	r0, r1 := start.Row, end.Row
	if r1 < r0 {
		r0, r1 = r1, r0
	}

	count := (c1 - c0 + 1) * (r1 - r0 + 1)
	if count > maxRangeExpansion || count <= 0 {
		return nil
	}

	out := make([]cellKey, 0, count)

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			out = append(out, cellKey{Sheet: sheet, Addr: address.Format(col, row)})
		}
	}

	return out
}
