package recalc

import (
	"github.com/xuri/excelize/v2"
)

// Ref identifies one cell for trace output, exported so callers outside
// this package (the CLI's formula-trace command) can report precedent and
// dependent cells without reaching into the unexported dependency graph.
type Ref struct {
	Sheet   string `json:"sheet"`
	Address string `json:"address"`
}

// Precedents returns every cell that sheet!addr's formula directly
// references. Non-formula cells and cells with no resolvable cell/range
// references return an empty slice.
func Precedents(f *excelize.File, sheet, addr string) ([]Ref, error) {
	raw, err := f.GetCellFormula(sheet, addr)
	if err != nil || raw == "" {
		return nil, nil
	}

	deps, err := resolveDeps(sheet, raw)
	if err != nil {
		return nil, err
	}

	return refsFromKeys(deps), nil
}

// Dependents returns every formula cell across the workbook whose direct
// precedents include sheet!addr.
func Dependents(f *excelize.File, sheet, addr string) ([]Ref, error) {
	g, _ := buildGraph(f)

	target := cellKey{Sheet: sheet, Addr: addr}

	var out []Ref

	for _, key := range g.order {
		n := g.nodes[key]
		for _, dep := range n.deps {
			if dep == target {
				out = append(out, Ref{Sheet: key.Sheet, Address: key.Addr})

				break
			}
		}
	}

	return out, nil
}

func refsFromKeys(keys []cellKey) []Ref {
	out := make([]Ref, 0, len(keys))

	seen := map[cellKey]bool{}

	for _, k := range keys {
		if seen[k] {
			continue
		}

		seen[k] = true

		out = append(out, Ref{Sheet: k.Sheet, Address: k.Addr})
	}

	return out
}
