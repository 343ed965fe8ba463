package diff

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/xlkit/xlkit/internal/address"
	"github.com/xlkit/xlkit/internal/workbook"
)

// sheetCell keys the union of cells collected from both workbooks, by
// (sheet, A1-address).
type sheetCell struct {
	Sheet string
	Addr  string
}

// Basic computes the cell-level diff between two fully-parsed workbooks.
// Both contexts are read entirely into memory; Streaming should be
// preferred for large files where only a subset of sheets changed.
func Basic(oldCtx, newCtx *workbook.Context) ([]CellChange, error) {
	oldCells, err := collectCells(oldCtx)
	if err != nil {
		return nil, fmt.Errorf("diff: read old workbook: %w", err)
	}

	newCells, err := collectCells(newCtx)
	if err != nil {
		return nil, fmt.Errorf("diff: read new workbook: %w", err)
	}

	keys := map[sheetCell]bool{}
	for k := range oldCells {
		keys[k] = true
	}

	for k := range newCells {
		keys[k] = true
	}

	sorted := make([]sheetCell, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Sheet != sorted[j].Sheet {
			return sorted[i].Sheet < sorted[j].Sheet
		}

		ai, _ := address.Parse(sorted[i].Addr)
		aj, _ := address.Parse(sorted[j].Addr)

		return address.Less(ai, aj)
	})

	var changes []CellChange

	for _, k := range sorted {
		oldCell := oldCells[k]
		newCell := newCells[k]

		kind, changed := classify(oldCell, newCell)
		if !changed {
			continue
		}

		changes = append(changes, CellChange{
			Sheet:   k.Sheet,
			Kind:    kind,
			Address: k.Addr,
			Old:     oldCell,
			New:     newCell,
		})
	}

	return changes, nil
}

func collectCells(ctx *workbook.Context) (map[sheetCell]*Cell, error) {
	f := ctx.File()
	out := map[sheetCell]*Cell{}

	for _, sheet := range ctx.Sheets() {
		rows, err := f.Rows(sheet)
		if err != nil {
			return nil, fmt.Errorf("rows %s: %w", sheet, err)
		}

		rowIdx := 0

		for rows.Next() {
			rowIdx++

			cols, err := rows.Columns()
			if err != nil {
				_ = rows.Close()

				return nil, fmt.Errorf("columns %s row %d: %w", sheet, rowIdx, err)
			}

			for colIdx, raw := range cols {
				cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
				if err != nil {
					continue
				}

				formula, _ := f.GetCellFormula(sheet, cellName)
				if raw == "" && formula == "" {
					continue
				}

				out[sheetCell{Sheet: sheet, Addr: cellName}] = &Cell{
					Value:     raw,
					Formula:   formula,
					IsFormula: formula != "",
				}
			}
		}

		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close rows %s: %w", sheet, err)
		}
	}

	return out, nil
}
