package cli

import (
	"context"
	"sort"

	"github.com/xuri/excelize/v2"
	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/errs"
)

type formulaMapEntry struct {
	Address string `json:"address"`
	Formula string `json:"formula"`
}

type formulaMapResult struct {
	File    string            `json:"file"`
	Sheet   string            `json:"sheet"`
	Entries []formulaMapEntry `json:"entries"`
}

func newFormulaMapCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("formula-map", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "cap the number of entries returned (0 = unbounded)")
	sortBy := fs.String("sort-by", "address", "address|length")

	return &Command{
		Flags: fs,
		Usage: "formula-map <file> <sheet>",
		Short: "list every formula cell on a sheet",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := requireArg(args, 0, "file")
			if err != nil {
				return err
			}

			sheet, err := requireArg(args, 1, "sheet")
			if err != nil {
				return err
			}

			if *sortBy != "address" && *sortBy != "length" {
				return errs.Newf(errs.CodeInvalidArgument, "unknown --sort-by %q", *sortBy)
			}

			f, err := openWorkbook(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if err := requireSheet(f, sheet); err != nil {
				return err
			}

			entries := collectFormulas(f, sheet)

			switch *sortBy {
			case "length":
				sort.SliceStable(entries, func(i, j int) bool { return len(entries[i].Formula) > len(entries[j].Formula) })
			default:
				sort.SliceStable(entries, func(i, j int) bool { return entries[i].Address < entries[j].Address })
			}

			if *limit > 0 && len(entries) > *limit {
				entries = entries[:*limit]
			}

			return o.PrintJSON(formulaMapResult{File: path, Sheet: sheet, Entries: entries})
		},
	}
}

func collectFormulas(f *excelize.File, sheet string) []formulaMapEntry {
	var out []formulaMapEntry

	rows, err := f.Rows(sheet)
	if err != nil {
		return out
	}

	defer func() { _ = rows.Close() }()

	rowIdx := 0

	for rows.Next() {
		rowIdx++

		cols, err := rows.Columns()
		if err != nil {
			continue
		}

		for colIdx := range cols {
			addr, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				continue
			}

			formula, _ := f.GetCellFormula(sheet, addr)
			if formula == "" {
				continue
			}

			out = append(out, formulaMapEntry{Address: addr, Formula: formula})
		}
	}

	return out
}
