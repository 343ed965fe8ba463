package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
)

type sheetOverviewResult struct {
	File        string `json:"file"`
	Sheet       string `json:"sheet"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	HasFormulas bool   `json:"has_formulas"`
	TableCount  int    `json:"table_count"`
}

func newSheetOverviewCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("sheet-overview", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "sheet-overview <file> <sheet>",
		Short: "report dimensions and capabilities of one sheet",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := requireArg(args, 0, "file")
			if err != nil {
				return err
			}

			sheet, err := requireArg(args, 1, "sheet")
			if err != nil {
				return err
			}

			f, err := openWorkbook(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if err := requireSheet(f, sheet); err != nil {
				return err
			}

			rows, cols := sheetDimensions(f, sheet)

			tables, _ := f.GetTables(sheet)

			return o.PrintJSON(sheetOverviewResult{
				File:        path,
				Sheet:       sheet,
				Rows:        rows,
				Cols:        cols,
				HasFormulas: sheetHasFormula(f, sheet),
				TableCount:  len(tables),
			})
		},
	}
}
