package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
)

type sheetProfile struct {
	Name        string `json:"name"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	HasFormulas bool   `json:"has_formulas"`
	TableCount  int    `json:"table_count"`
}

type describeResult struct {
	File         string         `json:"file"`
	Capabilities []string       `json:"capabilities"`
	Sheets       []sheetProfile `json:"sheets"`
}

// newDescribeCommand builds the describe/table-profile command; both
// names describe the same workbook-summary operation.
func newDescribeCommand(a *app.App, usage string) *Command {
	fs := flag.NewFlagSet(usage, flag.ContinueOnError)
	sheetFlag := fs.String("sheet", "", "restrict the profile to one sheet")

	return &Command{
		Flags: fs,
		Usage: usage + " <file>",
		Short: "summarize a workbook's sheets and capabilities",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := requireArg(args, 0, "file")
			if err != nil {
				return err
			}

			f, err := openWorkbook(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			sheets := f.GetSheetList()

			if *sheetFlag != "" {
				if err := requireSheet(f, *sheetFlag); err != nil {
					return err
				}

				sheets = []string{*sheetFlag}
			}

			profiles := make([]sheetProfile, 0, len(sheets))

			for _, sheet := range sheets {
				rows, cols := sheetDimensions(f, sheet)
				tables, _ := f.GetTables(sheet)

				profiles = append(profiles, sheetProfile{
					Name:        sheet,
					Rows:        rows,
					Cols:        cols,
					HasFormulas: sheetHasFormula(f, sheet),
					TableCount:  len(tables),
				})
			}

			caps := []string{}
			if hasAnyFormula(f) {
				caps = append(caps, "formulas")
			}

			if len(f.GetVBAProject()) > 0 {
				caps = append(caps, "macros")
			}

			return o.PrintJSON(describeResult{File: path, Capabilities: caps, Sheets: profiles})
		},
	}
}
