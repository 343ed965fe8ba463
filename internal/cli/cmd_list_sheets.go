package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
)

type listSheetsResult struct {
	File         string   `json:"file"`
	Sheets       []string `json:"sheets"`
	Capabilities []string `json:"capabilities"`
}

func newListSheetsCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("list-sheets", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "list-sheets <file>",
		Short: "list a workbook's sheet names",
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

			caps := []string{}
			if hasAnyFormula(f) {
				caps = append(caps, "formulas")
			}

			if len(f.GetVBAProject()) > 0 {
				caps = append(caps, "macros")
			}

			return o.PrintJSON(listSheetsResult{File: path, Sheets: f.GetSheetList(), Capabilities: caps})
		},
	}
}
