package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/errs"
)

type cellValue struct {
	Address string `json:"address"`
	Value   string `json:"value"`
	Formula string `json:"formula,omitempty"`
}

type rangeResult struct {
	Range string      `json:"range"`
	Cells []cellValue `json:"cells"`
}

type rangeValuesResult struct {
	File   string        `json:"file"`
	Sheet  string        `json:"sheet"`
	Ranges []rangeResult `json:"ranges"`
}

func newRangeValuesCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("range-values", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "range-values <file> <sheet> <range>...",
		Short: "read cell values and formulas across one or more ranges",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := requireArg(args, 0, "file")
			if err != nil {
				return err
			}

			sheet, err := requireArg(args, 1, "sheet")
			if err != nil {
				return err
			}

			if len(args) < 3 {
				return errs.New(errs.CodeInvalidArgument, "at least one range must be given")
			}

			f, err := openWorkbook(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if err := requireSheet(f, sheet); err != nil {
				return err
			}

			out := make([]rangeResult, 0, len(args)-2)

			for _, raw := range args[2:] {
				start, end, err := parseRange(raw)
				if err != nil {
					return err
				}

				cells := make([]cellValue, 0, 16)

				for _, addr := range expandRange(start, end) {
					value, _ := f.GetCellValue(sheet, addr)
					formula, _ := f.GetCellFormula(sheet, addr)

					cv := cellValue{Address: addr, Value: value}
					if formula != "" {
						cv.Formula = formula
					}

					cells = append(cells, cv)
				}

				out = append(out, rangeResult{Range: raw, Cells: cells})
			}

			return o.PrintJSON(rangeValuesResult{File: path, Sheet: sheet, Ranges: out})
		},
	}
}
