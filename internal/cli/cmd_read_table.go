package cli

import (
	"context"

	"github.com/xuri/excelize/v2"
	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/address"
	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/errs"
)

type readTableResult struct {
	File    string     `json:"file"`
	Sheet   string     `json:"sheet"`
	Range   string     `json:"range"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

func newReadTableCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("read-table", flag.ContinueOnError)
	sheetFlag := fs.String("sheet", "", "sheet to read (defaults to the workbook's only sheet)")
	rangeFlag := fs.String("range", "", "A1-form range to read (defaults to the sheet's used range)")
	tableFormat := fs.String("table-format", "json", "json|values|csv")

	return &Command{
		Flags: fs,
		Usage: "read-table <file>",
		Short: "read a rectangular block of cells as a table",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := requireArg(args, 0, "file")
			if err != nil {
				return err
			}

			if *tableFormat == "csv" {
				return errs.New(errs.CodeOutputFormatUnsupp, "table-format csv is reserved and not yet supported")
			}

			if *tableFormat != "json" && *tableFormat != "values" {
				return errs.Newf(errs.CodeInvalidArgument, "unknown --table-format %q", *tableFormat)
			}

			f, err := openWorkbook(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			sheet := *sheetFlag
			if sheet == "" {
				sheet, err = soleSheet(f)
				if err != nil {
					return err
				}
			} else if err := requireSheet(f, sheet); err != nil {
				return err
			}

			rows, rangeLabel, err := readTableRows(f, sheet, *rangeFlag)
			if err != nil {
				return err
			}

			result := readTableResult{File: path, Sheet: sheet, Range: rangeLabel, Rows: rows}

			if *tableFormat == "json" && len(rows) > 0 {
				result.Headers = rows[0]
				result.Rows = rows[1:]
			}

			return o.PrintJSON(result)
		},
	}
}

func readTableRows(f *excelize.File, sheet, rangeFlag string) ([][]string, string, error) {
	if rangeFlag != "" {
		start, end, err := parseRange(rangeFlag)
		if err != nil {
			return nil, "", err
		}

		out := make([][]string, 0, end.Row-start.Row+1)

		for row := start.Row; row <= end.Row; row++ {
			record := make([]string, 0, end.Col-start.Col+1)

			for col := start.Col; col <= end.Col; col++ {
				v, _ := f.GetCellValue(sheet, address.Format(col, row))
				record = append(record, v)
			}

			out = append(out, record)
		}

		return out, rangeFlag, nil
	}

	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, "", errs.Newf(errs.CodeCommandFailed, "read sheet %q: %v", sheet, err)
	}

	return all, "used-range", nil
}
