package cli

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"
	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/errs"
)

type findValueMatch struct {
	Sheet   string `json:"sheet"`
	Address string `json:"address"`
	Value   string `json:"value"`
}

type findValueResult struct {
	File    string           `json:"file"`
	Query   string           `json:"query"`
	Mode    string           `json:"mode"`
	Matches []findValueMatch `json:"matches"`
}

func newFindValueCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("find-value", flag.ContinueOnError)
	sheetFlag := fs.String("sheet", "", "restrict the search to one sheet")
	mode := fs.String("mode", "value", "value|label")

	return &Command{
		Flags: fs,
		Usage: "find-value <file> <query>",
		Short: "search cell values for a substring or exact label",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := requireArg(args, 0, "file")
			if err != nil {
				return err
			}

			query, err := requireArg(args, 1, "query")
			if err != nil {
				return err
			}

			if *mode != "value" && *mode != "label" {
				return errs.Newf(errs.CodeInvalidArgument, "unknown --mode %q", *mode)
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

			matches := []findValueMatch{}

			for _, sheet := range sheets {
				matches = append(matches, findInSheet(f, sheet, query, *mode)...)
			}

			return o.PrintJSON(findValueResult{File: path, Query: query, Mode: *mode, Matches: matches})
		},
	}
}

func findInSheet(f *excelize.File, sheet, query, mode string) []findValueMatch {
	var out []findValueMatch

	lowerQuery := strings.ToLower(query)

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

		for colIdx, value := range cols {
			if !matchesQuery(value, lowerQuery, mode) {
				continue
			}

			addr, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				continue
			}

			out = append(out, findValueMatch{Sheet: sheet, Address: addr, Value: value})
		}
	}

	return out
}

// matchesQuery applies "value" mode (case-insensitive substring match on
// whatever the cell resolves to) or "label" mode (case-insensitive exact
// match, intended for header/label lookups).
func matchesQuery(cellValue, lowerQuery, mode string) bool {
	if cellValue == "" {
		return false
	}

	lowerValue := strings.ToLower(cellValue)

	if mode == "label" {
		return lowerValue == lowerQuery
	}

	return strings.Contains(lowerValue, lowerQuery)
}
