package cli

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/xlkit/xlkit/internal/address"
	"github.com/xlkit/xlkit/internal/errs"
)

// requireArg returns args[idx] or an INVALID_ARGUMENT error naming the
// missing positional parameter.
func requireArg(args []string, idx int, name string) (string, error) {
	if idx >= len(args) {
		return "", errs.Newf(errs.CodeInvalidArgument, "missing required argument %q", name)
	}

	return args[idx], nil
}

// hasAnyFormula reports whether any sheet of f contains a formula cell.
func hasAnyFormula(f *excelize.File) bool {
	for _, sheet := range f.GetSheetList() {
		if sheetHasFormula(f, sheet) {
			return true
		}
	}

	return false
}

// sheetHasFormula reports whether sheet contains a formula cell.
func sheetHasFormula(f *excelize.File, sheet string) bool {
	rows, err := f.Rows(sheet)
	if err != nil {
		return false
	}

	defer func() { _ = rows.Close() }()

	rowIdx := 0

	for rows.Next() {
		rowIdx++

		cols, err := rows.Columns()
		if err != nil {
			return false
		}

		for colIdx := range cols {
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				continue
			}

			formula, _ := f.GetCellFormula(sheet, cellName)
			if formula != "" {
				return true
			}
		}
	}

	return false
}

// sheetDimensions returns the used row and column counts of sheet,
// derived by scanning every row (there is no cheap dimension lookup for
// an arbitrary excelize.Rows iterator).
func sheetDimensions(f *excelize.File, sheet string) (rows, cols int) {
	iter, err := f.Rows(sheet)
	if err != nil {
		return 0, 0
	}

	defer func() { _ = iter.Close() }()

	for iter.Next() {
		rows++

		colVals, err := iter.Columns()
		if err != nil {
			continue
		}

		if len(colVals) > cols {
			cols = len(colVals)
		}
	}

	return rows, cols
}

// openWorkbook opens path as an xlsx file, translating a missing file into
// the structured FILE_NOT_FOUND code commands surface on stderr.
func openWorkbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errs.Newf(errs.CodeFileNotFound, "cannot open %q: %v", path, err).WithPath(path)
	}

	return f, nil
}

// requireSheet verifies sheet exists in f, returning a SHEET_NOT_FOUND
// error with a did_you_mean suggestion drawn from the sheet list.
func requireSheet(f *excelize.File, sheet string) error {
	sheets := f.GetSheetList()
	for _, s := range sheets {
		if s == sheet {
			return nil
		}
	}

	return errs.Newf(errs.CodeSheetNotFound, "sheet %q not found", sheet).
		WithHint(errs.Suggest(sheet, sheets), "").
		WithPath(sheet)
}

// soleSheet returns the only sheet of f, or an error demanding --sheet
// when f has more than one.
func soleSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 1 {
		return sheets[0], nil
	}

	return "", errs.New(errs.CodeInvalidArgument, "workbook has multiple sheets; --sheet is required")
}

// parseRange splits a range expression ("A1", "A1:B10") into its start and
// end addresses. A bare cell reference yields start == end.
func parseRange(raw string) (address.Address, address.Address, error) {
	before, after, found := strings.Cut(raw, ":")
	if !found {
		a, err := address.Parse(raw)
		if err != nil {
			return address.Address{}, address.Address{}, errs.Newf(errs.CodeInvalidArgument, "invalid range %q: %v", raw, err)
		}

		return a, a, nil
	}

	start, err := address.Parse(before)
	if err != nil {
		return address.Address{}, address.Address{}, errs.Newf(errs.CodeInvalidArgument, "invalid range %q: %v", raw, err)
	}

	end, err := address.Parse(after)
	if err != nil {
		return address.Address{}, address.Address{}, errs.Newf(errs.CodeInvalidArgument, "invalid range %q: %v", raw, err)
	}

	return start, end, nil
}

// expandRange enumerates every address in row-major order between start
// and end inclusive.
func expandRange(start, end address.Address) []string {
	c0, c1 := start.Col, end.Col
	if c1 < c0 {
		c0, c1 = c1, c0
	}

	r0, r1 := start.Row, end.Row
	if r1 < r0 {
		r0, r1 = r1, r0
	}

	out := make([]string, 0, (c1-c0+1)*(r1-r0+1))

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			out = append(out, address.Format(col, row))
		}
	}

	return out
}

// editShorthand is one parsed "A1=value" or "A1==FORMULA" CLI argument.
type editShorthand struct {
	Address   string
	Value     string
	IsFormula bool
	// AmbiguousPrefix is true when Value itself begins with "=" but the
	// edit was not written in formula shorthand, meaning the author may
	// have meant a formula and forgotten the second "=".
	AmbiguousPrefix bool
}

// parseEditShorthand parses one edit argument of the form "A1=value" or
// "A1==FORMULA" (double "=" marks a formula, matching the CLI's shorthand
// edit syntax).
func parseEditShorthand(raw string) (editShorthand, error) {
	addr, rest, found := strings.Cut(raw, "=")
	addr = strings.TrimSpace(addr)

	if !found || addr == "" {
		return editShorthand{}, errs.Newf(errs.CodeInvalidEditSyntax, "edit %q must be of the form A1=value or A1==FORMULA", raw)
	}

	if _, err := address.Parse(addr); err != nil {
		return editShorthand{}, errs.Newf(errs.CodeInvalidEditSyntax, "edit %q has an invalid cell address: %v", raw, err)
	}

	rest = strings.TrimLeft(rest, " \t")

	if formulaBody, isFormula := strings.CutPrefix(rest, "="); isFormula {
		return editShorthand{Address: addr, Value: strings.TrimSpace(formulaBody), IsFormula: true}, nil
	}

	return editShorthand{Address: addr, Value: rest, AmbiguousPrefix: strings.HasPrefix(rest, "=")}, nil
}
