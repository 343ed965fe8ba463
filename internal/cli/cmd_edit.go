package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/errs"
	"github.com/xlkit/xlkit/internal/warnings"
)

type editResult struct {
	File         string `json:"file"`
	Sheet        string `json:"sheet"`
	EditsApplied int    `json:"edits_applied"`
}

func newEditCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "edit <file> <sheet> <edit>...",
		Short: "apply shorthand cell edits (A1=value or A1==FORMULA)",
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
				return errs.New(errs.CodeInvalidArgument, "at least one edit must be given")
			}

			edits := make([]editShorthand, 0, len(args)-2)

			for _, raw := range args[2:] {
				edit, err := parseEditShorthand(raw)
				if err != nil {
					return err
				}

				edits = append(edits, edit)
			}

			f, err := openWorkbook(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if err := requireSheet(f, sheet); err != nil {
				return err
			}

			for _, edit := range edits {
				if edit.AmbiguousPrefix {
					o.Warn(warnings.FormulaPrefix, "edit value begins with \"=\" but was not given as a formula", "use A1==FORMULA to set a formula")
				}

				o.Warn(warnings.ShorthandEdit, "edit "+edit.Address+" parsed via shorthand syntax", "")

				if edit.IsFormula {
					if err := f.SetCellFormula(sheet, edit.Address, edit.Value); err != nil {
						return errs.Newf(errs.CodeCommandFailed, "set formula %s!%s: %v", sheet, edit.Address, err)
					}

					continue
				}

				if err := f.SetCellValue(sheet, edit.Address, edit.Value); err != nil {
					return errs.Newf(errs.CodeCommandFailed, "set value %s!%s: %v", sheet, edit.Address, err)
				}
			}

			if err := f.Save(); err != nil {
				return errs.Newf(errs.CodeCommandFailed, "save %q: %v", path, err)
			}

			if sheetHasFormula(f, sheet) {
				o.Warn(warnings.StaleFormulas, "sheet has formula cells after this edit", "call recalculate before trusting cached formula results")
			}

			return o.PrintJSON(editResult{File: path, Sheet: sheet, EditsApplied: len(edits)})
		},
	}
}
