package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/errs"
	"github.com/xlkit/xlkit/internal/recalc"
)

type formulaTraceResult struct {
	File      string       `json:"file"`
	Sheet     string       `json:"sheet"`
	Cell      string       `json:"cell"`
	Direction string       `json:"direction"`
	Refs      []recalc.Ref `json:"refs"`
}

func newFormulaTraceCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("formula-trace", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "formula-trace <file> <sheet> <cell> <precedents|dependents>",
		Short: "list a cell's direct precedents or dependents",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := requireArg(args, 0, "file")
			if err != nil {
				return err
			}

			sheet, err := requireArg(args, 1, "sheet")
			if err != nil {
				return err
			}

			cell, err := requireArg(args, 2, "cell")
			if err != nil {
				return err
			}

			direction, err := requireArg(args, 3, "precedents|dependents")
			if err != nil {
				return err
			}

			if direction != "precedents" && direction != "dependents" {
				return errs.Newf(errs.CodeInvalidArgument, "direction must be precedents or dependents, got %q", direction)
			}

			f, err := openWorkbook(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if err := requireSheet(f, sheet); err != nil {
				return err
			}

			var refs []recalc.Ref

			if direction == "precedents" {
				refs, err = recalc.Precedents(f, sheet, cell)
			} else {
				refs, err = recalc.Dependents(f, sheet, cell)
			}

			if err != nil {
				return errs.Newf(errs.CodeCommandFailed, "trace %s!%s: %v", sheet, cell, err)
			}

			return o.PrintJSON(formulaTraceResult{File: path, Sheet: sheet, Cell: cell, Direction: direction, Refs: refs})
		},
	}
}
