package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/errs"
	"github.com/xlkit/xlkit/internal/recalc"
)

type recalculateResult struct {
	File           string   `json:"file"`
	Backend        string   `json:"backend"`
	DurationMs     int64    `json:"duration_ms"`
	CellsEvaluated int      `json:"cells_evaluated"`
	EvalErrors     []string `json:"eval_errors"`
}

func newRecalculateCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("recalculate", flag.ContinueOnError)
	timeoutMS := fs.Int64("timeout-ms", 0, "cancel the recalc after this many milliseconds (0 = no timeout)")
	backendFlag := fs.String("backend", "", "backend token (defaults to the app's configured recalc_backend)")

	return &Command{
		Flags: fs,
		Usage: "recalculate <file>",
		Short: "evaluate every formula in a workbook and write cached results back",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			path, err := requireArg(args, 0, "file")
			if err != nil {
				return err
			}

			backend := a.Recalc

			if *backendFlag != "" {
				selected, err := recalc.Select(*backendFlag)
				if err != nil {
					return err
				}

				backend = selected
			}

			if backend == nil {
				return errs.New(errs.CodeUnavailableCapability, "no recalc backend is available")
			}

			result, err := backend.Recalculate(path, *timeoutMS)
			if err != nil {
				return errs.Newf(errs.CodeCommandFailed, "recalculate %q: %v", path, err)
			}

			return o.PrintJSON(recalculateResult{
				File:           path,
				Backend:        backend.Name(),
				DurationMs:     result.DurationMs,
				CellsEvaluated: result.CellsEvaluated,
				EvalErrors:     result.EvalErrors,
			})
		},
	}
}
