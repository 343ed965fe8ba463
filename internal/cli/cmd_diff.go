package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/diff"
	"github.com/xlkit/xlkit/internal/errs"
)

type diffCellResult struct {
	Sheet   string     `json:"sheet"`
	Kind    diff.Kind  `json:"kind"`
	Address string     `json:"address"`
	Old     *diff.Cell `json:"old,omitempty"`
	New     *diff.Cell `json:"new,omitempty"`
}

type diffResult struct {
	Original    string             `json:"original"`
	Modified    string             `json:"modified"`
	ChangeCount int                `json:"change_count"`
	Cells       []diffCellResult   `json:"cells"`
	Names       []diff.NameChange  `json:"names,omitempty"`
	Tables      []diff.TableChange `json:"tables,omitempty"`
}

// newDiffCommand builds the `diff` command: a streaming cell-level diff plus structural diffs for
// defined names and tables.
func newDiffCommand(a *app.App) *Command {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "diff <original> <modified>",
		Short: "compute a semantic diff between two workbooks",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			original, err := requireArg(args, 0, "original")
			if err != nil {
				return err
			}

			modified, err := requireArg(args, 1, "modified")
			if err != nil {
				return err
			}

			cellChanges, err := diff.Streaming(original, modified, nil)
			if err != nil {
				return errs.Newf(errs.CodeCommandFailed, "diff %q vs %q: %v", original, modified, err)
			}

			names, err := diff.Names(original, modified)
			if err != nil {
				return errs.Newf(errs.CodeCommandFailed, "diff defined names: %v", err)
			}

			tables, err := diff.Tables(original, modified)
			if err != nil {
				return errs.Newf(errs.CodeCommandFailed, "diff tables: %v", err)
			}

			cells := make([]diffCellResult, 0, len(cellChanges))
			for _, c := range cellChanges {
				cells = append(cells, diffCellResult{Sheet: c.Sheet, Kind: c.Kind, Address: c.Address, Old: c.Old, New: c.New})
			}

			return o.PrintJSON(diffResult{
				Original:    original,
				Modified:    modified,
				ChangeCount: len(cells) + len(names) + len(tables),
				Cells:       cells,
				Names:       names,
				Tables:      tables,
			})
		},
	}
}
