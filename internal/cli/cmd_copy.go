package cli

import (
	"bytes"
	"context"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/errs"
	pkgfs "github.com/xlkit/xlkit/pkg/fs"
)

type copyResult struct {
	Source       string `json:"source"`
	Dest         string `json:"dest"`
	BytesWritten int    `json:"bytes_written"`
}

func newCopyCommand(a *app.App) *Command {
	flags := flag.NewFlagSet("copy", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "copy <source> <dest>",
		Short: "copy a workbook file to a new path",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			source, err := requireArg(args, 0, "source")
			if err != nil {
				return err
			}

			dest, err := requireArg(args, 1, "dest")
			if err != nil {
				return err
			}

			data, err := os.ReadFile(source)
			if err != nil {
				return errs.Newf(errs.CodeFileNotFound, "cannot read %q: %v", source, err).WithPath(source)
			}

			writer := pkgfs.NewAtomicWriter(pkgfs.NewReal())
			if err := writer.Write(dest, bytes.NewReader(data), pkgfs.AtomicWriteOptions{SyncDir: true, Perm: 0o640}); err != nil {
				return errs.Newf(errs.CodeCommandFailed, "write %q: %v", dest, err)
			}

			return o.PrintJSON(copyResult{Source: source, Dest: dest, BytesWritten: len(data)})
		},
	}
}
