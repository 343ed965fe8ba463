package cli

import (
	"context"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/errs"
)

// Command defines one CLI subcommand with unified help generation,
// adapted from tk's internal/cli.Command.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Long  string
	Exec  func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the one-line help entry for the global command list.
func (c *Command) HelpLine() string {
	return "  " + padRight(c.Usage, 32) + c.Short
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}

	return s + strings.Repeat(" ", width-len(s))
}

// Run parses flags and executes the command, writing the structured
// error envelope on failure and returning the process exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(discard{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		o.Fail(errs.Newf(errs.CodeInvalidArgument, "%v", err))

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		var structured *errs.Error
		if errors.As(err, &structured) {
			o.Fail(structured)
		} else {
			o.Fail(errs.Newf(errs.CodeCommandFailed, "%v", err))
		}

		return 1
	}

	return o.Finish()
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
