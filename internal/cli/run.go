package cli

import (
	"context"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/errs"
)

// Run is the process entry point. It builds the
// global flag set, dispatches to the named subcommand using the
// caller-supplied App, and returns the process exit code.
func Run(a *app.App, stdout, stderr io.Writer, args []string) int {
	globalFlags := flag.NewFlagSet("xlkit", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.SetOutput(discard{})

	format := globalFlags.String("format", "json", "output format: json|csv")
	compact := globalFlags.Bool("compact", false, "emit compact JSON")
	quiet := globalFlags.Bool("quiet", false, "suppress all stderr output: warning lines and the error envelope")

	if err := globalFlags.Parse(args); err != nil {
		NewIO(stdout, stderr, false).Fail(errs.Newf(errs.CodeInvalidArgument, "%v", err))

		return 1
	}

	rest := globalFlags.Args()

	io := NewIO(stdout, stderr, *compact)
	if *quiet {
		io.errOut = discardWriter{}
	}

	if *format == "csv" {
		io.Fail(errs.New(errs.CodeOutputFormatUnsupp, "csv output is reserved and not yet supported"))

		return 1
	}

	if *format != "json" {
		io.Fail(errs.Newf(errs.CodeInvalidArgument, "unknown --format %q", *format))

		return 1
	}

	if len(rest) == 0 {
		io.Fail(errs.New(errs.CodeInvalidArgument, "no command provided"))

		return 1
	}

	commands := AllCommands(a)

	for _, cmd := range commands {
		if cmd.Name() == rest[0] {
			return cmd.Run(context.Background(), io, rest[1:])
		}
	}

	io.Fail(errs.Newf(errs.CodeInvalidArgument, "unknown command %q", rest[0]).
		WithHint(errs.Suggest(rest[0], commandNames(commands)), "known commands: "+strings.Join(commandNames(commands), ", ")))

	return 1
}

func commandNames(cmds []*Command) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name()
	}

	return names
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
