// Package cli implements the xlkit command-line front end: a
// Command registry dispatched by Run, JSON results on stdout, and the
// structured error envelope on stderr. Adapted directly from tk's
// internal/cli (Command{Flags, Usage, Short, Long, Exec}, IO's
// warn-at-both-ends visibility, Run's flag/dispatch/help flow), keeping
// its JSON-envelope/error-envelope shape while swapping the ticket domain
// for the workbook one.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xlkit/xlkit/internal/errs"
	"github.com/xlkit/xlkit/internal/warnings"
)

// IO handles command output with warning visibility at both ends of the
// stream, mirroring tk's internal/cli.IO.
type IO struct {
	out     io.Writer
	errOut  io.Writer
	warn    warnings.Collector
	started bool
	compact bool
}

// NewIO creates an IO writing to out/errOut.
func NewIO(out, errOut io.Writer, compact bool) *IO {
	return &IO{out: out, errOut: errOut, compact: compact}
}

// Warn records an actionable warning.
func (o *IO) Warn(code warnings.Code, issue, action string) {
	o.warn.Add(code, issue, action)
}

// PrintJSON writes v as the command's JSON result to stdout, flushing any
// pending start-of-output warnings first.
func (o *IO) PrintJSON(v any) error {
	o.flushWarningsStart()

	enc := json.NewEncoder(o.out)
	if !o.compact {
		enc.SetIndent("", "  ")
	}

	return enc.Encode(v)
}

// Fail writes e as the structured error envelope to stderr.
func (o *IO) Fail(e *errs.Error) {
	o.flushWarningsStart()

	payload := map[string]string{"code": string(e.Code), "message": e.Message}
	if e.DidYouMean != "" {
		payload["did_you_mean"] = e.DidYouMean
	}

	if e.TryThis != "" {
		payload["try_this"] = e.TryThis
	}

	enc := json.NewEncoder(o.errOut)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// ErrPrintln writes a in a simple line to stderr, used for usage/parse
// errors that precede command dispatch (not the structured envelope).
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish flushes any trailing warnings to stderr and returns the exit
// code warnings imply: 0 normally, unchanged here since warnings never
// fail a command, kept only so callers mirror tk's shape.
func (o *IO) Finish() int {
	o.flushWarningsStart()

	for _, w := range o.warn.Items() {
		_, _ = fmt.Fprintf(o.errOut, "warning: %s: %s (%s)\n", w.Code, w.Issue, w.Action)
	}

	return 0
}

func (o *IO) flushWarningsStart() {
	if o.started || o.warn.Empty() {
		return
	}

	o.started = true

	for _, w := range o.warn.Items() {
		_, _ = fmt.Fprintf(o.errOut, "warning: %s: %s (%s)\n", w.Code, w.Issue, w.Action)
	}
}
