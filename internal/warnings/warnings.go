// Package warnings collects non-fatal, actionable warnings attached to a
// response rather than raised as errors, adapted from tk's
// internal/cli.IO.WarnLLM/Finish (warnings are flushed to stderr at both
// ends of output so they survive truncation or piping).
package warnings

// Code identifies a recognized warning kind.
type Code string

const (
	StaleFormulas        Code = "WARN_STALE_FORMULAS"
	ShorthandEdit        Code = "WARN_SHORTHAND_EDIT"
	FormulaPrefix        Code = "WARN_FORMULA_PREFIX"
	AutowidthFormulaNoCa Code = "WARN_AUTOWIDTH_FORMULA_NO_CACHED"
)

// Warning is a single actionable warning: what went wrong and what the
// caller should do about it.
type Warning struct {
	Code   Code
	Issue  string
	Action string
}

// Collector accumulates warnings for a single operation/response.
// Not safe for concurrent use by multiple goroutines without external
// synchronization, mirroring tk's IO type.
type Collector struct {
	items []Warning
}

// Add records a warning.
func (c *Collector) Add(code Code, issue, action string) {
	c.items = append(c.items, Warning{Code: code, Issue: issue, Action: action})
}

// Items returns the collected warnings in insertion order.
func (c *Collector) Items() []Warning {
	return c.items
}

// Empty reports whether no warnings were collected.
func (c *Collector) Empty() bool {
	return len(c.items) == 0
}
