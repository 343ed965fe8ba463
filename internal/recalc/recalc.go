// Package recalc implements the formula-aware recalculation engine: build
// a per-workbook dependency graph, topologically evaluate every formula
// cell with cooperative cancellation, detect circular references, and
// write each computed value back as the cell's cached result.
//
// The engine is a capability object ({Recalculate, IsAvailable, Name}),
// following the prior Rust prototype's recalc backend shape and tk's
// pattern of selecting a concrete implementation at startup without
// leaking it to callers (tk's internal/store repository vs. in-memory
// variants).
package recalc

import "time"

// Result is the report returned by a successful Recalculate call (spec
// §4.4 contract).
type Result struct {
	DurationMs     int64
	CellsEvaluated int
	EvalErrors     []string
}

// maxCollectedErrors bounds eval_errors.
const maxCollectedErrors = 200

// Backend is the pluggable recalculation capability. Implementations may be
// in-process (ExcelizeBackend) or wrap an external process; callers never
// depend on a specific one.
type Backend interface {
	// Recalculate opens the workbook at path, evaluates every formula
	// cell, writes back cached results, and saves the file. If
	// timeoutMs is > 0, evaluation is cancelled cooperatively once the
	// deadline passes and no partial file is written.
	Recalculate(path string, timeoutMs int64) (Result, error)
	IsAvailable() bool
	Name() string
}

// clock is overridable in tests that need deterministic duration
// reporting; production code uses time.Now.
var clock = time.Now
