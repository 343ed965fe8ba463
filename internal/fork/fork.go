// Package fork implements a copy-on-write fork registry: isolated
// working copies of base workbooks, path-boundary enforcement on
// every fork/target path, staged (preview-only) edits, and background TTL
// cleanup. The registration/lifecycle shape and its SQLite-backed durable
// index are grounded on tk's internal/store.Store (WAL journal, schema
// version pragma, reindex-on-mismatch) since fork entries, like tickets,
// need to survive process restarts without leaking orphaned work files.
package fork

import (
	"time"
)

// Entry is one fork's registration record.
type Entry struct {
	ForkID       string
	BasePath     string
	WorkPath     string
	CreatedAt    time.Time
	LastTouched  time.Time
	RecalcNeeded bool
}

// CellEdit is one cell mutation. Formula values are
// stored without a leading "=".
type CellEdit struct {
	Address    string
	Value      string
	IsFormula  bool
}

// StagedChange is a preview-only operation recorded against a fork (spec
// §3 "StagedChange", §9 "Staged changes are value types"). Sheet and Edits
// capture the staged cell edits; applying it re-executes those edits
// against the fork's current state rather than replaying a stored delta.
type StagedChange struct {
	ChangeID  string
	ForkID    string
	Label     string
	CreatedAt time.Time
	Sheet     string
	Edits     []CellEdit
}

// RecalcResult is what a successful recalculate reports.
type RecalcResult struct {
	DurationMS     int64
	CellsEvaluated int
	EvalErrors     []string
}
