package recalc

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelizeBackend recalculates workbooks in-process using
// github.com/xuri/excelize/v2's own formula evaluator for arithmetic,
// while this package supplies the surrounding dependency graph, cycle
// detection, cancellation, and cached-result writeback. Follows the
// excelize-based DAG recalculation approach in OmniMCP-AI's excelize fork
// (batch_dag.go), adapted to the public excelize API rather than that
// fork's patched internals.
type ExcelizeBackend struct{}

// NewExcelizeBackend constructs the default, always-available backend.
func NewExcelizeBackend() *ExcelizeBackend { return &ExcelizeBackend{} }

func (b *ExcelizeBackend) IsAvailable() bool { return true }
func (b *ExcelizeBackend) Name() string      { return "excelize" }

// errCancelled is returned internally by the evaluation loop when the
// cancel flag trips; Recalculate translates it into a structured timeout
// for the caller.
type errCancelled struct{}

func (errCancelled) Error() string { return "recalc: cancelled" }

// Recalculate implements Backend. On any error the
// file is left untouched: the open *excelize.File is discarded without a
// Save call.
func (b *ExcelizeBackend) Recalculate(path string, timeoutMs int64) (Result, error) {
	start := clock()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("recalc: open %s: %w", path, err)
	}

	defer func() { _ = f.Close() }()

	g, parseWarnings := buildGraph(f)

	var cancelled atomic.Bool

	var stopWatchdog chan struct{}

	if timeoutMs > 0 {
		stopWatchdog = make(chan struct{})

		go watchdog(time.Duration(timeoutMs)*time.Millisecond, &cancelled, stopWatchdog)
	}

	result, evalErr := evaluate(f, g, &cancelled)

	if stopWatchdog != nil {
		close(stopWatchdog)
	}

	if evalErr != nil {
		if _, ok := evalErr.(errCancelled); ok {
			return Result{}, fmt.Errorf("recalc: timed out after %dms", timeoutMs)
		}

		return Result{}, fmt.Errorf("recalc: %w", evalErr)
	}

	for _, w := range parseWarnings {
		if len(result.EvalErrors) >= maxCollectedErrors {
			break
		}

		result.EvalErrors = append(result.EvalErrors, w)
	}

	if err := f.Save(); err != nil {
		return Result{}, fmt.Errorf("recalc: save %s: %w", path, err)
	}

	result.DurationMs = clock().Sub(start).Milliseconds()

	return result, nil
}

// watchdog sets cancelled after d unless stop fires first.
func watchdog(d time.Duration, cancelled *atomic.Bool, stop <-chan struct{}) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		cancelled.Store(true)
	case <-stop:
	}
}

// evaluate walks g's strongly connected components in dependency-first
// order, evaluating acyclic cells via f.CalcCellValue and writing back
// each computed result. A detected cycle produces an eval_error for every
// participating cell rather than aborting the whole recalculation (spec
// §4.4 "Detect strongly connected components... each cycle produces an
// eval_error").
func evaluate(f *excelize.File, g *graph, cancelled *atomic.Bool) (Result, error) {
	var result Result

	for _, component := range stronglyConnectedComponents(g) {
		if cancelled.Load() {
			return Result{}, errCancelled{}
		}

		if isCycle(g, component) {
			for _, key := range component {
				writeErrorCell(f, key)

				if len(result.EvalErrors) < maxCollectedErrors {
					result.EvalErrors = append(result.EvalErrors,
						fmt.Sprintf("%s!%s: circular reference detected", key.Sheet, key.Addr))
				}

				result.CellsEvaluated++
			}

			continue
		}

		key := component[0]
		if err := evaluateCell(f, key, &result); err != nil {
			return Result{}, err
		}
	}

	return result, nil
}

// isCycle reports whether component is a genuine cycle: either more than
// one cell (a true SCC) or a single self-referential cell (A2 depending
// on A2).
func isCycle(g *graph, component []cellKey) bool {
	if len(component) > 1 {
		return true
	}

	key := component[0]
	n := g.nodes[key]

	for _, d := range n.deps {
		if d == key {
			return true
		}
	}

	return false
}

func writeErrorCell(f *excelize.File, key cellKey) {
	_ = f.SetCellValue(key.Sheet, key.Addr, refError)
}

const refError = "#REF!"

// errorTokens are the Excel error literals CalcCellValue may surface;
// seeing one in the result or error text means the formula evaluated to
// an error, not that the engine itself failed.
var errorTokens = []string{
	"#DIV/0!", "#N/A", "#NAME?", "#NULL!", "#NUM!", "#REF!", "#VALUE!", "#CALC!", "#SPILL!",
}

func matchErrorToken(s string) (string, bool) {
	for _, tok := range errorTokens {
		if strings.Contains(s, tok) {
			return tok, true
		}
	}

	return "", false
}

// evaluateCell computes and writes back the cached result for a single
// formula cell, appending to result.
func evaluateCell(f *excelize.File, key cellKey, result *Result) error {
	value, err := f.CalcCellValue(key.Sheet, key.Addr, excelize.Options{RawCellValue: true})
	if err != nil {
		if tok, ok := matchErrorToken(err.Error()); ok {
			writeErrorCellToken(f, key, tok)

			if len(result.EvalErrors) < maxCollectedErrors {
				result.EvalErrors = append(result.EvalErrors, fmt.Sprintf("%s!%s: %s", key.Sheet, key.Addr, tok))
			}

			result.CellsEvaluated++

			return nil
		}

		return fmt.Errorf("eval %s!%s: %w", key.Sheet, key.Addr, err)
	}

	if tok, ok := matchErrorToken(value); ok {
		writeErrorCellToken(f, key, tok)

		if len(result.EvalErrors) < maxCollectedErrors {
			result.EvalErrors = append(result.EvalErrors, fmt.Sprintf("%s!%s: %s", key.Sheet, key.Addr, tok))
		}

		result.CellsEvaluated++

		return nil
	}

	if value == "" {
		if err := f.SetCellValue(key.Sheet, key.Addr, nil); err != nil {
			return fmt.Errorf("clear %s!%s: %w", key.Sheet, key.Addr, err)
		}
	} else if err := f.SetCellValue(key.Sheet, key.Addr, value); err != nil {
		return fmt.Errorf("writeback %s!%s: %w", key.Sheet, key.Addr, err)
	}

	result.CellsEvaluated++

	return nil
}

func writeErrorCellToken(f *excelize.File, key cellKey, tok string) {
	_ = f.SetCellValue(key.Sheet, key.Addr, tok)
}
