// Package workbook provides the parsed, shareable WorkbookContext view of a
// workbook, backed by excelize.File. Other packages (cli, diff, fork,
// recalc) also import excelize and work on *excelize.File values directly,
// either obtained from Context.File or opened from a path.
package workbook

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Identity is the caller-supplied identity triple a Context is constructed
// with.
type Identity struct {
	StableID   string
	ShortID    string
	RevisionID string
}

// Capability names a feature the workbook format/content supports.
type Capability string

const (
	CapFormulas Capability = "formulas"
	CapTables   Capability = "tables"
	CapMacros   Capability = "macros"
)

// Context is a parsed, immutable-to-readers view of a workbook. It is
// owned by the cache; readers hold a shared *Context for the duration of
// a read.
type Context struct {
	Identity Identity
	Source   string // filesystem path, fork work_path, or "virtual/<key>"

	file   *excelize.File
	sheets []string
	caps   map[Capability]bool
}

// Load parses an xlsx file from path into a Context carrying identity.
func Load(path string, id Identity) (*Context, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: open %s: %w", path, err)
	}

	return newContext(f, path, id)
}

// LoadBytes parses an xlsx file from an in-memory buffer, used by the
// virtual workspace repository.
func LoadBytes(data []byte, source string, id Identity) (*Context, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("workbook: open virtual %s: %w", source, err)
	}

	return newContext(f, source, id)
}

func newContext(f *excelize.File, source string, id Identity) (*Context, error) {
	sheets := append([]string(nil), f.GetSheetList()...)
	sort.Strings(sheets)

	caps := map[Capability]bool{}

	for _, sheet := range f.GetSheetList() {
		if hasFormula(f, sheet) {
			caps[CapFormulas] = true
		}

		tables, err := f.GetTables(sheet)
		if err == nil && len(tables) > 0 {
			caps[CapTables] = true
		}
	}

	if len(f.GetVBAProject()) > 0 {
		caps[CapMacros] = true
	}

	return &Context{
		Identity: id,
		Source:   source,
		file:     f,
		sheets:   sheets,
		caps:     caps,
	}, nil
}

func hasFormula(f *excelize.File, sheet string) bool {
	rows, err := f.Rows(sheet)
	if err != nil {
		return false
	}

	defer func() { _ = rows.Close() }()

	rowIdx := 0

	for rows.Next() {
		rowIdx++

		cols, err := rows.Columns()
		if err != nil {
			return false
		}

		for colIdx := range cols {
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				continue
			}

			formula, _ := f.GetCellFormula(sheet, cellName)
			if formula != "" {
				return true
			}
		}
	}

	return false
}

// Sheets returns the sheet names in the workbook.
func (c *Context) Sheets() []string {
	return append([]string(nil), c.sheets...)
}

// HasSheet reports whether name is a sheet in this workbook.
func (c *Context) HasSheet(name string) bool {
	for _, s := range c.sheets {
		if s == name {
			return true
		}
	}

	return false
}

// Capabilities returns the capability set detected for this workbook.
func (c *Context) Capabilities() []Capability {
	out := make([]Capability, 0, len(c.caps))
	for capability := range c.caps {
		out = append(out, capability)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// File exposes the underlying excelize.File for packages that need direct
// OOXML access (recalc, fork edits). Context remains logically read-only:
// callers performing mutation must do so against a fork's own loaded
// Context, never a cached, shared one.
func (c *Context) File() *excelize.File {
	return c.file
}

// Close releases the underlying excelize resources.
func (c *Context) Close() error {
	if c.file == nil {
		return nil
	}

	return c.file.Close()
}
