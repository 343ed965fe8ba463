package diff

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// NameKind classifies a defined-name structural change.
type NameKind string

const (
	NameAdded    NameKind = "name_added"
	NameDeleted  NameKind = "name_deleted"
	NameModified NameKind = "name_modified"
)

// NameChange is one defined-name structural record, keyed by
// (name, scope_sheet_id?).
type NameChange struct {
	Name        string   `json:"name"`
	ScopeSheet  string   `json:"scope_sheet,omitempty"` // empty means workbook-scoped
	Kind        NameKind `json:"kind"`
	OldRefersTo string   `json:"old_refers_to,omitempty"`
	NewRefersTo string   `json:"new_refers_to,omitempty"`
}

type namedEntry struct {
	key      string // "name" or "name@sheet"
	name     string
	scope    string
	refersTo string
}

// Names computes the structural diff of workbook-level and sheet-scoped
// defined names between two on-disk .xlsx files, suppressing hidden
// names.
func Names(basePath, modifiedPath string) ([]NameChange, error) {
	base, closeBase, err := openArchive(basePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeBase() }()

	mod, closeMod, err := openArchive(modifiedPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeMod() }()

	baseNames, err := visibleDefinedNames(base)
	if err != nil {
		return nil, fmt.Errorf("diff: base defined names: %w", err)
	}

	modNames, err := visibleDefinedNames(mod)
	if err != nil {
		return nil, fmt.Errorf("diff: modified defined names: %w", err)
	}

	keys := map[string]bool{}
	for k := range baseNames {
		keys[k] = true
	}

	for k := range modNames {
		keys[k] = true
	}

	sortedKeys := make([]string, 0, len(keys))
	for k := range keys {
		sortedKeys = append(sortedKeys, k)
	}

	sort.Strings(sortedKeys)

	var changes []NameChange

	for _, k := range sortedKeys {
		oldEntry, inBase := baseNames[k]
		newEntry, inMod := modNames[k]

		switch {
		case !inBase:
			changes = append(changes, NameChange{Name: newEntry.name, ScopeSheet: newEntry.scope, Kind: NameAdded, NewRefersTo: newEntry.refersTo})
		case !inMod:
			changes = append(changes, NameChange{Name: oldEntry.name, ScopeSheet: oldEntry.scope, Kind: NameDeleted, OldRefersTo: oldEntry.refersTo})
		case oldEntry.refersTo != newEntry.refersTo:
			changes = append(changes, NameChange{
				Name: oldEntry.name, ScopeSheet: oldEntry.scope, Kind: NameModified,
				OldRefersTo: oldEntry.refersTo, NewRefersTo: newEntry.refersTo,
			})
		}
	}

	return changes, nil
}

func visibleDefinedNames(a *archive) (map[string]namedEntry, error) {
	wb, err := a.workbook()
	if err != nil {
		return nil, err
	}

	out := map[string]namedEntry{}

	for _, dn := range wb.DefinedNames.DefinedName {
		if dn.Hidden {
			continue
		}

		scope := ""
		if dn.LocalSheetID != nil && *dn.LocalSheetID >= 0 && *dn.LocalSheetID < len(wb.Sheets.Sheet) {
			scope = wb.Sheets.Sheet[*dn.LocalSheetID].Name
		}

		key := dn.Name
		if scope != "" {
			key = dn.Name + "@" + scope
		}

		out[key] = namedEntry{key: key, name: dn.Name, scope: scope, refersTo: strings.TrimSpace(dn.RefersTo)}
	}

	return out, nil
}

// TableKind classifies a table structural change.
type TableKind string

const (
	TableAdded    TableKind = "table_added"
	TableDeleted  TableKind = "table_deleted"
	TableModified TableKind = "table_modified"
)

// TableChange is one table structural record, keyed by display name.
type TableChange struct {
	Name     string    `json:"name"`
	Kind     TableKind `json:"kind"`
	OldRange string    `json:"old_range,omitempty"`
	NewRange string    `json:"new_range,omitempty"`
}

type tableXMLPart struct {
	DisplayName string `xml:"displayName,attr"`
	Ref         string `xml:"ref,attr"`
}

// Tables computes the structural diff of table displayName/range between
// two on-disk .xlsx files, reading xl/tables/table*.xml parts directly. A
// table part missing displayName is rejected rather than synthesized.
func Tables(basePath, modifiedPath string) ([]TableChange, error) {
	base, closeBase, err := openArchive(basePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeBase() }()

	mod, closeMod, err := openArchive(modifiedPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeMod() }()

	baseTables, err := readTableParts(base)
	if err != nil {
		return nil, fmt.Errorf("diff: base tables: %w", err)
	}

	modTables, err := readTableParts(mod)
	if err != nil {
		return nil, fmt.Errorf("diff: modified tables: %w", err)
	}

	names := map[string]bool{}
	for n := range baseTables {
		names[n] = true
	}

	for n := range modTables {
		names[n] = true
	}

	sortedNames := make([]string, 0, len(names))
	for n := range names {
		sortedNames = append(sortedNames, n)
	}

	sort.Strings(sortedNames)

	var changes []TableChange

	for _, name := range sortedNames {
		oldRange, inBase := baseTables[name]
		newRange, inMod := modTables[name]

		switch {
		case !inBase:
			changes = append(changes, TableChange{Name: name, Kind: TableAdded, NewRange: newRange})
		case !inMod:
			changes = append(changes, TableChange{Name: name, Kind: TableDeleted, OldRange: oldRange})
		case oldRange != newRange:
			changes = append(changes, TableChange{Name: name, Kind: TableModified, OldRange: oldRange, NewRange: newRange})
		}
	}

	return changes, nil
}

func readTableParts(a *archive) (map[string]string, error) {
	out := map[string]string{}

	for name, f := range a.byNam {
		if !strings.HasPrefix(name, "xl/tables/table") || !strings.HasSuffix(name, ".xml") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}

		var part tableXMLPart

		decErr := xml.NewDecoder(rc).Decode(&part)

		_ = rc.Close()

		if decErr != nil {
			return nil, fmt.Errorf("parse %s: %w", name, decErr)
		}

		if part.DisplayName == "" {
			return nil, fmt.Errorf("table part %s has no displayName", name)
		}

		out[part.DisplayName] = part.Ref
	}

	return out, nil
}
