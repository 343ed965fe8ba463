package diff

import (
	"fmt"
	"sort"
)

// SkipObserver, if non-nil, is notified of every sheet Streaming decides
// not to stream-parse because its raw XML hash matched. Tests inject this to assert
// unchanged sheets are never decoded.
type SkipObserver func(sheet string)

// Streaming computes the cell-level diff between two on-disk .xlsx files
// by reading zip parts directly, skipping any sheet whose raw XML is
// byte-identical in both archives.
func Streaming(basePath, modifiedPath string, onSkip SkipObserver) ([]CellChange, error) {
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

	basePaths, err := base.sheetPaths()
	if err != nil {
		return nil, fmt.Errorf("diff: resolve base sheets: %w", err)
	}

	modPaths, err := mod.sheetPaths()
	if err != nil {
		return nil, fmt.Errorf("diff: resolve modified sheets: %w", err)
	}

	baseSST, err := base.sharedStrings()
	if err != nil {
		return nil, fmt.Errorf("diff: base shared strings: %w", err)
	}

	modSST, err := mod.sharedStrings()
	if err != nil {
		return nil, fmt.Errorf("diff: modified shared strings: %w", err)
	}

	sheets := unionSheetNames(basePaths, modPaths)

	var changes []CellChange

	for _, sheet := range sheets {
		basePart, inBase := basePaths[sheet]
		modPart, inMod := modPaths[sheet]

		if inBase && inMod {
			baseHash, err := base.sheetHash8(basePart)
			if err != nil {
				return nil, err
			}

			modHash, err := mod.sheetHash8(modPart)
			if err != nil {
				return nil, err
			}

			if baseHash != "" && modHash != "" && baseHash == modHash {
				if onSkip != nil {
					onSkip(sheet)
				}

				continue
			}
		}

		baseCells, err := readSheetCells(base, basePart, baseSST, inBase)
		if err != nil {
			return nil, fmt.Errorf("diff: stream sheet %q in base: %w", sheet, err)
		}

		modCells, err := readSheetCells(mod, modPart, modSST, inMod)
		if err != nil {
			return nil, fmt.Errorf("diff: stream sheet %q in modified: %w", sheet, err)
		}

		changes = append(changes, mergeSheetCells(sheet, baseCells, modCells)...)
	}

	return changes, nil
}

func readSheetCells(a *archive, partName string, sst []string, present bool) ([]addrCell, error) {
	if !present {
		return nil, nil
	}

	f, ok := a.byNam[partName]
	if !ok {
		return nil, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}

	defer func() { _ = rc.Close() }()

	return decodeSheetCells(rc, sst)
}

// mergeSheetCells co-iterates two address-sorted slices and emits exactly
// the changed cells for sheet, in row-major order.
func mergeSheetCells(sheet string, base, mod []addrCell) []CellChange {
	baseByAddr := make(map[string]Cell, len(base))
	for _, c := range base {
		baseByAddr[c.Addr] = c.Cell
	}

	modByAddr := make(map[string]Cell, len(mod))
	for _, c := range mod {
		modByAddr[c.Addr] = c.Cell
	}

	addrs := map[string]bool{}
	for a := range baseByAddr {
		addrs[a] = true
	}

	for a := range modByAddr {
		addrs[a] = true
	}

	sortedAddrs := addressSortedKeys(addrs)

	var changes []CellChange

	for _, a := range sortedAddrs {
		var oldCell, newCell *Cell

		if c, ok := baseByAddr[a]; ok {
			cc := c
			oldCell = &cc
		}

		if c, ok := modByAddr[a]; ok {
			cc := c
			newCell = &cc
		}

		kind, changed := classify(oldCell, newCell)
		if !changed {
			continue
		}

		changes = append(changes, CellChange{Sheet: sheet, Kind: kind, Address: a, Old: oldCell, New: newCell})
	}

	return changes
}

func unionSheetNames(a, b map[string]string) []string {
	set := map[string]bool{}
	for name := range a {
		set[name] = true
	}

	for name := range b {
		set[name] = true
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
