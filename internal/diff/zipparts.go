package diff

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
)

// archive wraps an opened xlsx zip with lookups keyed by zip entry name,
// mirroring the raw-part access the spec's streaming diff needs (spec
// §4.6 "Open both files as zip archives").
type archive struct {
	zr    *zip.Reader
	byNam map[string]*zip.File
}

func openArchive(path string) (*archive, func() error, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("diff: open %s as zip: %w", path, err)
	}

	a := &archive{zr: &zr.Reader, byNam: map[string]*zip.File{}}
	for _, f := range zr.File {
		a.byNam[f.Name] = f
	}

	return a, zr.Close, nil
}

func (a *archive) read(name string) ([]byte, bool, error) {
	f, ok := a.byNam[name]
	if !ok {
		return nil, false, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, true, fmt.Errorf("diff: open zip entry %s: %w", name, err)
	}

	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, true, fmt.Errorf("diff: read zip entry %s: %w", name, err)
	}

	return data, true, nil
}

// sheetHash8 returns an 8-byte-prefix SHA-256 hash of the raw sheet XML,
// hex-encoded, or "" if the part is absent.
func (a *archive) sheetHash8(partName string) (string, error) {
	data, ok, err := a.read(partName)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", nil
	}

	sum := sha256.Sum256(data)

	return fmt.Sprintf("%x", sum[:8]), nil
}

// --- xl/workbook.xml + xl/_rels/workbook.xml.rels resolution ---

type workbookXML struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
	DefinedNames struct {
		DefinedName []rawDefinedName `xml:"definedName"`
	} `xml:"definedNames"`
}

type rawDefinedName struct {
	Name         string `xml:"name,attr"`
	Hidden       bool   `xml:"hidden,attr"`
	LocalSheetID *int   `xml:"localSheetId,attr"`
	RefersTo     string `xml:",chardata"`
}

type relationshipsXML struct {
	Relationship []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// workbook parses a.'s xl/workbook.xml into the raw struct carrying the
// sheet list and defined names.
func (a *archive) workbook() (workbookXML, error) {
	wbData, ok, err := a.read("xl/workbook.xml")
	if err != nil {
		return workbookXML{}, err
	}

	if !ok {
		return workbookXML{}, fmt.Errorf("diff: missing xl/workbook.xml")
	}

	var wb workbookXML
	if err := xml.Unmarshal(wbData, &wb); err != nil {
		return workbookXML{}, fmt.Errorf("diff: parse xl/workbook.xml: %w", err)
	}

	return wb, nil
}

// sheetPaths resolves every sheet name in a.'s xl/workbook.xml to its zip
// entry path via xl/_rels/workbook.xml.rels.
func (a *archive) sheetPaths() (map[string]string, error) {
	wb, err := a.workbook()
	if err != nil {
		return nil, err
	}

	relData, ok, err := a.read("xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("diff: missing xl/_rels/workbook.xml.rels")
	}

	var rels relationshipsXML
	if err := xml.Unmarshal(relData, &rels); err != nil {
		return nil, fmt.Errorf("diff: parse workbook.xml.rels: %w", err)
	}

	targetByID := map[string]string{}
	for _, r := range rels.Relationship {
		targetByID[r.ID] = r.Target
	}

	out := map[string]string{}

	for _, s := range wb.Sheets.Sheet {
		target, ok := targetByID[s.RID]
		if !ok {
			continue
		}

		out[s.Name] = path.Join("xl", target)
	}

	return out, nil
}

// sharedStrings loads xl/sharedStrings.xml into an ordered slice, or nil
// if the part is absent.
func (a *archive) sharedStrings() ([]string, error) {
	data, ok, err := a.read("xl/sharedStrings.xml")
	if err != nil || !ok {
		return nil, err
	}

	var sst struct {
		SI []struct {
			T     string `xml:"t"`
			Runs  []struct {
				T string `xml:"t"`
			} `xml:"r"`
		} `xml:"si"`
	}

	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil, fmt.Errorf("diff: parse sharedStrings.xml: %w", err)
	}

	out := make([]string, len(sst.SI))

	for i, item := range sst.SI {
		if item.T != "" || len(item.Runs) == 0 {
			out[i] = item.T
			continue
		}

		for _, r := range item.Runs {
			out[i] += r.T
		}
	}

	return out, nil
}

// sortedSheetNames returns a's resolved sheet names in stable order, used
// when a sheet set needs deterministic iteration independent of
// workbook.xml's own ordering.
func (a *archive) sortedSheetNames() ([]string, error) {
	paths, err := a.sheetPaths()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}
