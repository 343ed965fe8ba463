package diff

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xlkit/xlkit/internal/address"
)

// addrCell is one decoded `<c>` element: its address, resolved text
// value, and formula (if any).
type addrCell struct {
	Addr string
	Cell Cell
}

// decodeSheetCells lazily tokenizes sheet XML, resolving shared-string indices against sst. Empty
// cells (no <v> and no <f>) are omitted, matching the basic-diff
// convention of treating blank as absent.
func decodeSheetCells(r io.Reader, sst []string) ([]addrCell, error) {
	dec := xml.NewDecoder(r)

	var out []addrCell

	var (
		inCell  bool
		addr    string
		cellT   string
		value   string
		formula string
		hasV    bool
		hasF    bool
	)

	var textTarget *string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("diff: decode sheet xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "c":
				inCell = true
				addr, cellT, value, formula, hasV, hasF = "", "", "", "", false, false

				for _, a := range t.Attr {
					switch a.Name.Local {
					case "r":
						addr = a.Value
					case "t":
						cellT = a.Value
					}
				}
			case "v":
				if inCell {
					textTarget = &value
					hasV = true
				}
			case "f":
				if inCell {
					textTarget = &formula
					hasF = true
				}
			}
		case xml.CharData:
			if textTarget != nil {
				*textTarget += string(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "f":
				textTarget = nil
			case "c":
				inCell = false

				if !hasV && !hasF {
					continue
				}

				resolved := resolveValue(cellT, value, sst)

				out = append(out, addrCell{
					Addr: addr,
					Cell: Cell{
						Value:     resolved,
						Formula:   formula,
						IsFormula: hasF,
					},
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ai, erri := address.Parse(out[i].Addr)
		aj, errj := address.Parse(out[j].Addr)

		if erri != nil || errj != nil {
			return out[i].Addr < out[j].Addr
		}

		return address.Less(ai, aj)
	})

	return out, nil
}

// resolveValue applies the OOXML cell-type conventions: "s" is a
// shared-string index, "str"/"inlineStr"/"e"/"b"/numeric all carry their
// literal text.
func resolveValue(cellType, raw string, sst []string) string {
	if cellType != "s" || raw == "" {
		return raw
	}

	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 || idx >= len(sst) {
		return raw
	}

	return sst[idx]
}
