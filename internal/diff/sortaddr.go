package diff

import (
	"sort"

	"github.com/xlkit/xlkit/internal/address"
)

// addressSortedKeys returns the keys of addrs (A1-form addresses) in
// row-major order.
func addressSortedKeys(addrs map[string]bool) []string {
	out := make([]string, 0, len(addrs))
	for a := range addrs {
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		pi, erri := address.Parse(out[i])
		pj, errj := address.Parse(out[j])

		if erri == nil && errj == nil {
			return address.Less(pi, pj)
		}

		return out[i] < out[j]
	})

	return out
}
