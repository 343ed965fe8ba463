package diff

import "strings"

// normalizeNumeric reduces float-formatting noise before string
// comparison. It trims trailing fractional zeros (and a trailing decimal
// point) and folds "-0" to "0"; non-numeric strings pass through
// untouched.
func normalizeNumeric(s string) string {
	if !looksNumeric(s) {
		return s
	}

	v := s

	if strings.Contains(v, ".") {
		v = strings.TrimRight(v, "0")
		v = strings.TrimSuffix(v, ".")
	}

	if v == "-0" || v == "" {
		v = "0"
	}

	return v
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}

	seenDigit := false
	seenDot := false

	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' && !seenDot:
			seenDot = true
		case r == '-' && i == 0:
		default:
			return false
		}
	}

	return seenDigit
}
