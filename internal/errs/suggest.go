package errs

// Suggest returns the candidate closest to query by Levenshtein distance,
// or "" if candidates is empty. Used to populate DidYouMean for unknown
// sheet names, enum literals, and similar typo-prone inputs.
func Suggest(query string, candidates []string) string {
	best := ""
	bestDist := -1

	for _, c := range candidates {
		d := levenshtein(query, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}

	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	if la == 0 {
		return lb
	}

	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	cur := make([]int, lb+1)

	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		cur[0] = i

		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost

			cur[j] = minInt(del, minInt(ins, sub))
		}

		prev, cur = cur, prev
	}

	return prev[lb]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
