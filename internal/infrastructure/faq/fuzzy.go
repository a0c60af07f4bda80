package faq

import (
	"sort"
	"strings"
)

// tokenSortRatio compares two already-folded strings after sorting their
// tokens, making the measure insensitive to word order. Result is 0-100.
func tokenSortRatio(a, b string) int {
	return indelRatio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// indelRatio is 100 * (1 - d/(len(a)+len(b))) where d is the edit distance
// with insertions and deletions only (substitution cost 2).
func indelRatio(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			if del < ins {
				curr[j] = del
			} else {
				curr[j] = ins
			}
		}
		prev, curr = curr, prev
	}

	dist := prev[len(rb)]
	return (100*(total-dist) + total/2) / total
}
