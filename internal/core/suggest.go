package core

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how far a typo may be from a known category.
const maxSuggestDistance = 3

// SuggestCategory returns the known category closest to input, or "" when
// nothing is close enough to be a plausible typo.
func SuggestCategory(input string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return ""
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range Categories() {
		d := levenshtein.ComputeDistance(in, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
