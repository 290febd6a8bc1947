package steps

import (
	"strings"

	"github.com/studyforge/studyforge-backend/internal/domain"
)

// wordSet lower-cases and whitespace-splits text into a set of words.
func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// jaccard is intersection over union of two word sets. Two empty sets have
// similarity 0 so that empty-text nodes never match anything.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// nodeText is the clustering text of a node: label plus description.
func nodeText(n *domain.ConceptNode) string {
	return n.Label + " " + n.Description
}

func countSubstrings(text string, terms []string) int {
	count := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			count++
		}
	}
	return count
}
