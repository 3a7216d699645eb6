package menu

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Search returns the navigable nodes whose label fuzzily matches query,
// best match first. Matching ignores case and diacritics. Headers are skipped.
func (f *Forest) Search(query string) []*Node {
	query = strings.TrimSpace(query)
	if f == nil || query == "" {
		return nil
	}

	var candidates []*Node
	f.Walk(func(n *Node, _ int) bool {
		if RouteFor(n) != "" {
			candidates = append(candidates, n)
		}
		return true
	})

	labels := make([]string, len(candidates))
	for i, n := range candidates {
		labels[i] = n.Label
	}

	ranks := fuzzy.RankFindNormalizedFold(query, labels)
	sort.Stable(ranks)

	out := make([]*Node, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, candidates[r.OriginalIndex])
	}
	return out
}
