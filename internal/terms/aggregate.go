package terms

import "sort"

type matchKey struct {
	term     string
	category string
}

// AggregateTermCounts merges per-chunk results into a document result.
// Matches are keyed by (term, category); each source contributes at most
// MergedPositionsPerResult snippets. Output is sorted by count descending,
// then term and category ascending.
func AggregateTermCounts(results []Result) Result {
	agg := Result{
		ByCategory: map[string]int{},
		Matches:    []Match{},
	}

	index := map[matchKey]int{}
	for _, r := range results {
		agg.TotalCount += r.TotalCount
		for category, n := range r.ByCategory {
			agg.ByCategory[category] += n
		}
		for _, m := range r.Matches {
			positions := m.Positions
			if len(positions) > MergedPositionsPerResult {
				positions = positions[:MergedPositionsPerResult]
			}
			key := matchKey{term: m.Term, category: m.Category}
			if i, ok := index[key]; ok {
				agg.Matches[i].Count += m.Count
				agg.Matches[i].Positions = append(agg.Matches[i].Positions, positions...)
				continue
			}
			index[key] = len(agg.Matches)
			agg.Matches = append(agg.Matches, Match{
				Term:      m.Term,
				Category:  m.Category,
				Count:     m.Count,
				Positions: append([]Position(nil), positions...),
			})
		}
	}

	sort.SliceStable(agg.Matches, func(i, j int) bool {
		a, b := agg.Matches[i], agg.Matches[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Term != b.Term {
			return a.Term < b.Term
		}
		return a.Category < b.Category
	})
	return agg
}
