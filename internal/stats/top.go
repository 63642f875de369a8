package stats

import (
	"sort"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

// Count is a labelled tally.
type Count struct {
	Label string
	N     int
}

// RankCounts orders a tally map by count descending, then label.
func RankCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N == out[j].N {
			return out[i].Label < out[j].Label
		}
		return out[i].N > out[j].N
	})
	return out
}

// TopCategories returns the n most attempted categories.
func TopCategories(aggs []model.CategoryAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	counts := make(map[string]int, len(aggs))
	for _, agg := range aggs {
		counts[agg.Category] += agg.Attempts
	}
	ranked := RankCounts(counts)
	n = min(n, len(ranked))
	out := make([]string, 0, n)
	for _, c := range ranked[:n] {
		out = append(out, c.Label)
	}
	return out
}
