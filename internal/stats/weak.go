package stats

import (
	"sort"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

// SelectWeakCategories returns up to top categories with the lowest solve
// rate among those with at least minAttempts attempts.
func SelectWeakCategories(aggs []model.CategoryAggregate, top, minAttempts int) []string {
	candidates := make([]model.CategoryAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Attempts >= max(minAttempts, 1) {
			candidates = append(candidates, agg)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		ri, rj := SolveRate(candidates[i]), SolveRate(candidates[j])
		if ri == rj {
			if candidates[i].Attempts == candidates[j].Attempts {
				return candidates[i].Category < candidates[j].Category
			}
			return candidates[i].Attempts > candidates[j].Attempts
		}
		return ri < rj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	out := make([]string, 0, top)
	for _, c := range candidates[:top] {
		out = append(out, c.Category)
	}
	return out
}
