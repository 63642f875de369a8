package stats

import (
	"testing"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

func TestTopCategories(t *testing.T) {
	aggs := []model.CategoryAggregate{
		{Category: "Web", Attempts: 4},
		{Category: "Crypto", Attempts: 4},
		{Category: "OSINT", Attempts: 1},
	}
	top := TopCategories(aggs, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(top))
	}
	if top[0] != "Crypto" || top[1] != "Web" {
		t.Fatalf("unexpected order: %v", top)
	}
}

func TestRankCounts(t *testing.T) {
	ranked := RankCounts(map[string]int{"Easy": 1, "Hard": 3, "Medium": 3})
	if len(ranked) != 3 || ranked[0].Label != "Hard" || ranked[1].Label != "Medium" || ranked[2].N != 1 {
		t.Fatalf("unexpected ranking: %+v", ranked)
	}
}
