package stats

import (
	"testing"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 10); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]float64{0, 9}, 0); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}, 0); got != "+++" {
		t.Fatalf("flat series should use the middle glyph, got %q", got)
	}
	if got := Sparkline([]float64{0, 0, 10, 10}, 2); got != " @" {
		t.Fatalf("expected bucketed sparkline, got %q", got)
	}
}

func TestCumulativePoints(t *testing.T) {
	got := CumulativePoints([]model.AttemptRecord{{Points: 0}, {Points: 10}, {Points: 50}})
	if len(got) != 3 || got[0] != 0 || got[1] != 10 || got[2] != 60 {
		t.Fatalf("unexpected curve: %v", got)
	}
}

func TestSelectWeakCategories(t *testing.T) {
	aggs := []model.CategoryAggregate{
		{Category: "Web", Attempts: 4, Solved: 1},
		{Category: "Crypto", Attempts: 2, Solved: 2},
		{Category: "OSINT", Attempts: 1, Solved: 0},
		{Category: "Forensics", Attempts: 2, Solved: 0},
	}
	weak := SelectWeakCategories(aggs, 2, 2)
	if len(weak) != 2 || weak[0] != "Forensics" || weak[1] != "Web" {
		t.Fatalf("unexpected weak categories: %v", weak)
	}
	if got := SelectWeakCategories(nil, 3, 1); got != nil {
		t.Fatalf("expected nil for no data, got %v", got)
	}
}
