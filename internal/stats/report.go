package stats

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

const (
	recentRows        = 10
	weakTop           = 3
	weakMinAttempts   = 2
	mostPracticedTop  = 3
	defaultCurveWidth = 60
)

// HistorySource reads recorded attempts.
type HistorySource interface {
	ListAttempts(ctx context.Context, cfg model.HistoryConfig) ([]model.AttemptRecord, error)
	CategoryAggregates(ctx context.Context, cfg model.HistoryConfig) ([]model.CategoryAggregate, error)
}

// Report contains precomputed data for history rendering.
type Report struct {
	Attempts      []model.AttemptRecord
	Categories    []model.CategoryAggregate
	Weak          []string
	MostPracticed []string
	GeneratedAt   time.Time
}

// BuildHistoryReport loads and prepares data for history rendering.
// Category aggregates cover the same attempts as the listing.
func BuildHistoryReport(ctx context.Context, src HistorySource, cfg model.HistoryConfig, now time.Time) (Report, error) {
	attempts, err := src.ListAttempts(ctx, cfg)
	if err != nil {
		return Report{}, errors.Wrap(err, "list attempts")
	}

	var aggs []model.CategoryAggregate
	if cfg.Last > 0 {
		aggs = aggregate(attempts)
	} else {
		aggs, err = src.CategoryAggregates(ctx, cfg)
		if err != nil {
			return Report{}, errors.Wrap(err, "aggregate categories")
		}
	}

	return Report{
		Attempts:      attempts,
		Categories:    aggs,
		Weak:          SelectWeakCategories(aggs, weakTop, weakMinAttempts),
		MostPracticed: TopCategories(aggs, mostPracticedTop),
		GeneratedAt:   now,
	}, nil
}

func aggregate(attempts []model.AttemptRecord) []model.CategoryAggregate {
	index := map[string]int{}
	var out []model.CategoryAggregate
	for _, a := range attempts {
		i, ok := index[a.Category]
		if !ok {
			i = len(out)
			index[a.Category] = i
			out = append(out, model.CategoryAggregate{Category: a.Category})
		}
		out[i].Attempts++
		out[i].Points += a.Points
		if a.Correct {
			out[i].Solved++
		}
	}
	return out
}

// Render writes the full history report. width is the terminal width, or
// zero for a default.
func (r Report) Render(w io.Writer, width int) error {
	if err := RenderSummary(w, r.Attempts, r.GeneratedAt); err != nil {
		return err
	}
	if len(r.Attempts) == 0 {
		return nil
	}
	if width <= 0 {
		width = defaultCurveWidth
	}
	if err := RenderPointsCurve(w, r.Attempts, width); err != nil {
		return err
	}
	if err := RenderCategoryTable(w, r.Categories); err != nil {
		return err
	}
	if len(r.MostPracticed) > 0 {
		if _, err := fmt.Fprintf(w, "Most practiced: %s\n", strings.Join(r.MostPracticed, ", ")); err != nil {
			return err
		}
	}
	if len(r.Weak) > 0 {
		if _, err := fmt.Fprintf(w, "Needs work: %s\n", strings.Join(r.Weak, ", ")); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return RenderRecent(w, r.Attempts, recentRows, r.GeneratedAt)
}
