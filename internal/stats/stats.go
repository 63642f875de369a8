// Package stats contains local history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

const (
	sparkChars        = " .:-=+*#%@"
	durationUnitsShow = 2
)

// SolveRate returns the share of attempts that were correct.
func SolveRate(agg model.CategoryAggregate) float64 {
	if agg.Attempts == 0 {
		return 0
	}
	return float64(agg.Solved) / float64(agg.Attempts)
}

// CumulativePoints returns the running points total after each attempt.
func CumulativePoints(attempts []model.AttemptRecord) []float64 {
	out := make([]float64, len(attempts))
	var total float64
	for i, a := range attempts {
		total += float64(a.Points)
		out[i] = total
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values, averaged
// into at most width buckets when width is positive.
func Sparkline(values []float64, width int) string {
	if width > 0 && len(values) > width {
		values = bucketAverage(values, width)
	}
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func bucketAverage(values []float64, width int) []float64 {
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// RenderSummary prints totals for the attempts.
func RenderSummary(w io.Writer, attempts []model.AttemptRecord, now time.Time) error {
	if len(attempts) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	var solved, points, firstTry int
	var solveTime time.Duration
	for _, a := range attempts {
		points += a.Points
		if !a.Correct {
			continue
		}
		solved++
		solveTime += time.Duration(a.DurationMs) * time.Millisecond
		if a.Attempt == 1 {
			firstTry++
		}
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Attempts: %s", humanize.Comma(int64(len(attempts)))),
		fmt.Sprintf("Solved: %d (%.1f%%)", solved, float64(solved)/float64(len(attempts))*100),
		fmt.Sprintf("First-try solves: %d", firstTry),
		fmt.Sprintf("Points: %s", humanize.Comma(int64(points))),
	}
	if solved > 0 {
		avg := (solveTime / time.Duration(solved)).Round(time.Second)
		lines = append(lines, fmt.Sprintf("Avg time to solve: %s", durafmt.Parse(avg).LimitFirstN(durationUnitsShow)))
	}
	last := attempts[len(attempts)-1].SubmittedAt
	lines = append(lines, fmt.Sprintf("Last attempt: %s", humanize.RelTime(last, now, "ago", "from now")), "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderPointsCurve prints the cumulative points sparkline.
func RenderPointsCurve(w io.Writer, attempts []model.AttemptRecord, width int) error {
	if len(attempts) == 0 {
		return nil
	}
	curve := CumulativePoints(attempts)
	label := "Points "
	total := fmt.Sprintf(" %s", humanize.Comma(int64(curve[len(curve)-1])))
	sparkWidth := 0
	if width > 0 {
		sparkWidth = max(width-displayWidth(label)-displayWidth(total), 1)
	}
	if _, err := fmt.Fprintf(w, "%s%s%s\n\n", label, Sparkline(curve, sparkWidth), total); err != nil {
		return err
	}
	return nil
}

// RenderCategoryTable prints per-category aggregates, weakest first.
func RenderCategoryTable(w io.Writer, aggs []model.CategoryAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No category stats found.")
		return err
	}
	rows := make([]model.CategoryAggregate, len(aggs))
	copy(rows, aggs)
	sort.Slice(rows, func(i, j int) bool {
		ri, rj := SolveRate(rows[i]), SolveRate(rows[j])
		if ri == rj {
			return rows[i].Category < rows[j].Category
		}
		return ri < rj
	})

	if _, err := fmt.Fprintln(w, "Per-Category"); err != nil {
		return err
	}
	headers := []string{"Category", "Attempts", "Solved", "Solve Rate", "Points"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Category,
			fmt.Sprintf("%d", r.Attempts),
			fmt.Sprintf("%d", r.Solved),
			fmt.Sprintf("%.1f%%", SolveRate(r)*100),
			humanize.Comma(int64(r.Points)),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderRecent prints the last n attempts, newest first.
func RenderRecent(w io.Writer, attempts []model.AttemptRecord, n int, now time.Time) error {
	if len(attempts) == 0 || n <= 0 {
		return nil
	}
	start := max(len(attempts)-n, 0)
	if _, err := fmt.Fprintln(w, "Recent"); err != nil {
		return err
	}
	headers := []string{"When", "Category", "Difficulty", "Try", "Result", "Points"}
	var tableRows [][]string
	for i := len(attempts) - 1; i >= start; i-- {
		a := attempts[i]
		result := "miss"
		if a.Correct {
			result = "solved"
		}
		tableRows = append(tableRows, []string{
			humanize.RelTime(a.SubmittedAt, now, "ago", "from now"),
			a.Category,
			a.Difficulty,
			fmt.Sprintf("%d", a.Attempt),
			result,
			fmt.Sprintf("%d", a.Points),
		})
	}
	for _, line := range formatTable(headers, tableRows, map[int]bool{3: true, 5: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
