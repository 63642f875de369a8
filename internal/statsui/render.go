package statsui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/ctfsensei/internal/model"
	"github.com/verte-zerg/ctfsensei/internal/stats"
)

const barWidth = 24

func renderOverview(s model.UserStats, rank, width int) string {
	rankLabel := "-"
	if rank > 0 {
		rankLabel = "#" + strconv.Itoa(rank)
	}
	cards := []string{
		metricCard("Attempted", humanize.Comma(int64(s.ChallengesAttempted))),
		metricCard("Completed", humanize.Comma(int64(s.ChallengesCompleted))),
		metricCard("Points", humanize.Comma(int64(s.TotalPoints))),
		metricCard("Fastest Solve", formatSolveTime(s.FastestSolve)),
		metricCard("Perfect", humanize.Comma(int64(s.PerfectSolves))),
		metricCard("Success", formatPercent(successRate(s))),
		metricCard("Rank", rankLabel),
	}
	var grid string
	if width < 80 {
		grid = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:4]...)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[4:]...)
		grid = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	sections := []string{
		grid,
		renderCounts("By category", s.CategoryCount, width),
		renderCounts("By difficulty", s.DifficultyCount, width),
		renderAchievements(s.Achievements),
	}
	return strings.Join(sections, "\n\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCounts(title string, counts map[string]int, width int) string {
	ranked := stats.RankCounts(counts)
	lines := []string{cardTitleStyle.Render(title)}
	if len(ranked) == 0 {
		return strings.Join(append(lines, "  none yet"), "\n")
	}
	labelWidth := 0
	top := ranked[0].N
	for _, c := range ranked {
		labelWidth = max(labelWidth, runewidth.StringWidth(c.Label))
	}
	bw := min(barWidth, max(width-labelWidth-12, 4))
	for _, c := range ranked {
		n := 0
		if top > 0 {
			n = int(math.Round(float64(c.N) / float64(top) * float64(bw)))
		}
		label := runewidth.FillRight(c.Label, labelWidth)
		lines = append(lines, fmt.Sprintf("  %s  %s %d", label, barStyle.Render(strings.Repeat("█", max(n, 1))), c.N))
	}
	return strings.Join(lines, "\n")
}

func renderAchievements(achievements []model.Achievement) string {
	lines := []string{cardTitleStyle.Render("Achievements")}
	if len(achievements) == 0 {
		return strings.Join(append(lines, "  none yet"), "\n")
	}
	for _, a := range achievements {
		icon := a.Icon
		if icon == "" {
			icon = "*"
		}
		line := fmt.Sprintf("  %s %s", icon, cardValueStyle.Render(a.Name))
		if a.Description != "" {
			line += "  " + headerStyle.Render(a.Description)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderActivity(records []model.ActivityRecord, now time.Time, width int) string {
	if len(records) == 0 {
		return "No recent activity."
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		mark := missedStyle.Render("✗")
		if r.Completed {
			mark = solvedStyle.Render("✓")
		}
		when := "-"
		if r.Timestamp > 0 {
			when = humanize.RelTime(time.Unix(r.Timestamp, 0), now, "ago", "from now")
		}
		head := fmt.Sprintf("%s %s / %s  attempts %d  %s", mark, r.Category, r.Difficulty, r.Attempts, headerStyle.Render(when))
		lines = append(lines, head)
		if prompt := strings.TrimSpace(r.Challenge); prompt != "" {
			first, _, _ := strings.Cut(prompt, "\n")
			lines = append(lines, "  "+truncateLine(first, width-2))
		}
	}
	return strings.Join(lines, "\n")
}

// formatSolveTime renders a solve duration given in seconds.
func formatSolveTime(seconds *float64) string {
	if seconds == nil || *seconds <= 0 {
		return "N/A"
	}
	total := int(math.Round(*seconds))
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

func successRate(s model.UserStats) float64 {
	if s.ChallengesAttempted <= 0 {
		return 0
	}
	return float64(s.ChallengesCompleted) / float64(s.ChallengesAttempted) * 100
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// userRank returns the 1-based position of username on the board, or 0.
func userRank(board []model.LeaderboardEntry, username string) int {
	if username == "" {
		return 0
	}
	for i, e := range board {
		if e.Username == username || e.UserID == username {
			return i + 1
		}
	}
	return 0
}

func boardColumns() []table.Column {
	return []table.Column{
		{Title: "Rank", Width: 5},
		{Title: "User", Width: 20},
		{Title: "Points", Width: 8},
		{Title: "Completed", Width: 10},
	}
}

func boardRows(board []model.LeaderboardEntry, username string) []table.Row {
	rows := make([]table.Row, 0, len(board))
	for i, e := range board {
		rank := e.Rank
		if rank <= 0 {
			rank = i + 1
		}
		name := e.Username
		if name == "" {
			name = e.UserID
		}
		if username != "" && (e.Username == username || e.UserID == username) {
			name += " (you)"
		}
		rows = append(rows, table.Row{
			"#" + strconv.Itoa(rank),
			name,
			humanize.Comma(int64(e.Points)),
			strconv.Itoa(e.ChallengesCompleted),
		})
	}
	return rows
}

func buildBoardTable(board []model.LeaderboardEntry, username string, width, height int) table.Model {
	t := table.New(
		table.WithColumns(boardColumns()),
		table.WithRows(boardRows(board, username)),
		table.WithHeight(max(height, 1)),
		table.WithWidth(width),
	)
	t.SetStyles(boardTableStyles())
	return t
}

func applyBoardTable(m *Model) {
	m.boardTable.SetRows(boardRows(m.board, m.username))
	if rank := userRank(m.board, m.username); rank > 0 {
		m.boardTable.SetCursor(rank - 1)
	} else {
		m.boardTable.GotoTop()
	}
}

func boardTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
