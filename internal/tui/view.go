package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/ctfsensei/internal/session"
)

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.sess.Snapshot()
	content := m.renderBody(snap)
	if popup := m.renderNotifications(); popup != "" {
		content = popup + "\n\n" + content
	}
	footer := m.renderFooter(snap)
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	content = lipgloss.NewStyle().Width(m.contentWidth()).Render(content)
	footerHeight := lipgloss.Height(footer)
	if m.height <= footerHeight+1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, content)
	footerLines := lipgloss.Place(m.width, footerHeight, lipgloss.Center, lipgloss.Bottom, footer)
	return body + "\n" + footerLines
}

func (m *Model) renderBody(snap session.Snapshot) string {
	if m.username == "" {
		return strings.Join([]string{
			titleStyle.Render("ctfsensei"),
			"",
			"Who is playing?",
			m.identityInput.View(),
			"",
			mutedStyle.Render("enter confirm  esc quit"),
		}, "\n")
	}
	switch snap.Step {
	case session.StepSelectingDifficulty:
		return m.renderSelect("Choose a difficulty", snap.Difficulties,
			"up/down move  enter choose  r reload  q quit")
	case session.StepSelectingCategory:
		title := fmt.Sprintf("Difficulty: %s\nChoose a category", snap.Difficulty)
		return m.renderSelect(title, snap.Categories,
			"up/down move  enter choose  x random  esc back  q quit")
	case session.StepInChallenge:
		return m.renderChallenge(snap)
	case session.StepShowingResult:
		return m.renderResult(snap)
	}
	return ""
}

func (m *Model) renderSelect(title string, options []string, help string) string {
	lines := []string{titleStyle.Render(title), ""}
	switch {
	case len(options) == 0 && m.catalogLoading:
		lines = append(lines, m.spinner.View()+" Loading options...")
	case len(options) == 0:
		lines = append(lines, mutedStyle.Render("No options available."))
	default:
		for i, opt := range options {
			if i == m.cursor {
				lines = append(lines, selectedStyle.Render("> "+opt))
				continue
			}
			lines = append(lines, mutedStyle.Render("  "+opt))
		}
	}
	return strings.Join(append(lines, "", mutedStyle.Render(help)), "\n")
}

func (m *Model) renderChallengeHeader(snap session.Snapshot) []string {
	if snap.Challenge == nil {
		return nil
	}
	head := titleStyle.Render(fmt.Sprintf("%s / %s", snap.Challenge.Category, snap.Challenge.Difficulty))
	if !snap.StartedAt.IsZero() {
		head += mutedStyle.Render("  started " + snap.StartedAt.Format("15:04"))
	}
	return []string{
		head,
		"",
		wrapText(snap.Challenge.Prompt, m.contentWidth()),
		"",
	}
}

func (m *Model) renderChallenge(snap session.Snapshot) string {
	lines := m.renderChallengeHeader(snap)
	if snap.FetchingChallenge {
		lines = append(lines, m.spinner.View()+" Generating challenge...")
	}
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("Attempts left: %d of %d", snap.AttemptsLeft(), snap.MaxAttempts)))
	if snap.LastResult != "" {
		lines = append(lines, errorStyle.Render(snap.LastResult))
	}
	lines = append(lines, m.renderExtras(snap)...)
	lines = append(lines, "", m.answerInput.View())
	if snap.Submitting {
		lines = append(lines, m.spinner.View()+" Checking flag...")
	}
	keys := []string{"enter submit"}
	if hint := hintHelp(snap, "tab"); hint != "" {
		keys = append(keys, hint)
	}
	if snap.CanRevealSolution {
		keys = append(keys, "ctrl+o solution")
	}
	help := strings.Join(append(keys, "ctrl+n new challenge", "ctrl+c quit"), "  ")
	lines = append(lines, "", mutedStyle.Render(help))
	return strings.Join(lines, "\n")
}

func (m *Model) renderResult(snap session.Snapshot) string {
	lines := m.renderChallengeHeader(snap)
	if snap.Solved {
		lines = append(lines, correctStyle.Render("Solved!"))
		if m.verdict != nil && m.verdict.Correct && m.verdict.ProgressErr == nil {
			lines = append(lines, fmt.Sprintf("Points earned: %d  Total: %d", m.verdict.Points, m.sess.Ledger().Total()))
		}
	} else {
		lines = append(lines, errorStyle.Render("Out of attempts."))
	}
	if snap.LastResult != "" {
		lines = append(lines, snap.LastResult)
	}
	lines = append(lines, m.renderExtras(snap)...)
	var keys []string
	if hint := hintHelp(snap, "h"); hint != "" {
		keys = append(keys, hint)
	}
	if !snap.SolutionRevealed {
		keys = append(keys, "s solution")
	}
	help := strings.Join(append(keys, "n new challenge", "q quit"), "  ")
	lines = append(lines, "", mutedStyle.Render(help))
	return strings.Join(lines, "\n")
}

func (m *Model) renderExtras(snap session.Snapshot) []string {
	var lines []string
	if snap.FetchingHints {
		lines = append(lines, "", m.spinner.View()+" Fetching hints...")
	}
	if snap.CurrentHint != "" {
		label := fmt.Sprintf("Hint %d/%d", snap.HintCursor+1, len(snap.Hints))
		if !snap.HasMoreHints {
			label += " (last)"
		}
		lines = append(lines, "", codeStyle.Render(label), wrapText(snap.CurrentHint, m.contentWidth()))
	}
	if snap.FetchingSolution {
		lines = append(lines, "", m.spinner.View()+" Fetching solution...")
	}
	if snap.SolutionRevealed {
		lines = append(lines, "", codeStyle.Render("Solution"), wrapText(snap.Solution, m.contentWidth()))
	}
	return lines
}

func (m *Model) renderNotifications() string {
	if len(m.notes) == 0 {
		return ""
	}
	lines := []string{titleStyle.Render("Achievement unlocked")}
	for _, n := range m.notes {
		icon := n.Achievement.Icon
		if icon == "" {
			icon = "*"
		}
		line := fmt.Sprintf("%s %s", icon, selectedStyle.Render(n.Achievement.Name))
		if n.Achievement.Description != "" {
			line += "\n  " + mutedStyle.Render(n.Achievement.Description)
		}
		lines = append(lines, line)
	}
	return popupStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter(snap session.Snapshot) string {
	status := m.statusText
	if !m.statusOK {
		status = errorStyle.Render(status)
	}
	segments := []string{status}
	if m.username != "" {
		segments = append(segments, "User "+m.username)
	}
	segments = append(segments, fmt.Sprintf("Points %d", m.sess.Ledger().Total()))
	if snap.Step == session.StepInChallenge {
		segments = append(segments, fmt.Sprintf("Attempt %d/%d", min(snap.Attempts+1, snap.MaxAttempts), snap.MaxAttempts))
	}
	if m.busy() {
		segments = append(segments, m.spinner.View())
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	return footer
}

// hintHelp describes the hint key, or returns "" once every hint is shown.
func hintHelp(snap session.Snapshot, key string) string {
	switch {
	case !snap.HintsFetched:
		return key + " hint"
	case snap.HasMoreHints:
		return key + " next hint"
	}
	return ""
}
