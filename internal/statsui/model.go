// Package statsui provides the Bubble Tea stats dashboard.
package statsui

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/ctfsensei/internal/api"
	"github.com/verte-zerg/ctfsensei/internal/model"
	"github.com/verte-zerg/ctfsensei/internal/stats"
)

const (
	tabOverview = iota
	tabLeaderboard
	tabActivity
	tabHistory
)

const leaderboardLimit = 10

// Source is the remote side of the dashboard.
type Source interface {
	UserStats(ctx context.Context, username string) (model.UserStats, error)
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	barStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	solvedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	missedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

type loadedMsg struct {
	username string
	stats    model.UserStats
	hasStats bool
	board    []model.LeaderboardEntry
	err      error
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	src     Source
	history stats.HistorySource
	timeout time.Duration
	now     func() time.Time

	username  string
	userStats model.UserStats
	hasStats  bool
	board     []model.LeaderboardEntry
	report    stats.Report
	errMsg    string
	loading   bool
	loadedAt  time.Time
	spinner   spinner.Model

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	boardTable table.Model

	width  int
	height int

	userMode  bool
	userInput textinput.Model
}

// NewModel constructs a dashboard for username. history may be nil when no
// local database is available.
func NewModel(src Source, history stats.HistorySource, username string, timeout time.Duration) *Model {
	if timeout <= 0 {
		timeout = api.DefaultTimeout
	}
	m := &Model{
		src:      src,
		history:  history,
		timeout:  timeout,
		now:      time.Now,
		username: strings.TrimSpace(username),
		tabs:     []string{"Overview", "Leaderboard", "Activity", "History"},
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(barStyle)),
	}
	m.initUserInput()
	m.boardTable = buildBoardTable(nil, m.username, 0, 1)
	m.initViewports()
	m.refreshHistory()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case loadedMsg:
		m.applyLoaded(msg)
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.userMode {
			return m.updateUserInput(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refreshHistory()
			return m, tea.Batch(m.spinner.Tick, m.load())
		case "/":
			m.userMode = true
			m.userInput.SetValue(m.username)
			m.userInput.CursorEnd()
			return m, m.userInput.Focus()
		case "g", "home":
			if m.activeTab == tabLeaderboard {
				m.boardTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabLeaderboard {
				m.boardTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabLeaderboard {
				var cmd tea.Cmd
				m.boardTable, cmd = m.boardTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.userMode {
		return fitLines(m.renderUserModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// load fetches the user's stats and the leaderboard concurrently.
func (m *Model) load() tea.Cmd {
	m.loading = true
	src, username, timeout := m.src, m.username, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var (
			userStats model.UserStats
			board     []model.LeaderboardEntry
		)
		g, gctx := errgroup.WithContext(ctx)
		if username != "" {
			g.Go(func() error {
				s, err := src.UserStats(gctx, username)
				if err != nil {
					return errors.Wrapf(err, "load stats for %s", username)
				}
				userStats = s
				return nil
			})
		}
		g.Go(func() error {
			b, err := src.Leaderboard(gctx)
			if err != nil {
				return errors.Wrap(err, "load leaderboard")
			}
			board = b
			return nil
		})
		if err := g.Wait(); err != nil {
			return loadedMsg{username: username, err: err}
		}
		return loadedMsg{
			username: username,
			stats:    userStats,
			hasStats: username != "",
			board:    board,
		}
	}
}

func (m *Model) applyLoaded(msg loadedMsg) {
	if msg.username != m.username {
		return
	}
	m.loading = false
	if msg.err != nil {
		m.errMsg = api.UserMessage(msg.err)
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.userStats = msg.stats
	m.hasStats = msg.hasStats
	m.board = msg.board
	if len(m.board) > leaderboardLimit {
		m.board = m.board[:leaderboardLimit]
	}
	m.loadedAt = m.now()
	applyBoardTable(m)
	m.renderTabContents()
}

func (m *Model) refreshHistory() {
	if m.history == nil {
		return
	}
	cfg := model.HistoryConfig{Username: m.username}
	report, err := stats.BuildHistoryReport(context.Background(), m.history, cfg, m.now())
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.report = report
	m.renderTabContents()
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initUserInput() {
	input := textinput.New()
	input.Prompt = "User: "
	input.Placeholder = "username"
	input.CharLimit = 20
	input.Cursor.SetMode(cursor.CursorBlink)
	m.userInput = input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.boardTable.SetWidth(m.width)
	m.boardTable.SetHeight(max(vpHeight-1, 1))
	promptWidth := lipgloss.Width(m.userInput.Prompt)
	m.userInput.Width = max(10, modalInnerWidth(m.width)-promptWidth)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabLeaderboard {
		m.boardTable.Focus()
	} else {
		m.boardTable.Blur()
	}
}

func (m *Model) updateUserInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.userMode = false
		m.userInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.userMode = false
		m.userInput.Blur()
		m.username = strings.TrimSpace(m.userInput.Value())
		m.userStats = model.UserStats{}
		m.hasStats = false
		applyBoardTable(m)
		m.refreshHistory()
		m.renderTabContents()
		return m, tea.Batch(m.spinner.Tick, m.load())
	}
	var cmd tea.Cmd
	m.userInput, cmd = m.userInput.Update(msg)
	return m, cmd
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLines(m.renderSummaryLine(), m.width)
}

func (m *Model) renderSummaryLine() string {
	user := m.username
	if user == "" {
		user = "none"
	}
	summary := "User: " + user
	switch {
	case m.loading:
		summary += "  " + m.spinner.View() + " loading"
	case !m.loadedAt.IsZero():
		summary += "  updated " + m.loadedAt.Format("15:04:05")
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Reload: r  User: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return help
}

func (m *Model) renderUserModal() string {
	body := []string{
		cardValueStyle.Render("Show stats for"),
		m.userInput.View(),
		headerStyle.Render("Enter to apply / Esc to cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderBody(height int) string {
	if m.activeTab == tabLeaderboard {
		if len(m.board) == 0 {
			return fitLines(m.emptyText("No leaderboard entries yet."), m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.boardTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) emptyText(fallback string) string {
	if m.loading {
		return m.spinner.View() + " Loading stats..."
	}
	return fallback
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	now := m.now()
	if m.hasStats {
		m.viewports[tabOverview].SetContent(renderOverview(m.userStats, userRank(m.board, m.username), width))
		m.viewports[tabActivity].SetContent(renderActivity(m.userStats.RecentActivity, now, width))
	} else {
		empty := m.emptyText("No stats available. Pick a user with /.")
		m.viewports[tabOverview].SetContent(empty)
		m.viewports[tabActivity].SetContent(empty)
	}
	m.viewports[tabHistory].SetContent(m.renderHistory(width))
}

func (m *Model) renderHistory(width int) string {
	if m.history == nil {
		return "Local history is unavailable."
	}
	var buf bytes.Buffer
	if err := m.report.Render(&buf, width); err != nil {
		return "Failed to render history: " + err.Error()
	}
	return strings.TrimRight(buf.String(), "\n")
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	return max(w, 10)
}
