// Package tui provides the Bubble Tea play interface.
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/ctfsensei/internal/api"
	"github.com/verte-zerg/ctfsensei/internal/catalog"
	"github.com/verte-zerg/ctfsensei/internal/generator"
	"github.com/verte-zerg/ctfsensei/internal/ledger"
	"github.com/verte-zerg/ctfsensei/internal/model"
	"github.com/verte-zerg/ctfsensei/internal/session"
	"github.com/verte-zerg/ctfsensei/internal/stats"
)

const (
	notifyInterval = 500 * time.Millisecond
	weakTop        = 3
	weakMinTries   = 3
	weakFactor     = 3.0
)

// StatusChecker pings the challenge service.
type StatusChecker interface {
	Status(ctx context.Context) (string, error)
}

// Profile remembers the last identity used.
type Profile interface {
	LastUsername(ctx context.Context) (string, error)
	SaveUsername(ctx context.Context, name string) error
}

// Options wires the play UI. Profile, History and Status may be nil.
type Options struct {
	Session   *session.Session
	Catalog   *catalog.Loader
	Status    StatusChecker
	Profile   Profile
	History   stats.HistorySource
	Generator *generator.Generator
	Username  string
	Timeout   time.Duration
	Logger    *slog.Logger
}

type (
	statusMsg struct {
		text string
		err  error
	}
	catalogMsg struct {
		cat catalog.Catalog
		err error
	}
	profileMsg struct{ username string }
	sessionMsg struct {
		op  string
		err error
	}
	submitMsg struct {
		verdict session.Verdict
		err     error
	}
	notifyMsg time.Time
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	codeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	popupStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(0, 1)
)

// Model implements the Bubble Tea play UI.
type Model struct {
	sess    *session.Session
	catalog *catalog.Loader
	status  StatusChecker
	profile Profile
	history stats.HistorySource
	gen     *generator.Generator
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	width  int
	height int

	username      string
	identityInput textinput.Model
	answerInput   textinput.Model
	spinner       spinner.Model

	cursor         int
	catalogLoading bool
	statusText     string
	statusOK       bool
	errMsg         string
	verdict        *session.Verdict
	notes          []ledger.Notification
	notifying      bool
}

// NewModel constructs the play UI.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	gen := opts.Generator
	if gen == nil {
		gen = generator.New()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = api.DefaultTimeout
	}
	m := &Model{
		sess:       opts.Session,
		catalog:    opts.Catalog,
		status:     opts.Status,
		profile:    opts.Profile,
		history:    opts.History,
		gen:        gen,
		timeout:    timeout,
		logger:     logger,
		now:        time.Now,
		statusText: "checking service",
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(codeStyle)),
	}
	if name, err := ValidateUsername(opts.Username); err == nil {
		m.username = name
	}

	m.identityInput = textinput.New()
	m.identityInput.Prompt = "Username: "
	m.identityInput.Placeholder = "2-20 characters"
	m.identityInput.CharLimit = maxUsernameLen

	m.answerInput = textinput.New()
	m.answerInput.Prompt = "Flag: "
	m.answerInput.Placeholder = "flag{...}"

	if m.username == "" {
		m.identityInput.Focus()
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.checkStatus(), m.loadCatalog()}
	if m.username == "" && m.profile != nil {
		cmds = append(cmds, m.loadProfile())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.answerInput.Width = max(m.contentWidth()-lipgloss.Width(m.answerInput.Prompt)-1, 10)
		return m, nil
	case statusMsg:
		if msg.err != nil {
			m.statusOK = false
			m.statusText = "service offline"
			m.logger.Warn("status check failed", "error", msg.err)
			return m, nil
		}
		m.statusOK = true
		m.statusText = "service " + msg.text
		return m, nil
	case catalogMsg:
		m.catalogLoading = false
		if msg.err != nil {
			m.setError(msg.err)
		}
		if len(msg.cat.Difficulties) > 0 || len(msg.cat.Categories) > 0 {
			m.sess.SetCatalog(msg.cat.Difficulties, msg.cat.Categories)
			if msg.err == nil {
				m.errMsg = ""
			}
		}
		m.clampCursor()
		return m, nil
	case profileMsg:
		if m.username == "" && m.identityInput.Value() == "" {
			m.identityInput.SetValue(msg.username)
			m.identityInput.CursorEnd()
		}
		return m, nil
	case sessionMsg:
		m.setError(msg.err)
		if msg.op == "challenge" && msg.err == nil {
			m.verdict = nil
			m.answerInput.Reset()
			return m, m.answerInput.Focus()
		}
		return m, nil
	case submitMsg:
		return m.handleSubmit(msg)
	case notifyMsg:
		m.notes = m.sess.Ledger().Active(time.Time(msg))
		if len(m.notes) == 0 {
			m.notifying = false
			return m, nil
		}
		return m, notifyTick()
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.username == "" {
			return m.updateIdentity(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) handleSubmit(msg submitMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}
	v := msg.verdict
	m.verdict = &v
	m.errMsg = ""
	if v.ProgressErr != nil {
		m.errMsg = "Progress not recorded: " + api.UserMessage(v.ProgressErr)
	}
	m.answerInput.Reset()
	if m.sess.Snapshot().Step == session.StepShowingResult {
		m.answerInput.Blur()
	}
	if len(v.Unlocked) == 0 {
		return m, nil
	}
	m.notes = m.sess.Ledger().Active(m.now())
	if m.notifying {
		return m, nil
	}
	m.notifying = true
	return m, notifyTick()
}

func (m *Model) updateIdentity(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return m, tea.Quit
	}
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.identityInput, cmd = m.identityInput.Update(msg)
		return m, cmd
	}
	name, err := ValidateUsername(m.identityInput.Value())
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.username = name
	m.errMsg = ""
	m.identityInput.Blur()
	if m.profile == nil {
		return m, nil
	}
	return m, m.saveProfile(name)
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.sess.Snapshot()
	switch snap.Step {
	case session.StepSelectingDifficulty:
		return m.updateSelect(msg, snap.Difficulties, func(choice string) tea.Cmd {
			if err := m.sess.ChooseDifficulty(choice); err != nil {
				m.setError(err)
				return nil
			}
			m.errMsg = ""
			m.cursor = 0
			return nil
		})
	case session.StepSelectingCategory:
		switch msg.String() {
		case "esc", "b":
			m.setError(m.sess.Back())
			m.cursor = max(indexOf(snap.Difficulties, snap.Difficulty), 0)
			return m, nil
		case "x":
			choice := m.pickCategory(snap.Categories)
			if choice == "" {
				return m, nil
			}
			m.cursor = indexOf(snap.Categories, choice)
			return m, m.chooseCategory(choice)
		}
		return m.updateSelect(msg, snap.Categories, m.chooseCategory)
	case session.StepInChallenge:
		return m.updateChallenge(msg, snap)
	case session.StepShowingResult:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "h":
			return m, m.requestHint()
		case "s":
			return m, m.revealSolution()
		case "n", "enter":
			m.newChallenge()
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) updateSelect(msg tea.KeyMsg, options []string, choose func(string) tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(options)-1 {
			m.cursor++
		}
	case "r":
		if m.catalogLoading {
			return m, nil
		}
		return m, m.loadCatalog()
	case "enter":
		if len(options) == 0 {
			m.setError(session.ErrEmptyCatalog)
			return m, nil
		}
		m.clampCursor()
		return m, choose(options[m.cursor])
	}
	return m, nil
}

func (m *Model) updateChallenge(msg tea.KeyMsg, snap session.Snapshot) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		answer := m.answerInput.Value()
		if strings.TrimSpace(answer) == "" {
			m.errMsg = "Enter a flag first."
			return m, nil
		}
		if !snap.CanSubmit {
			m.setError(session.ErrBusy)
			return m, nil
		}
		return m, m.submit(answer)
	case tea.KeyTab:
		return m, m.requestHint()
	case tea.KeyCtrlO:
		return m, m.revealSolution()
	case tea.KeyCtrlN:
		m.newChallenge()
		return m, nil
	}
	var cmd tea.Cmd
	m.answerInput, cmd = m.answerInput.Update(msg)
	return m, cmd
}

func (m *Model) newChallenge() {
	m.sess.Reset()
	m.verdict = nil
	m.errMsg = ""
	m.cursor = 0
	m.answerInput.Reset()
	m.answerInput.Blur()
}

// pickCategory chooses a random category, favoring the user's weakest ones.
func (m *Model) pickCategory(categories []string) string {
	weak := map[string]struct{}{}
	if m.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		aggs, err := m.history.CategoryAggregates(ctx, model.HistoryConfig{Username: m.username})
		if err != nil {
			m.logger.Warn("load weak categories failed", "error", err)
		}
		for _, c := range stats.SelectWeakCategories(aggs, weakTop, weakMinTries) {
			weak[c] = struct{}{}
		}
	}
	return m.gen.PickWeighted(categories, weak, weakFactor)
}

func (m *Model) checkStatus() tea.Cmd {
	if m.status == nil {
		return nil
	}
	status, timeout := m.status, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := status.Status(ctx)
		return statusMsg{text: text, err: err}
	}
}

func (m *Model) loadCatalog() tea.Cmd {
	m.catalogLoading = true
	loader, timeout := m.catalog, m.timeout
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		cat, err := loader.LoadAll(ctx)
		return catalogMsg{cat: cat, err: err}
	})
}

func (m *Model) loadProfile() tea.Cmd {
	profile, logger := m.profile, m.logger
	return func() tea.Msg {
		name, err := profile.LastUsername(context.Background())
		if err != nil {
			logger.Warn("load last username failed", "error", err)
			return nil
		}
		return profileMsg{username: name}
	}
}

func (m *Model) saveProfile(name string) tea.Cmd {
	profile, logger := m.profile, m.logger
	return func() tea.Msg {
		if err := profile.SaveUsername(context.Background(), name); err != nil {
			logger.Warn("save username failed", "error", err)
		}
		return nil
	}
}

func (m *Model) chooseCategory(choice string) tea.Cmd {
	return m.sessionCall("challenge", func(ctx context.Context) error {
		return m.sess.ChooseCategory(ctx, choice)
	})
}

func (m *Model) requestHint() tea.Cmd {
	return m.sessionCall("hint", m.sess.RequestHint)
}

func (m *Model) revealSolution() tea.Cmd {
	return m.sessionCall("solution", m.sess.RevealSolution)
}

func (m *Model) sessionCall(op string, fn func(context.Context) error) tea.Cmd {
	timeout := m.timeout
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sessionMsg{op: op, err: fn(ctx)}
	})
}

func (m *Model) submit(answer string) tea.Cmd {
	sess, username, timeout := m.sess, m.username, m.timeout
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		v, err := sess.Submit(ctx, username, answer)
		return submitMsg{verdict: v, err: err}
	})
}

func notifyTick() tea.Cmd {
	return tea.Tick(notifyInterval, func(t time.Time) tea.Msg { return notifyMsg(t) })
}

func (m *Model) setError(err error) {
	if err == nil {
		return
	}
	text := errorText(err)
	if text == "" {
		return
	}
	m.errMsg = text
}

func (m *Model) busy() bool {
	if m.catalogLoading {
		return true
	}
	snap := m.sess.Snapshot()
	return snap.FetchingChallenge || snap.FetchingHints || snap.FetchingSolution || snap.Submitting
}

func (m *Model) clampCursor() {
	snap := m.sess.Snapshot()
	options := snap.Difficulties
	if snap.Step == session.StepSelectingCategory {
		options = snap.Categories
	}
	if m.cursor >= len(options) {
		m.cursor = max(len(options)-1, 0)
	}
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return max(int(float64(m.width)*0.70), 20)
}

func indexOf(items []string, item string) int {
	for i, v := range items {
		if v == item {
			return i
		}
	}
	return -1
}
