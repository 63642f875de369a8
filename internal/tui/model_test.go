package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"go.uber.org/mock/gomock"

	"github.com/verte-zerg/ctfsensei/internal/api"
	"github.com/verte-zerg/ctfsensei/internal/catalog"
	"github.com/verte-zerg/ctfsensei/internal/generator"
	"github.com/verte-zerg/ctfsensei/internal/model"
	"github.com/verte-zerg/ctfsensei/internal/session"
)

type fakeCatalog struct{}

func (fakeCatalog) Difficulties(context.Context) ([]string, error) {
	return []string{"Easy", "Hard"}, nil
}

func (fakeCatalog) Categories(context.Context) ([]string, error) {
	return []string{"Web", "Crypto"}, nil
}

type fakeProfile struct {
	last  string
	saved []string
}

func (f *fakeProfile) LastUsername(context.Context) (string, error) { return f.last, nil }

func (f *fakeProfile) SaveUsername(_ context.Context, name string) error {
	f.saved = append(f.saved, name)
	return nil
}

type fakeHistory struct {
	users []string
}

func (f *fakeHistory) ListAttempts(context.Context, model.HistoryConfig) ([]model.AttemptRecord, error) {
	return nil, nil
}

func (f *fakeHistory) CategoryAggregates(_ context.Context, cfg model.HistoryConfig) ([]model.CategoryAggregate, error) {
	f.users = append(f.users, cfg.Username)
	return []model.CategoryAggregate{
		{Category: "Web", Attempts: 5, Solved: 1},
		{Category: "Crypto", Attempts: 5, Solved: 5},
	}, nil
}

// runCmd executes cmd and flattens batches into their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func feed(m *Model, cmd tea.Cmd) {
	for _, msg := range runCmd(cmd) {
		switch msg.(type) {
		case sessionMsg, submitMsg, catalogMsg:
			m.Update(msg)
		}
	}
}

func newPlayModel(t *testing.T, backend session.Backend) *Model {
	t.Helper()
	m := NewModel(Options{
		Session:   session.New(backend, nil),
		Catalog:   catalog.NewLoader(fakeCatalog{}, nil),
		Generator: generator.NewWithSeed(1),
		Username:  "alice",
	})
	feed(m, m.loadCatalog())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runeKey(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func startChallenge(t *testing.T, m *Model) {
	t.Helper()
	m.Update(key(tea.KeyEnter))
	if got := m.sess.Snapshot().Step; got != session.StepSelectingCategory {
		t.Fatalf("expected category step, got %s", got)
	}
	_, cmd := m.Update(key(tea.KeyEnter))
	feed(m, cmd)
	if got := m.sess.Snapshot().Step; got != session.StepInChallenge {
		t.Fatalf("expected challenge step, got %s (error %q)", got, m.errMsg)
	}
}

func TestSolveFlowShowsPointsAndAchievements(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := session.NewMockBackend(ctrl)
	backend.EXPECT().GenerateChallenge(gomock.Any(), "Easy", "Web").
		Return(model.Challenge{Prompt: "Decode `aGk=`"}, nil)
	backend.EXPECT().CheckFlag(gomock.Any(), "flag{hi}").Return("✅ Correct! Well done.", nil)
	backend.EXPECT().SubmitProgress(gomock.Any(), gomock.Any()).Return(model.ProgressResult{
		Success:      true,
		Points:       50,
		Achievements: []model.Achievement{{Name: "First Blood", Description: "Solve a challenge", Icon: "🩸"}},
	}, nil)

	m := newPlayModel(t, backend)
	startChallenge(t, m)
	if !strings.Contains(m.View(), "Decode aGk=") {
		t.Fatalf("expected prompt in view:\n%s", m.View())
	}

	m.answerInput.SetValue("flag{hi}")
	_, cmd := m.Update(key(tea.KeyEnter))
	feed(m, cmd)

	if got := m.sess.Snapshot().Step; got != session.StepShowingResult {
		t.Fatalf("expected result step, got %s", got)
	}
	view := m.View()
	for _, want := range []string{"Solved!", "Points earned: 50", "Total: 50", "Achievement unlocked", "First Blood"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestEmptyAnswerIsNotSubmitted(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := session.NewMockBackend(ctrl)
	backend.EXPECT().GenerateChallenge(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(model.Challenge{Prompt: "p"}, nil)

	m := newPlayModel(t, backend)
	startChallenge(t, m)
	m.answerInput.SetValue("   ")
	_, cmd := m.Update(key(tea.KeyEnter))
	if cmd != nil {
		t.Fatalf("expected no command for empty answer")
	}
	if m.errMsg != "Enter a flag first." {
		t.Fatalf("unexpected error: %q", m.errMsg)
	}
}

func TestHintKeyShowsCurrentHint(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := session.NewMockBackend(ctrl)
	backend.EXPECT().GenerateChallenge(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(model.Challenge{Prompt: "p"}, nil)
	backend.EXPECT().Hints(gomock.Any()).Return([]string{"look at headers", "try curl"}, nil)

	m := newPlayModel(t, backend)
	startChallenge(t, m)
	if !strings.Contains(m.View(), "tab hint") {
		t.Fatalf("expected hint key help:\n%s", m.View())
	}
	_, cmd := m.Update(key(tea.KeyTab))
	feed(m, cmd)
	view := m.View()
	if !strings.Contains(view, "Hint 1/2") || !strings.Contains(view, "look at headers") {
		t.Fatalf("expected first hint in view:\n%s", view)
	}
	if !strings.Contains(view, "tab next hint") {
		t.Fatalf("expected next hint key help:\n%s", view)
	}

	_, cmd = m.Update(key(tea.KeyTab))
	feed(m, cmd)
	view = m.View()
	if !strings.Contains(view, "Hint 2/2 (last)") || !strings.Contains(view, "try curl") {
		t.Fatalf("expected last hint in view:\n%s", view)
	}
	if strings.Contains(view, "tab next hint") || strings.Contains(view, "tab hint") {
		t.Fatalf("hint key help should be hidden after the last hint:\n%s", view)
	}
}

func TestReloadIgnoredWhileCatalogLoading(t *testing.T) {
	m := NewModel(Options{
		Session:  session.New(session.NewMockBackend(gomock.NewController(t)), nil),
		Catalog:  catalog.NewLoader(fakeCatalog{}, nil),
		Username: "alice",
	})
	pending := m.loadCatalog()
	_, cmd := m.Update(runeKey('r'))
	if cmd != nil {
		t.Fatalf("expected reload to be ignored while loading")
	}
	if !m.catalogLoading {
		t.Fatalf("expected catalog to still be loading")
	}

	feed(m, pending)
	if m.catalogLoading {
		t.Fatalf("expected loading to finish")
	}
	if _, cmd := m.Update(runeKey('r')); cmd == nil {
		t.Fatalf("expected reload once the first load finished")
	}
}

func TestSolutionLockedMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := session.NewMockBackend(ctrl)
	backend.EXPECT().GenerateChallenge(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(model.Challenge{Prompt: "p"}, nil)

	m := newPlayModel(t, backend)
	startChallenge(t, m)
	_, cmd := m.Update(key(tea.KeyCtrlO))
	feed(m, cmd)
	if m.errMsg != "The solution unlocks after 3 attempts." {
		t.Fatalf("unexpected error: %q", m.errMsg)
	}
}

func TestBackReturnsToDifficulty(t *testing.T) {
	m := newPlayModel(t, session.NewMockBackend(gomock.NewController(t)))
	m.Update(key(tea.KeyDown))
	m.Update(key(tea.KeyEnter))
	if got := m.sess.Snapshot().Difficulty; got != "Hard" {
		t.Fatalf("expected Hard, got %q", got)
	}
	m.Update(key(tea.KeyEsc))
	snap := m.sess.Snapshot()
	if snap.Step != session.StepSelectingDifficulty || snap.Difficulty != "" {
		t.Fatalf("expected difficulty step with no difficulty, got %s %q", snap.Step, snap.Difficulty)
	}
	if m.cursor != 1 {
		t.Fatalf("expected cursor to return to Hard, got %d", m.cursor)
	}
}

func TestIdentityPromptValidatesAndSaves(t *testing.T) {
	profile := &fakeProfile{last: "bob"}
	m := NewModel(Options{
		Session: session.New(session.NewMockBackend(gomock.NewController(t)), nil),
		Catalog: catalog.NewLoader(fakeCatalog{}, nil),
		Profile: profile,
	})
	for _, msg := range runCmd(m.loadProfile()) {
		m.Update(msg)
	}
	if got := m.identityInput.Value(); got != "bob" {
		t.Fatalf("expected prefilled bob, got %q", got)
	}

	m.identityInput.SetValue(" x ")
	m.Update(key(tea.KeyEnter))
	if m.username != "" {
		t.Fatalf("expected short username to be rejected")
	}
	if m.errMsg != "Username must be 2 to 20 characters." {
		t.Fatalf("unexpected error: %q", m.errMsg)
	}

	m.identityInput.SetValue("  carol ")
	_, cmd := m.Update(key(tea.KeyEnter))
	runCmd(cmd)
	if m.username != "carol" {
		t.Fatalf("expected carol, got %q", m.username)
	}
	if len(profile.saved) != 1 || profile.saved[0] != "carol" {
		t.Fatalf("expected carol to be saved, got %v", profile.saved)
	}
}

func TestStaleResultsAreDropped(t *testing.T) {
	m := newPlayModel(t, session.NewMockBackend(gomock.NewController(t)))
	m.Update(sessionMsg{op: "hint", err: errors.Wrap(session.ErrStaleResponse, "hint")})
	if m.errMsg != "" {
		t.Fatalf("expected stale result to be silent, got %q", m.errMsg)
	}
}

func TestStatusShownInFooter(t *testing.T) {
	m := newPlayModel(t, session.NewMockBackend(gomock.NewController(t)))
	m.Update(statusMsg{text: "ok"})
	if !strings.Contains(m.View(), "service ok") {
		t.Fatalf("expected status in footer:\n%s", m.View())
	}
	m.Update(statusMsg{err: api.ErrUnreachable})
	if !strings.Contains(m.View(), "service offline") {
		t.Fatalf("expected offline status in footer:\n%s", m.View())
	}
}

func TestRandomCategoryUsesHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := session.NewMockBackend(ctrl)
	history := &fakeHistory{}
	backend.EXPECT().GenerateChallenge(gomock.Any(), "Easy", gomock.Any()).
		Return(model.Challenge{Prompt: "p"}, nil)

	m := NewModel(Options{
		Session:   session.New(backend, nil),
		Catalog:   catalog.NewLoader(fakeCatalog{}, nil),
		History:   history,
		Generator: generator.NewWithSeed(7),
		Username:  "alice",
	})
	feed(m, m.loadCatalog())
	m.Update(key(tea.KeyEnter))
	_, cmd := m.Update(runeKey('x'))
	feed(m, cmd)

	if len(history.users) != 1 || history.users[0] != "alice" {
		t.Fatalf("expected history lookup for alice, got %v", history.users)
	}
	snap := m.sess.Snapshot()
	if snap.Step != session.StepInChallenge {
		t.Fatalf("expected challenge step, got %s", snap.Step)
	}
	if snap.Category != "Web" && snap.Category != "Crypto" {
		t.Fatalf("unexpected category %q", snap.Category)
	}
}

func TestErrorText(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{session.ErrStaleResponse, ""},
		{errors.Wrap(session.ErrBusy, "submit"), "Still waiting for the previous request."},
		{session.ErrMissingIdentity, "Enter a username first."},
		{session.ErrNoHints, "No hints available for this challenge."},
		{errors.Mark(errors.New("dial"), api.ErrUnreachable), "Cannot reach the challenge service. Is it running?"},
	}
	for _, tc := range cases {
		if got := errorText(tc.err); got != tc.want {
			t.Fatalf("errorText(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if _, err := ValidateUsername("a"); err == nil {
		t.Fatalf("expected error for short name")
	}
	if _, err := ValidateUsername(strings.Repeat("x", 21)); err == nil {
		t.Fatalf("expected error for long name")
	}
	got, err := ValidateUsername("  dave  ")
	if err != nil || got != "dave" {
		t.Fatalf("expected dave, got %q (%v)", got, err)
	}
}
