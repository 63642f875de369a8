// Package session implements the challenge flow: selection, attempts,
// hints, solution reveal and result.
package session

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/verte-zerg/ctfsensei/internal/ledger"
	"github.com/verte-zerg/ctfsensei/internal/model"
)

// MaxAttempts is the number of incorrect submissions allowed per challenge.
const MaxAttempts = 3

// DefaultSuccessMarker is the verdict prefix the service uses for a correct flag.
const DefaultSuccessMarker = "✅ Correct"

type pendingOps struct {
	challenge bool
	hints     bool
	solution  bool
	submit    bool
}

// Session is one user's walk through a challenge. All methods are safe for
// concurrent use; the lock is released while a service call is outstanding.
type Session struct {
	backend       Backend
	ledger        *ledger.Ledger
	recorder      Recorder
	logger        *slog.Logger
	now           func() time.Time
	successMarker string

	mu               sync.Mutex
	step             Step
	difficulties     []string
	categories       []string
	difficulty       string
	category         string
	challenge        *model.Challenge
	attempts         int
	hints            []string
	hintsFetched     bool
	hintCursor       int
	solution         string
	solutionRevealed bool
	solved           bool
	lastResult       string
	lastError        string
	startedAt        time.Time
	generation       uint64
	pending          pendingOps
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the time source for challenge start stamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Session) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder stores every applied attempt locally.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithSuccessMarker overrides the text that marks a verdict as correct.
func WithSuccessMarker(marker string) Option {
	return func(s *Session) {
		if strings.TrimSpace(marker) != "" {
			s.successMarker = marker
		}
	}
}

// New returns a Session in StepSelectingDifficulty. A nil ledger gets a fresh one.
func New(backend Backend, l *ledger.Ledger, opts ...Option) *Session {
	if l == nil {
		l = ledger.New()
	}
	s := &Session{
		backend:       backend,
		ledger:        l,
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
		successMarker: DefaultSuccessMarker,
		step:          StepSelectingDifficulty,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger returns the ledger the session applies points to.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// SetCatalog replaces the selectable difficulties and categories.
func (s *Session) SetCatalog(difficulties, categories []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.difficulties = slices.Clone(difficulties)
	s.categories = slices.Clone(categories)
}

// ChooseDifficulty stores d and moves to category selection.
func (s *Session) ChooseDifficulty(d string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepSelectingDifficulty {
		return errors.Wrapf(ErrInvalidTransition, "choose difficulty in %s", s.step)
	}
	if len(s.difficulties) == 0 {
		return errors.Wrap(ErrEmptyCatalog, "choose difficulty")
	}
	if !slices.Contains(s.difficulties, d) {
		return errors.Wrapf(ErrUnknownOption, "difficulty %q", d)
	}
	s.difficulty = d
	s.lastError = ""
	s.step = StepSelectingCategory
	return nil
}

// Back returns to difficulty selection. A challenge fetch still in flight
// is discarded when it resolves.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepSelectingCategory {
		return errors.Wrapf(ErrInvalidTransition, "back in %s", s.step)
	}
	s.difficulty = ""
	s.lastError = ""
	s.pending = pendingOps{}
	s.generation++
	s.step = StepSelectingDifficulty
	return nil
}

// ChooseCategory fetches a challenge for the stored difficulty and c. On
// failure the session stays in category selection with no challenge.
func (s *Session) ChooseCategory(ctx context.Context, c string) error {
	s.mu.Lock()
	if s.step != StepSelectingCategory || s.difficulty == "" {
		step := s.step
		s.mu.Unlock()
		return errors.Wrapf(ErrInvalidTransition, "choose category in %s", step)
	}
	if s.pending.challenge {
		s.mu.Unlock()
		return errors.Wrap(ErrBusy, "fetch challenge")
	}
	if len(s.categories) == 0 {
		s.mu.Unlock()
		return errors.Wrap(ErrEmptyCatalog, "choose category")
	}
	if !slices.Contains(s.categories, c) {
		s.mu.Unlock()
		return errors.Wrapf(ErrUnknownOption, "category %q", c)
	}
	gen := s.generation
	difficulty := s.difficulty
	s.pending.challenge = true
	s.lastError = ""
	s.mu.Unlock()

	s.logger.Debug("fetching challenge", "difficulty", difficulty, "category", c)
	ch, err := s.backend.GenerateChallenge(ctx, difficulty, c)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrStaleResponse
	}
	s.pending.challenge = false
	if err != nil {
		s.lastError = err.Error()
		s.logger.Warn("challenge fetch failed", "difficulty", difficulty, "category", c, "error", err)
		return errors.Wrap(err, "fetch challenge")
	}
	if ch.Category == "" {
		ch.Category = c
	}
	if ch.Difficulty == "" {
		ch.Difficulty = difficulty
	}

	s.category = c
	s.challenge = &ch
	s.clearChallengeState()
	s.startedAt = s.now()
	s.generation++
	s.step = StepInChallenge
	s.logger.Info("challenge started", "difficulty", difficulty, "category", c)
	return nil
}

// RequestHint fetches the hints on first use and advances the cursor on
// later calls. Past the last hint it does nothing.
func (s *Session) RequestHint(ctx context.Context) error {
	s.mu.Lock()
	if s.step != StepInChallenge && s.step != StepShowingResult {
		step := s.step
		s.mu.Unlock()
		return errors.Wrapf(ErrInvalidTransition, "request hint in %s", step)
	}
	if s.hintsFetched {
		if s.hintCursor < len(s.hints)-1 {
			s.hintCursor++
		}
		s.mu.Unlock()
		return nil
	}
	if s.pending.hints {
		s.mu.Unlock()
		return errors.Wrap(ErrBusy, "fetch hints")
	}
	gen := s.generation
	s.pending.hints = true
	s.mu.Unlock()

	hints, err := s.backend.Hints(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrStaleResponse
	}
	s.pending.hints = false
	if err != nil {
		s.lastError = err.Error()
		s.logger.Warn("hint fetch failed", "error", err)
		return errors.Wrap(err, "fetch hints")
	}
	hints = nonBlank(hints)
	if len(hints) == 0 {
		s.lastError = ErrNoHints.Error()
		return ErrNoHints
	}
	s.hints = hints
	s.hintsFetched = true
	s.hintCursor = 0
	s.lastError = ""
	return nil
}

// RevealSolution fetches the solution once the attempt budget is spent or
// the challenge is over.
func (s *Session) RevealSolution(ctx context.Context) error {
	s.mu.Lock()
	switch s.step {
	case StepInChallenge:
		if s.attempts < MaxAttempts && !s.solved {
			s.mu.Unlock()
			return ErrSolutionLocked
		}
	case StepShowingResult:
	default:
		step := s.step
		s.mu.Unlock()
		return errors.Wrapf(ErrInvalidTransition, "reveal solution in %s", step)
	}
	if s.solutionRevealed {
		s.mu.Unlock()
		return nil
	}
	if s.pending.solution {
		s.mu.Unlock()
		return errors.Wrap(ErrBusy, "fetch solution")
	}
	gen := s.generation
	s.pending.solution = true
	s.mu.Unlock()

	solution, err := s.backend.Solution(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrStaleResponse
	}
	s.pending.solution = false
	if err != nil {
		s.lastError = err.Error()
		s.logger.Warn("solution fetch failed", "error", err)
		return errors.Wrap(err, "fetch solution")
	}
	s.solution = solution
	s.solutionRevealed = true
	s.lastError = ""
	return nil
}

// Reset discards the current challenge and returns to difficulty selection.
// Results of calls still in flight are discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.difficulty = ""
	s.category = ""
	s.challenge = nil
	s.clearChallengeState()
	s.startedAt = time.Time{}
	s.pending = pendingOps{}
	s.generation++
	s.step = StepSelectingDifficulty
}

func (s *Session) clearChallengeState() {
	s.attempts = 0
	s.hints = nil
	s.hintsFetched = false
	s.hintCursor = 0
	s.solution = ""
	s.solutionRevealed = false
	s.solved = false
	s.lastResult = ""
	s.lastError = ""
}

// Snapshot is an immutable view of the session for rendering.
type Snapshot struct {
	Step         Step
	Difficulties []string
	Categories   []string
	Difficulty   string
	Category     string
	Challenge    *model.Challenge

	Attempts    int
	MaxAttempts int
	Solved      bool
	LastResult  string
	LastError   string
	StartedAt   time.Time

	Hints        []string
	HintsFetched bool
	HintCursor   int
	CurrentHint  string
	HasMoreHints bool

	Solution          string
	SolutionRevealed  bool
	CanRevealSolution bool
	CanSubmit         bool

	FetchingChallenge bool
	FetchingHints     bool
	FetchingSolution  bool
	Submitting        bool
}

// AttemptsLeft returns the remaining incorrect submissions allowed.
func (s Snapshot) AttemptsLeft() int {
	return max(s.MaxAttempts-s.Attempts, 0)
}

// Snapshot returns a copy of the current state with derived flags.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Step:              s.step,
		Difficulties:      slices.Clone(s.difficulties),
		Categories:        slices.Clone(s.categories),
		Difficulty:        s.difficulty,
		Category:          s.category,
		Attempts:          s.attempts,
		MaxAttempts:       MaxAttempts,
		Solved:            s.solved,
		LastResult:        s.lastResult,
		LastError:         s.lastError,
		StartedAt:         s.startedAt,
		Hints:             slices.Clone(s.hints),
		HintsFetched:      s.hintsFetched,
		HintCursor:        s.hintCursor,
		Solution:          s.solution,
		SolutionRevealed:  s.solutionRevealed,
		FetchingChallenge: s.pending.challenge,
		FetchingHints:     s.pending.hints,
		FetchingSolution:  s.pending.solution,
		Submitting:        s.pending.submit,
	}
	if s.challenge != nil {
		ch := *s.challenge
		snap.Challenge = &ch
	}
	if s.hintsFetched && s.hintCursor < len(s.hints) {
		snap.CurrentHint = s.hints[s.hintCursor]
		snap.HasMoreHints = s.hintCursor < len(s.hints)-1
	}
	snap.CanSubmit = s.step == StepInChallenge && !s.pending.submit
	snap.CanRevealSolution = !s.solutionRevealed && !s.pending.solution &&
		(s.step == StepShowingResult || (s.step == StepInChallenge && (s.attempts >= MaxAttempts || s.solved)))
	return snap
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
