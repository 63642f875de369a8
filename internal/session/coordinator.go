package session

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

// Verdict is the outcome of one submission.
type Verdict struct {
	Text     string
	Correct  bool
	Attempt  int
	Points   int
	Unlocked []model.Achievement

	// ProgressErr is set when the attempt could not be reported. The
	// verdict is applied regardless.
	ProgressErr error
}

// IsCorrect reports whether verdict text carries the success marker.
func IsCorrect(verdict, marker string) bool {
	return marker != "" && strings.Contains(verdict, marker)
}

// Submit checks answer against the current challenge, reports the attempt
// for username and applies the result.
func (s *Session) Submit(ctx context.Context, username, answer string) (Verdict, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Verdict{}, ErrMissingIdentity
	}

	s.mu.Lock()
	switch {
	case s.step == StepShowingResult:
		s.mu.Unlock()
		return Verdict{}, ErrChallengeClosed
	case s.step != StepInChallenge || s.challenge == nil:
		step := s.step
		s.mu.Unlock()
		return Verdict{}, errors.Wrapf(ErrInvalidTransition, "submit in %s", step)
	case s.pending.submit:
		s.mu.Unlock()
		return Verdict{}, errors.Wrap(ErrBusy, "submit")
	}
	s.pending.submit = true
	gen := s.generation
	challenge := *s.challenge
	attempt := s.attempts + 1
	startedAt := s.startedAt
	s.mu.Unlock()

	text, err := s.backend.CheckFlag(ctx, answer)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return Verdict{}, ErrStaleResponse
		}
		s.pending.submit = false
		s.lastError = err.Error()
		s.logger.Warn("flag check failed", "attempt", attempt, "error", err)
		return Verdict{}, errors.Wrap(err, "check flag")
	}

	if s.stale(gen) {
		return Verdict{}, ErrStaleResponse
	}

	v := Verdict{
		Text:    text,
		Correct: IsCorrect(text, s.successMarker),
		Attempt: attempt,
	}

	result, perr := s.backend.SubmitProgress(ctx, model.ProgressReport{
		Username:   username,
		Category:   challenge.Category,
		Prompt:     challenge.Prompt,
		Difficulty: challenge.Difficulty,
		Answer:     answer,
		Attempt:    attempt,
		StartedAt:  startedAt,
		Verdict:    text,
	})
	if perr != nil {
		s.logger.Warn("progress report failed", "user", username, "attempt", attempt, "error", perr)
		v.ProgressErr = perr
	}

	if err := s.apply(gen, &v, result); err != nil {
		return Verdict{}, err
	}
	s.record(ctx, username, challenge, v, startedAt)
	return v, nil
}

func (s *Session) apply(gen uint64, v *Verdict, result model.ProgressResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrStaleResponse
	}
	s.pending.submit = false
	s.lastResult = v.Text
	s.lastError = ""
	if v.ProgressErr != nil {
		s.lastError = "progress not recorded: " + v.ProgressErr.Error()
	}

	if v.Correct {
		s.solved = true
		s.step = StepShowingResult
		if v.ProgressErr == nil {
			v.Points = max(result.Points, 0)
			v.Unlocked = s.ledger.Apply(result.Points, result.Achievements)
		}
		s.logger.Info("challenge solved", "attempt", v.Attempt, "points", v.Points)
		return nil
	}

	s.attempts++
	if s.attempts >= MaxAttempts {
		s.step = StepShowingResult
		s.logger.Info("attempts exhausted", "attempts", s.attempts)
	}
	return nil
}

func (s *Session) record(ctx context.Context, username string, ch model.Challenge, v Verdict, startedAt time.Time) {
	if s.recorder == nil {
		return
	}
	now := s.now()
	rec := model.AttemptRecord{
		Username:    username,
		Category:    ch.Category,
		Difficulty:  ch.Difficulty,
		Prompt:      ch.Prompt,
		Attempt:     v.Attempt,
		Correct:     v.Correct,
		Points:      v.Points,
		Verdict:     v.Text,
		SubmittedAt: now,
	}
	if !startedAt.IsZero() {
		rec.DurationMs = now.Sub(startedAt).Milliseconds()
	}
	if err := s.recorder.RecordAttempt(ctx, rec); err != nil {
		s.logger.Warn("record attempt failed", "error", err)
	}
}

func (s *Session) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation
}
