package session

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/mock/gomock"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

func TestThreeIncorrectSubmissionsEndChallenge(t *testing.T) {
	s, backend, l := newTestSession(t)
	startChallenge(t, s, backend, "Easy", "Web")

	gomock.InOrder(
		backend.EXPECT().CheckFlag(gomock.Any(), "one").Return("❌ Incorrect, try again (1)", nil),
		backend.EXPECT().CheckFlag(gomock.Any(), "two").Return("❌ Incorrect, try again (2)", nil),
		backend.EXPECT().CheckFlag(gomock.Any(), "three").Return("❌ Incorrect, try again (3)", nil),
	)
	var attempts []int
	backend.EXPECT().SubmitProgress(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r model.ProgressReport) (model.ProgressResult, error) {
			attempts = append(attempts, r.Attempt)
			return model.ProgressResult{Success: true, Points: 10}, nil
		}).Times(3)

	for i, answer := range []string{"one", "two", "three"} {
		v, err := s.Submit(context.Background(), "neo", answer)
		if err != nil {
			t.Fatalf("submit %d: %v", i+1, err)
		}
		if v.Correct || v.Attempt != i+1 || v.Points != 0 {
			t.Fatalf("unexpected verdict %d: %+v", i+1, v)
		}
		snap := s.Snapshot()
		if snap.Attempts != i+1 {
			t.Fatalf("expected attempts %d, got %d", i+1, snap.Attempts)
		}
		wantStep := StepInChallenge
		if i+1 == MaxAttempts {
			wantStep = StepShowingResult
		}
		if snap.Step != wantStep {
			t.Fatalf("after %d attempts expected %s, got %s", i+1, wantStep, snap.Step)
		}
	}

	snap := s.Snapshot()
	if snap.LastResult != "❌ Incorrect, try again (3)" {
		t.Fatalf("expected third verdict, got %q", snap.LastResult)
	}
	if l.Total() != 0 {
		t.Fatalf("incorrect submissions must not add points, got %d", l.Total())
	}
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Fatalf("expected 1-based attempt numbers, got %v", attempts)
	}
	if _, err := s.Submit(context.Background(), "neo", "four"); !errors.Is(err, ErrChallengeClosed) {
		t.Fatalf("expected ErrChallengeClosed, got %v", err)
	}
}

func TestCorrectSubmissionAppliesLedger(t *testing.T) {
	started := time.Unix(1700000000, 0)
	s, backend, l := newTestSession(t, WithClock(func() time.Time { return started }))
	startChallenge(t, s, backend, "Hard", "Crypto")
	l.Apply(5, nil)

	backend.EXPECT().CheckFlag(gomock.Any(), "CTF{rsa}").Return("✅ Correct! Well done.", nil)
	backend.EXPECT().SubmitProgress(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r model.ProgressReport) (model.ProgressResult, error) {
			if r.Username != "trinity" || r.Category != "Crypto" || r.Difficulty != "Hard" {
				t.Errorf("unexpected report identity: %+v", r)
			}
			if r.Answer != "CTF{rsa}" || r.Attempt != 1 || !r.StartedAt.Equal(started) {
				t.Errorf("unexpected report attempt: %+v", r)
			}
			if r.Verdict != "✅ Correct! Well done." || r.Prompt == "" {
				t.Errorf("unexpected report verdict: %+v", r)
			}
			return model.ProgressResult{
				Success:      true,
				Points:       50,
				Achievements: []model.Achievement{{Name: "First Blood", Description: "Solve your first challenge"}},
			}, nil
		})

	v, err := s.Submit(context.Background(), "  trinity ", "CTF{rsa}")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !v.Correct || v.Points != 50 || len(v.Unlocked) != 1 {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	snap := s.Snapshot()
	if snap.Step != StepShowingResult || !snap.Solved {
		t.Fatalf("expected solved result, got %+v", snap)
	}
	if l.Total() != 55 {
		t.Fatalf("expected total 55, got %d", l.Total())
	}
	pending := l.Drain()
	if len(pending) != 1 || pending[0].Achievement.Name != "First Blood" {
		t.Fatalf("expected exactly First Blood, got %+v", pending)
	}
	if !snap.CanRevealSolution {
		t.Fatalf("solution should be available after solving")
	}
}

func TestResentAchievementIsNotQueuedTwice(t *testing.T) {
	s, backend, l := newTestSession(t)
	result := model.ProgressResult{Success: true, Points: 10, Achievements: []model.Achievement{{Name: "Explorer"}}}
	backend.EXPECT().CheckFlag(gomock.Any(), gomock.Any()).Return("✅ Correct", nil).Times(2)
	backend.EXPECT().SubmitProgress(gomock.Any(), gomock.Any()).Return(result, nil).Times(2)

	for i := 0; i < 2; i++ {
		startChallenge(t, s, backend, "Easy", "Web")
		if _, err := s.Submit(context.Background(), "neo", "CTF{x}"); err != nil {
			t.Fatalf("submit %d: %v", i+1, err)
		}
		s.Reset()
	}
	if l.Total() != 20 {
		t.Fatalf("expected total 20, got %d", l.Total())
	}
	if got := l.Drain(); len(got) != 1 {
		t.Fatalf("expected one queued achievement, got %+v", got)
	}
}

func TestSubmitRequiresIdentity(t *testing.T) {
	s, backend, _ := newTestSession(t)
	startChallenge(t, s, backend, "Easy", "Web")

	if _, err := s.Submit(context.Background(), "   ", "CTF{x}"); !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
	if s.Snapshot().Attempts != 0 {
		t.Fatalf("rejected submission must not count")
	}
}

func TestSubmitOutsideChallenge(t *testing.T) {
	s, _, _ := newTestSession(t)
	if _, err := s.Submit(context.Background(), "neo", "CTF{x}"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSecondSubmissionWhilePendingIsBusy(t *testing.T) {
	s, backend, _ := newTestSession(t)
	startChallenge(t, s, backend, "Easy", "Web")

	var nested error
	backend.EXPECT().CheckFlag(gomock.Any(), "first").
		DoAndReturn(func(context.Context, string) (string, error) {
			if !s.Snapshot().Submitting {
				t.Errorf("snapshot should show a pending submission")
			}
			_, nested = s.Submit(context.Background(), "neo", "second")
			return "❌ Incorrect", nil
		})
	backend.EXPECT().SubmitProgress(gomock.Any(), gomock.Any()).Return(model.ProgressResult{Success: true}, nil)

	if _, err := s.Submit(context.Background(), "neo", "first"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !errors.Is(nested, ErrBusy) {
		t.Fatalf("expected ErrBusy for the nested submission, got %v", nested)
	}
	if got := s.Snapshot().Attempts; got != 1 {
		t.Fatalf("expected exactly one attempt applied, got %d", got)
	}
}

func TestResetDuringSubmitDiscardsVerdict(t *testing.T) {
	s, backend, l := newTestSession(t)
	startChallenge(t, s, backend, "Easy", "Web")

	backend.EXPECT().CheckFlag(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string) (string, error) {
			s.Reset()
			return "✅ Correct", nil
		})

	if _, err := s.Submit(context.Background(), "neo", "CTF{x}"); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected ErrStaleResponse, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Step != StepSelectingDifficulty || snap.Solved || snap.LastResult != "" {
		t.Fatalf("stale verdict must not be applied: %+v", snap)
	}
	if l.Total() != 0 {
		t.Fatalf("stale verdict must not add points")
	}
}

func TestCheckFlagFailureKeepsAttempts(t *testing.T) {
	s, backend, _ := newTestSession(t)
	startChallenge(t, s, backend, "Easy", "Web")
	boom := errors.New("timeout")
	backend.EXPECT().CheckFlag(gomock.Any(), gomock.Any()).Return("", boom)

	if _, err := s.Submit(context.Background(), "neo", "CTF{x}"); !errors.Is(err, boom) {
		t.Fatalf("expected check error, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Attempts != 0 || snap.Step != StepInChallenge || snap.Submitting {
		t.Fatalf("failed check must not consume an attempt: %+v", snap)
	}
	if !snap.CanSubmit {
		t.Fatalf("submission should be possible again")
	}
}

func TestProgressFailureStillAppliesVerdict(t *testing.T) {
	s, backend, l := newTestSession(t)
	startChallenge(t, s, backend, "Medium", "Web")
	boom := errors.New("Database connection failed")
	backend.EXPECT().CheckFlag(gomock.Any(), gomock.Any()).Return("✅ Correct", nil)
	backend.EXPECT().SubmitProgress(gomock.Any(), gomock.Any()).Return(model.ProgressResult{}, boom)

	v, err := s.Submit(context.Background(), "neo", "CTF{x}")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !v.Correct || !errors.Is(v.ProgressErr, boom) || v.Points != 0 {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	snap := s.Snapshot()
	if snap.Step != StepShowingResult || snap.LastError == "" {
		t.Fatalf("verdict should be applied with a reported error: %+v", snap)
	}
	if l.Total() != 0 {
		t.Fatalf("unreported attempt must not add points")
	}
}

func TestRecorderReceivesAppliedAttempt(t *testing.T) {
	start := time.Unix(1700000000, 0)
	clock := start
	ctrl := gomock.NewController(t)
	rec := NewMockRecorder(ctrl)
	s, backend, _ := newTestSession(t,
		WithRecorder(rec),
		WithClock(func() time.Time { return clock }),
		WithSuccessMarker("accepted"),
	)
	startChallenge(t, s, backend, "Hard", "Crypto")
	clock = start.Add(90 * time.Second)

	backend.EXPECT().CheckFlag(gomock.Any(), gomock.Any()).Return("Flag accepted", nil)
	backend.EXPECT().SubmitProgress(gomock.Any(), gomock.Any()).Return(model.ProgressResult{Success: true, Points: 30}, nil)
	rec.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r model.AttemptRecord) error {
			if r.Username != "neo" || r.Category != "Crypto" || r.Difficulty != "Hard" {
				t.Errorf("unexpected record identity: %+v", r)
			}
			if !r.Correct || r.Points != 30 || r.Attempt != 1 || r.DurationMs != 90000 {
				t.Errorf("unexpected record outcome: %+v", r)
			}
			return errors.New("disk full")
		})

	v, err := s.Submit(context.Background(), "neo", "CTF{x}")
	if err != nil {
		t.Fatalf("recorder failure must not fail the submission: %v", err)
	}
	if !v.Correct {
		t.Fatalf("custom marker should mark the verdict correct: %+v", v)
	}
}

func TestIsCorrect(t *testing.T) {
	cases := []struct {
		verdict string
		marker  string
		want    bool
	}{
		{"✅ Correct! The flag is valid.", DefaultSuccessMarker, true},
		{"❌ Incorrect. Try again.", DefaultSuccessMarker, false},
		{"Correct", DefaultSuccessMarker, false},
		{"anything", "", false},
	}
	for _, tc := range cases {
		if got := IsCorrect(tc.verdict, tc.marker); got != tc.want {
			t.Fatalf("IsCorrect(%q, %q) = %v, want %v", tc.verdict, tc.marker, got, tc.want)
		}
	}
}

