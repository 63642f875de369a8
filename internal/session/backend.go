package session

//go:generate mockgen -source=backend.go -destination=backend_mock.go -package=session

import (
	"context"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

// Backend is the subset of the challenge service a session drives.
type Backend interface {
	GenerateChallenge(ctx context.Context, difficulty, category string) (model.Challenge, error)
	Hints(ctx context.Context) ([]string, error)
	Solution(ctx context.Context) (string, error)
	CheckFlag(ctx context.Context, answer string) (string, error)
	SubmitProgress(ctx context.Context, report model.ProgressReport) (model.ProgressResult, error)
}

// Recorder stores applied attempts locally.
type Recorder interface {
	RecordAttempt(ctx context.Context, rec model.AttemptRecord) error
}
