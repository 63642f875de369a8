// Package model defines shared data structures.
package model

import "time"

// Config defines client settings for a play session.
type Config struct {
	APIURL        string
	Username      string
	Timeout       time.Duration
	LogLevel      string
	SuccessMarker string
}

// HistoryConfig defines filters for the local attempt history report.
type HistoryConfig struct {
	Username string
	Category string
	Since    *time.Time
	Last     int
}

// Challenge is a single generated challenge.
type Challenge struct {
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Prompt     string `json:"challenge"`
}

// Achievement is an award unlocked by the service's scoring logic.
type Achievement struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Points      int    `json:"points,omitempty"`
}

// ProgressReport is sent to the service after every submission.
type ProgressReport struct {
	Username   string
	Category   string
	Prompt     string
	Difficulty string
	Answer     string
	Attempt    int
	StartedAt  time.Time
	Verdict    string
}

// ProgressResult is the service's answer to a progress report.
type ProgressResult struct {
	Success      bool          `json:"success"`
	Points       int           `json:"points"`
	Achievements []Achievement `json:"achievements"`
}

// UserStats is the aggregate stats record the service keeps per user.
type UserStats struct {
	ChallengesAttempted int              `json:"challenges_attempted"`
	ChallengesCompleted int              `json:"challenges_completed"`
	TotalPoints         int              `json:"total_points"`
	FastestSolve        *float64         `json:"fastest_solve"`
	PerfectSolves       int              `json:"perfect_solves"`
	CategoryCount       map[string]int   `json:"category_count"`
	DifficultyCount     map[string]int   `json:"difficulty_count"`
	Achievements        []Achievement    `json:"achievements"`
	RecentActivity      []ActivityRecord `json:"recent_activity"`
}

// ActivityRecord is one entry of a user's recent activity.
type ActivityRecord struct {
	Challenge  string `json:"challenge"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Completed  bool   `json:"completed"`
	Attempts   int    `json:"attempts"`
	Timestamp  int64  `json:"timestamp"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank                int    `json:"rank"`
	UserID              string `json:"user_id"`
	Username            string `json:"username"`
	Points              int    `json:"points"`
	ChallengesCompleted int    `json:"challenges_completed"`
}

// AttemptRecord captures one submission in the local history.
type AttemptRecord struct {
	Username    string
	Category    string
	Difficulty  string
	Prompt      string
	Attempt     int
	Correct     bool
	Points      int
	Verdict     string
	SubmittedAt time.Time
	DurationMs  int64
}

// CategoryAggregate summarizes local attempts for one category.
type CategoryAggregate struct {
	Category string
	Attempts int
	Solved   int
	Points   int
}
