// Package store handles SQLite persistence of local attempt history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/verte-zerg/ctfsensei/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const profileUsernameKey = "last_username"

// Store wraps SQLite access for attempt history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, errors.Wrap(err, "migrate database")
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			prompt TEXT NOT NULL,
			attempt INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			points INTEGER NOT NULL,
			verdict TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS profile (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_submitted_at ON attempts(submitted_at);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_username ON attempts(username);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordAttempt stores one applied submission.
func (s *Store) RecordAttempt(ctx context.Context, rec model.AttemptRecord) error {
	submitted := rec.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (username, category, difficulty, prompt, attempt, correct, points, verdict, submitted_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Username,
		rec.Category,
		rec.Difficulty,
		rec.Prompt,
		rec.Attempt,
		boolToInt(rec.Correct),
		rec.Points,
		rec.Verdict,
		submitted.UTC().Format(time.RFC3339Nano),
		rec.DurationMs,
	)
	if err != nil {
		return errors.Wrap(err, "insert attempt")
	}
	return nil
}

func historyFilter(cfg model.HistoryConfig) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Username != "" {
		clauses = append(clauses, "username = ?")
		args = append(args, cfg.Username)
	}
	if cfg.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, cfg.Category)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "submitted_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	return strings.Join(clauses, " AND "), args
}

// ListAttempts returns attempts matching cfg in submission order. When
// cfg.Last is positive only the most recent Last attempts are returned.
func (s *Store) ListAttempts(ctx context.Context, cfg model.HistoryConfig) ([]model.AttemptRecord, error) {
	where, args := historyFilter(cfg)
	limit := ""
	if cfg.Last > 0 {
		limit = "LIMIT ?"
		args = append(args, cfg.Last)
	}
	query := fmt.Sprintf(`SELECT username, category, difficulty, prompt, attempt, correct, points, verdict, submitted_at, duration_ms
		FROM (
			SELECT * FROM attempts
			WHERE %s
			ORDER BY submitted_at DESC, id DESC
			%s
		)
		ORDER BY submitted_at ASC, id ASC`, where, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query attempts")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.AttemptRecord
	for rows.Next() {
		var rec model.AttemptRecord
		var correct int
		var submittedAt string
		if err := rows.Scan(&rec.Username, &rec.Category, &rec.Difficulty, &rec.Prompt, &rec.Attempt,
			&correct, &rec.Points, &rec.Verdict, &submittedAt, &rec.DurationMs); err != nil {
			return nil, errors.Wrap(err, "scan attempt")
		}
		parsed, err := time.Parse(time.RFC3339Nano, submittedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "parse submitted_at %q", submittedAt)
		}
		rec.Correct = correct != 0
		rec.SubmittedAt = parsed
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate attempts")
	}
	return result, nil
}

// CategoryAggregates summarizes attempts matching cfg per category.
// cfg.Last is ignored.
func (s *Store) CategoryAggregates(ctx context.Context, cfg model.HistoryConfig) ([]model.CategoryAggregate, error) {
	where, args := historyFilter(cfg)
	query := fmt.Sprintf(`SELECT category, COUNT(*) AS attempts, SUM(correct) AS solved, SUM(points) AS points
		FROM attempts
		WHERE %s
		GROUP BY category
		ORDER BY category ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query category aggregates")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CategoryAggregate
	for rows.Next() {
		var agg model.CategoryAggregate
		if err := rows.Scan(&agg.Category, &agg.Attempts, &agg.Solved, &agg.Points); err != nil {
			return nil, errors.Wrap(err, "scan category aggregate")
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate category aggregates")
	}
	return result, nil
}

// SaveUsername remembers name as the last used identity.
func (s *Store) SaveUsername(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		profileUsernameKey, name)
	if err != nil {
		return errors.Wrap(err, "save username")
	}
	return nil
}

// LastUsername returns the remembered identity, or "" when none is stored.
func (s *Store) LastUsername(ctx context.Context) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM profile WHERE key = ?`, profileUsernameKey).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "load username")
	}
	return name, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
