package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

const (
	// DefaultBaseURL is where the trainer service listens by default.
	DefaultBaseURL = "http://localhost:5000"
	// DefaultTimeout bounds a single service call.
	DefaultTimeout = 60 * time.Second

	maxBodyBytes = 4 << 20
)

// Client talks to the challenge service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid api url %q", baseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.Newf("invalid api url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope carries the error field every service response may include.
type envelope struct {
	Error string `json:"error"`
}

// Status checks that the service is running and returns its status line.
func (c *Client) Status(ctx context.Context) (string, error) {
	var resp struct {
		envelope
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Difficulties lists the selectable difficulty levels.
func (c *Client) Difficulties(ctx context.Context) ([]string, error) {
	var resp struct {
		envelope
		Levels []string `json:"difficulty_levels"`
	}
	if err := c.get(ctx, "/get_difficulty_levels", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Levels, nil
}

// Categories lists the selectable challenge categories.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var resp struct {
		envelope
		Categories []string `json:"categories"`
	}
	if err := c.get(ctx, "/get_categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// GenerateChallenge asks the service for a new challenge.
func (c *Client) GenerateChallenge(ctx context.Context, difficulty, category string) (model.Challenge, error) {
	query := url.Values{}
	query.Set("difficulty", difficulty)
	query.Set("category", category)
	var resp struct {
		envelope
		model.Challenge
	}
	if err := c.get(ctx, "/generate_ctf", query, &resp); err != nil {
		return model.Challenge{}, err
	}
	if resp.Prompt == "" {
		return model.Challenge{}, newRequestError(http.StatusOK, "service returned an empty challenge")
	}
	return resp.Challenge, nil
}

// Hints returns the hints for the current challenge.
func (c *Client) Hints(ctx context.Context) ([]string, error) {
	var resp struct {
		envelope
		Hints []string `json:"hints"`
	}
	if err := c.get(ctx, "/get_hint", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Hints, nil
}

// Solution returns the solution text for the current challenge.
func (c *Client) Solution(ctx context.Context) (string, error) {
	var resp struct {
		envelope
		Solution string `json:"solution"`
	}
	if err := c.get(ctx, "/get_solution", nil, &resp); err != nil {
		return "", err
	}
	return resp.Solution, nil
}

// CheckFlag submits an answer and returns the service's verdict text.
func (c *Client) CheckFlag(ctx context.Context, answer string) (string, error) {
	body := map[string]string{"flag": answer}
	var resp struct {
		envelope
		Result string `json:"result"`
	}
	if err := c.post(ctx, "/check_flag", body, &resp); err != nil {
		return "", err
	}
	return resp.Result, nil
}

type progressPayload struct {
	UserID     string  `json:"user_id"`
	Username   string  `json:"username"`
	Category   string  `json:"category"`
	Challenge  string  `json:"challenge"`
	Difficulty string  `json:"difficulty"`
	UserAnswer string  `json:"user_answer"`
	Attempts   int     `json:"attempts"`
	StartTime  float64 `json:"start_time"`
	Result     string  `json:"result"`
}

// SubmitProgress records an attempt with the service.
func (c *Client) SubmitProgress(ctx context.Context, report model.ProgressReport) (model.ProgressResult, error) {
	payload := progressPayload{
		UserID:     report.Username,
		Username:   report.Username,
		Category:   report.Category,
		Challenge:  report.Prompt,
		Difficulty: report.Difficulty,
		UserAnswer: report.Answer,
		Attempts:   report.Attempt,
		StartTime:  float64(report.StartedAt.UnixMilli()) / 1000,
		Result:     report.Verdict,
	}
	var resp struct {
		envelope
		model.ProgressResult
	}
	if err := c.post(ctx, "/submit_answer", payload, &resp); err != nil {
		return model.ProgressResult{}, err
	}
	return resp.ProgressResult, nil
}

// UserStats fetches the aggregate stats for a user.
func (c *Client) UserStats(ctx context.Context, username string) (model.UserStats, error) {
	var resp struct {
		envelope
		model.UserStats
	}
	if err := c.get(ctx, "/user_stats/"+url.PathEscape(username), nil, &resp); err != nil {
		return model.UserStats{}, err
	}
	return resp.UserStats, nil
}

// Leaderboard fetches the ranked users.
func (c *Client) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	if err := c.get(ctx, "/leaderboard", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("service call failed", "method", req.Method, "path", path, "error", err)
		return unreachable(err, req.Method, path)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return unreachable(err, req.Method, path)
	}
	c.logger.Debug("service call", "method", req.Method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	var env envelope
	// Arrays and plain-text bodies have no envelope; ignore decode errors here.
	_ = json.Unmarshal(data, &env)
	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return newRequestError(resp.StatusCode, msg)
	}
	if env.Error != "" {
		return newRequestError(resp.StatusCode, env.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newRequestError(resp.StatusCode, "malformed service response: "+err.Error())
	}
	return nil
}
