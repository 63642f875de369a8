// Package ledger accumulates points and achievements earned during a run.
package ledger

import (
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/ctfsensei/internal/model"
)

// Dwell is how long an achievement notification stays visible.
const Dwell = 5 * time.Second

// Notification is an unlocked achievement awaiting display.
type Notification struct {
	Achievement model.Achievement
	ExpiresAt   time.Time
}

// Expired reports whether the notification should no longer be shown.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Ledger holds the running total and pending achievement notifications.
// It is not persisted.
type Ledger struct {
	mu      sync.Mutex
	total   int
	seen    map[string]struct{}
	pending []Notification
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source used to stamp notifications.
func WithClock(fn func() time.Time) Option {
	return func(l *Ledger) {
		if fn != nil {
			l.now = fn
		}
	}
}

// New returns an empty Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		seen: map[string]struct{}{},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply adds points to the total and queues achievements not announced
// before. It returns the newly unlocked achievements.
func (l *Ledger) Apply(points int, achievements []model.Achievement) []model.Achievement {
	l.mu.Lock()
	defer l.mu.Unlock()

	if points < 0 {
		points = 0
	}
	l.total += points

	expires := l.now().Add(Dwell)
	var unlocked []model.Achievement
	for _, a := range achievements {
		key := strings.TrimSpace(a.Name)
		if key == "" {
			continue
		}
		if _, ok := l.seen[key]; ok {
			continue
		}
		l.seen[key] = struct{}{}
		l.pending = append(l.pending, Notification{Achievement: a, ExpiresAt: expires})
		unlocked = append(unlocked, a)
	}
	return unlocked
}

// Total returns the points accumulated so far.
func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Drain returns all pending notifications and clears the queue.
func (l *Ledger) Drain() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.pending
	l.pending = nil
	return out
}

// Active drops notifications expired at now and returns the rest.
func (l *Ledger) Active(now time.Time) []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.pending[:0]
	for _, n := range l.pending {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	l.pending = kept
	if len(kept) == 0 {
		return nil
	}
	out := make([]Notification, len(kept))
	copy(out, kept)
	return out
}
