// Package catalog loads and caches the selectable difficulties and categories.
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// ErrLoadInProgress is returned when the same list is already being loaded.
var ErrLoadInProgress = errors.New("catalog load already in progress")

// Source fetches the raw lists from the challenge service.
type Source interface {
	Difficulties(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
}

// Catalog is a snapshot of both selectable lists.
type Catalog struct {
	Difficulties []string
	Categories   []string
}

type list struct {
	items   []string
	loading bool
}

// Loader fetches the lists and keeps the last successful result of each.
type Loader struct {
	src    Source
	logger *slog.Logger

	mu           sync.Mutex
	difficulties list
	categories   list
}

// NewLoader returns a Loader backed by src.
func NewLoader(src Source, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{src: src, logger: logger}
}

// Difficulties fetches the difficulty levels. On failure the cache is left intact.
func (l *Loader) Difficulties(ctx context.Context) ([]string, error) {
	return l.load(ctx, &l.difficulties, "difficulties", l.src.Difficulties)
}

// Categories fetches the challenge categories. On failure the cache is left intact.
func (l *Loader) Categories(ctx context.Context) ([]string, error) {
	return l.load(ctx, &l.categories, "categories", l.src.Categories)
}

// LoadAll fetches both lists concurrently. Each successful list is cached
// even if the other one fails.
func (l *Loader) LoadAll(ctx context.Context) (Catalog, error) {
	var cat Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := l.Difficulties(gctx)
		cat.Difficulties = items
		return err
	})
	g.Go(func() error {
		items, err := l.Categories(gctx)
		cat.Categories = items
		return err
	})
	if err := g.Wait(); err != nil {
		return Catalog{
			Difficulties: l.CachedDifficulties(),
			Categories:   l.CachedCategories(),
		}, err
	}
	return cat, nil
}

// CachedDifficulties returns a copy of the last loaded difficulty list.
func (l *Loader) CachedDifficulties() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clone(l.difficulties.items)
}

// CachedCategories returns a copy of the last loaded category list.
func (l *Loader) CachedCategories() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clone(l.categories.items)
}

func (l *Loader) load(ctx context.Context, target *list, name string, fetch func(context.Context) ([]string, error)) ([]string, error) {
	l.mu.Lock()
	if target.loading {
		l.mu.Unlock()
		return nil, errors.Wrapf(ErrLoadInProgress, "load %s", name)
	}
	target.loading = true
	l.mu.Unlock()

	items, err := fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	target.loading = false
	if err != nil {
		l.logger.Warn("catalog load failed", "list", name, "cached", len(target.items), "error", err)
		return nil, errors.Wrapf(err, "load %s", name)
	}
	target.items = clone(items)
	l.logger.Debug("catalog loaded", "list", name, "count", len(items))
	return clone(items), nil
}

func clone(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}
