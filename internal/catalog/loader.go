package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/aimentor/internal/logger"
	"github.com/abhisek/aimentor/internal/store"
)

// cacheKey is bumped whenever the rendered layout changes.
const cacheKey = "catalog:fragment:v1"

// Source lists the catalog entities in their canonical order.
// store.ContentRepo satisfies it.
type Source interface {
	Topics(ctx context.Context) ([]store.Topic, error)
	Blocks(ctx context.Context) ([]store.Block, error)
	Chapters(ctx context.Context) ([]store.Chapter, error)
}

// Cache memoizes rendered fragments.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Loader renders the catalog fragment from the store, optionally through a
// cache.
type Loader struct {
	src   Source
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewLoader creates a loader. cache may be nil.
func NewLoader(src Source, cache Cache, ttl time.Duration, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{src: src, cache: cache, ttl: ttl, log: log}
}

// Fragment returns the catalog section of an onboarding prompt. Cache
// failures are logged and a fresh fragment is rendered.
func (l *Loader) Fragment(ctx context.Context) (string, error) {
	if l.cache != nil {
		v, ok, err := l.cache.Get(ctx, cacheKey)
		switch {
		case err != nil:
			l.log.Warn("catalog cache read failed", "error", err)
		case ok:
			return v, nil
		}
	}

	topics, err := l.src.Topics(ctx)
	if err != nil {
		return "", fmt.Errorf("load topics: %w", err)
	}
	blocks, err := l.src.Blocks(ctx)
	if err != nil {
		return "", fmt.Errorf("load blocks: %w", err)
	}
	chapters, err := l.src.Chapters(ctx)
	if err != nil {
		return "", fmt.Errorf("load chapters: %w", err)
	}

	frag, err := Fragment(topics, blocks, chapters)
	if err != nil {
		return "", fmt.Errorf("render catalog: %w", err)
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, cacheKey, frag, l.ttl); err != nil {
			l.log.Warn("catalog cache write failed", "error", err)
		}
	}
	return frag, nil
}

// Invalidate drops the cached fragment after the catalog changes.
func (l *Loader) Invalidate(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Delete(ctx, cacheKey)
}
