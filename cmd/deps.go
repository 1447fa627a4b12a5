package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/aimentor/internal/blob"
	"github.com/abhisek/aimentor/internal/catalog"
	"github.com/abhisek/aimentor/internal/chat"
	"github.com/abhisek/aimentor/internal/command"
	"github.com/abhisek/aimentor/internal/config"
	"github.com/abhisek/aimentor/internal/edu"
	"github.com/abhisek/aimentor/internal/llm"
	"github.com/abhisek/aimentor/internal/logger"
	"github.com/abhisek/aimentor/internal/prompt"
	"github.com/abhisek/aimentor/internal/store"
)

// deps holds the wired service graph shared by serve and chat.
type deps struct {
	store   *store.Store
	blobs   blob.Store
	catalog *catalog.Loader
	chat    *chat.Service
	edu     *edu.Service

	closers []func() error
}

func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// newBlobStore opens the configured file storage backend.
func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, func() error, error) {
	switch cfg.Blob.Backend {
	case "gcs":
		g, err := blob.NewGCS(ctx, cfg.Blob.GCS)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		d, err := blob.NewDir(cfg.Blob.Dir)
		if err != nil {
			return nil, nil, err
		}
		return d, func() error { return nil }, nil
	}
}

// newCatalogLoader renders the catalog from s, caching it in Redis when an
// address is configured.
func newCatalogLoader(cfg *config.Config, s *store.Store, log *logger.Logger) (*catalog.Loader, func() error) {
	if cfg.Redis.Addr == "" {
		return catalog.NewLoader(s.Content(), nil, 0, log), func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cache := catalog.NewRedisCache(client, cfg.Redis.Prefix)
	return catalog.NewLoader(s.Content(), cache, cfg.Redis.TTL, log), client.Close
}

// buildDeps wires the store, file storage, catalog cache, model backend and
// the services on top of them.
func buildDeps(ctx context.Context, cfg *config.Config, log *logger.Logger) (*deps, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	d := &deps{store: s, closers: []func() error{s.Close}}

	blobs, closeBlobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	d.blobs = blobs
	d.closers = append(d.closers, closeBlobs)

	loader, closeCache := newCatalogLoader(cfg, s, log)
	d.catalog = loader
	d.closers = append(d.closers, closeCache)

	provider, err := llm.NewProvider(ctx, cfg.LLM, s.Events(), log)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	builder := prompt.NewBuilder(s.Students(), s.Content(), blobs, loader, log)
	executor := command.NewExecutor(s.Students(), s.Accounts(), log)
	d.chat = chat.NewService(s.Students(), s.Chats(), builder, provider, executor,
		chat.Options{Timeout: cfg.LLM.Timeout, MaxTokens: cfg.LLM.MaxTokens}, log)
	d.edu = edu.NewService(s.Students(), s.Content(), blobs, log)
	return d, nil
}
