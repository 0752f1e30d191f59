package main

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"

	"pcadvisor/internal/advisor"
	"pcadvisor/internal/catalog"
	"pcadvisor/internal/config"
	"pcadvisor/internal/gemini"
	"pcadvisor/internal/jsonl"
	"pcadvisor/internal/specsum"
)

// catalogSource is the opened catalog plus what the caller must release.
type catalogSource struct {
	store    catalog.Store
	postgres *catalog.PostgresStore
	stats    *jsonl.Stats
	closer   io.Closer
}

func (s catalogSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// openCatalog prefers Postgres when a DSN is configured and falls back to a
// JSONL snapshot directory.
func openCatalog(ctx context.Context, cfg *config.Config) (catalogSource, error) {
	if cfg.Database.DSN != "" {
		pg, err := catalog.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return catalogSource{}, err
		}
		log.Info().Msg("catalog: using postgres")
		return catalogSource{store: pg, postgres: pg, closer: pg}, nil
	}
	if cfg.Catalog.JSONLDir == "" {
		return catalogSource{}, errors.New("no catalog configured: set database.dsn or catalog.jsonl_dir")
	}
	mem, stats, err := jsonl.Open(ctx, cfg.Catalog.JSONLDir)
	if err != nil {
		return catalogSource{}, err
	}
	return catalogSource{store: mem, stats: &stats}, nil
}

func geminiClient(cfg *config.Config) *gemini.Client {
	return gemini.NewClient(gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		Model:          cfg.Gemini.Model,
		ConnectTimeout: cfg.Gemini.ConnectTimeout,
		Timeout:        cfg.Gemini.Timeout,
		RatePerSecond:  cfg.Gemini.RatePerSec,
		Burst:          1,
	})
}

func newAdvisor(cfg *config.Config, store catalog.Store, rec advisor.Recorder) (*advisor.Service, error) {
	if cfg.Gemini.APIKey == "" {
		log.Warn().Msg("gemini api key is not set; AI calls will fail")
	}
	digests, err := specsum.NewCache(cfg.Catalog.DigestCache)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = advisor.NopRecorder{}
	}
	return advisor.NewService(store, digests, geminiClient(cfg), rec, advisor.Options{
		Timeout: cfg.Gemini.Timeout,
	}), nil
}
