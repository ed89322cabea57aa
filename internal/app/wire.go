package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/blackwell-systems/gitrate/internal/analysis"
	"github.com/blackwell-systems/gitrate/internal/config"
	"github.com/blackwell-systems/gitrate/internal/fetchcache"
	"github.com/blackwell-systems/gitrate/internal/fetcher"
	"github.com/blackwell-systems/gitrate/internal/insight"
	"github.com/blackwell-systems/gitrate/internal/store"
)

// serviceOptions are per-command switches layered over the config.
type serviceOptions struct {
	noAI bool
}

// buildService assembles the analysis pipeline from c. The returned close
// function releases the cache database, if one was opened.
func buildService(c *config.Config, opts serviceOptions) (*analysis.Service, func() error, error) {
	log := slog.Default()

	src, err := fetcher.New(fetcher.Options{
		Token:        c.GitHub.Token,
		BaseURL:      c.GitHub.BaseURL,
		GraphQLURL:   c.GitHub.GraphQLURL,
		Timeout:      c.GitHub.Timeout,
		ReadmeChars:  c.GitHub.ReadmeExcerptChars,
		QualityFiles: c.Scoring.QualityFiles,
		Logger:       log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating GitHub client: %w", err)
	}

	cache, closeCache, err := openCache(c.Cache.Backend, c.Cache.Path)
	if err != nil {
		return nil, nil, err
	}

	var completer insight.Completer
	if !opts.noAI {
		completer, err = newCompleter(c)
		if err != nil {
			_ = closeCache()
			return nil, nil, err
		}
	}
	if completer == nil {
		log.Debug("no model configured, insights use the deterministic fallback")
	}

	fetch := fetchcache.New(src, cache, c.Cache.TTL, fetchcache.WithLogger(log))
	svc := analysis.NewService(fetch, insight.NewGenerator(completer, log), analysis.WithLogger(log))
	return svc, closeCache, nil
}

// openCache returns the cache for backend. A nil cache disables caching.
func openCache(backend, path string) (fetchcache.Cache, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(backend) {
	case "none":
		return nil, noop, nil
	case "memory":
		return fetchcache.NewMemory(), noop, nil
	default:
		db, err := store.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening cache database: %w", err)
		}
		return fetchcache.SQLite{DB: db}, db.Close, nil
	}
}

func newCompleter(c *config.Config) (insight.Completer, error) {
	completer, err := insight.NewCompleter(strings.ToLower(c.LLM.Provider), insight.ClientOptions{
		APIKey:    c.LLM.APIKey,
		Model:     c.LLM.Model,
		MaxTokens: c.LLM.MaxTokens,
		Timeout:   c.LLM.Timeout,
		BaseURL:   c.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}
	return completer, nil
}
