// Package analysis runs one repository through the whole pipeline: URL
// normalization, cached metadata fetch, scoring and insight generation.
// The CLI, the web server and the MCP server all go through Service.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/gitrate/internal/fetchcache"
	"github.com/blackwell-systems/gitrate/internal/insight"
	"github.com/blackwell-systems/gitrate/internal/model"
	"github.com/blackwell-systems/gitrate/internal/report"
	"github.com/blackwell-systems/gitrate/internal/repourl"
	"github.com/blackwell-systems/gitrate/internal/scoring"
)

// Fetcher returns repository snapshots and whether they came from cache.
type Fetcher interface {
	FetchResult(ctx context.Context, owner, name string) (fetchcache.Result, error)
	Invalidate(owner, name string) error
}

// Result is one completed analysis.
type Result struct {
	RunID    string
	Ref      repourl.Ref
	Snapshot *model.Snapshot
	Score    scoring.Result
	Insight  insight.Insight
	CacheHit bool
	// At is the instant the score was computed against.
	At time.Time
}

// Report converts the result into an exportable report.
func (r *Result) Report() *report.Report {
	rep := report.New(r.Snapshot, r.Score, r.Insight)
	if rep.Repository == "" {
		rep.Repository = r.Ref.FullName()
	}
	if rep.URL == "" {
		rep.URL = r.Ref.URL()
	}
	rep.CacheHit = r.CacheHit
	rep.RunID = r.RunID
	rep.GeneratedAt = r.At
	return rep
}

// Service wires the pipeline stages together.
type Service struct {
	fetcher  Fetcher
	insights *insight.Generator
	engine   *scoring.Engine
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for scoring.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEngine replaces the default scoring rules.
func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) { s.engine = e }
}

// NewService returns a Service. A nil generator means every insight is the
// deterministic fallback.
func NewService(f Fetcher, gen *insight.Generator, opts ...Option) *Service {
	s := &Service{
		fetcher:  f,
		insights: gen,
		engine:   scoring.NewEngine(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze normalizes rawURL and analyses the repository it names. Input
// problems are returned as *repourl.InputError and fetch failures as
// *fetcher.FetchError, both unwrapped so callers can match them.
func (s *Service) Analyze(ctx context.Context, rawURL string) (*Result, error) {
	ref, err := repourl.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeRef(ctx, ref)
}

// Refresh is Analyze with any cached snapshot dropped first, so the
// repository is refetched and the cache holds the fresh result afterwards.
func (s *Service) Refresh(ctx context.Context, rawURL string) (*Result, error) {
	ref, err := repourl.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if err := s.fetcher.Invalidate(ref.Owner, ref.Name); err != nil {
		s.logger.Warn("could not drop cached snapshot", "repo", ref.FullName(), "error", err)
	}
	return s.AnalyzeRef(ctx, ref)
}

// AnalyzeRef analyses an already normalized repository reference.
func (s *Service) AnalyzeRef(ctx context.Context, ref repourl.Ref) (*Result, error) {
	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "repo", ref.FullName())
	start := time.Now()

	fetched, err := s.fetcher.FetchResult(ctx, ref.Owner, ref.Name)
	if err != nil {
		log.Warn("fetch failed", "error", err)
		return nil, err
	}
	if fetched.Snapshot == nil {
		return nil, fmt.Errorf("fetching %s: empty snapshot", ref.FullName())
	}

	at := s.now()
	score := s.engine.Score(scoring.InputFromSnapshot(fetched.Snapshot), at)
	ins := s.insights.Generate(ctx, insight.Input{Snapshot: fetched.Snapshot, Result: score})

	log.Info("analysis complete",
		"score", score.Score,
		"grade", score.Grade,
		"cache_hit", fetched.Hit,
		"insight_source", ins.Source,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return &Result{
		RunID:    runID,
		Ref:      ref,
		Snapshot: fetched.Snapshot,
		Score:    score,
		Insight:  ins,
		CacheHit: fetched.Hit,
		At:       at,
	}, nil
}
