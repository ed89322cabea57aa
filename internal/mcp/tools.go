package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/gitrate/internal/analysis"
	"github.com/blackwell-systems/gitrate/internal/report"
	"github.com/blackwell-systems/gitrate/internal/repourl"
)

// Analyzer runs one analysis for a raw repository URL.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*analysis.Result, error)
}

// ParseResult is the outcome of parse_repository_url.
type ParseResult struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	URL      string `json:"url"`
}

type urlArgs struct {
	URL    string `json:"url"`
	Format string `json:"format,omitempty"`
}

var urlSchema = json.RawMessage(`{"type":"object","properties":{"url":{"type":"string","description":"GitHub repository URL, e.g. https://github.com/owner/repo"}},"required":["url"],"additionalProperties":false}`)

var reportSchema = json.RawMessage(`{"type":"object","properties":{"url":{"type":"string","description":"GitHub repository URL, e.g. https://github.com/owner/repo"},"format":{"type":"string","enum":["markdown","json"],"description":"Report format, markdown by default"}},"required":["url"],"additionalProperties":false}`)

// addTools registers the analysis tools on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "analyze_repository",
		Description: "Score a public GitHub repository 0-100 and return the breakdown, summary, roadmap and fetched metadata as JSON.",
		InputSchema: urlSchema,
		Handler:     s.handleAnalyze,
	})
	s.registerTool(toolDef{
		Name:        "parse_repository_url",
		Description: "Normalize a GitHub repository URL to its owner and name without calling GitHub.",
		InputSchema: urlSchema,
		Handler:     s.handleParse,
	})
	s.registerTool(toolDef{
		Name:        "render_report",
		Description: "Analyze a GitHub repository and return the markdown report (" + report.FileName + "), or the full report as JSON.",
		InputSchema: reportSchema,
		Handler:     s.handleRenderReport,
	})
}

func decodeArgs(args json.RawMessage) (urlArgs, error) {
	var a urlArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return urlArgs{}, fmt.Errorf("invalid arguments: %w", err)
	}
	return a, nil
}

func decodeURLArgs(args json.RawMessage) (string, error) {
	a, err := decodeArgs(args)
	return a.URL, err
}

func (s *Server) handleAnalyze(ctx context.Context, args json.RawMessage) (any, error) {
	res, err := s.analyze(ctx, args)
	if err != nil {
		return nil, err
	}
	return res.Report(), nil
}

func (s *Server) handleParse(_ context.Context, args json.RawMessage) (any, error) {
	raw, err := decodeURLArgs(args)
	if err != nil {
		return nil, err
	}
	ref, err := repourl.Parse(raw)
	if err != nil {
		return nil, err
	}
	return ParseResult{
		Owner:    ref.Owner,
		Name:     ref.Name,
		FullName: ref.FullName(),
		URL:      ref.URL(),
	}, nil
}

func (s *Server) handleRenderReport(ctx context.Context, args json.RawMessage) (any, error) {
	a, err := decodeArgs(args)
	if err != nil {
		return nil, err
	}
	f, err := report.GetFormatter(a.Format)
	if err != nil {
		return nil, err
	}
	res, err := s.analyze(ctx, args)
	if err != nil {
		return nil, err
	}
	return f.Format(res.Report())
}

func (s *Server) analyze(ctx context.Context, args json.RawMessage) (*analysis.Result, error) {
	raw, err := decodeURLArgs(args)
	if err != nil {
		return nil, err
	}
	if s.analyzer == nil {
		return nil, errors.New("analysis is not configured")
	}
	res, err := s.analyzer.Analyze(ctx, strings.TrimSpace(raw))
	if err != nil {
		s.logger.Debug("mcp analysis failed", "url", raw, "error", err)
		return nil, errors.New(analysis.Message(err))
	}
	return res, nil
}
