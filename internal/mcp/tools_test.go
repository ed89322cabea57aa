package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/gitrate/internal/analysis"
	"github.com/blackwell-systems/gitrate/internal/fetcher"
	"github.com/blackwell-systems/gitrate/internal/insight"
	"github.com/blackwell-systems/gitrate/internal/logger"
	"github.com/blackwell-systems/gitrate/internal/model"
	"github.com/blackwell-systems/gitrate/internal/report"
	"github.com/blackwell-systems/gitrate/internal/repourl"
	"github.com/blackwell-systems/gitrate/internal/scoring"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, rawURL string) (*analysis.Result, error) {
	ref, err := repourl.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if ref.Name == "gone" {
		return nil, &fetcher.FetchError{Owner: ref.Owner, Name: ref.Name, Kind: fetcher.KindNotFound, Err: errors.New("404")}
	}
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := &model.Snapshot{
		Profile: model.Profile{Owner: ref.Owner, Name: ref.Name, FullName: ref.FullName(), URL: ref.URL(), License: model.LicenseNone},
	}
	score := scoring.Score(scoring.InputFromSnapshot(snap), at)
	return &analysis.Result{
		Ref:      ref,
		Snapshot: snap,
		Score:    score,
		Insight:  insight.Fallback(insight.Input{Snapshot: snap, Result: score}),
		At:       at,
	}, nil
}

// newTestServer creates a Server backed by the stub analyzer.
func newTestServer() *Server {
	return NewServer(stubAnalyzer{}, logger.Discard(), "test")
}

// callTool invokes the named tool handler and returns the raw result.
func callTool(s *Server, name string, args json.RawMessage) (any, error) {
	for _, tool := range s.tools {
		if tool.Name == name {
			return tool.Handler(context.Background(), args)
		}
	}
	return nil, errors.New("tool not found: " + name)
}

func TestAddTools_Names(t *testing.T) {
	s := newTestServer()
	want := []string{"analyze_repository", "parse_repository_url", "render_report"}
	if len(s.tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(s.tools))
	}
	for i, name := range want {
		if s.tools[i].Name != name {
			t.Errorf("tool %d = %q, want %q", i, s.tools[i].Name, name)
		}
		if !json.Valid(s.tools[i].InputSchema) {
			t.Errorf("tool %q has invalid schema", name)
		}
	}
}

func TestParseRepositoryURL(t *testing.T) {
	s := newTestServer()
	result, err := callTool(s, "parse_repository_url", json.RawMessage(`{"url":"git@github.com:octo/hello.git"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, ok := result.(ParseResult)
	if !ok {
		t.Fatalf("expected ParseResult, got %T", result)
	}
	if r.Owner != "octo" || r.Name != "hello" || r.URL != "https://github.com/octo/hello" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestParseRepositoryURL_Invalid(t *testing.T) {
	s := newTestServer()
	_, err := callTool(s, "parse_repository_url", json.RawMessage(`{"url":"https://github.com/octo/hello/issues"}`))
	if err == nil || err.Error() != repourl.MsgNotRoot {
		t.Errorf("expected %q, got %v", repourl.MsgNotRoot, err)
	}
}

func TestAnalyzeRepository(t *testing.T) {
	s := newTestServer()
	result, err := callTool(s, "analyze_repository", json.RawMessage(`{"url":"github.com/octo/hello"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, ok := result.(*report.Report)
	if !ok {
		t.Fatalf("expected *report.Report, got %T", result)
	}
	if r.Repository != "octo/hello" {
		t.Errorf("repository = %q", r.Repository)
	}
	if len(r.Breakdown) != 8 || len(r.Roadmap) != 3 {
		t.Errorf("breakdown=%d roadmap=%d", len(r.Breakdown), len(r.Roadmap))
	}
}

func TestAnalyzeRepository_FetchError(t *testing.T) {
	s := newTestServer()
	_, err := callTool(s, "analyze_repository", json.RawMessage(`{"url":"github.com/octo/gone"}`))
	if err == nil || !strings.HasPrefix(err.Error(), analysis.FetchFailedPrefix) {
		t.Errorf("expected fetch failure message, got %v", err)
	}
}

func TestRenderReport(t *testing.T) {
	s := newTestServer()
	result, err := callTool(s, "render_report", json.RawMessage(`{"url":"https://github.com/octo/hello"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	md, ok := result.(string)
	if !ok {
		t.Fatalf("expected string, got %T", result)
	}
	if !strings.HasPrefix(md, "# octo/hello\n") {
		t.Errorf("unexpected markdown:\n%s", md)
	}
}

func TestRenderReport_JSONFormat(t *testing.T) {
	s := newTestServer()
	result, err := callTool(s, "render_report", json.RawMessage(`{"url":"github.com/octo/hello","format":"json"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := result.(string)
	if !ok {
		t.Fatalf("expected string, got %T", result)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if decoded["repository"] != "octo/hello" {
		t.Errorf("repository = %v", decoded["repository"])
	}
}

func TestRenderReport_UnknownFormat(t *testing.T) {
	s := newTestServer()
	if _, err := callTool(s, "render_report", json.RawMessage(`{"url":"github.com/octo/hello","format":"xml"}`)); err == nil {
		t.Error("expected error for an unknown format")
	}
}

func TestAnalyze_NoAnalyzer(t *testing.T) {
	s := NewServer(nil, logger.Discard(), "test")
	if _, err := callTool(s, "analyze_repository", json.RawMessage(`{"url":"github.com/octo/hello"}`)); err == nil {
		t.Error("expected error without analyzer")
	}
}

func TestCallTool_StringResultIsRawText(t *testing.T) {
	s := newTestServer()
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	resp := sendLine(`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"render_report","arguments":{"url":"github.com/octo/hello"}}}`)
	var parsed struct {
		Result toolsCallResult `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, resp)
	}
	if parsed.Result.IsError || len(parsed.Result.Content) != 1 {
		t.Fatalf("unexpected result: %s", resp)
	}
	if !strings.HasPrefix(parsed.Result.Content[0].Text, "# octo/hello") {
		t.Errorf("expected markdown text, got %q", parsed.Result.Content[0].Text)
	}
}
