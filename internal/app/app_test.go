package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/gitrate/internal/analysis"
	"github.com/blackwell-systems/gitrate/internal/config"
	"github.com/blackwell-systems/gitrate/internal/fetchcache"
	"github.com/blackwell-systems/gitrate/internal/fetcher"
	"github.com/blackwell-systems/gitrate/internal/logger"
	"github.com/blackwell-systems/gitrate/internal/model"
	"github.com/blackwell-systems/gitrate/internal/report"
	"github.com/blackwell-systems/gitrate/internal/repourl"
	"github.com/blackwell-systems/gitrate/internal/store"
)

func TestCommands_Registered(t *testing.T) {
	want := map[string]bool{"analyze": false, "report": false, "serve": false, "mcp": false, "cache": false, "doctor": false}
	for _, cmd := range rootCmd.Commands() {
		name := strings.Fields(cmd.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s subcommand not registered on rootCmd", name)
		}
	}
}

func TestCacheSubcommands(t *testing.T) {
	var names []string
	for _, c := range cacheCmd.Commands() {
		names = append(names, c.Name())
	}
	if strings.Join(names, ",") != "clear,list" {
		t.Errorf("cache subcommands = %v", names)
	}
}

func TestGlobalFlags(t *testing.T) {
	for _, name := range []string{"config", "no-color", "json", "verbose", "log-format"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
	if f := reportCmd.Flags().Lookup("output"); f == nil || f.DefValue != "gitrate-report.md" || f.Shorthand != "o" {
		t.Errorf("report --output flag = %+v", f)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sk-ant-api03-abcdef", "sk-ant-a..."},
		{"short", "*****"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := maskSecret(tc.in); got != tc.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDoctorChecks(t *testing.T) {
	if c := checkGitHubToken(""); c.Passed {
		t.Error("empty token should fail")
	}
	if c := checkGitHubToken("ghp_1234567890"); !c.Passed || !strings.Contains(c.Message, "ghp_1234...") {
		t.Errorf("token check = %+v", c)
	}
	if c := checkModelKey(config.LLM{Provider: "gemini"}); c.Passed || !strings.Contains(c.Name, "gemini") {
		t.Errorf("model key check = %+v", c)
	}
	if c := checkConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); c.Passed {
		t.Error("explicit missing config should fail")
	}

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	c := checkCache(config.Cache{Backend: "sqlite", Path: dbPath, TTL: 15 * time.Minute})
	if !c.Passed || !strings.Contains(c.Message, "schema v1") || !strings.Contains(c.Message, "0 entries") {
		t.Errorf("cache check = %+v", c)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("cache database not created: %v", err)
	}
}

func TestOpenCache(t *testing.T) {
	cache, closeFn, err := openCache("none", "")
	if err != nil || cache != nil {
		t.Errorf("none backend: cache=%v err=%v", cache, err)
	}
	_ = closeFn()

	cache, closeFn, err = openCache("memory", "")
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := cache.(*fetchcache.Memory); !ok {
		t.Errorf("memory backend returned %T", cache)
	}
	_ = closeFn()

	cache, closeFn, err = openCache("sqlite", filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	if _, ok := cache.(fetchcache.SQLite); !ok {
		t.Errorf("sqlite backend returned %T", cache)
	}
	if err := closeFn(); err != nil {
		t.Errorf("closing sqlite cache: %v", err)
	}
}

func TestBuildService_NoKeyMemoryCache(t *testing.T) {
	c := &config.Config{
		LLM:   config.LLM{Provider: "anthropic"},
		Cache: config.Cache{Backend: "memory", TTL: time.Minute},
	}
	svc, closeFn, err := buildService(c, serviceOptions{noAI: true})
	if err != nil {
		t.Fatalf("buildService: %v", err)
	}
	defer closeFn()
	if svc == nil {
		t.Fatal("expected service")
	}
}

// countingSource returns a fresh snapshot on every call.
type countingSource struct {
	calls int
}

func (c *countingSource) Fetch(_ context.Context, owner, name string) (*model.Snapshot, error) {
	c.calls++
	return &model.Snapshot{
		Profile:   model.Profile{Owner: owner, Name: name, FullName: owner + "/" + name},
		FetchedAt: time.Now(),
	}, nil
}

func TestAnalyzeReport_RefreshRefetchesAndRestores(t *testing.T) {
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer db.Close()

	src := &countingSource{}
	fetch := fetchcache.New(src, fetchcache.SQLite{DB: db}, time.Hour, fetchcache.WithLogger(logger.Discard()))
	svc := analysis.NewService(fetch, nil, analysis.WithLogger(logger.Discard()))
	ctx := context.Background()

	if _, err := analyzeReport(ctx, svc, "github.com/octo/hello", false); err != nil {
		t.Fatalf("analyzeReport: %v", err)
	}
	rep, err := analyzeReport(ctx, svc, "github.com/octo/hello", false)
	if err != nil || !rep.CacheHit {
		t.Fatalf("second run: hit=%v err=%v, want a cache hit", rep != nil && rep.CacheHit, err)
	}

	rep, err = analyzeReport(ctx, svc, "github.com/octo/hello", true)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rep.CacheHit {
		t.Error("refresh should not be served from the cache")
	}
	if src.calls != 2 {
		t.Errorf("source calls = %d, want 2", src.calls)
	}

	cached, err := db.GetCachedSnapshot(fetchcache.Key("octo", "hello"))
	if err != nil || cached == nil {
		t.Fatalf("refreshed snapshot not stored: %v", err)
	}

	rep, err = analyzeReport(ctx, svc, "github.com/octo/hello", false)
	if err != nil || !rep.CacheHit {
		t.Errorf("run after refresh: hit=%v err=%v, want a cache hit", rep != nil && rep.CacheHit, err)
	}
}

func TestWriteReport_Formats(t *testing.T) {
	rep := &report.Report{Repository: "octo/hello", Score: 80}
	dir := t.TempDir()

	mdPath := filepath.Join(dir, "report.md")
	if err := writeReport(mdPath, rep, "markdown"); err != nil {
		t.Fatalf("writeReport markdown: %v", err)
	}
	md, _ := os.ReadFile(mdPath)
	if !strings.HasPrefix(string(md), "# octo/hello") {
		t.Errorf("markdown report = %q", md)
	}

	jsonPath := filepath.Join(dir, "report.json")
	if err := writeReport(jsonPath, rep, "json"); err != nil {
		t.Fatalf("writeReport json: %v", err)
	}
	var decoded map[string]any
	data, _ := os.ReadFile(jsonPath)
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json report: %v", err)
	}
	if decoded["repository"] != "octo/hello" {
		t.Errorf("repository = %v", decoded["repository"])
	}

	if err := writeReport(filepath.Join(dir, "report.xml"), rep, "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestAnalysisError(t *testing.T) {
	fe := &fetcher.FetchError{Owner: "o", Name: "r", Kind: fetcher.KindNotFound}
	err := analysisError(fe)
	if !strings.HasPrefix(err.Error(), "Could not fetch repository data: ") {
		t.Errorf("message = %q", err.Error())
	}
	var target *fetcher.FetchError
	if !errors.As(err, &target) {
		t.Error("cause should stay reachable")
	}

	_, inputErr := repourl.Parse("not a url at all")
	if got := analysisError(inputErr).Error(); got != inputErr.Error() {
		t.Errorf("input error message = %q, want %q", got, inputErr.Error())
	}
}
