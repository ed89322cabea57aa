package fetcher

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/gitrate/internal/model"
)

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type fakeBranchCounter struct {
	n     int
	err   error
	calls int
}

func (f *fakeBranchCounter) CountBranches(context.Context, string) (int, error) {
	f.calls++
	return f.n, f.err
}

// lastPage sets a Link header so go-github reports LastPage = n.
func lastPage(w http.ResponseWriter, r *http.Request, n int) {
	w.Header().Set("Link", fmt.Sprintf(`<http://%s%s?per_page=1&page=%d>; rel="last"`, r.Host, r.URL.Path, n))
}

func healthyMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"name": "hello", "full_name": "octo/hello", "owner": {"login": "octo"},
			"description": "Hello world", "html_url": "https://github.com/octo/hello",
			"clone_url": "https://github.com/octo/hello.git",
			"stargazers_count": 42, "forks_count": 7, "open_issues_count": 3,
			"default_branch": "main", "license": {"name": "MIT License"}
		}`)
	})
	mux.HandleFunc("/repos/octo/hello/contents/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"name": "README.md", "type": "file"},
			{"name": ".gitignore", "type": "file"},
			{"name": "go.mod", "type": "file"},
			{"name": "tests", "type": "dir"},
			{"name": "src", "type": "dir"}
		]`)
	})
	mux.HandleFunc("/repos/octo/hello/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Go": 12000, "Shell": 300}`)
	})
	mux.HandleFunc("/repos/octo/hello/commits", func(w http.ResponseWriter, r *http.Request) {
		lastPage(w, r, 57)
		fmt.Fprint(w, `[{"sha": "abc", "commit": {
			"author": {"date": "2025-05-30T10:00:00Z"},
			"committer": {"date": "2025-05-31T10:00:00Z"}
		}}]`)
	})
	mux.HandleFunc("/repos/octo/hello/branches", func(w http.ResponseWriter, r *http.Request) {
		lastPage(w, r, 4)
		fmt.Fprint(w, `[{"name": "main"}]`)
	})
	mux.HandleFunc("/repos/octo/hello/pulls", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != "all" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		lastPage(w, r, 12)
		fmt.Fprint(w, `[{"number": 12}]`)
	})
	mux.HandleFunc("/repos/octo/hello/readme", func(w http.ResponseWriter, r *http.Request) {
		content := base64.StdEncoding.EncodeToString([]byte("# Hello\n\nA friendly project."))
		fmt.Fprintf(w, `{"name": "README.md", "type": "file", "encoding": "base64", "content": %q}`, content)
	})
	mux.HandleFunc("/repos/octo/hello/contributors", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("anon") != "true" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		lastPage(w, r, 9)
		fmt.Fprint(w, `[{"login": "octo"}]`)
	})
	return mux
}

func setupTestClient(t *testing.T, handler http.Handler, opts Options) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	opts.HTTPClient = server.Client()
	opts.BaseURL = server.URL
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Now = func() time.Time { return fixedNow }
	if opts.Branches == nil {
		opts.Branches = &fakeBranchCounter{}
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c, server
}

func TestClient_Fetch_REST(t *testing.T) {
	c, server := setupTestClient(t, healthyMux(), Options{})
	defer server.Close()

	snap, err := c.Fetch(context.Background(), "octo", "hello")
	require.NoError(t, err)

	p := snap.Profile
	assert.Equal(t, "octo/hello", p.FullName)
	assert.Equal(t, "Hello world", p.Description)
	assert.Equal(t, 42, p.Stars)
	assert.Equal(t, 7, p.Forks)
	assert.Equal(t, 3, p.OpenIssues)
	assert.Equal(t, "main", p.DefaultBranch)
	assert.True(t, p.ReadmeExists)
	assert.Equal(t, 4, p.Branches)
	assert.Equal(t, 12, p.PullRequests)
	assert.Equal(t, "MIT License", p.License)
	assert.Equal(t, 9, p.Contributors)

	assert.Len(t, snap.Contents, 5)
	assert.Equal(t, model.QualityFiles{".gitignore", "go.mod"}, snap.QualityFiles)
	assert.Equal(t, model.Languages{"Go": 12000, "Shell": 300}, snap.Languages)
	assert.Equal(t, 57, snap.Commits.Count)
	require.NotNil(t, snap.Commits.LastCommit)
	assert.Equal(t, time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC), *snap.Commits.LastCommit)
	assert.Equal(t, "# Hello\n\nA friendly project.", snap.Readme)
	assert.Equal(t, fixedNow, snap.FetchedAt)
}

func TestClient_Fetch_GraphQLTotals(t *testing.T) {
	mux := healthyMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"repository": {
			"refs": {"totalCount": 6},
			"pullRequests": {"totalCount": 31},
			"defaultBranchRef": {"target": {"history": {
				"totalCount": 812,
				"nodes": [{"committedDate": "2025-05-20T08:00:00Z"}]
			}}}
		}}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := New(Options{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		GraphQLURL: server.URL + "/graphql",
		Branches:   &fakeBranchCounter{},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	snap, err := c.Fetch(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 6, snap.Profile.Branches)
	assert.Equal(t, 31, snap.Profile.PullRequests)
	assert.Equal(t, 812, snap.Commits.Count)
	require.NotNil(t, snap.Commits.LastCommit)
	assert.Equal(t, time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC), *snap.Commits.LastCommit)
}

func TestClient_Fetch_PartialFailuresDegrade(t *testing.T) {
	fail := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message": "boom"}`)
	}
	notFound := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/bare", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "bare", "full_name": "octo/bare", "owner": {"login": "octo"},
			"clone_url": "https://github.com/octo/bare.git"}`)
	})
	mux.HandleFunc("/repos/octo/bare/contents/", fail)
	mux.HandleFunc("/repos/octo/bare/languages", fail)
	mux.HandleFunc("/repos/octo/bare/commits", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message": "Git Repository is empty."}`)
	})
	mux.HandleFunc("/repos/octo/bare/branches", fail)
	mux.HandleFunc("/repos/octo/bare/pulls", fail)
	mux.HandleFunc("/repos/octo/bare/readme", notFound)
	mux.HandleFunc("/repos/octo/bare/license", notFound)
	mux.HandleFunc("/repos/octo/bare/contributors", fail)

	branches := &fakeBranchCounter{n: 3}
	c, server := setupTestClient(t, mux, Options{Branches: branches})
	defer server.Close()

	snap, err := c.Fetch(context.Background(), "octo", "bare")
	require.NoError(t, err)

	assert.Empty(t, snap.Contents)
	assert.Empty(t, snap.QualityFiles)
	assert.Empty(t, snap.Languages)
	assert.Equal(t, model.CommitSummary{}, snap.Commits)
	assert.False(t, snap.Profile.ReadmeExists)
	assert.Equal(t, model.LicenseNone, snap.Profile.License)
	assert.Equal(t, 0, snap.Profile.PullRequests)
	assert.Equal(t, 0, snap.Profile.Contributors)
	assert.Equal(t, 3, snap.Profile.Branches, "branch count falls back to the git remote")
	assert.Equal(t, 1, branches.calls)
}

func TestClient_Fetch_RemoteFallbackFails(t *testing.T) {
	mux := healthyMux()
	mux.HandleFunc("/repos/octo/hello/branches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c, server := setupTestClient(t, mux, Options{Branches: &fakeBranchCounter{err: errors.New("unreachable")}})
	defer server.Close()

	snap, err := c.Fetch(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Profile.Branches)
}

func TestClient_Fetch_ReadmeEndpointFallback(t *testing.T) {
	mux := healthyMux()
	mux.HandleFunc("/repos/octo/hello/contents/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "docs", "type": "dir"}]`)
	})
	c, server := setupTestClient(t, mux, Options{})
	defer server.Close()

	snap, err := c.Fetch(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.True(t, snap.Profile.ReadmeExists, "the readme endpoint confirms a README the listing does not show")
}

func TestClient_Fetch_ReadmeExcerptTruncated(t *testing.T) {
	c, server := setupTestClient(t, healthyMux(), Options{ReadmeChars: 7})
	defer server.Close()

	snap, err := c.Fetch(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "# Hello", snap.Readme)
}

func TestClient_Fetch_HardFailures(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		headers  map[string]string
		message  string
		wantKind ErrorKind
		wantMsg  string
	}{
		{name: "not found", status: http.StatusNotFound, wantKind: KindNotFound, wantMsg: "was not found"},
		{name: "bad token", status: http.StatusUnauthorized, wantKind: KindUnauthorized, wantMsg: "GITHUB_TOKEN"},
		{
			name:     "rate limited",
			status:   http.StatusForbidden,
			headers:  map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Reset": "1893456000"},
			wantKind: KindRateLimited,
			wantMsg:  "rate limit",
		},
		{
			name:     "rate limited by message",
			status:   http.StatusForbidden,
			message:  "API rate limit exceeded for 203.0.113.7.",
			wantKind: KindRateLimited,
			wantMsg:  "rate limit",
		},
		{
			name:     "forbidden with quota left",
			status:   http.StatusForbidden,
			headers:  map[string]string{"X-RateLimit-Remaining": "4999"},
			message:  "Resource not accessible by personal access token",
			wantKind: KindUnauthorized,
			wantMsg:  "GITHUB_TOKEN",
		},
		{name: "server error", status: http.StatusInternalServerError, wantKind: KindUnavailable, wantMsg: "unavailable"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tc.headers {
					w.Header().Set(k, v)
				}
				msg := tc.message
				if msg == "" {
					msg = "nope"
				}
				w.WriteHeader(tc.status)
				fmt.Fprintf(w, `{"message": %q}`, msg)
			})
			c, server := setupTestClient(t, handler, Options{})
			defer server.Close()

			snap, err := c.Fetch(context.Background(), "octo", "missing")
			assert.Nil(t, snap)
			require.Error(t, err)

			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.wantKind, fe.Kind)
			assert.Contains(t, fe.Error(), tc.wantMsg)
		})
	}
}

func TestMatchQualityFiles(t *testing.T) {
	entries := []model.ContentEntry{
		{Name: "Dockerfile", Kind: model.KindFile},
		{Name: ".eslintrc.json", Kind: model.KindFile},
		{Name: "Makefile", Kind: model.KindFile},
		{Name: "main.go", Kind: model.KindFile},
		{Name: ".github", Kind: model.KindDir},
		{Name: "package.json", Kind: model.KindDir},
	}
	got := MatchQualityFiles(entries, DefaultQualityFiles)
	assert.Equal(t, model.QualityFiles{".eslintrc.json", "Dockerfile", "Makefile"}, got)
	assert.Empty(t, MatchQualityFiles(nil, DefaultQualityFiles))
}
