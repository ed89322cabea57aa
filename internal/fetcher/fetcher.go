// Package fetcher assembles repository metadata from the GitHub REST and
// GraphQL APIs.
//
// Only a failure to look up the repository itself aborts a fetch. Every
// other sub-request degrades to a zero, empty or sentinel value and is
// logged at warn level.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/blackwell-systems/gitrate/internal/model"
)

// DefaultReadmeExcerptChars is how much README text is kept per snapshot.
const DefaultReadmeExcerptChars = 2000

// Source returns a metadata snapshot for owner/name.
type Source interface {
	Fetch(ctx context.Context, owner, name string) (*model.Snapshot, error)
}

// Options configures a Client.
type Options struct {
	Token string
	// BaseURL and GraphQLURL point the client at GitHub Enterprise or a test
	// server. Empty means api.github.com.
	BaseURL      string
	GraphQLURL   string
	Timeout      time.Duration
	ReadmeChars  int
	QualityFiles []string
	// Branches counts branches when the REST listing fails. Nil uses
	// RemoteBranchCounter.
	Branches BranchCounter
	// HTTPClient replaces the default rate-limited, token-authenticated
	// client.
	HTTPClient *http.Client
	Logger     *slog.Logger
	// Now stamps FetchedAt. Nil means time.Now.
	Now func() time.Time
}

// Client fetches snapshots from GitHub.
type Client struct {
	rest     *github.Client
	graphql  *githubv4.Client
	branches BranchCounter
	opts     Options
	logger   *slog.Logger
}

// New creates a client. Requests go through the secondary rate limit waiter
// and, when a token is set, an oauth2 transport.
func New(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		waiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(time.Minute, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		var transport http.RoundTripper = waiter
		if opts.Token != "" {
			transport = &oauth2.Transport{
				Base:   waiter,
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			}
		}
		httpClient = &http.Client{Transport: transport, Timeout: opts.Timeout}
	}

	rest := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", opts.BaseURL, err)
		}
		rest.BaseURL = u
	}

	var gql *githubv4.Client
	switch {
	case opts.GraphQLURL != "":
		gql = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	case opts.Token != "":
		gql = githubv4.NewClient(httpClient)
	}

	if opts.ReadmeChars <= 0 {
		opts.ReadmeChars = DefaultReadmeExcerptChars
	}
	if len(opts.QualityFiles) == 0 {
		opts.QualityFiles = DefaultQualityFiles
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	branches := opts.Branches
	if branches == nil {
		branches = &RemoteBranchCounter{Token: opts.Token}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		rest:     rest,
		graphql:  gql,
		branches: branches,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Fetch implements Source.
func (c *Client) Fetch(ctx context.Context, owner, name string) (*model.Snapshot, error) {
	repo, _, err := c.rest.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, newFetchError(owner, name, err)
	}
	// The host may canonicalise the case of owner and name.
	if login := repo.GetOwner().GetLogin(); login != "" {
		owner = login
	}
	if n := repo.GetName(); n != "" {
		name = n
	}
	log := c.logger.With("repo", owner+"/"+name)

	snap := &model.Snapshot{
		Profile: model.Profile{
			Owner:         owner,
			Name:          name,
			FullName:      firstNonEmpty(repo.GetFullName(), owner+"/"+name),
			Description:   repo.GetDescription(),
			URL:           firstNonEmpty(repo.GetHTMLURL(), "https://github.com/"+owner+"/"+name),
			Stars:         repo.GetStargazersCount(),
			Forks:         repo.GetForksCount(),
			OpenIssues:    repo.GetOpenIssuesCount(),
			DefaultBranch: repo.GetDefaultBranch(),
		},
		Languages: model.Languages{},
		FetchedAt: c.opts.Now().UTC(),
	}

	snap.Contents = c.rootContents(ctx, log, owner, name)
	snap.QualityFiles = MatchQualityFiles(snap.Contents, c.opts.QualityFiles)
	snap.Languages = c.languages(ctx, log, owner, name)

	counts, ok := c.graphQLCounts(ctx, log, owner, name)
	if ok {
		snap.Profile.Branches = counts.Branches
		snap.Profile.PullRequests = counts.PullRequests
		snap.Commits = counts.Commits
	} else {
		snap.Commits = c.commits(ctx, log, owner, name)
		snap.Profile.Branches = c.branchCount(ctx, log, owner, name, repo.GetCloneURL())
		snap.Profile.PullRequests = c.pullRequestCount(ctx, log, owner, name)
	}

	// The root listing decides README presence; the readme endpoint is only
	// asked when the listing has none, and it also supplies the excerpt.
	snap.Readme, snap.Profile.ReadmeExists = c.readme(ctx, log, owner, name, model.HasFilePrefix(snap.Contents, "readme"))

	snap.Profile.License = c.license(ctx, log, repo, owner, name)
	snap.Profile.Contributors = c.contributorCount(ctx, log, owner, name)

	return snap, nil
}

func (c *Client) rootContents(ctx context.Context, log *slog.Logger, owner, name string) []model.ContentEntry {
	_, dir, _, err := c.rest.Repositories.GetContents(ctx, owner, name, "", nil)
	if err != nil {
		log.Warn("root listing unavailable", "error", err)
		return nil
	}
	entries := make([]model.ContentEntry, 0, len(dir))
	for _, item := range dir {
		kind := model.KindFile
		if item.GetType() == "dir" {
			kind = model.KindDir
		}
		entries = append(entries, model.ContentEntry{Name: item.GetName(), Kind: kind})
	}
	return entries
}

func (c *Client) languages(ctx context.Context, log *slog.Logger, owner, name string) model.Languages {
	langs, _, err := c.rest.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		log.Warn("language breakdown unavailable", "error", err)
		return model.Languages{}
	}
	return model.Languages(langs)
}

func (c *Client) commits(ctx context.Context, log *slog.Logger, owner, name string) model.CommitSummary {
	list, resp, err := c.rest.Repositories.ListCommits(ctx, owner, name, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		log.Warn("commit history unavailable", "error", err)
		return model.CommitSummary{}
	}
	summary := model.CommitSummary{Count: pageCount(resp, len(list))}
	if len(list) > 0 {
		summary.LastCommit = commitTime(list[0].GetCommit())
	}
	return summary
}

// commitTime prefers the author date and falls back to the committer date.
func commitTime(commit *github.Commit) *time.Time {
	for _, ts := range []github.Timestamp{commit.GetAuthor().GetDate(), commit.GetCommitter().GetDate()} {
		if !ts.IsZero() {
			t := ts.Time.UTC()
			return &t
		}
	}
	return nil
}

func (c *Client) branchCount(ctx context.Context, log *slog.Logger, owner, name, cloneURL string) int {
	list, resp, err := c.rest.Repositories.ListBranches(ctx, owner, name, &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err == nil {
		return pageCount(resp, len(list))
	}
	log.Warn("branch listing unavailable, asking the git remote", "error", err)

	if cloneURL == "" {
		return 0
	}
	n, err := c.branches.CountBranches(ctx, cloneURL)
	if err != nil {
		log.Warn("remote branch listing failed", "error", err)
		return 0
	}
	return n
}

func (c *Client) pullRequestCount(ctx context.Context, log *slog.Logger, owner, name string) int {
	list, resp, err := c.rest.PullRequests.List(ctx, owner, name, &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		log.Warn("pull request count unavailable", "error", err)
		return 0
	}
	return pageCount(resp, len(list))
}

func (c *Client) readme(ctx context.Context, log *slog.Logger, owner, name string, listed bool) (string, bool) {
	file, _, err := c.rest.Repositories.GetReadme(ctx, owner, name, nil)
	if err != nil {
		if !listed {
			log.Debug("no README reported", "error", err)
		}
		return "", listed
	}
	text, err := file.GetContent()
	if err != nil {
		log.Warn("README could not be decoded", "error", err)
		return "", true
	}
	return excerpt(text, c.opts.ReadmeChars), true
}

func (c *Client) license(ctx context.Context, log *slog.Logger, repo *github.Repository, owner, name string) string {
	if n := strings.TrimSpace(repo.GetLicense().GetName()); n != "" {
		return n
	}
	lic, _, err := c.rest.Repositories.License(ctx, owner, name)
	if err != nil {
		log.Debug("no license reported", "error", err)
		return model.LicenseNone
	}
	if n := strings.TrimSpace(lic.GetLicense().GetName()); n != "" {
		return n
	}
	return model.LicenseNone
}

func (c *Client) contributorCount(ctx context.Context, log *slog.Logger, owner, name string) int {
	list, resp, err := c.rest.Repositories.ListContributors(ctx, owner, name, &github.ListContributorsOptions{
		Anon:        "true",
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		log.Warn("contributor count unavailable", "error", err)
		return 0
	}
	return pageCount(resp, len(list))
}

// pageCount turns a PerPage=1 listing into a total: the last page number when
// the response is paginated, otherwise the number of items returned.
func pageCount(resp *github.Response, items int) int {
	if resp != nil && resp.LastPage > 0 {
		return resp.LastPage
	}
	return items
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
