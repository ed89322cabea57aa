package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/shurcooL/githubv4"

	"github.com/blackwell-systems/gitrate/internal/model"
)

// repoCounts are the totals one GraphQL round trip can answer.
type repoCounts struct {
	Branches     int
	PullRequests int
	Commits      model.CommitSummary
}

// countsQuery asks for branch, pull request and default-branch commit totals
// together with the newest commit's dates.
type countsQuery struct {
	Repository struct {
		Refs struct {
			TotalCount int
		} `graphql:"refs(refPrefix: \"refs/heads/\", first: 1)"`
		PullRequests struct {
			TotalCount int
		} `graphql:"pullRequests(first: 1)"`
		DefaultBranchRef struct {
			Target struct {
				Commit struct {
					History struct {
						TotalCount int
						Nodes      []struct {
							AuthoredDate  githubv4.DateTime
							CommittedDate githubv4.DateTime
						}
					} `graphql:"history(first: 1)"`
				} `graphql:"... on Commit"`
			}
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// graphQLCounts returns false when no GraphQL client is configured or the
// query fails, in which case the REST endpoints are used.
func (c *Client) graphQLCounts(ctx context.Context, log *slog.Logger, owner, name string) (repoCounts, bool) {
	if c.graphql == nil {
		return repoCounts{}, false
	}

	var q countsQuery
	vars := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	if err := c.graphql.Query(ctx, &q, vars); err != nil {
		log.Warn("GraphQL totals unavailable, using REST", "error", err)
		return repoCounts{}, false
	}

	counts := repoCounts{
		Branches:     q.Repository.Refs.TotalCount,
		PullRequests: q.Repository.PullRequests.TotalCount,
	}
	history := q.Repository.DefaultBranchRef.Target.Commit.History
	counts.Commits.Count = history.TotalCount
	if len(history.Nodes) > 0 {
		counts.Commits.LastCommit = firstTime(history.Nodes[0].AuthoredDate.Time, history.Nodes[0].CommittedDate.Time)
	}
	return counts, true
}

func firstTime(candidates ...time.Time) *time.Time {
	for _, t := range candidates {
		if !t.IsZero() {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
