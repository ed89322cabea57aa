package fetcher

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"
)

// ErrorKind classifies a hard fetch failure.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindRateLimited  ErrorKind = "rate_limited"
	KindUnauthorized ErrorKind = "unauthorized"
	KindUnavailable  ErrorKind = "unavailable"
)

// FetchError is returned when the repository itself cannot be resolved.
// Its message is short and safe to show to the user.
type FetchError struct {
	Owner string
	Name  string
	Kind  ErrorKind
	Err   error
}

func (e *FetchError) Error() string {
	repo := e.Owner + "/" + e.Name
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("repository %s was not found or is private", repo)
	case KindRateLimited:
		return "GitHub API rate limit exceeded; set GITHUB_TOKEN or try again later"
	case KindUnauthorized:
		return "GitHub rejected the configured token; check GITHUB_TOKEN"
	default:
		if e.Err != nil {
			return fmt.Sprintf("GitHub API unavailable for %s: %v", repo, e.Err)
		}
		return fmt.Sprintf("GitHub API unavailable for %s", repo)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// newFetchError wraps err from the repository lookup with its kind.
func newFetchError(owner, name string, err error) *FetchError {
	return &FetchError{Owner: owner, Name: name, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return KindRateLimited
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return KindNotFound
		case http.StatusUnauthorized:
			return KindUnauthorized
		case http.StatusTooManyRequests:
			return KindRateLimited
		case http.StatusForbidden:
			if rateLimitedResponse(respErr) {
				return KindRateLimited
			}
			return KindUnauthorized
		}
	}
	return KindUnavailable
}

// rateLimitedResponse reports whether a 403 is GitHub signalling an exhausted
// quota rather than a permission problem.
func rateLimitedResponse(e *github.ErrorResponse) bool {
	if e.Response.Header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "rate limit")
}
