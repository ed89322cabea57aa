package analysis

import (
	"errors"

	"github.com/blackwell-systems/gitrate/internal/fetcher"
	"github.com/blackwell-systems/gitrate/internal/repourl"
)

// FetchFailedPrefix starts every message shown for a failed fetch.
const FetchFailedPrefix = "Could not fetch repository data: "

// IsInputError reports whether err was caused by the URL the user supplied.
func IsInputError(err error) bool {
	var inputErr *repourl.InputError
	return errors.As(err, &inputErr)
}

// Message returns the text shown to a user for an analysis error. Input
// errors are shown as-is; everything else is reported as a fetch failure.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var inputErr *repourl.InputError
	if errors.As(err, &inputErr) {
		return inputErr.Message
	}
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		return FetchFailedPrefix + fetchErr.Error()
	}
	return FetchFailedPrefix + err.Error()
}
