// Package model holds the repository metadata shared by the fetcher, the
// scoring engine and the insight generator.
package model

import (
	"sort"
	"strings"
	"time"
)

// LicenseNone is the license name recorded when the host reports no license
// or the lookup fails.
const LicenseNone = "None"

// EntryKind distinguishes files from directories in a root listing.
type EntryKind string

const (
	KindFile EntryKind = "file"
	KindDir  EntryKind = "dir"
)

// Profile is the repository-level record returned by the host.
type Profile struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description,omitempty"`
	URL           string `json:"url"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	OpenIssues    int    `json:"open_issues"`
	DefaultBranch string `json:"default_branch"`
	ReadmeExists  bool   `json:"readme_exists"`
	Branches      int    `json:"branches"`
	PullRequests  int    `json:"pull_requests"`
	License       string `json:"license"`
	Contributors  int    `json:"contributors"`
}

// ContentEntry is one item of the repository root listing.
type ContentEntry struct {
	Name string    `json:"name"`
	Kind EntryKind `json:"kind"`
}

// Languages maps a language name to the byte count reported by the host.
type Languages map[string]int

// Names returns the detected language names in sorted order.
func (l Languages) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommitSummary is the commit count of the default branch and the time of
// its most recent commit, if known.
type CommitSummary struct {
	Count      int        `json:"count"`
	LastCommit *time.Time `json:"last_commit,omitempty"`
}

// QualityFiles is the sorted set of root file names that matched a known
// tooling or configuration convention.
type QualityFiles []string

// Snapshot is the complete result of one metadata fetch. It is never
// modified after construction.
type Snapshot struct {
	Profile      Profile        `json:"profile"`
	Contents     []ContentEntry `json:"contents"`
	Languages    Languages      `json:"languages"`
	Commits      CommitSummary  `json:"commits"`
	QualityFiles QualityFiles   `json:"quality_files"`
	Readme       string         `json:"readme_excerpt,omitempty"`
	FetchedAt    time.Time      `json:"fetched_at"`
}

// HasFilePrefix reports whether the root listing holds a file whose lower-cased
// name starts with prefix.
func HasFilePrefix(entries []ContentEntry, prefix string) bool {
	for _, e := range entries {
		if e.Kind == KindFile && strings.HasPrefix(strings.ToLower(e.Name), prefix) {
			return true
		}
	}
	return false
}

// HasDir reports whether the root listing holds a directory whose name
// case-insensitively equals one of names.
func HasDir(entries []ContentEntry, names ...string) bool {
	for _, e := range entries {
		if e.Kind != KindDir {
			continue
		}
		for _, n := range names {
			if strings.EqualFold(e.Name, n) {
				return true
			}
		}
	}
	return false
}

// LastCommitDisplay formats the last commit as YYYY-MM-DD, or "Unknown".
func (c CommitSummary) LastCommitDisplay() string {
	if c.LastCommit == nil {
		return "Unknown"
	}
	return c.LastCommit.UTC().Format("2006-01-02")
}

// timestampLayouts are tried in order by ParseTimestamp. Layouts without a
// zone are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a commit timestamp. It returns nil when s is empty or
// in no known layout.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
