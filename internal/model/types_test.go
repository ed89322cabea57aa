package model

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 9, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{"rfc3339 utc", "2024-03-09T12:30:00Z", &want},
		{"rfc3339 offset", "2024-03-09T14:30:00+02:00", &want},
		{"no zone", "2024-03-09T12:30:00", &want},
		{"space separated", "2024-03-09 12:30:00", &want},
		{"empty", "", nil},
		{"garbage", "yesterday", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseTimestamp(tc.input)
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("ParseTimestamp(%q) = %v, want nil", tc.input, got)
			case tc.want != nil && got == nil:
				t.Errorf("ParseTimestamp(%q) = nil, want %v", tc.input, tc.want)
			case tc.want != nil && !got.Equal(*tc.want):
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestLastCommitDisplay(t *testing.T) {
	if got := (CommitSummary{}).LastCommitDisplay(); got != "Unknown" {
		t.Errorf("LastCommitDisplay() = %q, want Unknown", got)
	}
	ts := time.Date(2025, 1, 2, 23, 0, 0, 0, time.FixedZone("X", -5*3600))
	if got := (CommitSummary{LastCommit: &ts}).LastCommitDisplay(); got != "2025-01-03" {
		t.Errorf("LastCommitDisplay() = %q, want 2025-01-03", got)
	}
}

func TestRootListingHelpers(t *testing.T) {
	entries := []ContentEntry{
		{Name: "README.md", Kind: KindFile},
		{Name: "Tests", Kind: KindDir},
		{Name: "src", Kind: KindFile},
	}
	if !HasFilePrefix(entries, "readme") {
		t.Error("expected README.md to match readme prefix")
	}
	if !HasDir(entries, "test", "tests") {
		t.Error("expected Tests dir to match case-insensitively")
	}
	if HasDir(entries, "src") {
		t.Error("a file named src must not count as a directory")
	}
}

func TestLanguagesNames(t *testing.T) {
	l := Languages{"Python": 10, "Go": 200, "C": 1}
	got := l.Names()
	want := []string{"C", "Go", "Python"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
