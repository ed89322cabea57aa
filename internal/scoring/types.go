// Package scoring computes the 0-100 repository health score from fetched
// metadata using a fixed, ordered table of weighted rules.
package scoring

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/gitrate/internal/model"
)

// Status is the outcome tag of a single rule.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusWarn Status = "warn"
)

// Input is everything the rules look at.
type Input struct {
	Profile      model.Profile
	Contents     []model.ContentEntry
	Languages    model.Languages
	Commits      model.CommitSummary
	QualityFiles model.QualityFiles
}

// InputFromSnapshot builds the scoring input from a fetch result.
func InputFromSnapshot(s *model.Snapshot) Input {
	return Input{
		Profile:      s.Profile,
		Contents:     s.Contents,
		Languages:    s.Languages,
		Commits:      s.Commits,
		QualityFiles: s.QualityFiles,
	}
}

// Signal is one weighted predicate of a rule.
type Signal struct {
	Label  string
	Points int
	Test   func(in *Input, now time.Time) bool
}

// Rule groups one or more signals under a single breakdown line.
type Rule struct {
	ID      string
	Name    string
	Signals []Signal
	// Hint is shown when the rule does not fully pass.
	Hint string
}

// Points returns the maximum number of points the rule can award.
func (r Rule) Points() int {
	total := 0
	for _, s := range r.Signals {
		total += s.Points
	}
	return total
}

// Outcome is the evaluated result of one rule.
type Outcome struct {
	RuleID  string `json:"rule_id"`
	Rule    string `json:"rule"`
	Status  Status `json:"status"`
	Awarded int    `json:"awarded"`
	Points  int    `json:"points"`
	Detail  string `json:"detail"`
}

// String renders the outcome as a single breakdown line, e.g.
// "[pass] Documentation +20/20: README found".
func (o Outcome) String() string {
	return fmt.Sprintf("[%s] %s +%d/%d: %s", o.Status, o.Rule, o.Awarded, o.Points, o.Detail)
}

// Result is the total score and the per-rule breakdown in rule order.
type Result struct {
	Score     int       `json:"score"`
	Grade     string    `json:"grade"`
	Breakdown []Outcome `json:"breakdown"`
}

// Lines returns the breakdown as display strings.
func (r Result) Lines() []string {
	lines := make([]string, len(r.Breakdown))
	for i, o := range r.Breakdown {
		lines[i] = o.String()
	}
	return lines
}

// Outcome returns the outcome for the given rule ID.
func (r Result) Outcome(id string) (Outcome, bool) {
	for _, o := range r.Breakdown {
		if o.RuleID == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// Passed reports whether the rule with the given ID fully passed.
func (r Result) Passed(id string) bool {
	o, ok := r.Outcome(id)
	return ok && o.Status == StatusPass
}
