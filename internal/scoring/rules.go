package scoring

import (
	"strings"
	"time"

	"github.com/blackwell-systems/gitrate/internal/model"
)

// Rule IDs in evaluation order.
const (
	RuleDocumentation = "documentation"
	RuleTesting       = "testing"
	RuleActivity      = "activity"
	RuleStructure     = "structure"
	RuleTooling       = "tooling"
	RuleWorkflow      = "workflow"
	RuleRecency       = "recency"
	RuleLicense       = "license"
)

const (
	// ActiveCommitThreshold is the commit count a repository must exceed to
	// count as active.
	ActiveCommitThreshold = 10

	// RecencyWindow is how recent the last commit must be.
	RecencyWindow = 90 * 24 * time.Hour
)

// DefaultRules is the scoring table. Order is the breakdown order.
//
//   - Documentation:   20 points (README in root listing or confirmed by the host)
//   - Testing:         20 points (test/ or tests/ directory)
//   - Activity:        15 points (more than 10 commits)
//   - Structure:       10 points (src/, app/ or lib/ directory)
//   - Tooling:         5 points for detected languages, 10 for quality files
//   - Workflow:        10 points (more than one branch or any pull request)
//   - Recency:         5 points (last commit within 90 days)
//   - License:         5 points (license other than "None")
var DefaultRules = []Rule{
	{
		ID:   RuleDocumentation,
		Name: "Documentation",
		Signals: []Signal{{
			Label:  "README",
			Points: 20,
			Test: func(in *Input, _ time.Time) bool {
				return model.HasFilePrefix(in.Contents, "readme") || in.Profile.ReadmeExists
			},
		}},
		Hint: "no README found",
	},
	{
		ID:   RuleTesting,
		Name: "Testing",
		Signals: []Signal{{
			Label:  "tests folder",
			Points: 20,
			Test: func(in *Input, _ time.Time) bool {
				return model.HasDir(in.Contents, "test", "tests")
			},
		}},
		Hint: "no test/ or tests/ folder",
	},
	{
		ID:   RuleActivity,
		Name: "Activity",
		Signals: []Signal{{
			Label:  "commits",
			Points: 15,
			Test: func(in *Input, _ time.Time) bool {
				return in.Commits.Count > ActiveCommitThreshold
			},
		}},
		Hint: "10 commits or fewer",
	},
	{
		ID:   RuleStructure,
		Name: "Structure",
		Signals: []Signal{{
			Label:  "source folder",
			Points: 10,
			Test: func(in *Input, _ time.Time) bool {
				return model.HasDir(in.Contents, "src", "app", "lib")
			},
		}},
		Hint: "no src/, app/ or lib/ folder",
	},
	{
		ID:   RuleTooling,
		Name: "Languages & tooling",
		Signals: []Signal{
			{
				Label:  "languages detected",
				Points: 5,
				Test: func(in *Input, _ time.Time) bool {
					return len(in.Languages) > 0
				},
			},
			{
				Label:  "quality files",
				Points: 10,
				Test: func(in *Input, _ time.Time) bool {
					return len(in.QualityFiles) > 0
				},
			},
		},
		Hint: "no languages or config files detected",
	},
	{
		ID:   RuleWorkflow,
		Name: "Workflow",
		Signals: []Signal{{
			Label:  "branches or pull requests",
			Points: 10,
			Test: func(in *Input, _ time.Time) bool {
				return in.Profile.Branches > 1 || in.Profile.PullRequests > 0
			},
		}},
		Hint: "single branch and no pull requests",
	},
	{
		ID:   RuleRecency,
		Name: "Recency",
		Signals: []Signal{{
			Label:  "commit within 90 days",
			Points: 5,
			Test: func(in *Input, now time.Time) bool {
				last := in.Commits.LastCommit
				if last == nil {
					return false
				}
				return now.UTC().Sub(last.UTC()) <= RecencyWindow
			},
		}},
		Hint: "no commit in the last 90 days",
	},
	{
		ID:   RuleLicense,
		Name: "License",
		Signals: []Signal{{
			Label:  "license",
			Points: 5,
			Test: func(in *Input, _ time.Time) bool {
				name := strings.TrimSpace(in.Profile.License)
				return name != "" && name != model.LicenseNone
			},
		}},
		Hint: "no license",
	},
}
