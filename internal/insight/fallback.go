package insight

import (
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/gitrate/internal/model"
	"github.com/blackwell-systems/gitrate/internal/scoring"
)

// Remediation steps, in priority order.
const (
	StepReadme    = "Add or improve the README with setup, usage, and contribution details."
	StepTests     = "Add a basic test suite (and a tests/ folder) to protect core behavior."
	StepStructure = "Organize the code into a clear source folder such as src/ to improve maintainability."
	StepLanguages = "Ensure the repository contains source files so languages are detected on GitHub."
)

// fillerSteps pad the roadmap when fewer than three remediation steps apply.
var fillerSteps = []string{
	"Add lightweight documentation and usage examples for quicker onboarding.",
	"Set up continuous integration to run the tests and linters on every pull request.",
	"Tag releases and keep a changelog so users can follow what changed.",
}

const maxFallbackSteps = 6

// Fallback builds the deterministic insight. It never fails.
func Fallback(in Input) Insight {
	return Insight{
		Summary: FallbackSummary(in),
		Roadmap: FallbackRoadmap(in)[:RoadmapSize],
		Source:  SourceFallback,
	}
}

// FallbackSummary is a one-sentence overview built from the metadata.
func FallbackSummary(in Input) string {
	snap := in.Snapshot
	if snap == nil {
		snap = &model.Snapshot{}
	}

	qualifier := "lightly maintained"
	if snap.Commits.Count > scoring.ActiveCommitThreshold {
		qualifier = "active"
	}
	langs := "none"
	if names := snap.Languages.Names(); len(names) > 0 {
		langs = strings.Join(names, ", ")
	}
	last := "unknown"
	if snap.Commits.LastCommit != nil {
		last = snap.Commits.LastCommit.UTC().Format(time.RFC3339)
	}

	return fmt.Sprintf("Repository '%s' looks %s with %d commits and languages detected: %s. Last commit: %s. Score: %d/100.",
		snap.Profile.FullName, qualifier, snap.Commits.Count, langs, last, in.Result.Score)
}

// FallbackRoadmap returns between three and six remediation steps, one per
// missing signal followed by generic steps.
func FallbackRoadmap(in Input) []string {
	snap := in.Snapshot
	if snap == nil {
		snap = &model.Snapshot{}
	}

	var steps []string
	if !snap.Profile.ReadmeExists && !model.HasFilePrefix(snap.Contents, "readme") {
		steps = append(steps, StepReadme)
	}
	if !model.HasDir(snap.Contents, "test", "tests") {
		steps = append(steps, StepTests)
	}
	if !model.HasDir(snap.Contents, "src", "app", "lib") {
		steps = append(steps, StepStructure)
	}
	if len(snap.Languages) == 0 {
		steps = append(steps, StepLanguages)
	}
	for _, f := range fillerSteps {
		if len(steps) >= RoadmapSize {
			break
		}
		steps = append(steps, f)
	}
	if len(steps) > maxFallbackSteps {
		steps = steps[:maxFallbackSteps]
	}
	return steps
}
