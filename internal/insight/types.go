// Package insight produces the repository summary and three-step roadmap.
//
// A deterministic fallback is always computed first. When a language model
// client is configured its answer may replace the summary, the roadmap or
// both, but any failure along that path returns the fallback unchanged.
package insight

import (
	"github.com/blackwell-systems/gitrate/internal/model"
	"github.com/blackwell-systems/gitrate/internal/scoring"
)

// RoadmapSize is the number of roadmap steps an Insight carries.
const RoadmapSize = 3

// Source records which tier produced an Insight.
type Source string

const (
	SourceFallback Source = "fallback"
	SourceAI       Source = "ai"
	// SourceMixed means one field came from the model and the other from
	// the fallback.
	SourceMixed Source = "mixed"
)

// Insight is the summary and roadmap shown next to the score.
type Insight struct {
	Summary string   `json:"summary"`
	Roadmap []string `json:"roadmap"`
	Source  Source   `json:"source"`
}

// Input is the metadata and score an insight is generated from.
type Input struct {
	Snapshot *model.Snapshot
	Result   scoring.Result
}
