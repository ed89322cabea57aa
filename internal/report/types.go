// Package report assembles analysis results into exportable documents.
package report

import (
	"time"

	"github.com/blackwell-systems/gitrate/internal/insight"
	"github.com/blackwell-systems/gitrate/internal/model"
	"github.com/blackwell-systems/gitrate/internal/scoring"
)

const (
	// FileName is the suggested name of a downloaded markdown report.
	FileName = "gitrate-report.md"
	// MIMEType is the content type of a markdown report.
	MIMEType = "text/markdown"
)

// Report is everything shown for one analysed repository.
type Report struct {
	Repository  string            `json:"repository"`
	URL         string            `json:"url,omitempty"`
	Score       int               `json:"score"`
	Grade       string            `json:"grade"`
	Summary     string            `json:"summary"`
	Source      insight.Source    `json:"insight_source,omitempty"`
	Breakdown   []scoring.Outcome `json:"breakdown"`
	Roadmap     []string          `json:"roadmap"`
	Metadata    *model.Snapshot   `json:"metadata,omitempty"`
	CacheHit    bool              `json:"cache_hit"`
	RunID       string            `json:"run_id,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// New builds a report from the pieces of an analysis.
func New(snap *model.Snapshot, res scoring.Result, ins insight.Insight) *Report {
	r := &Report{
		Score:     res.Score,
		Grade:     res.Grade,
		Summary:   ins.Summary,
		Source:    ins.Source,
		Breakdown: res.Breakdown,
		Roadmap:   ins.Roadmap,
		Metadata:  snap,
	}
	if snap != nil {
		r.Repository = snap.Profile.FullName
		r.URL = snap.Profile.URL
	}
	return r
}
