package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/blackwell-systems/gitrate/internal/model"
	"github.com/blackwell-systems/gitrate/internal/report"
	"github.com/blackwell-systems/gitrate/internal/scoring"
)

// ScoreBar renders a visual progress bar for a 0-100 score.
// Example: "████████░░ 80/100"
func ScoreBar(score, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := score * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", scoreStyle(score).Render(bar), StyleMuted.Render(fmt.Sprintf("%d/100", score)))
}

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 70:
		return StyleSuccess
	case score >= 40:
		return StyleWarning
	default:
		return StyleError
	}
}

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// StatusMark is the one-character marker shown before a breakdown line.
func StatusMark(s scoring.Status) string {
	switch s {
	case scoring.StatusPass:
		return StyleSuccess.Render("✓")
	case scoring.StatusFail:
		return StyleError.Render("✗")
	default:
		return StyleWarning.Render("!")
	}
}

// Dashboard renders the terminal view of a report: score, metadata,
// summary, breakdown and roadmap.
func Dashboard(r *report.Report) string {
	var sb strings.Builder

	title := r.Repository
	if title == "" {
		title = "Repository"
	}
	fmt.Fprintf(&sb, "\n %s  %s\n", StyleBold.Render(title), StyleMuted.Render(r.URL))
	fmt.Fprintf(&sb, " %s  %s\n", ScoreBar(r.Score, 30), StyleBold.Render("Grade "+r.Grade))

	if r.Metadata != nil {
		sb.WriteString(Section("Repository"))
		sb.WriteString("\n")
		for _, kv := range metadataRows(r.Metadata) {
			fmt.Fprintf(&sb, " %s%s\n", StyleLabel.Render(kv[0]), kv[1])
		}
	}

	if r.Summary != "" {
		sb.WriteString(Section("Summary"))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, " %s\n", r.Summary)
		if r.Source != "" {
			fmt.Fprintf(&sb, " %s\n", StyleMuted.Render("source: "+string(r.Source)))
		}
	}

	if len(r.Breakdown) > 0 {
		sb.WriteString(Section("Score Breakdown"))
		sb.WriteString("\n")
		tbl := NewTable("", "Rule", "Points", "Detail")
		for _, o := range r.Breakdown {
			tbl.AddRow(StatusMark(o.Status), o.Rule, fmt.Sprintf("%d/%d", o.Awarded, o.Points), o.Detail)
		}
		for _, line := range strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n") {
			fmt.Fprintf(&sb, " %s\n", line)
		}
	}

	if len(r.Roadmap) > 0 {
		sb.WriteString(Section("Roadmap"))
		sb.WriteString("\n")
		for i, step := range r.Roadmap {
			fmt.Fprintf(&sb, " %d. %s\n", i+1, step)
		}
	}

	if r.CacheHit {
		fmt.Fprintf(&sb, "\n %s\n", StyleMuted.Render("metadata served from cache"))
	}
	return sb.String()
}

func metadataRows(s *model.Snapshot) [][2]string {
	langs := "None detected"
	if names := s.Languages.Names(); len(names) > 0 {
		langs = strings.Join(names, ", ")
	}
	license := s.Profile.License
	if license == "" {
		license = model.LicenseNone
	}
	return [][2]string{
		{"Languages", langs},
		{"Commits", strconv.Itoa(s.Commits.Count)},
		{"Last commit", s.Commits.LastCommitDisplay()},
		{"Pull requests", strconv.Itoa(s.Profile.PullRequests)},
		{"Branches", strconv.Itoa(s.Profile.Branches)},
		{"License", license},
		{"Contributors", strconv.Itoa(s.Profile.Contributors)},
		{"Stars", strconv.Itoa(s.Profile.Stars)},
	}
}
