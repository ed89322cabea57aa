package insight

import (
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/gitrate/internal/model"
)

const (
	previewEntries    = 40
	readmePromptChars = 500
)

// responseSchema is the exact JSON shape the model must answer with.
const responseSchema = `{"summary": "string", "roadmap": ["step 1", "step 2", "step 3"]}`

// BuildPrompt renders the metadata, score and breakdown into the
// instruction sent to the model.
func BuildPrompt(in Input) string {
	snap := in.Snapshot
	if snap == nil {
		snap = &model.Snapshot{}
	}
	p := snap.Profile

	var sb strings.Builder
	sb.WriteString("You are an expert software engineer analyzing a public GitHub repository.\n")
	sb.WriteString("Return STRICT JSON ONLY (no markdown, no code fences, no extra keys).\n")
	sb.WriteString("Schema:\n")
	sb.WriteString(responseSchema)
	sb.WriteString("\n\nRepository metadata:\n")

	field := func(name string, value any) {
		fmt.Fprintf(&sb, "- %s: %v\n", name, value)
	}
	field("full_name", p.FullName)
	field("description", p.Description)
	field("stars", p.Stars)
	field("forks", p.Forks)
	field("open_issues", p.OpenIssues)
	field("default_branch", p.DefaultBranch)
	field("readme_exists", p.ReadmeExists || model.HasFilePrefix(snap.Contents, "readme"))
	field("languages", orNone(strings.Join(snap.Languages.Names(), ", ")))
	field("commit_count", snap.Commits.Count)
	last := "unknown"
	if snap.Commits.LastCommit != nil {
		last = snap.Commits.LastCommit.UTC().Format(time.RFC3339)
	}
	field("last_commit_iso", last)
	field("branches", p.Branches)
	field("pull_requests", p.PullRequests)
	field("license", orNone(p.License))
	field("contributors", p.Contributors)
	field("quality_files", orNone(strings.Join(snap.QualityFiles, ", ")))
	field("score", fmt.Sprintf("%d/100", in.Result.Score))
	field("root_contents_preview", orNone(contentsPreview(snap.Contents)))

	if len(in.Result.Breakdown) > 0 {
		sb.WriteString("\nScore breakdown:\n")
		for _, line := range in.Result.Lines() {
			sb.WriteString("- ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if excerpt := truncate(strings.TrimSpace(snap.Readme), readmePromptChars); excerpt != "" {
		sb.WriteString("\nREADME excerpt:\n")
		sb.WriteString(excerpt)
		sb.WriteString("\n")
	}

	sb.WriteString("\nConstraints:\n")
	sb.WriteString("- Keep summary short (1-3 sentences).\n")
	sb.WriteString("- Roadmap must be exactly 3 actionable steps personalized to the repository.\n")
	sb.WriteString("- Output must be a single valid JSON object.\n")
	return sb.String()
}

func contentsPreview(entries []model.ContentEntry) string {
	if len(entries) > previewEntries {
		entries = entries[:previewEntries]
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		parts = append(parts, string(e.Kind)+":"+e.Name)
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
