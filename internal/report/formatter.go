package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Formatter renders a report as text.
type Formatter interface {
	Format(r *Report) (string, error)
}

// MarkdownFormatter renders the downloadable markdown report.
type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (f *MarkdownFormatter) Format(r *Report) (string, error) {
	return Markdown(r), nil
}

// Markdown joins the title, score, summary, breakdown and roadmap sections
// with blank lines. Sections with no content are left out.
func Markdown(r *Report) string {
	if r == nil {
		return ""
	}

	var sections []string
	if title := strings.TrimSpace(r.Repository); title != "" {
		sections = append(sections, "# "+title)
	}
	sections = append(sections, fmt.Sprintf("**Score:** %d/100", r.Score))
	if summary := strings.TrimSpace(r.Summary); summary != "" {
		sections = append(sections, "## AI Summary\n\n"+summary)
	}
	if len(r.Breakdown) > 0 {
		lines := make([]string, len(r.Breakdown))
		for i, o := range r.Breakdown {
			lines[i] = o.String()
		}
		sections = append(sections, "## Score Breakdown\n\n"+bullets(lines))
	}
	if list := bullets(r.Roadmap); list != "" {
		sections = append(sections, "## Roadmap\n\n"+list)
	}
	return strings.Join(sections, "\n\n") + "\n"
}

func bullets(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(item)
	}
	return sb.String()
}

// JSONFormatter renders the full report, metadata included, as indented JSON.
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(r *Report) (string, error) {
	data, err := JSON(r)
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// JSON returns the indented JSON encoding of r.
func JSON(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return data, nil
}

// GetFormatter returns the formatter for "markdown" or "json".
func GetFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return NewMarkdownFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
