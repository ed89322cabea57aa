package insight

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoObject = errors.New("response does not contain a JSON object")

// ParseResponse extracts a JSON object from free-form model output. The whole
// text is tried first, then the span from the first "{" to the last "}",
// which also covers answers wrapped in code fences or prose.
func ParseResponse(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errNoObject
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end <= start {
			return nil, errNoObject
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
			return nil, err
		}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, errNoObject
	}
	return obj, nil
}

// Merge applies the model's answer field by field over fallback. A summary is
// taken only when it is a non-empty string and a roadmap only when it is a
// non-empty array; the roadmap is then cleaned and padded from the fallback
// steps to exactly RoadmapSize entries.
func Merge(parsed map[string]any, fallback Insight, fallbackSteps []string) Insight {
	out := Insight{Summary: fallback.Summary, Source: SourceFallback}
	fromModel := 0

	if s, ok := parsed["summary"].(string); ok && strings.TrimSpace(s) != "" {
		out.Summary = strings.TrimSpace(s)
		fromModel++
	}

	steps, ok := parsed["roadmap"].([]any)
	if !ok || len(steps) == 0 {
		out.Roadmap = append([]string(nil), fallback.Roadmap...)
	} else {
		var cleaned []string
		for _, step := range steps {
			if s, ok := step.(string); ok && strings.TrimSpace(s) != "" {
				cleaned = append(cleaned, strings.TrimSpace(s))
			}
		}
		if len(cleaned) > 0 {
			fromModel++
		}
		for _, step := range fallbackSteps {
			if len(cleaned) >= RoadmapSize {
				break
			}
			if !contains(cleaned, step) {
				cleaned = append(cleaned, step)
			}
		}
		if len(cleaned) > RoadmapSize {
			cleaned = cleaned[:RoadmapSize]
		}
		out.Roadmap = cleaned
	}

	switch fromModel {
	case 2:
		out.Source = SourceAI
	case 1:
		out.Source = SourceMixed
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
