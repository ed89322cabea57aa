package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Completer sends a prompt to a language model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator produces insights, using Client when one is configured.
type Generator struct {
	Client Completer
	Logger *slog.Logger
}

// NewGenerator returns a generator. client may be nil, in which case every
// insight is the deterministic fallback.
func NewGenerator(client Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{Client: client, Logger: logger}
}

// Generate returns the insight for in. It never fails: any problem with the
// model call or its answer yields the fallback.
func (g *Generator) Generate(ctx context.Context, in Input) Insight {
	fallback := Fallback(in)
	if g == nil || g.Client == nil {
		return fallback
	}

	ins, err := g.enhance(ctx, in, fallback)
	if err != nil {
		g.logger().Debug("insight enhancement failed, using fallback", "error", err)
		return fallback
	}
	return ins
}

func (g *Generator) enhance(ctx context.Context, in Input, fallback Insight) (ins Insight, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("insight enhancement panicked: %v", r)
		}
	}()

	text, err := g.Client.Complete(ctx, BuildPrompt(in))
	if err != nil {
		return Insight{}, fmt.Errorf("completing prompt: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return Insight{}, errors.New("empty model response")
	}

	parsed, err := ParseResponse(text)
	if err != nil {
		return Insight{}, fmt.Errorf("parsing model response: %w", err)
	}

	merged := Merge(parsed, fallback, FallbackRoadmap(in))
	if merged.Source == SourceFallback {
		return fallback, nil
	}
	return merged, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
