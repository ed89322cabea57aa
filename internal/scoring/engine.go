package scoring

import (
	"fmt"
	"strings"
	"time"
)

// MinScore and MaxScore bound every total.
const (
	MinScore = 0
	MaxScore = 100
)

// Engine evaluates an ordered rule table.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over DefaultRules.
func NewEngine() *Engine {
	return &Engine{rules: DefaultRules}
}

// NewEngineWithRules creates an engine over a custom rule table.
func NewEngineWithRules(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the engine's rule table.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// MaxPoints is the sum of every rule's weight.
func (e *Engine) MaxPoints() int {
	total := 0
	for _, r := range e.rules {
		total += r.Points()
	}
	return total
}

// Score evaluates every rule against in and returns the clamped total with
// one outcome per rule. now is the reference time for recency checks.
func (e *Engine) Score(in Input, now time.Time) Result {
	res := Result{Breakdown: make([]Outcome, 0, len(e.rules))}
	total := 0
	for _, r := range e.rules {
		o := evaluate(r, &in, now)
		total += o.Awarded
		res.Breakdown = append(res.Breakdown, o)
	}
	res.Score = clamp(total)
	res.Grade = Grade(res.Score)
	return res
}

// Score evaluates in against DefaultRules.
func Score(in Input, now time.Time) Result {
	return NewEngine().Score(in, now)
}

func evaluate(r Rule, in *Input, now time.Time) Outcome {
	o := Outcome{RuleID: r.ID, Rule: r.Name, Points: r.Points()}

	var passed, missed, broken []string
	for _, s := range r.Signals {
		ok, err := runSignal(s, in, now)
		switch {
		case err != nil:
			broken = append(broken, s.Label)
		case ok:
			passed = append(passed, s.Label)
			o.Awarded += s.Points
		default:
			missed = append(missed, s.Label)
		}
	}

	switch {
	case len(broken) > 0:
		o.Status = StatusWarn
		o.Detail = strings.Join(broken, ", ") + " could not be evaluated"
	case len(missed) == 0:
		o.Status = StatusPass
		o.Detail = strings.Join(passed, ", ") + " found"
	case len(passed) == 0:
		o.Status = StatusFail
		o.Detail = r.Hint
	default:
		o.Status = StatusWarn
		o.Detail = fmt.Sprintf("%s found; %s missing", strings.Join(passed, ", "), strings.Join(missed, ", "))
	}
	return o
}

// runSignal evaluates one signal, turning a panic into an error so a single
// faulty check cannot abort the remaining rules.
func runSignal(s Signal, in *Input, now time.Time) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("signal %q panicked: %v", s.Label, r)
		}
	}()
	if s.Test == nil {
		return false, fmt.Errorf("signal %q has no test", s.Label)
	}
	return s.Test(in, now), nil
}

func clamp(score int) int {
	if score > MaxScore {
		return MaxScore
	}
	if score < MinScore {
		return MinScore
	}
	return score
}

// Grade maps a score to a letter grade.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
