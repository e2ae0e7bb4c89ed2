// Package filtering drops scored matches the user never wants to see.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/matching"
)

// Filter is a single step applied to scored matches. Validate is called once
// when the pipeline is built; Apply may run concurrently and must not mutate
// the filter or its input slice.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, m []matching.Match) ([]matching.Match, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
	// Unscored is set when matches carry no relevance score (no resume selected).
	Unscored bool
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	Employers   []string
	ExcludeFile string
	MinScore    float64
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type statusProvider interface {
	Status() Status
}

// Default returns every known step in execution order.
func Default() []Filter {
	return []Filter{NewEmployers(), NewExcludeFile(), NewMinScore()}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Pipeline is a validated, ordered set of filters.
type Pipeline struct {
	steps []Filter
}

// NewPipeline validates every enabled step against cfg.
func NewPipeline(cfg *Config, steps ...Filter) (*Pipeline, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return &Pipeline{steps: steps}, nil
}

// Run applies enabled steps in order. Relative order of the surviving matches is kept.
func (p *Pipeline) Run(ctx context.Context, deps Deps, m []matching.Match) ([]matching.Match, error) {
	if p == nil {
		return m, nil
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range p.steps {
		if !step.IsEnabled() {
			continue
		}

		next, info, err := step.Apply(ctx, deps, m)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		m = next
	}

	return m, nil
}

// Describe returns status entries for the pipeline's filters.
func (p *Pipeline) Describe() []Status {
	if p == nil {
		return nil
	}

	statuses := make([]Status, 0, len(p.steps))
	for _, step := range p.steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the matches for which pred is true, plus the dropped IDs.
func keep(m []matching.Match, pred func(matching.Match) bool) ([]matching.Match, []string) {
	out := make([]matching.Match, 0, len(m))
	var dropped []string
	for _, match := range m {
		if pred(match) {
			out = append(out, match)
			continue
		}
		dropped = append(dropped, match.Job.ID)
	}
	return out, dropped
}
