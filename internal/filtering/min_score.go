package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/matching"
)

type minScoreFilter struct {
	disabled bool
	reason   string
	minimum  float64
}

// NewMinScore creates a filter that removes matches scoring below the configured minimum.
// A zero minimum keeps everything.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.minimum = 0
	if cfg == nil {
		return nil
	}
	if cfg.MinScore < 0 || cfg.MinScore > 1 {
		return fmt.Errorf("minimum score must be within [0, 1], got %v", cfg.MinScore)
	}
	f.minimum = cfg.MinScore
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, m []matching.Match) ([]matching.Match, Step, error) {
	initial := len(m)
	if f.minimum == 0 || deps.Unscored {
		return m, Step{Initial: initial, Left: initial}, nil
	}

	left, dropped := keep(m, func(match matching.Match) bool {
		return match.Score >= f.minimum
	})
	if len(dropped) > 0 {
		deps.Logger.Debug("excluding matches below minimum score",
			zap.Float64("minimum_score", f.minimum),
			zap.Int("excluded", len(dropped)),
			zap.Int("jobs_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(dropped), Left: len(left)}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_score": strconv.FormatFloat(f.minimum, 'f', 2, 64)},
	}
}
