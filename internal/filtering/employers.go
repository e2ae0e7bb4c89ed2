package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/matching"
)

type employersFilter struct {
	disabled  bool
	reason    string
	employers map[string]bool
	names     []string
}

// NewEmployers creates a filter that removes matches from employers listed in the config.
// Company names are compared case-insensitively.
func NewEmployers() Filter {
	return &employersFilter{}
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *employersFilter) IsEnabled() bool { return !f.disabled }

func (f *employersFilter) Validate(cfg *Config) error {
	f.employers = map[string]bool{}
	f.names = nil
	if cfg == nil {
		return nil
	}
	for _, e := range cfg.Employers {
		key := normalizeCompany(e)
		if key == "" || f.employers[key] {
			continue
		}
		f.employers[key] = true
		f.names = append(f.names, strings.TrimSpace(e))
	}
	return nil
}

func (f *employersFilter) Apply(_ context.Context, deps Deps, m []matching.Match) ([]matching.Match, Step, error) {
	initial := len(m)
	if len(f.employers) == 0 {
		return m, Step{Initial: initial, Left: initial}, nil
	}

	left, dropped := keep(m, func(match matching.Match) bool {
		return !f.employers[normalizeCompany(match.Job.Company)]
	})
	if len(dropped) > 0 {
		deps.Logger.Debug("excluding matches by employers",
			zap.Strings("excluded_employers", f.names),
			zap.Strings("excluded_jobs", dropped),
			zap.Int("jobs_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(dropped), Left: len(left)}, nil
}

func (f *employersFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["employers"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func normalizeCompany(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
