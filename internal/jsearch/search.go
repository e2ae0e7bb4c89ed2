package jsearch

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/jobs"
)

const (
	SearchPath = "/search"
)

// employmentTypes maps our criteria values to the provider's enumeration.
var employmentTypes = map[string]string{
	"fulltime": "FULLTIME",
	"parttime": "PARTTIME",
	"contract": "CONTRACTOR",
	"intern":   "INTERN",
}

type SearchParams struct {
	// jsparam is custom tag for reflect. Please see buildParams.
	Query           string   `jsparam:"query"`
	Page            int      `jsparam:"page"`
	NumPages        int      `jsparam:"num_pages"`
	DatePosted      string   `jsparam:"date_posted"`
	RemoteOnly      bool     `jsparam:"remote_jobs_only"`
	EmploymentTypes []string `jsparam:"employment_types"`
	JobRequirements string   `jsparam:"job_requirements"`
}

// NewSearchParams converts criteria into provider parameters.
// The location is folded into the query, which JSearch handles better than a separate field.
func NewSearchParams(criteria jobs.SearchCriteria) *SearchParams {
	criteria = criteria.Normalize()

	query := criteria.Query
	if criteria.Location != "" {
		query = fmt.Sprintf("%s in %s", query, criteria.Location)
	}

	params := &SearchParams{
		Query:           query,
		Page:            criteria.Page,
		NumPages:        criteria.NumPages,
		DatePosted:      criteria.DatePosted,
		RemoteOnly:      criteria.RemoteOnly,
		JobRequirements: criteria.Experience,
	}

	if t, ok := employmentTypes[criteria.EmploymentType]; ok {
		params.EmploymentTypes = []string{t}
	}

	return params
}

func (c *Client) search(ctx context.Context, criteria jobs.SearchCriteria) ([]jobs.JobListing, error) {
	criteria = criteria.Normalize()
	if err := c.validate.Struct(criteria); err != nil {
		return nil, fmt.Errorf("%w: %w", jobs.ErrInvalidCriteria, err)
	}

	q := buildParams(NewSearchParams(criteria))

	items, err := c.getData(ctx, SearchPath, q)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", criteria.Query, err)
	}

	listings, err := c.toListings(items)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", criteria.Query, err)
	}

	c.logger.Info("fetched listings",
		zap.String("query", criteria.Query),
		zap.String("location", criteria.Location),
		zap.Int("received", len(items)),
		zap.Int("accepted", len(listings)),
	)

	return listings, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()
	fields := reflect.VisibleFields(value.Type())

	for _, field := range fields {
		key := field.Tag.Get("jsparam")
		if key == "" {
			continue
		}

		v := value.FieldByIndex(field.Index)
		switch field.Type.Kind() {
		case reflect.Slice:
			if s, ok := v.Interface().([]string); ok && len(s) > 0 {
				// JSearch expects comma separated lists, not repeated keys.
				q.Set(key, strings.Join(s, ","))
			}
		case reflect.Bool:
			if v.Bool() {
				q.Set(key, "true")
			}
		case reflect.Int:
			if v.Int() != 0 {
				q.Set(key, strconv.FormatInt(v.Int(), 10))
			}
		default:
			if s := v.String(); s != "" {
				q.Set(key, s)
			}
		}
	}

	return q
}
