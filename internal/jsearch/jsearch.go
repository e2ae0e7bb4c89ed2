// Package jsearch is a client for the JSearch job-search API published on RapidAPI.
package jsearch

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/jobmatch/internal/jobs"
)

const (
	apiURL    = "https://jsearch.p.rapidapi.com"
	apiHost   = "jsearch.p.rapidapi.com"
	userAgent = "spigell/jobmatch"
	// Provider is recorded as the listing source.
	Provider = "jsearch"
)

type Client struct {
	apiKey   string
	logger   *zap.Logger
	limiter  *rate.Limiter
	validate *validator.Validate

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	Host       string
}

func New(logger *zap.Logger, apiKey string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey: apiKey,
		APIURL: apiURL,
		Host:   apiHost,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetRateLimit caps outgoing requests per second. Zero or negative disables the limit.
func (c *Client) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Search runs a single search request. The whole call fails if any part of the
// response cannot be decoded; no listing is returned in that case.
func (c *Client) Search(ctx context.Context, criteria jobs.SearchCriteria) ([]jobs.JobListing, error) {
	return c.search(ctx, criteria)
}

// JobDetails fetches the full record for a single listing.
func (c *Client) JobDetails(ctx context.Context, id string) (*jobs.JobListing, error) {
	return c.jobDetails(ctx, id)
}
