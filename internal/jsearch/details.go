package jsearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spigell/jobmatch/internal/jobs"
)

const DetailsPath = "/job-details"

func (c *Client) jobDetails(ctx context.Context, id string) (*jobs.JobListing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("job id is required")
	}

	q := url.Values{}
	q.Set("job_id", id)

	items, err := c.getData(ctx, DetailsPath, q)
	if err != nil {
		return nil, fmt.Errorf("job details %q: %w", id, err)
	}

	listings, err := c.toListings(items)
	if err != nil {
		return nil, fmt.Errorf("job details %q: %w", id, err)
	}

	if len(listings) == 0 {
		return nil, fmt.Errorf("job details %q: %w", id, jobs.ErrNotFound)
	}

	return &listings[0], nil
}
