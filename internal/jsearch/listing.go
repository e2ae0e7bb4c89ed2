package jsearch

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/jobs"
)

const unknownCompany = "Unknown"

// Listing is the subset of the provider schema we map. Anything else in the
// payload is ignored.
type Listing struct {
	ID              string `json:"job_id"`
	Title           string `json:"job_title"`
	EmployerName    string `json:"employer_name"`
	EmployerWebsite string `json:"employer_website"`
	Publisher       string `json:"job_publisher"`
	EmploymentType  string `json:"job_employment_type"`
	ApplyLink       string `json:"job_apply_link"`
	GoogleLink      string `json:"job_google_link"`
	Description     string `json:"job_description"`
	IsRemote        bool   `json:"job_is_remote"`
	Location        string `json:"job_location"`
	City            string `json:"job_city"`
	State           string `json:"job_state"`
	Country         string `json:"job_country"`
	PostedAt        string `json:"job_posted_at_datetime_utc"`
}

// decodeListing decodes a loosely typed item into Listing.
func decodeListing(item map[string]any) (*Listing, error) {
	var listing Listing

	cfg := &mapstructure.DecoderConfig{
		Result:           &listing,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(item); err != nil {
		return nil, err
	}

	return &listing, nil
}

// ToJobListing maps the provider record into the internal shape, defaulting
// optional fields. It does not validate required ones.
func (l *Listing) ToJobListing() jobs.JobListing {
	company := strings.TrimSpace(l.EmployerName)
	if company == "" {
		company = unknownCompany
	}

	link := absoluteURL(l.ApplyLink)
	if link == "" {
		link = absoluteURL(l.GoogleLink)
	}

	return jobs.JobListing{
		ID:          strings.TrimSpace(l.ID),
		Title:       strings.TrimSpace(l.Title),
		Company:     company,
		Location:    l.location(),
		Description: strings.TrimSpace(l.Description),
		URL:         link,
		JobType:     strings.TrimSpace(l.EmploymentType),
		Status:      jobs.StatusNew,
		Source: jobs.Source{
			Provider:        Provider,
			Publisher:       strings.TrimSpace(l.Publisher),
			EmployerWebsite: absoluteURL(l.EmployerWebsite),
			Remote:          l.IsRemote,
			PostedAt:        parseTime(l.PostedAt),
		},
	}
}

func (l *Listing) location() string {
	if loc := strings.TrimSpace(l.Location); loc != "" {
		return loc
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{l.City, l.State, l.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

// toListings maps every item of a response. A decode failure fails the whole
// batch; items that decode but miss required fields are dropped.
func (c *Client) toListings(items []map[string]any) ([]jobs.JobListing, error) {
	listings := make([]jobs.JobListing, 0, len(items))
	seen := make(map[string]bool, len(items))

	for idx, item := range items {
		raw, err := decodeListing(item)
		if err != nil {
			return nil, &jobs.SourceError{Message: fmt.Sprintf("decode item %d: %v", idx, err)}
		}

		listing := raw.ToJobListing()
		if err := c.validate.Struct(listing); err != nil {
			c.logger.Warn("dropping listing that failed validation",
				zap.Int("index", idx),
				zap.String("job_id", listing.ID),
				zap.Error(err),
			)
			continue
		}

		if seen[listing.ID] {
			continue
		}
		seen[listing.ID] = true

		listings = append(listings, listing)
	}

	return listings, nil
}

func absoluteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}

	return u.String()
}

func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}
