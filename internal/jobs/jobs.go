// Package jobs holds the domain model shared by the fetcher, the store and the scorer.
package jobs

import (
	"fmt"
	"strings"
	"time"
)

// Status tracks the user's application progress for a listing.
type Status string

const (
	StatusNew          Status = "new"
	StatusSeen         Status = "seen"
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusRejected     Status = "rejected"
)

// Statuses lists every valid status in display order.
func Statuses() []Status {
	return []Status{StatusNew, StatusSeen, StatusApplied, StatusInterviewing, StatusRejected}
}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q (valid: new, seen, applied, interviewing, rejected)", ErrInvalidStatus, s)
	}
	return status, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusSeen, StatusApplied, StatusInterviewing, StatusRejected:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// JobListing is a normalized listing. ID is assigned by the provider and is the
// dedup key in the store.
type JobListing struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty" validate:"omitempty,url"`
	JobType     string `json:"job_type,omitempty"`
	Source      Source `json:"source"`
	Status      Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

// Source is provider metadata kept next to the listing.
type Source struct {
	Provider        string    `json:"provider,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	EmployerWebsite string    `json:"employer_website,omitempty" validate:"omitempty,url"`
	Remote          bool      `json:"remote,omitempty"`
	PostedAt        time.Time `json:"posted_at,omitempty"`
}

// SearchCriteria describes one query against the job source.
type SearchCriteria struct {
	Query          string `json:"query" form:"query" validate:"required,max=200"`
	Location       string `json:"location,omitempty" form:"location" validate:"max=200"`
	EmploymentType string `json:"employment_type,omitempty" form:"employment_type" validate:"omitempty,oneof=fulltime parttime contract intern"`
	DatePosted     string `json:"date_posted,omitempty" form:"date_posted" validate:"omitempty,oneof=all today 3days week month"`
	RemoteOnly     bool   `json:"remote_only,omitempty" form:"remote_only"`
	Experience     string `json:"experience,omitempty" form:"experience" validate:"omitempty,oneof=under_3_years_experience more_than_3_years_experience no_experience no_degree"`
	Page           int    `json:"page,omitempty" form:"page" validate:"gte=0"`
	NumPages       int    `json:"num_pages,omitempty" form:"num_pages" validate:"gte=0,lte=5"`
}

// Normalize trims input and applies paging defaults.
func (c SearchCriteria) Normalize() SearchCriteria {
	c.Query = strings.TrimSpace(c.Query)
	c.Location = strings.TrimSpace(c.Location)
	c.EmploymentType = strings.ToLower(strings.TrimSpace(c.EmploymentType))
	c.DatePosted = strings.ToLower(strings.TrimSpace(c.DatePosted))
	c.Experience = strings.ToLower(strings.TrimSpace(c.Experience))
	if c.Page <= 0 {
		c.Page = 1
	}
	if c.NumPages <= 0 {
		c.NumPages = 1
	}
	return c
}
