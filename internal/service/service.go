// Package service ties the job source, the store, the resume library and the
// scorer together. The web layer talks only to Service.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/resume"
)

// Source fetches listings from a job board.
type Source interface {
	Search(ctx context.Context, criteria jobs.SearchCriteria) ([]jobs.JobListing, error)
}

// detailer is implemented by sources that can look up a single listing.
type detailer interface {
	JobDetails(ctx context.Context, id string) (*jobs.JobListing, error)
}

// Repository persists listings.
type Repository interface {
	Upsert(ctx context.Context, listings []jobs.JobListing) (int, error)
	List(ctx context.Context, statuses ...jobs.Status) ([]jobs.JobListing, error)
	Get(ctx context.Context, id string) (*jobs.JobListing, error)
	UpdateStatus(ctx context.Context, id string, status jobs.Status) error
	Count(ctx context.Context, statuses ...jobs.Status) (int, error)
}

// ResumeLibrary stores resume files.
type ResumeLibrary interface {
	List() ([]string, error)
	Load(name string) (string, error)
	Save(name string, r io.Reader) (string, error)
}

// Deps holds everything Service needs. Embedder is the process-wide handle.
type Deps struct {
	Source    Source
	Store     Repository
	Resumes   ResumeLibrary
	Extractor resume.KeywordExtractor
	Embedder  embedding.Embedder
	Scorer    *matching.Scorer
	Filters   *filtering.Pipeline
	Logger    *zap.Logger
}

type Service struct {
	source    Source
	store     Repository
	resumes   ResumeLibrary
	extractor resume.KeywordExtractor
	embedder  embedding.Embedder
	scorer    *matching.Scorer
	filters   *filtering.Pipeline
	logger    *zap.Logger
}

func New(deps Deps) (*Service, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("service: job source is required")
	case deps.Store == nil:
		return nil, errors.New("service: store is required")
	case deps.Resumes == nil:
		return nil, errors.New("service: resume library is required")
	case deps.Extractor == nil || deps.Embedder == nil || deps.Scorer == nil:
		return nil, errors.New("service: extractor, embedder and scorer are required")
	}

	return &Service{
		source:    deps.Source,
		store:     deps.Store,
		resumes:   deps.Resumes,
		extractor: deps.Extractor,
		embedder:  deps.Embedder,
		scorer:    deps.Scorer,
		filters:   deps.Filters,
		logger:    logger.WithFields(deps.Logger),
	}, nil
}

// FetchResult summarizes one fetch.
type FetchResult struct {
	Fetched  int           `json:"fetched"`
	Inserted int           `json:"inserted"`
	Took     time.Duration `json:"took"`
}

// FetchAndStore runs one search and stores new listings. The store is only
// touched after the whole fetch succeeded.
func (s *Service) FetchAndStore(ctx context.Context, criteria jobs.SearchCriteria) (*FetchResult, error) {
	start := time.Now()

	listings, err := s.source.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}

	inserted, err := s.store.Upsert(ctx, listings)
	if err != nil {
		return nil, fmt.Errorf("store fetched listings: %w", err)
	}

	res := &FetchResult{Fetched: len(listings), Inserted: inserted, Took: time.Since(start)}
	s.logger.Info("fetch completed",
		zap.String("query", strings.TrimSpace(criteria.Query)),
		zap.Int("fetched", res.Fetched),
		zap.Int("inserted", res.Inserted),
		zap.Duration("took", res.Took),
	)

	return res, nil
}

// Results is a ranked view of the store for one resume.
type Results struct {
	Resume  string           `json:"resume,omitempty"`
	Scored  bool             `json:"scored"`
	Matches []matching.Match `json:"matches"`
	// Keywords are the resume keywords, sorted.
	Keywords []string `json:"keywords,omitempty"`
}

// Matches lists stored jobs, optionally restricted to statuses. With a resume
// name the jobs are scored and sorted by relevance; without one they keep
// insertion order.
func (s *Service) Matches(ctx context.Context, resumeName string, statuses []jobs.Status) (*Results, error) {
	listings, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}

	resumeName = strings.TrimSpace(resumeName)
	if resumeName == "" {
		matches := make([]matching.Match, 0, len(listings))
		for _, l := range listings {
			matches = append(matches, matching.Match{Job: l})
		}
		matches, err = s.filters.Run(ctx, filtering.Deps{Logger: s.logger, Unscored: true}, matches)
		if err != nil {
			return nil, err
		}
		return &Results{Matches: matches}, nil
	}

	profile, err := s.Profile(ctx, resumeName)
	if err != nil {
		return nil, err
	}

	matches, err := s.scorer.Score(ctx, profile, listings)
	if err != nil {
		return nil, err
	}

	matches, err = s.filters.Run(ctx, filtering.Deps{Logger: s.logger}, matches)
	if err != nil {
		return nil, err
	}

	return &Results{
		Resume:   profile.Name,
		Scored:   true,
		Matches:  matches,
		Keywords: profile.Keywords.Sorted(),
	}, nil
}

// Profile loads a resume and rebuilds its keyword set and vector.
func (s *Service) Profile(ctx context.Context, name string) (*resume.Profile, error) {
	text, err := s.resumes.Load(name)
	if err != nil {
		return nil, err
	}

	profile, err := resume.BuildProfile(ctx, name, text, s.extractor, s.embedder)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("resume profile built",
		zap.String(logger.FieldResume, name),
		zap.Int("keywords", len(profile.Keywords)),
	)

	return profile, nil
}

// UpdateStatus parses raw and stores it for the job.
func (s *Service) UpdateStatus(ctx context.Context, id, raw string) (jobs.Status, error) {
	status, err := jobs.ParseStatus(raw)
	if err != nil {
		return "", err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("job id is empty: %w", jobs.ErrNotFound)
	}

	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return "", err
	}
	return status, nil
}

// Job returns a stored listing. A missing description is looked up at the
// source when it supports details; the result is not persisted.
func (s *Service) Job(ctx context.Context, id string) (*jobs.JobListing, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d, ok := s.source.(detailer)
	if job.Description != "" || !ok {
		return job, nil
	}

	full, err := d.JobDetails(ctx, id)
	if err != nil {
		s.logger.Warn("job details lookup failed", zap.String("job_id", id), zap.Error(err))
		return job, nil
	}
	job.Description = full.Description

	return job, nil
}

func (s *Service) Resumes() ([]string, error) {
	return s.resumes.List()
}

func (s *Service) UploadResume(name string, r io.Reader) (string, error) {
	stored, err := s.resumes.Save(name, r)
	if err != nil {
		return "", err
	}
	s.logger.Info("resume uploaded", zap.String(logger.FieldResume, stored))
	return stored, nil
}

// StatusCounts returns how many stored jobs are in each status.
func (s *Service) StatusCounts(ctx context.Context) (map[jobs.Status]int, error) {
	counts := make(map[jobs.Status]int, len(jobs.Statuses()))
	for _, st := range jobs.Statuses() {
		n, err := s.store.Count(ctx, st)
		if err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, nil
}

// Filters describes the configured post-scoring filters.
func (s *Service) Filters() []filtering.Status {
	return s.filters.Describe()
}
