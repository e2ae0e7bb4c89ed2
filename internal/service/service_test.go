package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/keywords"
	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/resume"
	"github.com/spigell/jobmatch/internal/store"
)

type fakeSource struct {
	listings []jobs.JobListing
	err      error
	calls    int
}

func (f *fakeSource) Search(_ context.Context, _ jobs.SearchCriteria) ([]jobs.JobListing, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

type detailSource struct {
	fakeSource
	details map[string]string
	lookups int
}

func (d *detailSource) JobDetails(_ context.Context, id string) (*jobs.JobListing, error) {
	d.lookups++
	desc, ok := d.details[id]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	return &jobs.JobListing{ID: id, Title: "details", Description: desc}, nil
}

type fixture struct {
	svc    *Service
	source *fakeSource
	store  *store.Store
	dir    string
}

func newFixture(t *testing.T, filters *filtering.Config) *fixture {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	st, err := store.Open(ctx, filepath.Join(dir, "jobs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	resumes := filepath.Join(dir, "resumes")
	require.NoError(t, os.MkdirAll(resumes, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(resumes, "backend.txt"),
		[]byte("Backend engineer. Go, PostgreSQL, Kubernetes, Docker. Built REST services."), 0o644))

	emb := embedding.NewHashed(256)
	ext := keywords.New()
	scorer, err := matching.NewScorer(emb, ext, matching.DefaultWeights(), nil)
	require.NoError(t, err)

	var pipeline *filtering.Pipeline
	if filters != nil {
		pipeline, err = filtering.NewPipeline(filters, filtering.Default()...)
		require.NoError(t, err)
	}

	src := &fakeSource{}
	svc, err := New(Deps{
		Source:    src,
		Store:     st,
		Resumes:   resume.NewLibrary(resumes),
		Extractor: ext,
		Embedder:  emb,
		Scorer:    scorer,
		Filters:   pipeline,
	})
	require.NoError(t, err)

	return &fixture{svc: svc, source: src, store: st, dir: dir}
}

var sampleListings = []jobs.JobListing{
	{ID: "cook", Title: "Line Cook", Company: "Diner", Description: "Prepare breakfast dishes and keep the grill clean.", Status: jobs.StatusNew},
	{ID: "go", Title: "Go Backend Engineer", Company: "Acme", Description: "Build Go services on Kubernetes with PostgreSQL and Docker.", Status: jobs.StatusNew},
}

func TestFetchAndStore(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.source.listings = sampleListings

	res, err := f.svc.FetchAndStore(ctx, jobs.SearchCriteria{Query: "go"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Inserted)

	_, err = f.svc.UpdateStatus(ctx, "go", "Applied")
	require.NoError(t, err)

	res, err = f.svc.FetchAndStore(ctx, jobs.SearchCriteria{Query: "go"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)

	job, err := f.svc.Job(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusApplied, job.Status)
}

func TestFetchFailureLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.source.err = &jobs.SourceError{StatusCode: 429, Message: "rate limited"}
	_, err := f.svc.FetchAndStore(ctx, jobs.SearchCriteria{Query: "go"})
	assert.ErrorIs(t, err, jobs.ErrSourceError)

	n, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMatchesRanksByResume(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.source.listings = sampleListings
	_, err := f.svc.FetchAndStore(ctx, jobs.SearchCriteria{Query: "go"})
	require.NoError(t, err)

	res, err := f.svc.Matches(ctx, "backend.txt", nil)
	require.NoError(t, err)
	require.True(t, res.Scored)
	require.Len(t, res.Matches, 2)

	assert.Equal(t, "go", res.Matches[0].Job.ID)
	assert.Greater(t, res.Matches[0].Score, res.Matches[1].Score)
	assert.Contains(t, res.Matches[0].MatchedKeywords, "kubernetes")
	assert.Contains(t, res.Keywords, "postgresql")

	unscored, err := f.svc.Matches(ctx, "", nil)
	require.NoError(t, err)
	assert.False(t, unscored.Scored)
	assert.Equal(t, "cook", unscored.Matches[0].Job.ID)
}

func TestMatchesAppliesStatusFilterAndFilters(t *testing.T) {
	f := newFixture(t, &filtering.Config{Employers: []string{"diner"}})
	ctx := context.Background()
	f.source.listings = append(sampleListings, jobs.JobListing{ID: "sre", Title: "SRE", Company: "Initech", Description: "Kubernetes on call"})
	_, err := f.svc.FetchAndStore(ctx, jobs.SearchCriteria{Query: "go"})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, "sre", "rejected")
	require.NoError(t, err)

	res, err := f.svc.Matches(ctx, "backend.txt", []jobs.Status{jobs.StatusNew})
	require.NoError(t, err)

	got := make([]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		got = append(got, m.Job.ID)
	}
	assert.Equal(t, []string{"go"}, got)

	counts, err := f.svc.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[jobs.StatusNew])
	assert.Equal(t, 1, counts[jobs.StatusRejected])

	assert.Len(t, f.svc.Filters(), 3)
}

func TestMatchesUnknownResume(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Matches(context.Background(), "missing.txt", nil)
	assert.ErrorIs(t, err, jobs.ErrNotFound)

	_, err = f.svc.Matches(context.Background(), "../secret.txt", nil)
	assert.ErrorIs(t, err, jobs.ErrInvalidResume)
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, "missing", "seen")
	assert.ErrorIs(t, err, jobs.ErrNotFound)

	_, err = f.svc.UpdateStatus(ctx, "missing", "hired")
	assert.ErrorIs(t, err, jobs.ErrInvalidStatus)
}

func TestUploadResume(t *testing.T) {
	f := newFixture(t, nil)

	name, err := f.svc.UploadResume("data.txt", strings.NewReader("Data engineer with Spark and Python"))
	require.NoError(t, err)
	assert.Equal(t, "data.txt", name)

	names, err := f.svc.Resumes()
	require.NoError(t, err)
	assert.Equal(t, []string{"backend.txt", "data.txt"}, names)

	_, err = f.svc.UploadResume("data.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, jobs.ErrInvalidResume)
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, jobs.ErrNotFound))
}

func TestJobFillsMissingDescription(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := store.Open(ctx, filepath.Join(dir, "jobs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = st.Upsert(ctx, []jobs.JobListing{
		{ID: "short", Title: "SRE", Company: "Acme"},
		{ID: "gone", Title: "QA", Company: "Acme"},
		{ID: "full", Title: "Dev", Company: "Acme", Description: "stored text"},
	})
	require.NoError(t, err)

	emb := embedding.NewHashed(64)
	ext := keywords.New()
	scorer, err := matching.NewScorer(emb, ext, matching.DefaultWeights(), nil)
	require.NoError(t, err)

	src := &detailSource{details: map[string]string{"short": "Run production systems."}}
	svc, err := New(Deps{
		Source:    src,
		Store:     st,
		Resumes:   resume.NewLibrary(dir),
		Extractor: ext,
		Embedder:  emb,
		Scorer:    scorer,
	})
	require.NoError(t, err)

	job, err := svc.Job(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "Run production systems.", job.Description)

	job, err = svc.Job(ctx, "gone")
	require.NoError(t, err)
	assert.Empty(t, job.Description)

	job, err = svc.Job(ctx, "full")
	require.NoError(t, err)
	assert.Equal(t, "stored text", job.Description)
	assert.Equal(t, 2, src.lookups)

	stored, err := st.Get(ctx, "short")
	require.NoError(t, err)
	assert.Empty(t, stored.Description)
}
