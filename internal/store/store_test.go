package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobmatch/internal/jobs"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "jobs.db")
	s, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func listing(id, title string) jobs.JobListing {
	return jobs.JobListing{
		ID:          id,
		Title:       title,
		Company:     "Acme",
		Location:    "Berlin",
		Description: title + " description",
		URL:         "https://acme.example/" + id,
		JobType:     "FULLTIME",
		Source: jobs.Source{
			Provider:  "jsearch",
			Publisher: "LinkedIn",
			Remote:    true,
			PostedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestUpsertInsertsOnlyNewListings(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	n, err := s.Upsert(ctx, []jobs.JobListing{listing("J1", "Go Developer"), listing("J2", "SRE")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Upsert(ctx, []jobs.JobListing{listing("J2", "SRE changed"), listing("J3", "Data Engineer")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"J1", "J2", "J3"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "SRE", all[1].Title, "existing rows must not be overwritten")

	first := all[0]
	assert.Equal(t, jobs.StatusNew, first.Status)
	assert.True(t, first.Source.Remote)
	assert.Equal(t, "LinkedIn", first.Source.Publisher)
	assert.True(t, first.Source.PostedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.False(t, first.CreatedAt.IsZero())
}

func TestUpsertKeepsUserStatus(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []jobs.JobListing{listing("J1", "Go Developer")})
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, "J1", jobs.StatusApplied))

	incoming := listing("J1", "Go Developer")
	incoming.Status = jobs.StatusNew
	n, err := s.Upsert(ctx, []jobs.JobListing{incoming})
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.Get(ctx, "J1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusApplied, got.Status)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertIgnoresIncomingStatus(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	l := listing("J1", "Go Developer")
	l.Status = jobs.StatusRejected
	_, err := s.Upsert(ctx, []jobs.JobListing{l})
	require.NoError(t, err)

	got, err := s.Get(ctx, "J1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusNew, got.Status)
}

func TestUpsertIsAtomic(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []jobs.JobListing{listing("J1", "ok"), {Title: "missing id"}})
	require.Error(t, err)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListFiltersByStatus(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []jobs.JobListing{listing("J1", "a"), listing("J2", "b"), listing("J3", "c")})
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, "J2", jobs.StatusApplied))
	require.NoError(t, s.UpdateStatus(ctx, "J3", jobs.StatusRejected))

	applied, err := s.List(ctx, jobs.StatusApplied)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "J2", applied[0].ID)

	several, err := s.List(ctx, jobs.StatusNew, jobs.StatusRejected)
	require.NoError(t, err)
	require.Len(t, several, 2)
	assert.Equal(t, "J1", several[0].ID)
	assert.Equal(t, "J3", several[1].ID)

	none, err := s.List(ctx, jobs.StatusInterviewing)
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := s.Count(ctx, jobs.StatusApplied)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.List(ctx, jobs.Status("archived"))
	assert.ErrorIs(t, err, jobs.ErrInvalidStatus)
}

func TestUpdateStatusErrors(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	err := s.UpdateStatus(ctx, "missing", jobs.StatusSeen)
	assert.ErrorIs(t, err, jobs.ErrNotFound)

	_, err = s.Upsert(ctx, []jobs.JobListing{listing("J1", "a")})
	require.NoError(t, err)

	err = s.UpdateStatus(ctx, "J1", jobs.Status("hired"))
	assert.ErrorIs(t, err, jobs.ErrInvalidStatus)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []jobs.JobListing{listing("J1", "a")})
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, "J1", jobs.StatusInterviewing))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "J1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusInterviewing, got.Status)
}
