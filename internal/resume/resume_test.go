package resume

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/keywords"
)

func TestListAndLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("Go developer"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("\xef\xbb\xbf  Python analyst \n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("skip"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	lib := NewLibrary(dir)

	names, err := lib.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)

	text, err := lib.Load("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "Python analyst", text)
}

func TestListMissingDir(t *testing.T) {
	names, err := NewLibrary(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte(" \n\t"), 0o644))
	lib := NewLibrary(dir)

	_, err := lib.Load("empty.txt")
	assert.ErrorIs(t, err, jobs.ErrInvalidResume)

	_, err = lib.Load("missing.txt")
	assert.ErrorIs(t, err, jobs.ErrNotFound)

	for _, name := range []string{"../etc/passwd.txt", "dir/a.txt", ".hidden.txt", "resume.pdf", ""} {
		_, err = lib.Load(name)
		assert.ErrorIs(t, err, jobs.ErrInvalidResume, name)
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resumes")
	lib := NewLibrary(dir)

	name, err := lib.Save("cv.txt", strings.NewReader("Rust engineer"))
	require.NoError(t, err)
	assert.Equal(t, "cv.txt", name)

	text, err := lib.Load("cv.txt")
	require.NoError(t, err)
	assert.Equal(t, "Rust engineer", text)

	_, err = lib.Save("cv.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, jobs.ErrInvalidResume)

	_, err = lib.Save("big.txt", strings.NewReader(strings.Repeat("a", MaxSize+1)))
	assert.ErrorIs(t, err, jobs.ErrInvalidResume)

	_, err = lib.Save("bin.txt", strings.NewReader("\xff\xfe\x00"))
	assert.ErrorIs(t, err, jobs.ErrInvalidResume)

	names, err := lib.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"cv.txt"}, names)
}

func TestBuildProfile(t *testing.T) {
	p, err := BuildProfile(context.Background(), "cv.txt", "Python SQL teamwork", keywords.New(), embedding.NewHashed(32))
	require.NoError(t, err)

	assert.Equal(t, "cv.txt", p.Name)
	assert.Len(t, p.Vector, 32)
	assert.True(t, p.Keywords.Has("python"))
	assert.True(t, p.Keywords.Has("sql"))

	_, err = BuildProfile(context.Background(), "blank.txt", "  ", keywords.New(), embedding.NewHashed(32))
	assert.ErrorIs(t, err, jobs.ErrInvalidResume)

	_, err = BuildProfile(context.Background(), "dashes.txt", "---- ****", keywords.New(), embedding.NewHashed(32))
	assert.ErrorIs(t, err, jobs.ErrInvalidResume)
}
