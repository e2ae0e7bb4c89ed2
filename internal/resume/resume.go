// Package resume manages the folder of plain-text resumes and builds the
// per-selection profile used for scoring.
package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/keywords"
)

const (
	Extension = ".txt"
	// MaxSize caps uploads and reads.
	MaxSize = 1 << 20
)

// Library is a directory of .txt resumes.
type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

func (l *Library) Dir() string { return l.dir }

// List returns resume file names in lexical order. A missing directory is
// treated as empty.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list resumes in %q: %w", l.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	return names, nil
}

// Load reads a resume by file name.
func (l *Library) Load(name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}

	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("resume %q: %w", name, jobs.ErrNotFound)
		}
		return "", fmt.Errorf("open resume %q: %w", name, err)
	}
	defer f.Close()

	return readText(name, f)
}

// Save stores an uploaded resume, replacing a file with the same name.
// It returns the stored file name.
func (l *Library) Save(name string, r io.Reader) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}

	text, err := readText(name, r)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create resume dir: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("store resume %q: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return "", fmt.Errorf("store resume %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("store resume %q: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, name)); err != nil {
		return "", fmt.Errorf("store resume %q: %w", name, err)
	}

	return name, nil
}

// cleanName rejects anything that is not a bare .txt file name.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is empty", jobs.ErrInvalidResume)
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: invalid file name %q", jobs.ErrInvalidResume, name)
	}
	if !strings.EqualFold(filepath.Ext(name), Extension) {
		return "", fmt.Errorf("%w: %q is not a %s file", jobs.ErrInvalidResume, name, Extension)
	}
	return name, nil
}

func readText(name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read resume %q: %w", name, err)
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("%w: %q is larger than %d bytes", jobs.ErrInvalidResume, name, MaxSize)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8 text", jobs.ErrInvalidResume, name)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: %q is empty", jobs.ErrInvalidResume, name)
	}

	return text, nil
}

// KeywordExtractor is satisfied by *keywords.Extractor.
type KeywordExtractor interface {
	Extract(text string) keywords.Set
}

// Embedder is satisfied by every embedding provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Profile is the scoring view of one resume. It is rebuilt on every selection.
type Profile struct {
	Name     string
	Text     string
	Keywords keywords.Set
	Vector   []float32
}

// BuildProfile extracts keywords and embeds the resume text.
func BuildProfile(ctx context.Context, name, text string, extractor KeywordExtractor, embedder Embedder) (*Profile, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %q is empty", jobs.ErrInvalidResume, name)
	}

	vec, err := embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, embedding.ErrEmptyText) {
			return nil, fmt.Errorf("%w: %q has no words", jobs.ErrInvalidResume, name)
		}
		return nil, fmt.Errorf("embed resume %q: %w", name, err)
	}

	return &Profile{
		Name:     name,
		Text:     text,
		Keywords: extractor.Extract(text),
		Vector:   vec,
	}, nil
}
