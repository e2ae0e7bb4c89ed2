// Package embedding maps text to fixed-length vectors for semantic comparison.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	ProviderHashed = "hashed"
	ProviderGemini = "gemini"
)

var ErrEmptyText = errors.New("embedding: text is empty")

// Embedder turns text into a vector. Implementations must be safe for
// concurrent use and return vectors of Dimensions() length.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Model() string
}

// Config selects and configures a provider.
type Config struct {
	Provider   string
	Model      string
	Dimensions int
	APIKey     string
}

// New builds the configured provider. The returned embedder is meant to be
// created once per process and shared.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderHashed:
		return NewHashed(cfg.Dimensions), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (valid: %s, %s)", cfg.Provider, ProviderHashed, ProviderGemini)
	}
}

// Cosine returns the cosine similarity of a and b in [-1, 1]. Vectors of
// different length or with zero magnitude compare as 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, sim))
}

func normalizeL2(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
