package embedding

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultHashedDimensions = 512
	hashedModel             = "hashed-ngram-v1"
	bigramWeight            = 0.5
)

// Hashed is an offline sentence encoder. Unigrams and bigrams are hashed into
// a signed vector with log term-frequency weights and L2 normalized, so equal
// texts map to equal vectors and texts sharing vocabulary land close together.
type Hashed struct {
	dims int
}

func NewHashed(dims int) *Hashed {
	if dims <= 0 {
		dims = DefaultHashedDimensions
	}
	return &Hashed{dims: dims}
}

func (h *Hashed) Dimensions() int { return h.dims }

func (h *Hashed) Model() string { return hashedModel }

func (h *Hashed) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	counts := make(map[string]float64, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok] += bigramWeight
		}
	}

	vec := make([]float32, h.dims)
	for feature, tf := range counts {
		sum := xxhash.Sum64String(feature)
		idx := sum % uint64(h.dims)
		weight := float32(1 + math.Log(1+tf))
		if sum>>63 == 1 {
			weight = -weight
		}
		vec[idx] += weight
	}

	normalizeL2(vec)
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
