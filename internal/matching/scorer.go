// Package matching ranks job listings against a resume profile.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/keywords"
	"github.com/spigell/jobmatch/internal/resume"
)

const (
	DefaultKeywordWeight  = 0.4
	DefaultSemanticWeight = 0.6

	maxMissingKeywords = 20
	weightTolerance    = 1e-9
)

// Weights controls how the two signals are fused. They must be non-negative
// and sum to 1 so that the final score stays in [0, 1].
type Weights struct {
	Keyword  float64
	Semantic float64
}

func DefaultWeights() Weights {
	return Weights{Keyword: DefaultKeywordWeight, Semantic: DefaultSemanticWeight}
}

func (w Weights) Validate() error {
	if w.Keyword < 0 || w.Semantic < 0 {
		return fmt.Errorf("weights must be non-negative, got keyword=%v semantic=%v", w.Keyword, w.Semantic)
	}
	if math.Abs(w.Keyword+w.Semantic-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1, got %v", w.Keyword+w.Semantic)
	}
	return nil
}

// Match is a listing annotated with its relevance to one resume. Scores are
// never stored.
type Match struct {
	Job             jobs.JobListing `json:"job"`
	Score           float64         `json:"score"`
	KeywordScore    float64         `json:"keyword_score"`
	SemanticScore   float64         `json:"semantic_score"`
	MatchedKeywords []string        `json:"matched_keywords"`
	MissingKeywords []string        `json:"missing_keywords,omitempty"`
}

type Scorer struct {
	embedder  embedding.Embedder
	extractor resume.KeywordExtractor
	weights   Weights
	logger    *zap.Logger
}

func NewScorer(embedder embedding.Embedder, extractor resume.KeywordExtractor, weights Weights, logger *zap.Logger) (*Scorer, error) {
	if embedder == nil || extractor == nil {
		return nil, errors.New("scorer requires an embedder and a keyword extractor")
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		embedder:  embedder,
		extractor: extractor,
		weights:   weights,
		logger:    logger,
	}, nil
}

func (s *Scorer) Weights() Weights { return s.weights }

// Score annotates every listing and returns them sorted by descending score.
// Listings with equal scores keep their input order.
func (s *Scorer) Score(ctx context.Context, profile *resume.Profile, listings []jobs.JobListing) ([]Match, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: no resume selected", jobs.ErrInvalidResume)
	}

	matches := make([]Match, 0, len(listings))
	for _, job := range listings {
		m, err := s.scoreOne(ctx, profile, job)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	s.logger.Debug("scored listings",
		zap.String("resume", profile.Name),
		zap.Int("count", len(matches)),
	)

	return matches, nil
}

func (s *Scorer) scoreOne(ctx context.Context, profile *resume.Profile, job jobs.JobListing) (Match, error) {
	jobKeywords := s.extractor.Extract(job.Title + "\n" + job.Description)
	matched := keywords.Intersection(profile.Keywords, jobKeywords)
	overlap := KeywordOverlap(profile.Keywords, jobKeywords)

	semantic, err := s.semantic(ctx, profile.Vector, job.Description)
	if err != nil {
		return Match{}, fmt.Errorf("score job %s: %w", job.ID, err)
	}

	missing := keywords.Difference(jobKeywords, profile.Keywords)
	if len(missing) > maxMissingKeywords {
		missing = missing[:maxMissingKeywords]
	}

	return Match{
		Job:             job,
		Score:           s.weights.Keyword*overlap + s.weights.Semantic*semantic,
		KeywordScore:    overlap,
		SemanticScore:   semantic,
		MatchedKeywords: matched,
		MissingKeywords: missing,
	}, nil
}

func (s *Scorer) semantic(ctx context.Context, resumeVec []float32, description string) (float64, error) {
	if strings.TrimSpace(description) == "" || len(resumeVec) == 0 {
		return 0, nil
	}

	vec, err := s.embedder.Embed(ctx, description)
	if err != nil {
		if errors.Is(err, embedding.ErrEmptyText) {
			return 0, nil
		}
		return 0, err
	}

	return clamp01(embedding.Cosine(resumeVec, vec)), nil
}

// KeywordOverlap is the Jaccard index |R ∩ J| / max(1, |R ∪ J|).
func KeywordOverlap(resumeKW, jobKW keywords.Set) float64 {
	inter := len(keywords.Intersection(resumeKW, jobKW))
	union := len(resumeKW) + len(jobKW) - inter
	return float64(inter) / float64(max(1, union))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
