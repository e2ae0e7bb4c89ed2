package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "text-embedding-004"
	geminiDimensions   = 768
	taskType           = "SEMANTIC_SIMILARITY"
)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Gemini embeds text with a pretrained Gemini embedding model.
type Gemini struct {
	models contentEmbedder
	model  string
	dims   int
}

// NewGemini creates a client for the Gemini API backend. dims of zero keeps
// the model's native output size.
func NewGemini(ctx context.Context, apiKey, model string, dims int) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGemini(client.Models, model, dims), nil
}

func newGemini(models contentEmbedder, model string, dims int) *Gemini {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{models: models, model: model, dims: dims}
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Dimensions() int {
	if g.dims > 0 {
		return g.dims
	}
	return geminiDimensions
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	cfg := &genai.EmbedContentConfig{TaskType: taskType}
	if g.dims > 0 {
		dims := int32(g.dims)
		cfg.OutputDimensionality = &dims
	}

	resp, err := g.models.EmbedContent(ctx, g.model, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini api returned no embedding")
	}

	vec := append([]float32(nil), resp.Embeddings[0].Values...)
	if g.dims > 0 && len(vec) != g.dims {
		return nil, fmt.Errorf("gemini api returned %d dimensions, expected %d", len(vec), g.dims)
	}

	// Truncated outputs are not unit length.
	normalizeL2(vec)
	return vec, nil
}
