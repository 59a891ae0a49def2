// Package embed maps text to fixed-length dense vectors.
//
// The Embedder interface is defined here, by its consumers (the composer
// and deep-search flow). The production implementation bridges to a Genkit
// ai.Embedder so any provider plugin (Gemini, Ollama, OpenAI) can supply
// the model.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
)

// ErrEmbedding indicates the embedding backend is unavailable or returned
// an unusable result. Not retried here; callers decide whether to degrade.
var ErrEmbedding = errors.New("embedding failed")

// Embedder maps a batch of texts to one vector per text, order-preserving
// and deterministic for a fixed model version. An empty input yields an
// empty output and no model call.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Genkit adapts a Genkit ai.Embedder to the Embedder interface.
type Genkit struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewGenkit creates a Genkit-backed Embedder.
func NewGenkit(embedder ai.Embedder, logger *slog.Logger) *Genkit {
	if logger == nil {
		logger = slog.Default()
	}
	return &Genkit{embedder: embedder, logger: logger}
}

// Embed embeds all texts in a single request, one ai.Document per text.
func (g *Genkit) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, t := range texts {
		docs[i] = ai.DocumentFromText(t, nil)
	}

	resp, err := g.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbedding, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if len(e.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty vector at position %d", ErrEmbedding, i)
		}
		vectors[i] = e.Embedding
	}

	g.logger.Debug("embedded texts", "count", len(texts), "dimension", len(vectors[0]))
	return vectors, nil
}
