package enrich

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sifterlabs/sifter/ai"
	"github.com/sifterlabs/sifter/core"
)

// ErrNilEmbedder is returned when an EmbeddingRanker is built without an
// embedder.
var ErrNilEmbedder = errors.New("embedding ranker requires an embedder")

// EmbeddingRanker scores excerpts by cosine similarity between the focus
// query embedding and each excerpt embedding.
type EmbeddingRanker struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewEmbeddingRanker creates a ranker backed by the given embedder.
func NewEmbeddingRanker(embedder ai.Embedder) (*EmbeddingRanker, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	return &EmbeddingRanker{
		embedder: embedder,
		logger:   slog.Default().With("component", "embedding-ranker"),
	}, nil
}

// Rank embeds the focus and all excerpt texts in one batch call and scores
// each excerpt with cosine similarity. Vectors are normalized first, so
// ranks land in [-1, 1].
func (r *EmbeddingRanker) Rank(ctx context.Context, focus string, excerpts []*core.Excerpt) ([]*core.Excerpt, error) {
	if len(excerpts) == 0 {
		return []*core.Excerpt{}, nil
	}

	focusVec, err := r.embedder.EmbedText(ctx, focus)
	if err != nil {
		return nil, err
	}
	focusVec = NormalizeVector(focusVec)

	texts := make([]string, len(excerpts))
	for i, ex := range excerpts {
		texts[i] = ex.Text
	}
	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(excerpts) {
		r.logger.Warn("embedder returned wrong vector count",
			"want", len(excerpts), "got", len(vectors))
		return nil, errors.New("embedding count mismatch")
	}

	out := make([]*core.Excerpt, len(excerpts))
	for i, ex := range excerpts {
		c := ex.Clone()
		c.Rank = float64(dotProduct(focusVec, NormalizeVector(vectors[i])))
		out[i] = c
	}
	return out, nil
}
