package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlabs/sifter/ai/mock"
	"github.com/sifterlabs/sifter/core"
)

func TestKeywordRanker_Rank(t *testing.T) {
	ranker := NewKeywordRanker()

	excerpts := []*core.Excerpt{
		{Text: "The onboarding flow was slow and confusing."},
		{Text: "I liked the export feature."},
		{Text: "Onboarding was slow, confusing, and badly documented."},
	}

	ranked, err := ranker.Rank(context.Background(), "slow confusing onboarding", excerpts)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, 1.0, ranked[0].Rank)
	assert.Equal(t, 0.0, ranked[1].Rank)
	assert.Equal(t, 1.0, ranked[2].Rank)

	// Inputs stay untouched.
	for _, ex := range excerpts {
		assert.Zero(t, ex.Rank)
	}
}

func TestKeywordRanker_EmptyFocus(t *testing.T) {
	ranker := NewKeywordRanker()

	ranked, err := ranker.Rank(context.Background(), "", []*core.Excerpt{{Text: "anything"}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, ranked[0].Rank)
}

func TestKeywordScore_IgnoresStopWords(t *testing.T) {
	// "the" and "of" are filtered from both sides, so only "latency" counts.
	score := keywordScore(tokenizeAndFilter("the latency of it"), "latency was awful")
	assert.Equal(t, 1.0, score)
}

func TestEmbeddingRanker_Rank(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	ranker, err := NewEmbeddingRanker(embedder)
	require.NoError(t, err)

	excerpts := []*core.Excerpt{
		{Text: "checkout flow feedback"},
		{Text: "completely unrelated topic"},
	}

	ranked, err := ranker.Rank(context.Background(), "checkout flow feedback", excerpts)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	// Identical text means identical mock vectors, so cosine is 1.
	assert.InDelta(t, 1.0, ranked[0].Rank, 1e-5)
	assert.Less(t, ranked[1].Rank, ranked[0].Rank)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestEmbeddingRanker_NilEmbedder(t *testing.T) {
	_, err := NewEmbeddingRanker(nil)
	assert.ErrorIs(t, err, ErrNilEmbedder)
}

func TestEmbeddingRanker_Empty(t *testing.T) {
	ranker, err := NewEmbeddingRanker(mock.NewMockEmbedder())
	require.NoError(t, err)

	ranked, err := ranker.Rank(context.Background(), "focus", nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestTopN(t *testing.T) {
	excerpts := []*core.Excerpt{
		{Text: "a", Rank: 0.2},
		{Text: "b", Rank: 0.9},
		{Text: "c", Rank: 0.5},
		{Text: "d", Rank: 0.9},
	}

	top := TopN(excerpts, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Text)
	assert.Equal(t, "d", top[1].Text, "equal ranks keep input order")

	assert.Len(t, TopN(excerpts, 10), 4)
	assert.Nil(t, TopN(excerpts, 0))

	// Input order unchanged.
	assert.Equal(t, "a", excerpts[0].Text)
}

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want []float32
	}{
		{
			name: "already unit",
			in:   []float32{1, 0, 0},
			want: []float32{1, 0, 0},
		},
		{
			name: "scales to unit length",
			in:   []float32{3, 4},
			want: []float32{0.6, 0.8},
		},
		{
			name: "zero vector stays zero",
			in:   []float32{0, 0, 0},
			want: []float32{0, 0, 0},
		},
		{
			name: "empty",
			in:   []float32{},
			want: []float32{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVector(tt.in)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}
}

func TestDotProduct_LengthMismatch(t *testing.T) {
	assert.Equal(t, float32(2), dotProduct([]float32{1, 1, 1}, []float32{1, 1}))
}
