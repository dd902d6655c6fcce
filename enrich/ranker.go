// Copyright 2025 Sifter Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package enrich

import (
	"context"
	"slices"

	"github.com/sifterlabs/sifter/core"
)

// Ranker assigns a relevance rank to each excerpt against a focus query.
// Implementations return new excerpt copies with Rank set; inputs are
// never mutated.
type Ranker interface {
	Rank(ctx context.Context, focus string, excerpts []*core.Excerpt) ([]*core.Excerpt, error)
}

// KeywordRanker scores excerpts by word overlap with the focus query.
// It needs no external service and is the fallback when no embedder is
// configured.
type KeywordRanker struct{}

// NewKeywordRanker creates a keyword overlap ranker.
func NewKeywordRanker() *KeywordRanker {
	return &KeywordRanker{}
}

// Rank scores each excerpt as the fraction of focus words it contains.
// Ranks land in [0, 1]; an empty focus ranks everything equally at zero.
func (r *KeywordRanker) Rank(ctx context.Context, focus string, excerpts []*core.Excerpt) ([]*core.Excerpt, error) {
	focusWords := tokenizeAndFilter(focus)

	out := make([]*core.Excerpt, len(excerpts))
	for i, ex := range excerpts {
		c := ex.Clone()
		c.Rank = keywordScore(focusWords, ex.Text)
		out[i] = c
	}
	return out, nil
}

// keywordScore returns the fraction of focus words present in the text.
func keywordScore(focusWords []string, text string) float64 {
	if len(focusWords) == 0 {
		return 0
	}

	textWords := tokenizeAndFilter(text)
	wordSet := make(map[string]bool, len(textWords))
	for _, w := range textWords {
		wordSet[w] = true
	}

	hits := 0
	for _, w := range focusWords {
		if wordSet[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(focusWords))
}

// TopN returns the n highest-ranked excerpts. Equal ranks keep their input
// order. The input slice is not modified; fewer than n excerpts returns
// them all.
func TopN(excerpts []*core.Excerpt, n int) []*core.Excerpt {
	if n <= 0 {
		return nil
	}

	sorted := make([]*core.Excerpt, len(excerpts))
	copy(sorted, excerpts)
	slices.SortStableFunc(sorted, func(a, b *core.Excerpt) int {
		if a.Rank > b.Rank {
			return -1
		}
		if a.Rank < b.Rank {
			return 1
		}
		return 0
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
