package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlabs/sifter/ai/mock"
	"github.com/sifterlabs/sifter/batch"
	"github.com/sifterlabs/sifter/cache"
	"github.com/sifterlabs/sifter/core"
)

func testExcerpts(n int) []*core.Excerpt {
	excerpts := make([]*core.Excerpt, n)
	for i := range excerpts {
		text := fmt.Sprintf("excerpt %d about onboarding", i+1)
		excerpts[i] = &core.Excerpt{
			Id:      core.IDFromContent(text),
			Text:    text,
			Speaker: "participant",
			Source:  "interview-1",
		}
	}
	return excerpts
}

// cannedResponse builds a full-shape response so no placeholders are needed.
func cannedResponse(t *testing.T, spec core.ReportSpec) string {
	t.Helper()
	sections := make([]map[string]any, 0, len(spec.Sections))
	for _, sec := range spec.Sections {
		insights := make([]map[string]any, 0, sec.InsightCount)
		for i := 0; i < sec.InsightCount; i++ {
			quotes := make([]map[string]any, 0, sec.QuotesPerInsight)
			for q := 0; q < sec.QuotesPerInsight; q++ {
				quotes = append(quotes, map[string]any{
					"text":    fmt.Sprintf("%s quote %d.%d", sec.Title, i+1, q+1),
					"speaker": "participant",
				})
			}
			insights = append(insights, map[string]any{
				"label":  fmt.Sprintf("%s insight %d", sec.Title, i+1),
				"rank":   10 - i,
				"quotes": quotes,
			})
		}
		sections = append(sections, map[string]any{"title": sec.Title, "insights": insights})
	}
	out, err := json.Marshal(map[string]any{"sections": sections})
	require.NoError(t, err)
	return string(out)
}

func fastConfig() *batch.Config {
	cfg := batch.DefaultConfig()
	cfg.SetMaxRetries(1)
	cfg.SetBatchDelay(batch.MinBatchDelay)
	return cfg
}

func TestNewAnalyzer_RequiresGenerator(t *testing.T) {
	_, err := NewAnalyzer(nil, nil)
	assert.ErrorIs(t, err, ErrNilGenerator)
}

func TestAnalyzer_Analyze(t *testing.T) {
	spec := core.DefaultReportSpec()
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
		return cannedResponse(t, spec), nil
	}

	a, err := NewAnalyzer(gen, fastConfig())
	require.NoError(t, err)

	report, results, err := a.Analyze(context.Background(), testExcerpts(10))
	require.NoError(t, err)

	assert.True(t, core.Conforms(spec, report))
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Equal(t, 1, gen.CallCount())

	require.Len(t, results, 10)
	for _, ex := range results {
		assert.Equal(t, core.StatusProcessed, ex.Status)
		assert.Equal(t, StageName, ex.Stage)
	}

	// No placeholders when the model fills the full shape.
	for _, sec := range report.Sections {
		for _, insight := range sec.Insights {
			assert.False(t, insight.Placeholder, "section %s insight %s", sec.Title, insight.Label)
		}
	}
}

func TestAnalyzer_QuoteCapBelowBoundIsClamped(t *testing.T) {
	spec := core.DefaultReportSpec()
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
		return cannedResponse(t, spec), nil
	}

	cfg := fastConfig()
	// A direct write below the bound is honored as the bound.
	cfg.MaxQuotesPerSection = 1

	a, err := NewAnalyzer(gen, cfg)
	require.NoError(t, err)

	report, _, err := a.Analyze(context.Background(), testExcerpts(4))
	require.NoError(t, err)

	assert.True(t, core.Conforms(spec, report))
	for _, sec := range report.Sections {
		for _, insight := range sec.Insights {
			assert.False(t, insight.Placeholder, "section %s insight %s", sec.Title, insight.Label)
		}
	}
}

func TestAnalyzer_MergesBatches(t *testing.T) {
	call := 0
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
		call++
		// Each batch contributes one distinct Key Themes insight.
		return fmt.Sprintf(`{"sections": [{"title": "Key Themes", "insights": [
			{"label": "batch %d finding", "rank": %d, "quotes": [
				{"text": "q1"}, {"text": "q2"}]}]}]}`, call, call), nil
	}

	cfg := fastConfig()
	cfg.SetBatchSize(batch.MinBatchSize)
	a, err := NewAnalyzer(gen, cfg)
	require.NoError(t, err)

	report, _, err := a.Analyze(context.Background(), testExcerpts(10))
	require.NoError(t, err)
	assert.Equal(t, 2, gen.CallCount())

	themes := report.Section("Key Themes")
	require.NotNil(t, themes)
	labels := make([]string, 0, len(themes.Insights))
	for _, insight := range themes.Insights {
		if !insight.Placeholder {
			labels = append(labels, insight.Label)
		}
	}
	// Higher rank first after the merge.
	assert.Equal(t, []string{"batch 2 finding", "batch 1 finding"}, labels)
}

func TestAnalyzer_GeneratorFailure(t *testing.T) {
	spec := core.DefaultReportSpec()
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("model unavailable")
	}

	a, err := NewAnalyzer(gen, fastConfig())
	require.NoError(t, err)

	report, results, err := a.Analyze(context.Background(), testExcerpts(6))
	require.NoError(t, err)

	// The report degrades to a fully placeholder shell but still conforms.
	assert.True(t, core.Conforms(spec, report))
	for _, sec := range report.Sections {
		for _, insight := range sec.Insights {
			assert.True(t, insight.Placeholder)
		}
	}

	require.Len(t, results, 6)
	for _, ex := range results {
		assert.Equal(t, core.StatusFailed, ex.Status)
		assert.Contains(t, ex.Error, "model unavailable")
	}
}

func TestAnalyzer_CacheSkipsSecondCall(t *testing.T) {
	spec := core.DefaultReportSpec()
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
		return cannedResponse(t, spec), nil
	}

	c, err := cache.Open("", true)
	require.NoError(t, err)
	defer c.Close()

	excerpts := testExcerpts(8)

	run := func() *core.Report {
		a, err := NewAnalyzer(gen, fastConfig(), WithCache(c), WithModelName("qwen2.5:3b"))
		require.NoError(t, err)
		report, _, err := a.Analyze(context.Background(), excerpts)
		require.NoError(t, err)
		return report
	}

	first := run()
	assert.Equal(t, 1, gen.CallCount())

	second := run()
	assert.Equal(t, 1, gen.CallCount(), "second run should be served from cache")
	assert.Equal(t, first.Sections, second.Sections)
}

func TestAnalyzer_GarbageResponseStillConforms(t *testing.T) {
	spec := core.DefaultReportSpec()
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
		return "I could not really make sense of these excerpts, sorry!", nil
	}

	a, err := NewAnalyzer(gen, fastConfig())
	require.NoError(t, err)

	report, results, err := a.Analyze(context.Background(), testExcerpts(5))
	require.NoError(t, err)

	assert.True(t, core.Conforms(spec, report))
	// A garbage response is still a successful call.
	for _, ex := range results {
		assert.Equal(t, core.StatusProcessed, ex.Status)
	}
}

func TestMergeReports_CapsQuotesPerSection(t *testing.T) {
	spec := core.ReportSpec{
		Sections: []core.SectionSpec{
			{Title: "Key Themes", InsightCount: 2, QuotesPerInsight: 2},
		},
	}

	insight := func(label string, rank int) core.Insight {
		return core.Insight{
			Label: label,
			Rank:  float64(rank),
			Quotes: []core.SupportingQuote{
				{Text: label + " q1"},
				{Text: label + " q2"},
			},
		}
	}
	reports := []*core.Report{
		{Sections: []core.Section{{Title: "Key Themes", Insights: []core.Insight{
			insight("low", 2), insight("high", 9),
		}}}},
		{Sections: []core.Section{{Title: "Key Themes", Insights: []core.Insight{
			insight("mid", 5),
		}}}},
	}

	// Cap of 4 quotes keeps the two highest-ranked two-quote insights.
	merged := mergeReports(spec, reports, 4)
	themes := merged.Section("Key Themes")
	require.NotNil(t, themes)
	require.Len(t, themes.Insights, 2)
	assert.Equal(t, "high", themes.Insights[0].Label)
	assert.Equal(t, "mid", themes.Insights[1].Label)
}

func TestMergeReports_DropsUnknownSections(t *testing.T) {
	spec := core.ReportSpec{
		Sections: []core.SectionSpec{
			{Title: "Key Themes", InsightCount: 1, QuotesPerInsight: 1},
		},
	}
	reports := []*core.Report{
		{Sections: []core.Section{
			{Title: "Random Notes", Insights: []core.Insight{{Label: "stray", Rank: 5}}},
		}},
	}

	merged := mergeReports(spec, reports, 0)
	require.Len(t, merged.Sections, 1)
	assert.Empty(t, merged.Sections[0].Insights)
}

func TestBuildSystemPrompt(t *testing.T) {
	spec := core.DefaultReportSpec()
	prompt := buildSystemPrompt(spec)

	assert.Contains(t, prompt, `"Key Themes": 3 insights`)
	assert.Contains(t, prompt, `"Pain Points": 2 insights`)
	assert.Contains(t, prompt, `"Opportunities": 2 insights`)
	assert.Contains(t, prompt, "$schema")
}

func TestBuildUserPrompt(t *testing.T) {
	excerpts := []*core.Excerpt{
		{Text: "The setup took forever.", Speaker: "Dana", Source: "interview-2"},
		{Text: "I liked the dashboard."},
	}

	prompt := buildUserPrompt(excerpts)
	assert.Contains(t, prompt, "1. The setup took forever. (Dana, interview-2)")
	assert.Contains(t, prompt, "2. I liked the dashboard.")
}
