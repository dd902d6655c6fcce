package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlabs/sifter/core"
	"github.com/sifterlabs/sifter/parse"
)

func sampleReport() *core.Report {
	return &core.Report{
		Sections: []core.Section{
			{
				Title: "Key Themes",
				Insights: []core.Insight{
					{
						Label: "Setup friction dominates early churn",
						Rank:  9,
						Quotes: []core.SupportingQuote{
							{Text: "The setup took forever", Speaker: "Dana", Source: "interview-1"},
							{Text: "We almost gave up on day one", Speaker: "Sam"},
						},
					},
				},
			},
			{
				Title: "Pain Points",
				Insights: []core.Insight{
					{Label: "Additional insight needed", Placeholder: true},
				},
			},
		},
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, `"sections"`)
	assert.Contains(t, out, `"Key Themes"`)
	assert.Contains(t, out, `"Setup friction dominates early churn"`)
	assert.Contains(t, out, `"generated_at"`)
}

func TestWriteJSON_RoundTripsThroughParser(t *testing.T) {
	report := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, report))

	spec := core.ReportSpec{
		Sections: []core.SectionSpec{
			{Title: "Key Themes", InsightCount: 1, QuotesPerInsight: 2},
			{Title: "Pain Points", InsightCount: 1, QuotesPerInsight: 2},
		},
	}
	parsed := parse.NewParser().Parse(buf.String(), spec)

	themes := parsed.Section("Key Themes")
	require.NotNil(t, themes)
	require.Len(t, themes.Insights, 1)
	assert.Equal(t, "Setup friction dominates early churn", themes.Insights[0].Label)
	assert.Len(t, themes.Insights[0].Quotes, 2)
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "# Insight Report")
	assert.Contains(t, out, "Generated: 2025-06-01 12:00 UTC")
	assert.Contains(t, out, "## Key Themes")
	assert.Contains(t, out, "### Setup friction dominates early churn")
	assert.Contains(t, out, `> "The setup took forever" — Dana, interview-1`)
	assert.Contains(t, out, `> "We almost gave up on day one" — Sam`)
	assert.Contains(t, out, "### Additional insight needed *(placeholder)*")
}

func TestWriters_NilReport(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteJSON(&buf, nil), ErrNilReport)
	assert.ErrorIs(t, WriteMarkdown(&buf, nil), ErrNilReport)
}
