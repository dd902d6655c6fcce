package sifter

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlabs/sifter/ai/mock"
	"github.com/sifterlabs/sifter/batch"
	"github.com/sifterlabs/sifter/core"
	"github.com/sifterlabs/sifter/extract"
	"github.com/sifterlabs/sifter/pipeline"
)

func testDocs() []extract.Document {
	return []extract.Document{
		{
			Name: "interview-1.txt",
			Text: "Dana: The onboarding setup took forever and nobody warned us about the migration step.\n\n" +
				"Dana: Once we got through it, the dashboard was genuinely useful every single day.",
		},
		{
			Name: "interview-2.txt",
			Text: "Sam: I wish the export supported scheduled runs, we end up doing it by hand weekly.",
		},
	}
}

func fastEngineConfig() *batch.Config {
	cfg := batch.DefaultConfig()
	cfg.SetMaxRetries(1)
	cfg.SetBatchDelay(batch.MinBatchDelay)
	return cfg
}

func TestEngine_WorkflowHonorsRetryConfig(t *testing.T) {
	cfg := batch.DefaultConfig()
	cfg.SetMaxRetries(5)
	cfg.SetBatchDelay(2 * time.Second)

	engine, err := NewEngine(
		WithProvider(mock.NewMockProvider()),
		WithBatchConfig(cfg),
	)
	require.NoError(t, err)
	defer engine.Close()

	workflow, err := engine.NewWorkflow(testDocs())
	require.NoError(t, err)

	assert.Equal(t, 5, workflow.MaxRetries())
	assert.Equal(t, 2*time.Second, workflow.RetryDelay())
}

func TestEngine_WorkflowClampsRetryConfig(t *testing.T) {
	cfg := batch.DefaultConfig()
	cfg.MaxRetries = 99
	cfg.BatchDelay = time.Millisecond

	engine, err := NewEngine(
		WithProvider(mock.NewMockProvider()),
		WithBatchConfig(cfg),
	)
	require.NoError(t, err)
	defer engine.Close()

	workflow, err := engine.NewWorkflow(testDocs())
	require.NoError(t, err)

	assert.Equal(t, batch.MaxRetriesBound, workflow.MaxRetries())
	assert.Equal(t, batch.MinBatchDelay, workflow.RetryDelay())
}

func TestEngine_Run(t *testing.T) {
	engine, err := NewEngine(
		WithProvider(mock.NewMockProvider()),
		WithBatchConfig(fastEngineConfig()),
	)
	require.NoError(t, err)
	defer engine.Close()

	result, err := engine.Run(context.Background(), testDocs())
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusCompleted, result.State.Status)
	assert.Equal(t, 100, result.State.Progress)
	assert.Len(t, result.State.StageResults, 4)

	require.NotNil(t, result.Report)
	assert.True(t, core.Conforms(core.DefaultReportSpec(), result.Report))
	assert.NotEmpty(t, result.Excerpts)
	assert.Contains(t, result.Markdown, "# Insight Report")
	assert.Contains(t, result.JSON, `"sections"`)
}

func TestEngine_RunWithFocusAndCap(t *testing.T) {
	engine, err := NewEngine(
		WithProvider(mock.NewMockProvider()),
		WithBatchConfig(fastEngineConfig()),
		WithFocus("onboarding setup"),
		WithTopExcerpts(2),
	)
	require.NoError(t, err)
	defer engine.Close()

	result, err := engine.Run(context.Background(), testDocs())
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusCompleted, result.State.Status)
	assert.Len(t, result.Excerpts, 2, "focus cap limits what reaches the model")
}

func TestEngine_RunWithCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "responses")
	provider := mock.NewMockProvider().(*mock.MockProvider)

	engine, err := NewEngine(
		WithProvider(provider),
		WithBatchConfig(fastEngineConfig()),
		WithCachePath(cachePath),
	)
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), testDocs())
	require.NoError(t, err)
	calls := provider.GetMockGenerator().CallCount()
	require.Greater(t, calls, 0)

	_, err = engine.Run(context.Background(), testDocs())
	require.NoError(t, err)
	assert.Equal(t, calls, provider.GetMockGenerator().CallCount(),
		"second run should be served from cache")

	require.NoError(t, engine.Close())
}

func TestEngine_Cancel(t *testing.T) {
	engine, err := NewEngine(
		WithProvider(mock.NewMockProvider()),
		WithBatchConfig(fastEngineConfig()),
	)
	require.NoError(t, err)
	defer engine.Close()

	workflow, err := engine.NewWorkflow(testDocs())
	require.NoError(t, err)
	workflow.Cancel()

	state, err := workflow.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusCancelled, state.Status)
	assert.Empty(t, state.StageResults)
}
