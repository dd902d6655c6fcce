package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sifterlabs/sifter/core"
)

func makeExcerpts(n int) []*core.Excerpt {
	excerpts := make([]*core.Excerpt, n)
	for i := range excerpts {
		text := fmt.Sprintf("excerpt %d", i)
		excerpts[i] = &core.Excerpt{Id: core.IDFromContent(text), Text: text}
	}
	return excerpts
}

// fakeSleep records requested delays without actually sleeping.
func fakeSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		*delays = append(*delays, d)
		return nil
	}
}

func echoFunc(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
	return b, nil
}

func TestProcessInBatches_NoItemDropped(t *testing.T) {
	// 47 items with batch size 20 must split into 20, 20, 7 and come back whole.
	var delays []time.Duration
	var batchSizes []int

	p := NewProcessor(DefaultConfig())
	p.sleep = fakeSleep(&delays)

	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		batchSizes = append(batchSizes, len(b))
		return b, nil
	}

	excerpts := makeExcerpts(47)
	results, err := p.ProcessInBatches(context.Background(), excerpts, fn, nil)

	require.NoError(t, err)
	assert.Len(t, results, 47)
	assert.Equal(t, []int{20, 20, 7}, batchSizes)

	// Order preserved across batch boundaries.
	for i, r := range results {
		assert.Equal(t, excerpts[i].Id, r.Id)
	}
}

func TestProcessInBatches_EmptyInput(t *testing.T) {
	p := NewProcessor(DefaultConfig())

	results, err := p.ProcessInBatches(context.Background(), nil, echoFunc, nil)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, p.Stats().Snapshot().BatchesProcessed, "no batch should run for empty input")
}

func TestProcessInBatches_NilFunc(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	_, err := p.ProcessInBatches(context.Background(), makeExcerpts(3), nil, nil)
	assert.ErrorIs(t, err, ErrNilProcessFunc)
}

func TestProcessInBatches_LinearBackoffDelays(t *testing.T) {
	// Always-failing capability with max retries 3 and failure delay 3s:
	// the observed retry delays must be 3s then 6s.
	cfg := DefaultConfig()
	cfg.SetBatchSize(5)
	cfg.SetMaxRetries(3)
	cfg.SetFailureDelay(3 * time.Second)

	var delays []time.Duration
	p := NewProcessor(cfg)
	p.sleep = fakeSleep(&delays)

	calls := 0
	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		calls++
		return nil, errors.New("service unavailable")
	}

	results, err := p.ProcessInBatches(context.Background(), makeExcerpts(5), fn, nil)

	require.NoError(t, err, "exhausted retries must not surface as an error")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second}, delays)

	require.Len(t, results, 5)
	for _, r := range results {
		assert.Equal(t, core.StatusFailed, r.Status)
		assert.Equal(t, 3, r.Retries)
		assert.Contains(t, r.Error, "service unavailable")
	}
}

func TestProcessInBatches_FailureDoesNotMutateOriginals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetMaxRetries(1)

	var delays []time.Duration
	p := NewProcessor(cfg)
	p.sleep = fakeSleep(&delays)

	excerpts := makeExcerpts(5)
	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		return nil, errors.New("boom")
	}

	_, err := p.ProcessInBatches(context.Background(), excerpts, fn, nil)
	require.NoError(t, err)

	for _, e := range excerpts {
		assert.Empty(t, e.Status, "failure records are copies, originals stay clean")
		assert.Empty(t, e.Error)
	}
}

func TestProcessInBatches_EventualSuccess(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetMaxRetries(3)

	var delays []time.Duration
	p := NewProcessor(cfg)
	p.sleep = fakeSleep(&delays)

	attempts := 0
	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return b, nil
	}

	results, err := p.ProcessInBatches(context.Background(), makeExcerpts(5), fn, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, results, 5)

	snap := p.Stats().Snapshot()
	assert.Equal(t, 1, snap.BatchesSucceeded)
	assert.Equal(t, 0, snap.BatchesFailed)
}

func TestProcessInBatches_EmptyResultCountsAsSuccess(t *testing.T) {
	var delays []time.Duration
	p := NewProcessor(DefaultConfig())
	p.sleep = fakeSleep(&delays)

	calls := 0
	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		calls++
		return []*core.Excerpt{}, nil
	}

	results, err := p.ProcessInBatches(context.Background(), makeExcerpts(5), fn, nil)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 1, calls, "emptiness alone must not trigger a retry")
	assert.Equal(t, 1, p.Stats().Snapshot().BatchesSucceeded)
}

func TestProcessInBatches_BatchDelayBetweenNonFinalBatches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetBatchSize(5)
	cfg.SetBatchDelay(2 * time.Second)

	var delays []time.Duration
	p := NewProcessor(cfg)
	p.sleep = fakeSleep(&delays)

	_, err := p.ProcessInBatches(context.Background(), makeExcerpts(15), echoFunc, nil)

	require.NoError(t, err)
	// Three batches, two pacing sleeps, none after the final batch.
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, delays)
}

func TestProcessInBatches_ContextCancellation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetBatchSize(5)

	var delays []time.Duration
	p := NewProcessor(cfg)
	p.sleep = fakeSleep(&delays)

	ctx, cancel := context.WithCancel(context.Background())
	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		cancel() // cancel during the first batch
		return b, nil
	}

	results, err := p.ProcessInBatches(ctx, makeExcerpts(15), fn, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 5, "partial results are returned on cancellation")
}

func TestProcessInBatches_PanicIsContained(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetMaxRetries(1)

	var delays []time.Duration
	p := NewProcessor(cfg)
	p.sleep = fakeSleep(&delays)

	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		panic("bad capability")
	}

	results, err := p.ProcessInBatches(context.Background(), makeExcerpts(5), fn, nil)

	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.Equal(t, core.StatusFailed, r.Status)
		assert.Contains(t, r.Error, "bad capability")
	}
}

func TestProcessInBatches_BatchingDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableBatching = false

	var batchSizes []int
	var delays []time.Duration
	p := NewProcessor(cfg)
	p.sleep = fakeSleep(&delays)

	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		batchSizes = append(batchSizes, len(b))
		return b, nil
	}

	_, err := p.ProcessInBatches(context.Background(), makeExcerpts(47), fn, nil)

	require.NoError(t, err)
	assert.Equal(t, []int{47}, batchSizes, "disabled batching submits everything at once")
	assert.Empty(t, delays)
}

func TestProcessInBatches_CallContextPassedThrough(t *testing.T) {
	var delays []time.Duration
	p := NewProcessor(DefaultConfig())
	p.sleep = fakeSleep(&delays)

	var seen map[string]any
	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		seen = callCtx
		return b, nil
	}

	callCtx := map[string]any{"stage": "analyze", "query": "pricing"}
	_, err := p.ProcessInBatches(context.Background(), makeExcerpts(5), fn, callCtx)

	require.NoError(t, err)
	assert.Equal(t, callCtx, seen)
}

func TestCustomBackoffPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetMaxRetries(3)

	var delays []time.Duration
	p := NewProcessor(cfg, WithBackoff(ExponentialBackoff{Base: time.Second}))
	p.sleep = fakeSleep(&delays)

	fn := func(ctx context.Context, b []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
		return nil, errors.New("down")
	}

	_, err := p.ProcessInBatches(context.Background(), makeExcerpts(5), fn, nil)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}
