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


package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sifterlabs/sifter/core"
)

// ProcessFunc is the caller-supplied processing capability: it receives one
// batch plus a call context and returns the processed excerpts. It is the
// sole channel through which the engine reaches the external service and is
// treated as opaque. An error triggers the retry loop; an empty result does
// not.
type ProcessFunc func(ctx context.Context, excerpts []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error)

// Processor executes a processing capability over an excerpt list in
// bounded, paced batches. Execution is strictly sequential: batches never
// run concurrently, so external rate limits are respected deterministically.
type Processor struct {
	config  *Config
	stats   *Stats
	backoff BackoffPolicy
	logger  *slog.Logger

	// sleep is context-aware and replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Processor.
type Option func(*Processor)

// WithStats attaches a shared stats tracker.
// Default is a fresh tracker owned by the processor.
func WithStats(stats *Stats) Option {
	return func(p *Processor) {
		if stats != nil {
			p.stats = stats
		}
	}
}

// WithBackoff replaces the retry backoff policy.
// Default is LinearBackoff with the config's FailureDelay as base.
func WithBackoff(policy BackoffPolicy) Option {
	return func(p *Processor) {
		if policy != nil {
			p.backoff = policy
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewProcessor creates a batch processor. A nil config uses DefaultConfig.
func NewProcessor(config *Config, opts ...Option) *Processor {
	if config == nil {
		config = DefaultConfig()
	}
	p := &Processor{
		config: config,
		stats:  NewStats(),
		logger: slog.Default().With("component", "batch-processor"),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.backoff == nil {
		p.backoff = LinearBackoff{Base: config.Clamped().FailureDelay}
	}
	return p
}

// Stats returns the processor's stats tracker.
func (p *Processor) Stats() *Stats {
	return p.stats
}

// ProcessInBatches splits excerpts into contiguous order-preserving batches
// and invokes fn once per batch, pacing with the configured batch delay
// between non-final batches.
//
// Failures never escape this boundary: a batch that exhausts its retries is
// converted to one failure-tagged copy per excerpt and processing continues
// with the next batch. The only error ever returned is the context's, in
// which case the partial results accumulated so far are still returned.
func (p *Processor) ProcessInBatches(ctx context.Context, excerpts []*core.Excerpt, fn ProcessFunc, callCtx map[string]any) ([]*core.Excerpt, error) {
	if fn == nil {
		return nil, ErrNilProcessFunc
	}
	if len(excerpts) == 0 {
		return []*core.Excerpt{}, nil
	}

	cfg := p.config.Clamped()
	batches := splitBatches(excerpts, cfg)
	results := make([]*core.Excerpt, 0, len(excerpts))

	p.logger.Debug("processing excerpts in batches",
		"excerpts", len(excerpts), "batches", len(batches), "batchSize", cfg.BatchSize)

	for i, b := range batches {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		batchResults, err := p.runBatch(ctx, b, fn, callCtx, cfg)
		if err != nil {
			// Only context errors surface here.
			return results, err
		}
		results = append(results, batchResults...)

		// Pacing between batches, never after the final one.
		if i < len(batches)-1 && cfg.BatchDelay > 0 {
			if err := p.sleep(ctx, cfg.BatchDelay); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

// runBatch invokes fn with a bounded retry loop. On exhaustion it returns
// failure-tagged copies of the batch instead of an error.
func (p *Processor) runBatch(ctx context.Context, b []*core.Excerpt, fn ProcessFunc, callCtx map[string]any, cfg Config) ([]*core.Excerpt, error) {
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		results, err := invoke(ctx, fn, b, callCtx)
		if err == nil {
			if len(results) == 0 {
				// Emptiness alone does not trigger a retry.
				p.logger.Warn("batch returned no results", "batch", len(b))
			}
			p.stats.recordSuccess(len(b), time.Since(start))
			return results, nil
		}
		lastErr = err

		p.logger.Debug("batch attempt failed",
			"attempt", attempt, "maxRetries", cfg.MaxRetries, "err", err)

		if attempt == cfg.MaxRetries {
			break
		}

		if err := p.sleep(ctx, p.backoff.Delay(attempt)); err != nil {
			return nil, err
		}
	}

	p.logger.Error("batch failed after retries",
		"batch", len(b), "retries", cfg.MaxRetries, "err", lastErr)
	p.stats.recordFailure(len(b), time.Since(start))

	failed := make([]*core.Excerpt, len(b))
	for i, e := range b {
		c := e.Clone()
		c.Status = core.StatusFailed
		c.Error = lastErr.Error()
		c.Retries = cfg.MaxRetries
		failed[i] = c
	}
	return failed, nil
}

// invoke calls fn, converting a panic into an ordinary error so a misbehaving
// processing capability cannot take down the engine.
func invoke(ctx context.Context, fn ProcessFunc, b []*core.Excerpt, callCtx map[string]any) (results []*core.Excerpt, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("%w: %v", ErrProcessPanic, r)
		}
	}()
	return fn(ctx, b, callCtx)
}

// splitBatches slices excerpts into contiguous batches preserving order.
// With batching disabled everything goes out as one batch.
func splitBatches(excerpts []*core.Excerpt, cfg Config) [][]*core.Excerpt {
	if !cfg.EnableBatching {
		return [][]*core.Excerpt{excerpts}
	}

	var batches [][]*core.Excerpt
	for i := 0; i < len(excerpts); i += cfg.BatchSize {
		end := i + cfg.BatchSize
		if end > len(excerpts) {
			end = len(excerpts)
		}
		batches = append(batches, excerpts[i:end])
	}
	return batches
}

// sleepCtx blocks for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
