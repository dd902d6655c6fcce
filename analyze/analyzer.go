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

package analyze

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sifterlabs/sifter/ai"
	"github.com/sifterlabs/sifter/batch"
	"github.com/sifterlabs/sifter/cache"
	"github.com/sifterlabs/sifter/core"
	"github.com/sifterlabs/sifter/parse"
	"github.com/sifterlabs/sifter/shape"
)

// StageName is recorded on every excerpt the analyzer touches.
const StageName = "analyze"

// callCtx key under which per-batch reports accumulate.
const reportsKey = "reports"

// ErrNilGenerator is returned when an Analyzer is built without a generator.
var ErrNilGenerator = errors.New("analyzer requires a generator")

// Analyzer turns excerpts into a structured insight report. Excerpts flow
// through the batch processor; each batch becomes one model call whose
// response is parsed into a partial report. Partial reports are merged,
// capped, and forced into the mandated shape at the end, so Analyze always
// returns a report that conforms to its spec.
type Analyzer struct {
	generator ai.Generator
	cache     *cache.Cache
	parser    *parse.Parser
	processor *batch.Processor
	config    *batch.Config
	spec      core.ReportSpec
	model     string
	logger    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache sets a response cache consulted before each model call.
func WithCache(c *cache.Cache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// WithReportSpec overrides the default report shape.
func WithReportSpec(spec core.ReportSpec) Option {
	return func(a *Analyzer) {
		a.spec = spec
	}
}

// WithModelName sets the model identifier used for cache keying.
func WithModelName(model string) Option {
	return func(a *Analyzer) {
		if model != "" {
			a.model = model
		}
	}
}

// WithProcessor overrides the batch processor.
func WithProcessor(p *batch.Processor) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.processor = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an analyzer backed by the given generator.
// A nil config uses batch.DefaultConfig.
func NewAnalyzer(generator ai.Generator, config *batch.Config, opts ...Option) (*Analyzer, error) {
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if config == nil {
		config = batch.DefaultConfig()
	}

	a := &Analyzer{
		generator: generator,
		parser:    parse.NewParser(),
		config:    config,
		spec:      core.DefaultReportSpec(),
		model:     "default",
		logger:    slog.Default().With("component", "analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.processor == nil {
		a.processor = batch.NewProcessor(config)
	}
	if err := core.ValidateReportSpec(&a.spec); err != nil {
		return nil, err
	}
	return a, nil
}

// Spec returns the report shape this analyzer produces.
func (a *Analyzer) Spec() core.ReportSpec {
	return a.spec
}

// Stats returns the underlying batch processor's stats tracker.
func (a *Analyzer) Stats() *batch.Stats {
	return a.processor.Stats()
}

// Analyze runs every excerpt through the model in batches and returns the
// merged, shape-enforced report together with outcome-annotated excerpt
// copies. Batch failures surface as failure-tagged excerpts, never as an
// error; the only error returned is the context's, with partial results.
func (a *Analyzer) Analyze(ctx context.Context, excerpts []*core.Excerpt) (*core.Report, []*core.Excerpt, error) {
	callCtx := map[string]any{
		reportsKey: &[]*core.Report{},
	}

	results, err := a.processor.ProcessInBatches(ctx, excerpts, a.process, callCtx)

	reports := *callCtx[reportsKey].(*[]*core.Report)
	merged := mergeReports(a.spec, reports, a.config.Clamped().MaxQuotesPerSection)
	report := shape.Enforce(a.spec, merged)
	report.GeneratedAt = time.Now().UTC()

	a.logger.Info("analysis finished",
		"excerpts", len(excerpts),
		"batches", len(reports),
		"insights", report.InsightCount())
	return report, results, err
}

// process is the batch.ProcessFunc for one model call. A generator error
// propagates so the batch processor can retry with backoff; everything
// after a successful call is infallible by construction.
func (a *Analyzer) process(ctx context.Context, excerpts []*core.Excerpt, callCtx map[string]any) ([]*core.Excerpt, error) {
	system := buildSystemPrompt(a.spec)
	user := buildUserPrompt(excerpts)

	response, err := a.generate(ctx, system, user)
	if err != nil {
		return nil, err
	}

	report := a.parser.Parse(response, a.spec)
	if collected, ok := callCtx[reportsKey].(*[]*core.Report); ok {
		*collected = append(*collected, report)
	}

	out := make([]*core.Excerpt, len(excerpts))
	for i, ex := range excerpts {
		c := ex.Clone()
		c.Status = core.StatusProcessed
		c.Stage = StageName
		out[i] = c
	}
	return out, nil
}

// generate returns the model response for the prompt pair, consulting the
// cache first when one is configured. Cache read or write failures are
// logged and ignored; the cache is an optimization, not a dependency.
func (a *Analyzer) generate(ctx context.Context, system, user string) (string, error) {
	prompt := system + "\x00" + user

	if a.cache != nil {
		response, err := a.cache.Get(a.model, prompt)
		if err == nil {
			return response, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			a.logger.Warn("cache read failed", "err", err)
		}
	}

	response, err := a.generator.Generate(ctx, system, user)
	if err != nil {
		return "", err
	}

	if a.cache != nil {
		if err := a.cache.Put(a.model, prompt, response); err != nil {
			a.logger.Warn("cache write failed", "err", err)
		}
	}
	return response, nil
}
