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

package sifter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/sifterlabs/sifter/ai"
	"github.com/sifterlabs/sifter/ai/openai"
	"github.com/sifterlabs/sifter/analyze"
	"github.com/sifterlabs/sifter/batch"
	"github.com/sifterlabs/sifter/cache"
	"github.com/sifterlabs/sifter/core"
	"github.com/sifterlabs/sifter/enrich"
	"github.com/sifterlabs/sifter/export"
	"github.com/sifterlabs/sifter/extract"
	"github.com/sifterlabs/sifter/pipeline"
)

// Stage names of the standard run, in execution order.
const (
	StageExtract = "extract"
	StageEnrich  = "enrich"
	StageAnalyze = "analyze"
	StageExport  = "export"
)

// Engine assembles the full transcript-to-report path: extraction,
// relevance ranking, batched model analysis, and export, driven as one
// workflow per run.
type Engine struct {
	provider ai.Provider
	cache    *cache.Cache
	config   *batch.Config
	spec     core.ReportSpec
	focus    string
	topN     int
	model    string
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig  *ai.Config
	config    *batch.Config
	spec      core.ReportSpec
	provider  ai.Provider
	cachePath string
	focus     string
	topN      int
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithBatchConfig sets the batch processing configuration.
func WithBatchConfig(cfg *batch.Config) EngineOption {
	return func(o *engineOptions) {
		if cfg != nil {
			o.config = cfg
		}
	}
}

// WithReportSpec overrides the default report shape.
func WithReportSpec(spec core.ReportSpec) EngineOption {
	return func(o *engineOptions) {
		o.spec = spec
	}
}

// WithProvider injects an AI provider directly, bypassing the OpenAI
// client construction. Intended for tests and custom backends.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithCachePath enables the response cache at the given directory.
func WithCachePath(path string) EngineOption {
	return func(o *engineOptions) {
		o.cachePath = path
	}
}

// WithFocus sets a relevance query; excerpts are ranked against it before
// analysis. An empty focus skips ranking entirely.
func WithFocus(focus string) EngineOption {
	return func(o *engineOptions) {
		o.focus = focus
	}
}

// WithTopExcerpts caps how many ranked excerpts reach the model.
// Zero means no cap. Only applies when a focus is set.
func WithTopExcerpts(n int) EngineOption {
	return func(o *engineOptions) {
		if n > 0 {
			o.topN = n
		}
	}
}

// NewEngine creates an engine. Without WithProvider it builds an
// OpenAI-compatible provider from the AI config; without WithCachePath
// responses are not cached.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		config:   batch.DefaultConfig(),
		spec:     core.DefaultReportSpec(),
	}
	for _, opt := range opts {
		opt(options)
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	var responseCache *cache.Cache
	if options.cachePath != "" {
		var err error
		responseCache, err = cache.Open(options.cachePath, false)
		if err != nil {
			provider.Close()
			return nil, err
		}
	}

	return &Engine{
		provider: provider,
		cache:    responseCache,
		config:   options.config,
		spec:     options.spec,
		focus:    options.focus,
		topN:     options.topN,
		model:    options.aiConfig.GeneratorModel,
		logger:   slog.Default().With("component", "engine"),
	}, nil
}

// Close releases the provider and cache.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Error("error closing response cache", "err", err)
			return err
		}
	}
	return nil
}

// RunResult bundles everything a completed run produced.
type RunResult struct {
	Report   *core.Report
	Excerpts []*core.Excerpt
	Markdown string
	JSON     string
	State    pipeline.State
}

// NewWorkflow builds the standard four-stage workflow over the given
// documents without starting it. Callers that need progress observation
// or cancellation hold the workflow and call Execute themselves.
func (e *Engine) NewWorkflow(docs []extract.Document) (*pipeline.Workflow, error) {
	analyzerOpts := []analyze.Option{
		analyze.WithReportSpec(e.spec),
		analyze.WithModelName(e.model),
	}
	if e.cache != nil {
		analyzerOpts = append(analyzerOpts, analyze.WithCache(e.cache))
	}
	analyzer, err := analyze.NewAnalyzer(e.provider.Generator(), e.config, analyzerOpts...)
	if err != nil {
		return nil, err
	}

	stages := []pipeline.Stage{
		{
			Name:   StageExtract,
			Weight: 25,
			Run: func(ctx context.Context, input any, prior map[string]any) (any, error) {
				extractor, err := extract.NewExtractor()
				if err != nil {
					return nil, err
				}
				defer extractor.Release()
				return extractor.ExtractAll(docs)
			},
		},
		{
			Name:   StageEnrich,
			Weight: 25,
			Run: func(ctx context.Context, input any, prior map[string]any) (any, error) {
				excerpts := prior[StageExtract].([]*core.Excerpt)
				return e.enrich(ctx, excerpts)
			},
		},
		{
			Name:   StageAnalyze,
			Weight: 25,
			Run: func(ctx context.Context, input any, prior map[string]any) (any, error) {
				excerpts := prior[StageEnrich].([]*core.Excerpt)
				report, results, err := analyzer.Analyze(ctx, excerpts)
				if err != nil {
					return nil, err
				}
				return &analysisResult{report: report, excerpts: results}, nil
			},
		},
		{
			Name:   StageExport,
			Weight: 25,
			Run: func(ctx context.Context, input any, prior map[string]any) (any, error) {
				res := prior[StageAnalyze].(*analysisResult)
				return renderReport(res.report)
			},
		},
	}

	cfg := e.config.Clamped()
	return pipeline.NewWorkflow(stages,
		pipeline.WithMaxRetries(cfg.MaxRetries),
		pipeline.WithRetryDelay(cfg.BatchDelay),
	)
}

// Run executes the standard workflow to completion and collects its
// results. A failed or cancelled run returns an error alongside the
// terminal state captured in the result.
func (e *Engine) Run(ctx context.Context, docs []extract.Document) (*RunResult, error) {
	workflow, err := e.NewWorkflow(docs)
	if err != nil {
		return nil, err
	}

	state, err := workflow.Execute(ctx, docs)
	if err != nil {
		return nil, err
	}

	result := &RunResult{State: state}
	if res, ok := state.StageResults[StageAnalyze].(*analysisResult); ok {
		result.Report = res.report
		result.Excerpts = res.excerpts
	}
	if rendered, ok := state.StageResults[StageExport].(*renderedReport); ok {
		result.Markdown = rendered.markdown
		result.JSON = rendered.json
	}

	if state.Status != pipeline.StatusCompleted {
		return result, fmt.Errorf("run %s: %s", state.Status, state.Error)
	}
	return result, nil
}

// enrich ranks excerpts against the focus and keeps the top slice. With
// no focus configured the excerpts pass through untouched.
func (e *Engine) enrich(ctx context.Context, excerpts []*core.Excerpt) ([]*core.Excerpt, error) {
	if e.focus == "" {
		return excerpts, nil
	}

	var (
		ranker enrich.Ranker
		err    error
	)
	ranker, err = enrich.NewEmbeddingRanker(e.provider.Embedder())
	if err != nil {
		ranker = enrich.NewKeywordRanker()
	}

	ranked, err := ranker.Rank(ctx, e.focus, excerpts)
	if err != nil {
		// Ranking is an optimization; fall back to keyword overlap rather
		// than failing the run on an embedding service error.
		e.logger.Warn("embedding ranking failed, falling back to keywords", "err", err)
		ranked, err = enrich.NewKeywordRanker().Rank(ctx, e.focus, excerpts)
		if err != nil {
			return nil, err
		}
	}

	if e.topN > 0 {
		ranked = enrich.TopN(ranked, e.topN)
	}
	return ranked, nil
}

type analysisResult struct {
	report   *core.Report
	excerpts []*core.Excerpt
}

type renderedReport struct {
	markdown string
	json     string
}

func renderReport(report *core.Report) (*renderedReport, error) {
	var md, js bytes.Buffer
	if err := export.WriteMarkdown(&md, report); err != nil {
		return nil, err
	}
	if err := export.WriteJSON(&js, report); err != nil {
		return nil, err
	}
	return &renderedReport{markdown: md.String(), json: js.String()}, nil
}
