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


package parse

import (
	"log/slog"
	"strings"

	"github.com/sifterlabs/sifter/core"
)

// strategy attempts to extract a decodable JSON candidate from a response.
// Strategies are tried in priority order; the first candidate that decodes
// into at least one insight wins.
type strategy struct {
	name string
	fn   func(text string) (string, bool)
}

// Parser converts raw model responses into reports. The zero value is not
// usable; construct with NewParser.
type Parser struct {
	strategies []strategy
	logger     *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewParser creates a parser with the standard strategy cascade.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		strategies: []strategy{
			{name: "direct", fn: directCandidate},
			{name: "balanced", fn: balancedCandidate},
			{name: "template", fn: templateCandidate},
			{name: "repair", fn: repairCandidate},
			{name: "marker", fn: markerCandidate},
		},
		logger: slog.Default().With("component", "parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts a raw response into a report shaped by spec.
// It never returns nil and never returns an error: unparseable input degrades
// to an empty report shell with every section present.
//
// Parse does not enforce mandated counts; that is the shape package's job.
func (p *Parser) Parse(text string, spec core.ReportSpec) *core.Report {
	cleaned := stripBoilerplate(text)
	if strings.TrimSpace(cleaned) == "" {
		p.logger.Debug("empty response after boilerplate strip")
		return core.EmptyReport(spec)
	}

	for _, s := range p.strategies {
		candidate, ok := s.fn(cleaned)
		if !ok {
			continue
		}

		payload, err := decodePayload(candidate)
		if err != nil {
			p.logger.Debug("candidate did not decode", "strategy", s.name, "err", err)
			continue
		}

		report := buildReport(payload, spec)
		if report.InsightCount() == 0 {
			p.logger.Debug("candidate decoded but yielded no insights", "strategy", s.name)
			continue
		}

		p.logger.Debug("parsed response", "strategy", s.name, "insights", report.InsightCount())
		return report
	}

	// Not serialized data at all; fall back to line-oriented parsing.
	if report, ok := parseSections(cleaned, spec); ok {
		p.logger.Debug("parsed response", "strategy", "sections", "insights", report.InsightCount())
		return report
	}

	p.logger.Warn("all parse strategies failed, returning empty report", "length", len(text))
	return core.EmptyReport(spec)
}
