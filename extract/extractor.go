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

package extract

import (
	"log/slog"
	"maps"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/sifterlabs/sifter/core"
)

// defaultMinLength drops fragments too short to carry a finding.
const defaultMinLength = 12

// Document is one transcript to extract excerpts from.
type Document struct {
	// Name identifies the source, e.g. a file name or interview label.
	Name string

	// Text is the raw transcript contents.
	Text string

	// Metadata is attached verbatim to every extracted excerpt.
	Metadata map[string]string
}

// Extractor turns transcripts into excerpts. Documents are processed
// concurrently on a worker pool, but the returned excerpts always follow
// document order, then paragraph order within each document.
type Extractor struct {
	pool      *ants.Pool
	minLength int
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithPoolSize sets the number of concurrent document workers.
func WithPoolSize(size int) Option {
	return func(e *Extractor) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// WithMinLength sets the minimum excerpt length in bytes.
func WithMinLength(n int) Option {
	return func(e *Extractor) error {
		if n > 0 {
			e.minLength = n
		}
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger != nil {
			e.logger = logger
		}
		return nil
	}
}

// NewExtractor creates an extractor with a worker pool sized to half the
// CPU count.
func NewExtractor(opts ...Option) (*Extractor, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		pool:      pool,
		minLength: defaultMinLength,
		logger:    slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}
	return e, nil
}

// Release releases the worker pool.
// The extractor should not be used after calling Release.
func (e *Extractor) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Extract returns the excerpts of a single document in paragraph order.
func (e *Extractor) Extract(doc Document) []*core.Excerpt {
	paragraphs := splitParagraphs(doc.Text)
	excerpts := make([]*core.Excerpt, 0, len(paragraphs))

	for _, p := range paragraphs {
		if len(p.text) < e.minLength {
			continue
		}
		excerpts = append(excerpts, &core.Excerpt{
			Id:       core.IDFromContent(doc.Name + "\x00" + p.text),
			Text:     p.text,
			Speaker:  p.speaker,
			Source:   doc.Name,
			Metadata: maps.Clone(doc.Metadata),
		})
	}

	e.logger.Debug("extracted excerpts",
		"source", doc.Name,
		"paragraphs", len(paragraphs),
		"kept", len(excerpts))
	return excerpts
}

// ExtractAll extracts every document concurrently and returns the combined
// excerpts in document order.
func (e *Extractor) ExtractAll(docs []Document) ([]*core.Excerpt, error) {
	perDoc := make([][]*core.Excerpt, len(docs))
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			perDoc[i] = e.Extract(doc)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	var excerpts []*core.Excerpt
	for _, batch := range perDoc {
		excerpts = append(excerpts, batch...)
	}
	return excerpts, nil
}
