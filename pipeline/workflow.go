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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxRetries bounds stage reruns across the whole run, not per
	// stage. The counter is cumulative so a flaky run cannot loop forever.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the pause before rerunning a failed stage.
	DefaultRetryDelay = 3 * time.Second
)

// Workflow drives an ordered list of stages through a single run. A
// Workflow is single-use: build one per run. State is safe to read from
// other goroutines while Execute runs, and Cancel may be called at any
// time; cancellation takes effect at the next stage boundary.
type Workflow struct {
	stages     []Stage
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	state     State
	cancelled bool
	started   bool

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithMaxRetries sets the cumulative stage-rerun budget for the run.
func WithMaxRetries(n int) Option {
	return func(w *Workflow) {
		if n > 0 {
			w.maxRetries = n
		}
	}
}

// WithRetryDelay sets the pause between reruns of a failed stage.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.retryDelay = d
		}
	}
}

// WithLogger sets the logger used for stage transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorkflow validates the stage list and returns a pending workflow.
func NewWorkflow(stages []Stage, opts ...Option) (*Workflow, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	seen := make(map[string]struct{}, len(stages))
	total := 0
	for _, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: empty stage name", ErrDuplicateStage)
		}
		if _, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStage, s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Run == nil {
			return nil, fmt.Errorf("%w: stage %q", ErrNilStageFunc, s.Name)
		}
		total += s.Weight
	}
	if total != 100 {
		return nil, fmt.Errorf("%w: got %d", ErrBadWeights, total)
	}

	w := &Workflow{
		stages:     stages,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default().With("component", "pipeline"),
		state: State{
			RunId:        uuid.New(),
			Status:       StatusPending,
			StageResults: make(map[string]any),
		},
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// MaxRetries returns the cumulative stage-rerun budget for the run.
func (w *Workflow) MaxRetries() int {
	return w.maxRetries
}

// RetryDelay returns the pause inserted before each stage rerun.
func (w *Workflow) RetryDelay() time.Duration {
	return w.retryDelay
}

// State returns a snapshot of the current run state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

// Cancel requests cooperative cancellation. The run stops at the next
// stage boundary; a stage already executing runs to completion and its
// result is kept. Cancel on a terminal workflow is a no-op.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelled = true
}

// Execute runs every stage in order and returns the terminal state. A
// stage failure is retried from scratch while the cumulative retry
// budget lasts; exhausting it fails the run. Context cancellation is
// treated like Cancel and also honored at stage boundaries.
func (w *Workflow) Execute(ctx context.Context, input any) (State, error) {
	w.mu.Lock()
	if w.started {
		st := w.state.clone()
		w.mu.Unlock()
		return st, ErrAlreadyExecuted
	}
	w.started = true
	w.state.Status = StatusRunning
	w.state.StartedAt = time.Now()
	runId := w.state.RunId
	w.mu.Unlock()

	w.logger.Info("workflow started", "run_id", runId, "stages", len(w.stages))

	for _, stage := range w.stages {
		if w.stopRequested(ctx) {
			return w.finishCancelled(), nil
		}

		w.setCurrentStage(stage.Name)
		result, err := w.runStage(ctx, stage, input)
		if err != nil {
			return w.finishFailed(stage.Name, err), nil
		}
		w.recordStageResult(stage, result)
	}

	return w.finishCompleted(), nil
}

// runStage executes one stage, rerunning it after retryDelay while the
// cumulative retry budget allows.
func (w *Workflow) runStage(ctx context.Context, stage Stage, input any) (any, error) {
	for {
		prior := w.priorResults()
		result, err := stage.Run(ctx, input, prior)
		if err == nil {
			return result, nil
		}

		w.mu.Lock()
		w.state.Retries++
		retries := w.state.Retries
		w.mu.Unlock()

		if retries >= w.maxRetries {
			w.logger.Error("stage failed, retry budget exhausted",
				"stage", stage.Name, "retries", retries, "error", err)
			return nil, err
		}
		w.logger.Warn("stage failed, retrying",
			"stage", stage.Name, "retries", retries, "error", err)
		if serr := w.sleep(ctx, w.retryDelay); serr != nil {
			return nil, err
		}
	}
}

func (w *Workflow) stopRequested(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancelled
}

func (w *Workflow) setCurrentStage(name string) {
	w.mu.Lock()
	w.state.CurrentStage = name
	w.mu.Unlock()
	w.logger.Info("stage started", "stage", name)
}

func (w *Workflow) priorResults() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	prior := make(map[string]any, len(w.state.StageResults))
	for k, v := range w.state.StageResults {
		prior[k] = v
	}
	return prior
}

func (w *Workflow) recordStageResult(stage Stage, result any) {
	w.mu.Lock()
	w.state.StageResults[stage.Name] = result
	w.state.Progress += stage.Weight
	progress := w.state.Progress
	w.mu.Unlock()
	w.logger.Info("stage completed", "stage", stage.Name, "progress", progress)
}

func (w *Workflow) finishCompleted() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Status = StatusCompleted
	w.state.Progress = 100
	w.state.CurrentStage = ""
	w.state.EndedAt = time.Now()
	w.logger.Info("workflow completed", "run_id", w.state.RunId)
	return w.state.clone()
}

func (w *Workflow) finishFailed(stage string, err error) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Status = StatusFailed
	w.state.Error = fmt.Sprintf("stage %s: %v", stage, err)
	w.state.EndedAt = time.Now()
	w.logger.Error("workflow failed", "run_id", w.state.RunId, "stage", stage, "error", err)
	return w.state.clone()
}

func (w *Workflow) finishCancelled() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Status = StatusCancelled
	w.state.EndedAt = time.Now()
	w.logger.Info("workflow cancelled", "run_id", w.state.RunId, "progress", w.state.Progress)
	return w.state.clone()
}

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
