package pipeline

import "context"

// StageFunc runs one phase of the workflow. It receives the original
// workflow input and a copy of every prior stage's result keyed by stage
// name. Stages must be safely retriable from scratch: a failed stage is
// rerun in full, never resumed.
type StageFunc func(ctx context.Context, input any, prior map[string]any) (any, error)

// Stage is one named phase of the pipeline with its progress weight.
// Weights across a workflow's stages must sum to exactly 100.
type Stage struct {
	Name   string
	Weight int
	Run    StageFunc
}
