package pipeline

import "errors"

var (
	// ErrNoStages is returned when a workflow is built without stages.
	ErrNoStages = errors.New("workflow requires at least one stage")

	// ErrDuplicateStage is returned when two stages share a name.
	ErrDuplicateStage = errors.New("stage names must be unique")

	// ErrNilStageFunc is returned when a stage has no Run function.
	ErrNilStageFunc = errors.New("stage run function required")

	// ErrBadWeights is returned when stage weights do not sum to 100.
	ErrBadWeights = errors.New("stage weights must sum to 100")

	// ErrAlreadyExecuted is returned when Execute is called on a workflow
	// that already ran. Workflows are single-use.
	ErrAlreadyExecuted = errors.New("workflow already executed")
)
