// Package pipeline orchestrates multi-stage analysis runs. A Workflow
// executes an ordered list of weighted stages, tracking progress, stage
// results, and a cumulative retry budget in an in-memory State. Runs are
// single-use and cooperatively cancellable at stage boundaries.
package pipeline
