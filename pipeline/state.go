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
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a workflow run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// State is the in-memory record of one workflow run. It is created at
// workflow start, mutated throughout, terminal at completion, and never
// persisted. Progress is monotonically non-decreasing and reaches 100 exactly
// when the run completes.
type State struct {
	RunId        uuid.UUID
	Status       Status
	CurrentStage string
	Progress     int
	StageResults map[string]any
	Error        string
	Retries      int
	StartedAt    time.Time
	EndedAt      time.Time
}

// clone returns a copy with its own results map, safe to hand to callers.
func (s *State) clone() State {
	c := *s
	c.StageResults = make(map[string]any, len(s.StageResults))
	for k, v := range s.StageResults {
		c.StageResults[k] = v
	}
	return c
}
