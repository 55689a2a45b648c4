package scheduler

import (
	"time"

	"github.com/gadsdencode/ProTrax-sub001/pkg/models"
)

// TaskSchedule holds the computed scheduling window for a single task.
type TaskSchedule struct {
	TaskID         int64     `json:"task_id"`
	EarlyStart     time.Time `json:"early_start"`
	EarlyFinish    time.Time `json:"early_finish"`
	LateStart      time.Time `json:"late_start"`
	LateFinish     time.Time `json:"late_finish"`
	Slack          int       `json:"slack"` // days the task can slip without delaying the project
	OnCriticalPath bool      `json:"on_critical_path"`
}

// edge pairs a dependency with the task on its other end. A predecessor edge
// on the successor node and a successor edge on the predecessor node are
// created for every dependency whose endpoints both exist.
type edge struct {
	dep   models.TaskDependency
	other int64
}

// node wraps the engine's private copy of a task together with its adjacency
// lists and the dates computed by the forward and backward passes.
type node struct {
	task         models.Task
	predecessors []edge
	successors   []edge

	earlyStart  time.Time
	earlyFinish time.Time
	lateStart   time.Time
	lateFinish  time.Time
	slack       int
}

// direction selects whether the constraint calculator resolves the early
// (forward) or late (backward) side of a precedence relationship.
type direction int

const (
	directionEarly direction = iota
	directionLate
)
