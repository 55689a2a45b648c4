package models

// DependencyType is one of the four standard precedence relationships
// between a predecessor and a successor task.
type DependencyType string

const (
	FinishToStart  DependencyType = "fs" // Successor starts after predecessor finishes
	StartToStart   DependencyType = "ss" // Successor starts after predecessor starts
	FinishToFinish DependencyType = "ff" // Successor finishes after predecessor finishes
	StartToFinish  DependencyType = "sf" // Successor finishes after predecessor starts
)

// IsValid reports whether the type is one of the four known precedence kinds.
func (t DependencyType) IsValid() bool {
	switch t {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	default:
		return false
	}
}

// TaskDependency defines a precedence relationship between two tasks.
type TaskDependency struct {
	ID            int64          `json:"id" db:"id"`
	ProjectID     int64          `json:"project_id" db:"project_id"`         // Foreign key to Project
	PredecessorID int64          `json:"predecessor_id" db:"predecessor_id"` // Task that constrains the other
	SuccessorID   int64          `json:"successor_id" db:"successor_id"`     // Task being constrained
	Type          DependencyType `json:"type" db:"type"`
	Lag           int            `json:"lag" db:"lag"` // Calendar-day offset; negative means lead time
}
