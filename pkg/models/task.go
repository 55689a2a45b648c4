package models

import "time"

// Task represents a schedulable unit of work within a project.
type Task struct {
	ID               int64      `json:"id" db:"id"`                                   // Unique within a project
	ProjectID        int64      `json:"project_id" db:"project_id"`                   // Foreign key to Project
	Title            string     `json:"title" db:"title"`                             // Descriptive name (e.g., "Pour foundation")
	StartDate        *time.Time `json:"start_date,omitempty" db:"start_date"`         // Nullable; nil means unscheduled
	DueDate          *time.Time `json:"due_date,omitempty" db:"due_date"`             // Nullable; nil means unscheduled
	Duration         *int       `json:"duration,omitempty" db:"duration"`             // Estimated effort in hours, used when dates are absent
	IsMilestone      bool       `json:"is_milestone" db:"is_milestone"`               // Milestones have zero duration
	IsOnCriticalPath bool       `json:"is_on_critical_path" db:"is_on_critical_path"` // Recomputed by the scheduling engine
}
