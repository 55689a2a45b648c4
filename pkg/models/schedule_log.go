package models

import "time"

// ScheduleLog tracks the history of schedule changes for auditing.
type ScheduleLog struct {
	ID        int64     `json:"id" db:"id"`                     // Auto-incremented log ID
	TaskID    int64     `json:"task_id" db:"task_id"`           // Task whose schedule changed
	ProjectID int64     `json:"project_id" db:"project_id"`     // Parent project
	Action    string    `json:"action" db:"action"`             // "reschedule", "cascade" or "critical_path"
	Message   string    `json:"message,omitempty" db:"message"` // Details (e.g., old and new dates)
	LoggedAt  time.Time `json:"logged_at" db:"logged_at"`       // Timestamp of log entry
}
