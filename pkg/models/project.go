package models

import "time"

type ProjectStatus string

const (
	PlanningProjectStatus  ProjectStatus = "PLANNING"
	ActiveProjectStatus    ProjectStatus = "ACTIVE"
	OnHoldProjectStatus    ProjectStatus = "ON_HOLD"
	CompletedProjectStatus ProjectStatus = "COMPLETED"
)

// Project represents a collection of tasks and their precedence dependencies.
type Project struct {
	ID           int64            `json:"id" db:"id"`                 // Unique identifier (PostgreSQL auto-increment)
	Name         string           `json:"name" db:"name"`             // Descriptive name (e.g., "HQ Relocation")
	Status       ProjectStatus    `json:"status" db:"status"`         // "PLANNING", "ACTIVE", "ON_HOLD", "COMPLETED"
	CreatedAt    time.Time        `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"` // Last update timestamp
	Tasks        []Task           `json:"tasks,omitempty"`            // Populated at runtime
	Dependencies []TaskDependency `json:"dependencies,omitempty"`     // Populated at runtime
}
