package models

// DependencyViolation describes a proposed date change that would break a
// precedence constraint. Violations are advisory: the caller decides whether
// to reject the change or warn the user.
type DependencyViolation struct {
	TaskID       int64  `json:"task_id"`       // Task whose dates were being changed
	DependencyID int64  `json:"dependency_id"` // Dependency that was violated
	Message      string `json:"message"`       // Human-readable explanation, includes lag when nonzero
}
