package storage

import (
	"time"

	"github.com/gadsdencode/ProTrax-sub001/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the storage operations for ProTrax scheduling.
type Store interface {
	// Transaction control
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Project operations
	SaveProject(p models.Project) (int64, error)
	GetProject(id int64) (models.Project, error)
	ListProjects() ([]models.Project, error)
	UpdateProjectStatus(id int64, status models.ProjectStatus) error

	// Task operations
	SaveTask(t models.Task) (int64, error)
	GetTask(id, projectID int64) (models.Task, error)
	ListTasks(projectID int64) ([]models.Task, error)
	UpdateTaskDates(id, projectID int64, start, due *time.Time) error
	UpdateTaskCriticalFlag(id, projectID int64, onCriticalPath bool) error

	// Dependency operations
	SaveDependency(d models.TaskDependency) (int64, error)
	ListDependencies(projectID int64) ([]models.TaskDependency, error)

	// Audit log operations
	SaveScheduleLog(l models.ScheduleLog) error
}
