package service

import (
	"fmt"

	"github.com/gadsdencode/ProTrax-sub001/pkg/models"
	"github.com/gadsdencode/ProTrax-sub001/pkg/scheduler"
	"github.com/gadsdencode/ProTrax-sub001/pkg/storage"
)

// TaskService handles task and dependency CRUD for the scheduling surface.
type TaskService struct {
	store  storage.Store
	logger Logger
}

func NewTaskService(store storage.Store, logger Logger) *TaskService {
	return &TaskService{
		store:  store,
		logger: logger,
	}
}

// AddTask persists a new task after basic validation.
func (ts *TaskService) AddTask(task models.Task) (id int64, err error) {
	if task.Title == "" {
		return 0, fmt.Errorf("task title cannot be empty")
	}
	if task.StartDate != nil && task.DueDate != nil && task.DueDate.Before(*task.StartDate) {
		return 0, fmt.Errorf("task %q due date precedes its start date", task.Title)
	}
	if _, err := ts.store.GetProject(task.ProjectID); err != nil {
		return 0, fmt.Errorf("project %d not found: %v", task.ProjectID, err)
	}

	txStore, err := ts.store.Begin()
	if err != nil {
		ts.logger.Errorf("Failed to begin transaction for AddTask: %v", err)
		return 0, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ts.logger.Errorf("Failed to rollback: %v", rollbackErr)
			}
		} else {
			if commitErr := txStore.Commit(); commitErr != nil {
				ts.logger.Errorf("Failed to commit: %v", commitErr)
				err = commitErr
			}
		}
	}()

	if id, err = txStore.SaveTask(task); err != nil {
		ts.logger.Errorf("Failed to save task %q: %v", task.Title, err)
		return 0, fmt.Errorf("failed to save task %q: %v", task.Title, err)
	}
	ts.logger.Infof("Added task %q with ID %d to project %d", task.Title, id, task.ProjectID)
	return id, nil
}

// AddDependency persists a precedence relationship after checking that it is
// well-formed and does not close a dependency cycle.
func (ts *TaskService) AddDependency(dep models.TaskDependency) (id int64, err error) {
	if !dep.Type.IsValid() {
		return 0, fmt.Errorf("invalid dependency type %q; must be fs, ss, ff or sf", dep.Type)
	}
	if dep.PredecessorID == dep.SuccessorID {
		return 0, fmt.Errorf("task %d cannot depend on itself", dep.PredecessorID)
	}
	if _, err := ts.store.GetTask(dep.PredecessorID, dep.ProjectID); err != nil {
		return 0, fmt.Errorf("predecessor task %d not found: %v", dep.PredecessorID, err)
	}
	if _, err := ts.store.GetTask(dep.SuccessorID, dep.ProjectID); err != nil {
		return 0, fmt.Errorf("successor task %d not found: %v", dep.SuccessorID, err)
	}

	// Reject the dependency if adding it would close a cycle.
	tasks, err := ts.store.ListTasks(dep.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to list tasks of project %d: %v", dep.ProjectID, err)
	}
	deps, err := ts.store.ListDependencies(dep.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to list dependencies of project %d: %v", dep.ProjectID, err)
	}
	engine, err := scheduler.NewEngine(tasks, append(deps, dep))
	if err != nil {
		return 0, err
	}
	if err := engine.DetectCycle(); err != nil {
		return 0, fmt.Errorf("dependency %d -> %d rejected: %v", dep.PredecessorID, dep.SuccessorID, err)
	}

	txStore, err := ts.store.Begin()
	if err != nil {
		ts.logger.Errorf("Failed to begin transaction for AddDependency: %v", err)
		return 0, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ts.logger.Errorf("Failed to rollback: %v", rollbackErr)
			}
		} else {
			if commitErr := txStore.Commit(); commitErr != nil {
				ts.logger.Errorf("Failed to commit: %v", commitErr)
				err = commitErr
			}
		}
	}()

	if id, err = txStore.SaveDependency(dep); err != nil {
		ts.logger.Errorf("Failed to save dependency %d -> %d: %v", dep.PredecessorID, dep.SuccessorID, err)
		return 0, fmt.Errorf("failed to save dependency: %v", err)
	}
	ts.logger.Infof("Added %s dependency %d -> %d (lag %d) to project %d",
		dep.Type, dep.PredecessorID, dep.SuccessorID, dep.Lag, dep.ProjectID)
	return id, nil
}

// GetTask retrieves a single task.
func (ts *TaskService) GetTask(taskID, projectID int64) (models.Task, error) {
	task, err := ts.store.GetTask(taskID, projectID)
	if err != nil {
		ts.logger.Errorf("Error retrieving task %d: %v", taskID, err)
		return models.Task{}, fmt.Errorf("failed to retrieve task %d: %v", taskID, err)
	}
	return task, nil
}
