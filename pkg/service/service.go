package service

import (
	"fmt"
	"time"

	"github.com/gadsdencode/ProTrax-sub001/pkg/models"
	"github.com/gadsdencode/ProTrax-sub001/pkg/scheduler"
	"github.com/gadsdencode/ProTrax-sub001/pkg/storage"
	"github.com/pkg/errors"
)

// Logger defines the logging interface for ScheduleService
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// CriticalPathResult is what callers persist and render after a critical
// path computation.
type CriticalPathResult struct {
	CriticalPath  []int64       `json:"critical_path"`
	CriticalTasks []models.Task `json:"critical_tasks"`
}

// RescheduleResult reports the outcome of a validate-and-apply date change.
type RescheduleResult struct {
	Applied      bool                         `json:"applied"`
	UpdatedTasks []models.Task                `json:"updated_tasks,omitempty"`
	Violations   []models.DependencyViolation `json:"violations,omitempty"`
	CriticalPath []int64                      `json:"critical_path,omitempty"`
}

// ScheduleService loads a project's task graph, runs the scheduling engine
// over it, and persists the results. A fresh engine is constructed per call;
// the service itself is safe to share.
type ScheduleService struct {
	store       storage.Store
	logger      Logger
	taskService *TaskService
}

func NewScheduleService(store storage.Store, logger Logger) *ScheduleService {
	return &ScheduleService{
		store:       store,
		logger:      logger,
		taskService: NewTaskService(store, logger),
	}
}

// Tasks exposes task and dependency CRUD for the HTTP and CLI layers.
func (s *ScheduleService) Tasks() *TaskService {
	return s.taskService
}

// ComputeCriticalPath runs CPM analysis for a project and persists the
// IsOnCriticalPath flag of every task whose flag changed.
func (s *ScheduleService) ComputeCriticalPath(projectID int64) (CriticalPathResult, error) {
	tasks, deps, err := s.loadGraph(projectID)
	if err != nil {
		return CriticalPathResult{}, err
	}

	engine, err := scheduler.NewEngineAt(tasks, deps, time.Now())
	if err != nil {
		return CriticalPathResult{}, errors.Wrapf(err, "project %d", projectID)
	}
	if err := engine.DetectCycle(); err != nil {
		return CriticalPathResult{}, errors.Wrapf(err, "project %d", projectID)
	}

	critical := engine.CalculateCriticalPath()

	wasCritical := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		wasCritical[t.ID] = t.IsOnCriticalPath
	}

	result := CriticalPathResult{CriticalPath: critical}
	if err := s.persistCriticalFlags(projectID, engine.UpdatedTasks(), wasCritical); err != nil {
		return CriticalPathResult{}, err
	}
	for _, t := range engine.UpdatedTasks() {
		if t.IsOnCriticalPath {
			result.CriticalTasks = append(result.CriticalTasks, t)
		}
	}

	s.logger.Infof("Computed critical path for project %d: %d of %d tasks critical",
		projectID, len(critical), len(tasks))
	return result, nil
}

// ValidateDateChange checks a proposed date change against the task's
// predecessor constraints without mutating anything.
func (s *ScheduleService) ValidateDateChange(projectID, taskID int64, newStart, newDue time.Time) ([]models.DependencyViolation, error) {
	if _, err := s.store.GetTask(taskID, projectID); err != nil {
		return nil, errors.Wrapf(err, "task %d in project %d", taskID, projectID)
	}
	tasks, deps, err := s.loadGraph(projectID)
	if err != nil {
		return nil, err
	}
	engine, err := scheduler.NewEngine(tasks, deps)
	if err != nil {
		return nil, errors.Wrapf(err, "project %d", projectID)
	}
	return engine.ValidateTaskDateChange(taskID, newStart, newDue), nil
}

// RescheduleTask validates a date change, and unless violations exist (or
// force is set) applies it, cascading the shift through successor
// dependencies, persisting every moved task and refreshing critical path
// flags.
func (s *ScheduleService) RescheduleTask(projectID, taskID int64, newStart, newDue time.Time, force bool) (RescheduleResult, error) {
	if _, err := s.store.GetTask(taskID, projectID); err != nil {
		return RescheduleResult{}, errors.Wrapf(err, "task %d in project %d", taskID, projectID)
	}
	tasks, deps, err := s.loadGraph(projectID)
	if err != nil {
		return RescheduleResult{}, err
	}

	engine, err := scheduler.NewEngine(tasks, deps)
	if err != nil {
		return RescheduleResult{}, errors.Wrapf(err, "project %d", projectID)
	}
	if err := engine.DetectCycle(); err != nil {
		return RescheduleResult{}, errors.Wrapf(err, "project %d", projectID)
	}

	violations := engine.ValidateTaskDateChange(taskID, newStart, newDue)
	if len(violations) > 0 && !force {
		s.logger.Infof("Rejected reschedule of task %d in project %d: %d violation(s)",
			taskID, projectID, len(violations))
		return RescheduleResult{Violations: violations}, nil
	}

	updated := engine.CascadeScheduleUpdate(taskID, newStart, newDue)
	critical := engine.CalculateCriticalPath()

	wasCritical := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		wasCritical[t.ID] = t.IsOnCriticalPath
	}

	if err := s.persistReschedule(projectID, taskID, updated); err != nil {
		return RescheduleResult{}, err
	}
	if err := s.persistCriticalFlags(projectID, engine.UpdatedTasks(), wasCritical); err != nil {
		return RescheduleResult{}, err
	}

	s.logger.Infof("Rescheduled task %d in project %d, %d task(s) moved", taskID, projectID, len(updated))
	return RescheduleResult{
		Applied:      true,
		UpdatedTasks: updated,
		Violations:   violations,
		CriticalPath: critical,
	}, nil
}

// persistReschedule writes the new dates of every cascaded task in one
// transaction, with an audit log entry per task.
func (s *ScheduleService) persistReschedule(projectID, originID int64, updated []models.Task) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	for _, t := range updated {
		if err = txStore.UpdateTaskDates(t.ID, projectID, t.StartDate, t.DueDate); err != nil {
			return fmt.Errorf("failed to update dates of task %d: %v", t.ID, err)
		}
		action := "cascade"
		if t.ID == originID {
			action = "reschedule"
		}
		logEntry := models.ScheduleLog{
			TaskID:    t.ID,
			ProjectID: projectID,
			Action:    action,
			Message:   fmt.Sprintf("moved to %s - %s", formatDate(t.StartDate), formatDate(t.DueDate)),
			LoggedAt:  time.Now(),
		}
		if err = txStore.SaveScheduleLog(logEntry); err != nil {
			return fmt.Errorf("failed to log schedule change for task %d: %v", t.ID, err)
		}
	}
	return nil
}

// persistCriticalFlags writes the IsOnCriticalPath flag of every task whose
// flag changed, in one transaction.
func (s *ScheduleService) persistCriticalFlags(projectID int64, tasks []models.Task, wasCritical map[int64]bool) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	for _, t := range tasks {
		if t.IsOnCriticalPath == wasCritical[t.ID] {
			continue
		}
		if err = txStore.UpdateTaskCriticalFlag(t.ID, projectID, t.IsOnCriticalPath); err != nil {
			return fmt.Errorf("failed to update critical flag of task %d: %v", t.ID, err)
		}
		msg := "entered critical path"
		if !t.IsOnCriticalPath {
			msg = "left critical path"
		}
		logEntry := models.ScheduleLog{
			TaskID:    t.ID,
			ProjectID: projectID,
			Action:    "critical_path",
			Message:   msg,
			LoggedAt:  time.Now(),
		}
		if err = txStore.SaveScheduleLog(logEntry); err != nil {
			return fmt.Errorf("failed to log critical flag change for task %d: %v", t.ID, err)
		}
	}
	return nil
}

// loadGraph fetches one project's full task and dependency snapshot.
func (s *ScheduleService) loadGraph(projectID int64) ([]models.Task, []models.TaskDependency, error) {
	if _, err := s.store.GetProject(projectID); err != nil {
		return nil, nil, errors.Wrapf(err, "project %d", projectID)
	}
	tasks, err := s.store.ListTasks(projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tasks of project %d: %v", projectID, err)
	}
	deps, err := s.store.ListDependencies(projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list dependencies of project %d: %v", projectID, err)
	}
	return tasks, deps, nil
}

func (s *ScheduleService) CreateProject(name string) (id int64, err error) {
	if name == "" {
		return 0, errors.New("project name cannot be empty")
	}
	if len(name) > 100 {
		return 0, errors.New("project name too long (max 100 characters)")
	}
	txStore, err := s.store.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	p := models.Project{
		Name:      name,
		Status:    models.PlanningProjectStatus,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	id, err = txStore.SaveProject(p)
	if err != nil {
		return 0, err
	}
	s.logger.Infof("Created project '%s' with ID %d", name, id)
	return id, nil
}

// UpdateProjectStatus updates the status of an existing project by ID.
func (s *ScheduleService) UpdateProjectStatus(id int64, status string) error {
	if id <= 0 {
		return errors.New("project ID must be positive")
	}
	pStatus := models.ProjectStatus(status)
	switch pStatus {
	case models.PlanningProjectStatus, models.ActiveProjectStatus,
		models.OnHoldProjectStatus, models.CompletedProjectStatus:
		// Valid status, proceed
	default:
		return errors.New("invalid status; must be 'PLANNING', 'ACTIVE', 'ON_HOLD', or 'COMPLETED'")
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	p, err := txStore.GetProject(id)
	if err != nil {
		return err
	}
	if err := txStore.UpdateProjectStatus(p.ID, pStatus); err != nil {
		return err
	}

	s.logger.Infof("Updated project ID %d to status '%s'", id, status)
	return nil
}

func (s *ScheduleService) ListProjects() ([]models.Project, error) {
	return s.store.ListProjects()
}

// GetProject fetches a project together with its tasks and dependencies.
func (s *ScheduleService) GetProject(projectID int64) (models.Project, error) {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return models.Project{}, errors.Wrapf(err, "project %d", projectID)
	}
	if p.Tasks, err = s.store.ListTasks(projectID); err != nil {
		return models.Project{}, fmt.Errorf("failed to list tasks of project %d: %v", projectID, err)
	}
	if p.Dependencies, err = s.store.ListDependencies(projectID); err != nil {
		return models.Project{}, fmt.Errorf("failed to list dependencies of project %d: %v", projectID, err)
	}
	return p, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "unscheduled"
	}
	return t.Format("2006-01-02")
}
