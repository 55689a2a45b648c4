package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gadsdencode/ProTrax-sub001/pkg/models"
	"github.com/gadsdencode/ProTrax-sub001/pkg/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// SaveProject creates a new project and returns its ID (no tasks/deps)
func (s *PostgresStore) SaveProject(p models.Project) (int64, error) {
	var projectID int64
	err := s.db.QueryRowx("INSERT INTO projects (name, status, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id",
		p.Name, p.Status, p.CreatedAt, p.UpdatedAt).Scan(&projectID)
	if err != nil {
		return 0, fmt.Errorf("save project: %w", err)
	}
	return projectID, nil
}

// GetProject retrieves a project by ID, without tasks or dependencies
func (s *PostgresStore) GetProject(id int64) (models.Project, error) {
	var p models.Project
	err := s.db.Get(&p, "SELECT id, name, status, created_at, updated_at FROM projects WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Project{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Project{}, err
	}
	return p, nil
}

func (s *PostgresStore) ListProjects() ([]models.Project, error) {
	projects := []models.Project{}
	query := "SELECT id, name, status, created_at, updated_at FROM projects ORDER BY created_at DESC"
	err := s.db.Select(&projects, query)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProjectStatus updates the status of a project
func (s *PostgresStore) UpdateProjectStatus(id int64, status models.ProjectStatus) error {
	_, err := s.db.Exec("UPDATE projects SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2", status, id)
	return err
}

// SaveTask creates a new task within a project and returns its ID
func (s *PostgresStore) SaveTask(t models.Task) (int64, error) {
	var taskID int64
	err := s.db.QueryRowx(`
		INSERT INTO tasks (project_id, title, start_date, due_date, duration, is_milestone, is_on_critical_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		t.ProjectID, t.Title, t.StartDate, t.DueDate, t.Duration, t.IsMilestone, t.IsOnCriticalPath).Scan(&taskID)
	if err != nil {
		return 0, fmt.Errorf("save task: %w", err)
	}
	return taskID, nil
}

// GetTask retrieves a task by ID and project ID
func (s *PostgresStore) GetTask(id, projectID int64) (models.Task, error) {
	var task models.Task
	err := s.db.Get(&task, "SELECT * FROM tasks WHERE id = $1 AND project_id = $2", id, projectID)
	if err == sql.ErrNoRows {
		return models.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// ListTasks retrieves all tasks of a project
func (s *PostgresStore) ListTasks(projectID int64) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.Select(&tasks, "SELECT * FROM tasks WHERE project_id = $1 ORDER BY id", projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks of project %d: %w", projectID, err)
	}
	return tasks, nil
}

// UpdateTaskDates updates the start and due dates of a task
func (s *PostgresStore) UpdateTaskDates(id, projectID int64, start, due *time.Time) error {
	_, err := s.db.Exec("UPDATE tasks SET start_date = $1, due_date = $2 WHERE id = $3 AND project_id = $4",
		start, due, id, projectID)
	return err
}

// UpdateTaskCriticalFlag updates the critical path flag of a task
func (s *PostgresStore) UpdateTaskCriticalFlag(id, projectID int64, onCriticalPath bool) error {
	_, err := s.db.Exec("UPDATE tasks SET is_on_critical_path = $1 WHERE id = $2 AND project_id = $3",
		onCriticalPath, id, projectID)
	return err
}

// SaveDependency creates a new dependency between tasks and returns its ID
func (s *PostgresStore) SaveDependency(d models.TaskDependency) (int64, error) {
	var depID int64
	err := s.db.QueryRowx(`
		INSERT INTO task_dependencies (project_id, predecessor_id, successor_id, type, lag)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		d.ProjectID, d.PredecessorID, d.SuccessorID, d.Type, d.Lag).Scan(&depID)
	if err != nil {
		return 0, fmt.Errorf("save dependency: %w", err)
	}
	return depID, nil
}

// ListDependencies retrieves all dependencies of a project
func (s *PostgresStore) ListDependencies(projectID int64) ([]models.TaskDependency, error) {
	var deps []models.TaskDependency
	err := s.db.Select(&deps, "SELECT id, project_id, predecessor_id, successor_id, type, lag FROM task_dependencies WHERE project_id = $1 ORDER BY id", projectID)
	if err != nil {
		return nil, err
	}
	return deps, nil
}

// SaveScheduleLog appends an audit log entry for a schedule change
func (s *PostgresStore) SaveScheduleLog(l models.ScheduleLog) error {
	_, err := s.db.Exec("INSERT INTO schedule_logs (task_id, project_id, action, message, logged_at) VALUES ($1, $2, $3, $4, $5)",
		l.TaskID, l.ProjectID, l.Action, l.Message, l.LoggedAt)
	return err
}
