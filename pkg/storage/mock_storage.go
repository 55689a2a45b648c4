package storage

import (
	"sync"
	"time"

	"github.com/gadsdencode/ProTrax-sub001/pkg/models"
	"github.com/pkg/errors"
)

// mockStore implements Store with in-memory storage. A mutex guards all
// operations so tests can drive the store from concurrent workers.
type mockStore struct {
	mu           sync.Mutex
	projects     []models.Project
	tasks        []models.Task
	dependencies []models.TaskDependency
	logs         []models.ScheduleLog
	nextProject  int64
	nextTask     int64
	nextDep      int64
}

// NewMockStore returns an empty in-memory store for tests and examples.
func NewMockStore() Store {
	return &mockStore{}
}

// Begin returns the store itself; writes apply immediately, so Commit and
// Rollback are no-ops. This keeps concurrent callers working, at the cost of
// rollback not actually undoing anything.
func (m *mockStore) Begin() (Store, error) {
	return m, nil
}

func (m *mockStore) Commit() error {
	return nil
}

func (m *mockStore) Rollback() error {
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

func (m *mockStore) SaveProject(p models.Project) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextProject++
	p.ID = m.nextProject
	m.projects = append(m.projects, p)
	return p.ID, nil
}

func (m *mockStore) GetProject(id int64) (models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Project{}, ErrNotFound
}

func (m *mockStore) ListProjects() ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Project(nil), m.projects...), nil
}

func (m *mockStore) UpdateProjectStatus(id int64, status models.ProjectStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.projects {
		if p.ID == id {
			m.projects[i].Status = status
			m.projects[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SaveTask(t models.Task) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		m.nextTask++
		t.ID = m.nextTask
	} else {
		for _, existing := range m.tasks {
			if existing.ID == t.ID && existing.ProjectID == t.ProjectID {
				return 0, errors.New("task already exists")
			}
		}
		if t.ID > m.nextTask {
			m.nextTask = t.ID
		}
	}
	m.tasks = append(m.tasks, t)
	return t.ID, nil
}

func (m *mockStore) GetTask(id, projectID int64) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id && t.ProjectID == projectID {
			return t, nil
		}
	}
	return models.Task{}, ErrNotFound
}

func (m *mockStore) ListTasks(projectID int64) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tasks []models.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (m *mockStore) UpdateTaskDates(id, projectID int64, start, due *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.ID == id && t.ProjectID == projectID {
			m.tasks[i].StartDate = start
			m.tasks[i].DueDate = due
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) UpdateTaskCriticalFlag(id, projectID int64, onCriticalPath bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.ID == id && t.ProjectID == projectID {
			m.tasks[i].IsOnCriticalPath = onCriticalPath
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SaveDependency(d models.TaskDependency) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.dependencies {
		if existing.PredecessorID == d.PredecessorID && existing.SuccessorID == d.SuccessorID &&
			existing.ProjectID == d.ProjectID && existing.Type == d.Type {
			return 0, errors.New("dependency already exists")
		}
	}
	if d.ID == 0 {
		m.nextDep++
		d.ID = m.nextDep
	} else if d.ID > m.nextDep {
		m.nextDep = d.ID
	}
	m.dependencies = append(m.dependencies, d)
	return d.ID, nil
}

func (m *mockStore) ListDependencies(projectID int64) ([]models.TaskDependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deps []models.TaskDependency
	for _, d := range m.dependencies {
		if d.ProjectID == projectID {
			deps = append(deps, d)
		}
	}
	return deps, nil
}

func (m *mockStore) SaveScheduleLog(l models.ScheduleLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, l)
	return nil
}
