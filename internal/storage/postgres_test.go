package storage_test

import (
	"testing"
	"time"

	internal_storage "github.com/gadsdencode/ProTrax-sub001/internal/storage"
	"github.com/gadsdencode/ProTrax-sub001/internal/testutil"
	"github.com/gadsdencode/ProTrax-sub001/pkg/models"
	"github.com/gadsdencode/ProTrax-sub001/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	// Helper to create a transactional store
	newTxStore := func(t *testing.T) *internal_storage.PostgresStore {
		store, err := internal_storage.NewPostgresStore(testDB.ConnStr)
		assert.NoError(t, err)
		txStore, err := store.Begin()
		assert.NoError(t, err)
		t.Cleanup(func() { txStore.Rollback() })
		return txStore.(*internal_storage.PostgresStore)
	}

	newProject := func(t *testing.T, store *internal_storage.PostgresStore, name string) int64 {
		id, err := store.SaveProject(models.Project{
			Name:      name,
			Status:    models.PlanningProjectStatus,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		assert.NoError(t, err)
		return id
	}

	t.Run("SaveProject", func(t *testing.T) {
		store := newTxStore(t)
		id := newProject(t, store, "TestProject")
		assert.Greater(t, id, int64(0))

		saved, err := store.GetProject(id)
		assert.NoError(t, err)
		assert.Equal(t, "TestProject", saved.Name)
		assert.Equal(t, models.PlanningProjectStatus, saved.Status)
	})

	t.Run("GetNonExistingProject", func(t *testing.T) {
		store := newTxStore(t)
		_, err := store.GetProject(123)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateProjectStatus", func(t *testing.T) {
		store := newTxStore(t)
		id := newProject(t, store, "UpdateStatusTest")

		err := store.UpdateProjectStatus(id, models.ActiveProjectStatus)
		assert.NoError(t, err)

		updated, err := store.GetProject(id)
		assert.NoError(t, err)
		assert.Equal(t, models.ActiveProjectStatus, updated.Status)
	})

	t.Run("ListProjects returns empty list when no projects exist", func(t *testing.T) {
		store := newTxStore(t)
		projects, err := store.ListProjects()
		assert.NoError(t, err)
		assert.Empty(t, projects)
	})

	t.Run("ListProjects returns projects in descending order", func(t *testing.T) {
		store := newTxStore(t)
		old, err := store.SaveProject(models.Project{
			Name:      "Old",
			Status:    models.CompletedProjectStatus,
			CreatedAt: time.Now().Add(-2 * time.Hour),
			UpdatedAt: time.Now().Add(-2 * time.Hour),
		})
		assert.NoError(t, err)
		recent, err := store.SaveProject(models.Project{
			Name:      "Recent",
			Status:    models.ActiveProjectStatus,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		assert.NoError(t, err)

		projects, err := store.ListProjects()
		assert.NoError(t, err)
		assert.Len(t, projects, 2)
		assert.Equal(t, recent, projects[0].ID)
		assert.Equal(t, old, projects[1].ID)
	})

	t.Run("SaveTask", func(t *testing.T) {
		store := newTxStore(t)
		projectID := newProject(t, store, "TaskTestProject")

		start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		due := start.AddDate(0, 0, 2)
		duration := 16
		taskID, err := store.SaveTask(models.Task{
			ProjectID: projectID,
			Title:     "Excavation",
			StartDate: &start,
			DueDate:   &due,
			Duration:  &duration,
		})
		assert.NoError(t, err)
		assert.Greater(t, taskID, int64(0))

		saved, err := store.GetTask(taskID, projectID)
		assert.NoError(t, err)
		assert.Equal(t, "Excavation", saved.Title)
		assert.NotNil(t, saved.Duration)
		assert.Equal(t, 16, *saved.Duration)
		assert.True(t, start.Equal(saved.StartDate.UTC()))
		assert.False(t, saved.IsMilestone)
		assert.False(t, saved.IsOnCriticalPath)
	})

	t.Run("GetNonExistingTask", func(t *testing.T) {
		store := newTxStore(t)
		projectID := newProject(t, store, "GetTaskTest")

		_, err := store.GetTask(99, projectID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListTasks returns tasks in ID order", func(t *testing.T) {
		store := newTxStore(t)
		projectID := newProject(t, store, "ListTasksTest")

		first, err := store.SaveTask(models.Task{ProjectID: projectID, Title: "First"})
		assert.NoError(t, err)
		second, err := store.SaveTask(models.Task{ProjectID: projectID, Title: "Second", IsMilestone: true})
		assert.NoError(t, err)

		tasks, err := store.ListTasks(projectID)
		assert.NoError(t, err)
		assert.Len(t, tasks, 2)
		assert.Equal(t, first, tasks[0].ID)
		assert.Equal(t, second, tasks[1].ID)
		assert.True(t, tasks[1].IsMilestone)
	})

	t.Run("UpdateTaskDates", func(t *testing.T) {
		store := newTxStore(t)
		projectID := newProject(t, store, "UpdateDatesTest")
		taskID, err := store.SaveTask(models.Task{ProjectID: projectID, Title: "Movable"})
		assert.NoError(t, err)

		start := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
		due := start.AddDate(0, 0, 3)
		err = store.UpdateTaskDates(taskID, projectID, &start, &due)
		assert.NoError(t, err)

		updated, err := store.GetTask(taskID, projectID)
		assert.NoError(t, err)
		assert.NotNil(t, updated.StartDate)
		assert.True(t, start.Equal(updated.StartDate.UTC()))
		assert.True(t, due.Equal(updated.DueDate.UTC()))
	})

	t.Run("UpdateTaskCriticalFlag", func(t *testing.T) {
		store := newTxStore(t)
		projectID := newProject(t, store, "CriticalFlagTest")
		taskID, err := store.SaveTask(models.Task{ProjectID: projectID, Title: "Critical"})
		assert.NoError(t, err)

		err = store.UpdateTaskCriticalFlag(taskID, projectID, true)
		assert.NoError(t, err)

		updated, err := store.GetTask(taskID, projectID)
		assert.NoError(t, err)
		assert.True(t, updated.IsOnCriticalPath)
	})

	t.Run("SaveDependency", func(t *testing.T) {
		store := newTxStore(t)
		projectID := newProject(t, store, "DependencyTest")
		predID, err := store.SaveTask(models.Task{ProjectID: projectID, Title: "Pred"})
		assert.NoError(t, err)
		succID, err := store.SaveTask(models.Task{ProjectID: projectID, Title: "Succ"})
		assert.NoError(t, err)

		depID, err := store.SaveDependency(models.TaskDependency{
			ProjectID:     projectID,
			PredecessorID: predID,
			SuccessorID:   succID,
			Type:          models.FinishToStart,
			Lag:           2,
		})
		assert.NoError(t, err)
		assert.Greater(t, depID, int64(0))

		deps, err := store.ListDependencies(projectID)
		assert.NoError(t, err)
		assert.Len(t, deps, 1)
		assert.Equal(t, predID, deps[0].PredecessorID)
		assert.Equal(t, succID, deps[0].SuccessorID)
		assert.Equal(t, models.FinishToStart, deps[0].Type)
		assert.Equal(t, 2, deps[0].Lag)
	})

	t.Run("SaveDependencyRejectsBadType", func(t *testing.T) {
		store := newTxStore(t)
		projectID := newProject(t, store, "BadTypeTest")
		predID, err := store.SaveTask(models.Task{ProjectID: projectID, Title: "Pred"})
		assert.NoError(t, err)
		succID, err := store.SaveTask(models.Task{ProjectID: projectID, Title: "Succ"})
		assert.NoError(t, err)

		// The CHECK constraint only allows fs, ss, ff and sf.
		_, err = store.SaveDependency(models.TaskDependency{
			ProjectID:     projectID,
			PredecessorID: predID,
			SuccessorID:   succID,
			Type:          "nope",
		})
		assert.Error(t, err)
	})

	t.Run("SaveScheduleLog", func(t *testing.T) {
		store := newTxStore(t)
		projectID := newProject(t, store, "LogTest")
		taskID, err := store.SaveTask(models.Task{ProjectID: projectID, Title: "Logged"})
		assert.NoError(t, err)

		err = store.SaveScheduleLog(models.ScheduleLog{
			TaskID:    taskID,
			ProjectID: projectID,
			Action:    "reschedule",
			Message:   "moved to 2026-03-09 - 2026-03-11",
			LoggedAt:  time.Now(),
		})
		assert.NoError(t, err)
	})
}
