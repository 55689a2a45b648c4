package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gadsdencode/ProTrax-sub001/internal/log"
	"github.com/gadsdencode/ProTrax-sub001/pkg/models"
	"github.com/gadsdencode/ProTrax-sub001/pkg/scheduler"
	"github.com/gadsdencode/ProTrax-sub001/pkg/service"
	"github.com/gadsdencode/ProTrax-sub001/pkg/storage"
)

const dateLayout = "2006-01-02"

func StartServer(port string, store storage.Store) error {
	svc := service.NewScheduleService(store, log.GetLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/projects", ProjectsHandler(svc))
	mux.HandleFunc("/projects/", ProjectByIDHandler(svc))

	log.GetLogger().Infof("Starting ProTrax scheduling server on :%s", port)
	return http.ListenAndServe(":"+port, mux)
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ProTrax scheduling server is running")
}

func ProjectsHandler(svc *service.ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listProjectsHTTP(w, r, svc)
		case http.MethodPost:
			createProjectHTTP(w, r, svc)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// ProjectByIDHandler routes /projects/{id}, /projects/{id}/critical-path,
// /projects/{id}/tasks, /projects/{id}/dependencies and
// /projects/{id}/tasks/{taskID}/{validate|reschedule}.
func ProjectByIDHandler(svc *service.ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/projects/"), "/"), "/")
		projectID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			http.Error(w, "Invalid project ID", http.StatusBadRequest)
			return
		}

		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			getProjectHTTP(w, svc, projectID)
		case len(parts) == 2 && parts[1] == "critical-path":
			criticalPathHTTP(w, svc, projectID)
		case len(parts) == 2 && parts[1] == "tasks" && r.Method == http.MethodPost:
			addTaskHTTP(w, r, svc, projectID)
		case len(parts) == 2 && parts[1] == "dependencies" && r.Method == http.MethodPost:
			addDependencyHTTP(w, r, svc, projectID)
		case len(parts) == 4 && parts[1] == "tasks" && r.Method == http.MethodPost:
			taskID, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				http.Error(w, "Invalid task ID", http.StatusBadRequest)
				return
			}
			switch parts[3] {
			case "validate":
				validateHTTP(w, r, svc, projectID, taskID)
			case "reschedule":
				rescheduleHTTP(w, r, svc, projectID, taskID)
			default:
				http.Error(w, "Not found", http.StatusNotFound)
			}
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	}
}

func createProjectHTTP(w http.ResponseWriter, r *http.Request, svc *service.ScheduleService) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		log.GetLogger().Error("Missing or malformed 'name' in POST /projects")
		http.Error(w, "Missing 'name' field", http.StatusBadRequest)
		return
	}
	id, err := svc.CreateProject(req.Name)
	if err != nil {
		log.GetLogger().Errorf("Failed to create project: %v", err)
		http.Error(w, fmt.Sprintf("Failed to create project: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id, "name": req.Name})
}

func listProjectsHTTP(w http.ResponseWriter, r *http.Request, svc *service.ScheduleService) {
	_ = r
	projects, err := svc.ListProjects()
	if err != nil {
		log.GetLogger().Errorf("Failed to list projects: %v", err)
		http.Error(w, fmt.Sprintf("Failed to list projects: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func getProjectHTTP(w http.ResponseWriter, svc *service.ScheduleService, projectID int64) {
	p, err := svc.GetProject(projectID)
	if err != nil {
		writeError(w, err, "Failed to get project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func criticalPathHTTP(w http.ResponseWriter, svc *service.ScheduleService, projectID int64) {
	result, err := svc.ComputeCriticalPath(projectID)
	if err != nil {
		writeError(w, err, "Failed to compute critical path")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func addTaskHTTP(w http.ResponseWriter, r *http.Request, svc *service.ScheduleService, projectID int64) {
	var req struct {
		Title       string `json:"title"`
		StartDate   string `json:"start_date"`
		DueDate     string `json:"due_date"`
		Duration    *int   `json:"duration"`
		IsMilestone bool   `json:"is_milestone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Malformed request body", http.StatusBadRequest)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		http.Error(w, "Invalid 'start_date'; expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		http.Error(w, "Invalid 'due_date'; expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	task := models.Task{
		ProjectID:   projectID,
		Title:       req.Title,
		StartDate:   start,
		DueDate:     due,
		Duration:    req.Duration,
		IsMilestone: req.IsMilestone,
	}
	id, err := svc.Tasks().AddTask(task)
	if err != nil {
		writeError(w, err, "Failed to add task")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

func addDependencyHTTP(w http.ResponseWriter, r *http.Request, svc *service.ScheduleService, projectID int64) {
	var req struct {
		PredecessorID int64  `json:"predecessor_id"`
		SuccessorID   int64  `json:"successor_id"`
		Type          string `json:"type"`
		Lag           int    `json:"lag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Malformed request body", http.StatusBadRequest)
		return
	}
	dep := models.TaskDependency{
		ProjectID:     projectID,
		PredecessorID: req.PredecessorID,
		SuccessorID:   req.SuccessorID,
		Type:          models.DependencyType(req.Type),
		Lag:           req.Lag,
	}
	id, err := svc.Tasks().AddDependency(dep)
	if err != nil {
		writeError(w, err, "Failed to add dependency")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

type dateChangeRequest struct {
	StartDate string `json:"start_date"`
	DueDate   string `json:"due_date"`
	Force     bool   `json:"force"`
}

func (req dateChangeRequest) dates() (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid 'start_date': %v", err)
	}
	due, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid 'due_date': %v", err)
	}
	return start, due, nil
}

func validateHTTP(w http.ResponseWriter, r *http.Request, svc *service.ScheduleService, projectID, taskID int64) {
	var req dateChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Malformed request body", http.StatusBadRequest)
		return
	}
	start, due, err := req.dates()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	violations, err := svc.ValidateDateChange(projectID, taskID, start, due)
	if err != nil {
		writeError(w, err, "Failed to validate date change")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

func rescheduleHTTP(w http.ResponseWriter, r *http.Request, svc *service.ScheduleService, projectID, taskID int64) {
	var req dateChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Malformed request body", http.StatusBadRequest)
		return
	}
	start, due, err := req.dates()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := svc.RescheduleTask(projectID, taskID, start, due, req.Force)
	if err != nil {
		writeError(w, err, "Failed to reschedule task")
		return
	}
	status := http.StatusOK
	if !result.Applied {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error, prefix string) {
	log.GetLogger().Errorf("%s: %v", prefix, err)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, fmt.Sprintf("%s: %v", prefix, err), http.StatusNotFound)
	case errors.Is(err, scheduler.ErrCyclicDependency):
		http.Error(w, fmt.Sprintf("%s: %v", prefix, err), http.StatusConflict)
	default:
		http.Error(w, fmt.Sprintf("%s: %v", prefix, err), http.StatusInternalServerError)
	}
}
