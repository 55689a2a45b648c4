package cli

import (
	"fmt"
	"os"
	"time"

	internal_http "github.com/gadsdencode/ProTrax-sub001/internal/http"
	"github.com/gadsdencode/ProTrax-sub001/internal/log"
	internal_storage "github.com/gadsdencode/ProTrax-sub001/internal/storage"
	"github.com/gadsdencode/ProTrax-sub001/pkg/service"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("db", "", "Database connection string")

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			svc, closeStore := newService(cmd)
			defer closeStore()
			createProject(svc, args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		Run: func(cmd *cobra.Command, args []string) {
			svc, closeStore := newService(cmd)
			defer closeStore()
			listProjects(svc)
		},
	}

	criticalPathCmd := &cobra.Command{
		Use:   "critical-path",
		Short: "Compute and persist the critical path of a project",
		Run: func(cmd *cobra.Command, args []string) {
			projectID, err := cmd.Flags().GetInt64("project")
			if err != nil || projectID <= 0 {
				fmt.Fprintln(os.Stderr, "Error: --project is required")
				os.Exit(1)
			}
			svc, closeStore := newService(cmd)
			defer closeStore()
			computeCriticalPath(svc, projectID)
		},
	}
	criticalPathCmd.Flags().Int64("project", 0, "Project ID")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a proposed task date change against its dependencies",
		Run: func(cmd *cobra.Command, args []string) {
			projectID, taskID, start, due := dateChangeFlags(cmd)
			svc, closeStore := newService(cmd)
			defer closeStore()
			validateDateChange(svc, projectID, taskID, start, due)
		},
	}
	addDateChangeFlags(validateCmd)

	rescheduleCmd := &cobra.Command{
		Use:   "reschedule",
		Short: "Move a task and cascade the shift through its successors",
		Run: func(cmd *cobra.Command, args []string) {
			projectID, taskID, start, due := dateChangeFlags(cmd)
			force, _ := cmd.Flags().GetBool("force")
			svc, closeStore := newService(cmd)
			defer closeStore()
			rescheduleTask(svc, projectID, taskID, start, due, force)
		},
	}
	addDateChangeFlags(rescheduleCmd)
	rescheduleCmd.Flags().Bool("force", false, "Apply the change even if it violates dependencies")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduling HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			port, _ := cmd.Flags().GetString("port")
			store := initStore(dbConnStr(cmd))
			defer store.Close()
			if err := internal_http.StartServer(port, store); err != nil {
				log.GetLogger().Errorf("Server failed: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("port", "8080", "Port to listen on")

	rootCmd.AddCommand(createCmd, listCmd, criticalPathCmd, validateCmd, rescheduleCmd, serveCmd)
}

func addDateChangeFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("project", 0, "Project ID")
	cmd.Flags().Int64("task", 0, "Task ID")
	cmd.Flags().String("start", "", "New start date (YYYY-MM-DD)")
	cmd.Flags().String("due", "", "New due date (YYYY-MM-DD)")
}

func dateChangeFlags(cmd *cobra.Command) (int64, int64, time.Time, time.Time) {
	projectID, _ := cmd.Flags().GetInt64("project")
	taskID, _ := cmd.Flags().GetInt64("task")
	if projectID <= 0 || taskID <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --project and --task are required")
		os.Exit(1)
	}
	startStr, _ := cmd.Flags().GetString("start")
	dueStr, _ := cmd.Flags().GetString("due")
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --start date: %v\n", err)
		os.Exit(1)
	}
	due, err := time.Parse(dateLayout, dueStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --due date: %v\n", err)
		os.Exit(1)
	}
	return projectID, taskID, start, due
}

func createProject(svc *service.ScheduleService, name string) {
	id, err := svc.CreateProject(name)
	if err != nil {
		log.GetLogger().Errorf("Failed to create project: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to create project: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "Created project '%s' with ID %d\n", name, id)
}

func listProjects(svc *service.ScheduleService) {
	projects, err := svc.ListProjects()
	if err != nil {
		log.GetLogger().Errorf("Failed to list projects: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to list projects: %v\n", err)
		os.Exit(1)
	}
	if len(projects) == 0 {
		fmt.Fprintf(os.Stdout, "No projects found.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Projects:\n")
	for _, p := range projects {
		fmt.Fprintf(os.Stdout, "- ID: %d, Name: %s, Status: %s, Created: %s\n",
			p.ID, p.Name, p.Status, p.CreatedAt.Format(time.RFC3339))
	}
}

func computeCriticalPath(svc *service.ScheduleService, projectID int64) {
	result, err := svc.ComputeCriticalPath(projectID)
	if err != nil {
		log.GetLogger().Errorf("Failed to compute critical path: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to compute critical path: %v\n", err)
		os.Exit(1)
	}
	if len(result.CriticalPath) == 0 {
		fmt.Fprintf(os.Stdout, "No tasks on the critical path.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Critical path for project %d:\n", projectID)
	for _, t := range result.CriticalTasks {
		fmt.Fprintf(os.Stdout, "- Task %d: %s\n", t.ID, t.Title)
	}
}

func validateDateChange(svc *service.ScheduleService, projectID, taskID int64, start, due time.Time) {
	violations, err := svc.ValidateDateChange(projectID, taskID, start, due)
	if err != nil {
		log.GetLogger().Errorf("Failed to validate date change: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to validate date change: %v\n", err)
		os.Exit(1)
	}
	if len(violations) == 0 {
		fmt.Fprintf(os.Stdout, "No dependency violations.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Dependency violations:\n")
	for _, v := range violations {
		fmt.Fprintf(os.Stdout, "- Task %d (dependency %d): %s\n", v.TaskID, v.DependencyID, v.Message)
	}
	os.Exit(1)
}

func rescheduleTask(svc *service.ScheduleService, projectID, taskID int64, start, due time.Time, force bool) {
	result, err := svc.RescheduleTask(projectID, taskID, start, due, force)
	if err != nil {
		log.GetLogger().Errorf("Failed to reschedule task: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to reschedule task: %v\n", err)
		os.Exit(1)
	}
	if !result.Applied {
		fmt.Fprintf(os.Stdout, "Change rejected, %d violation(s):\n", len(result.Violations))
		for _, v := range result.Violations {
			fmt.Fprintf(os.Stdout, "- %s\n", v.Message)
		}
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "Rescheduled task %d; %d task(s) moved:\n", taskID, len(result.UpdatedTasks))
	for _, t := range result.UpdatedTasks {
		fmt.Fprintf(os.Stdout, "- Task %d (%s): %s - %s\n", t.ID, t.Title,
			t.StartDate.Format(dateLayout), t.DueDate.Format(dateLayout))
	}
}

func dbConnStr(cmd *cobra.Command) string {
	connStr, err := cmd.Flags().GetString("db")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving db flag: %v", err)
		os.Exit(1)
	}
	return connStr
}

func newService(cmd *cobra.Command) (*service.ScheduleService, func()) {
	store := initStore(dbConnStr(cmd))
	svc := service.NewScheduleService(store, log.GetLogger())
	return svc, func() { store.Close() }
}

func initStore(dbConnStr string) *internal_storage.PostgresStore {
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
