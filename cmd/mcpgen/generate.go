package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [task description]",
	Short: "Submit a code generation task",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show the status of a generation task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List generation tasks",
	RunE:  runTasks,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the generation history log",
	RunE:  runHistory,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check daemon and backend health",
	RunE:  runHealth,
}

var (
	serviceName  string
	contextFiles []string
	genSync      bool
	genWait      bool
	historyLimit int
)

func init() {
	generateCmd.Flags().StringVar(&serviceName, "service", "", "Name for the generated service (required)")
	generateCmd.Flags().StringSliceVar(&contextFiles, "context-file", nil, "Extra context file to include (repeatable)")
	generateCmd.Flags().BoolVar(&genSync, "sync", false, "Wait for the result on the request itself")
	generateCmd.Flags().BoolVar(&genWait, "wait", false, "Submit asynchronously then poll until terminal")
	generateCmd.MarkFlagRequired("service")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum records to show")
}

// taskPayload matches the server's status response structure.
type taskPayload struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	body := map[string]interface{}{
		"prompt":       args[0],
		"service_name": serviceName,
	}
	if len(contextFiles) > 0 {
		body["context_files"] = contextFiles
	}

	path := "/generate"
	if genSync {
		path += "?sync=true"
	}

	resp, err := apiPost(path, body)
	if err != nil {
		return err
	}

	if genSync {
		var task taskPayload
		if err := json.Unmarshal(resp, &task); err != nil {
			return err
		}
		return printTerminal(task)
	}

	var accepted struct {
		Message string `json:"message"`
		TaskID  string `json:"task_id"`
	}
	if err := json.Unmarshal(resp, &accepted); err != nil {
		return err
	}

	if !genWait {
		fmt.Printf("Task submitted: %s\n", accepted.TaskID)
		fmt.Printf("Poll with: mcpgen status %s\n", accepted.TaskID)
		return nil
	}

	fmt.Printf("Task %s submitted, waiting...\n", accepted.TaskID)
	for {
		time.Sleep(2 * time.Second)
		task, err := fetchStatus(accepted.TaskID)
		if err != nil {
			return err
		}
		if task.Status == "completed" || task.Status == "failed" {
			return printTerminal(*task)
		}
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	task, err := fetchStatus(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Task:   %s\n", task.TaskID)
	fmt.Printf("Status: %s\n", task.Status)
	if task.Reason != "" {
		fmt.Printf("Reason: %s\n", task.Reason)
	}
	if task.Result != "" {
		fmt.Println("\n--- RESULT ---")
		fmt.Println(task.Result)
	}
	return nil
}

func runTasks(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/tasks")
	if err != nil {
		return err
	}

	var tasks []struct {
		ID     string `json:"id"`
		State  string `json:"state"`
		Reason string `json:"reason,omitempty"`
	}
	if err := json.Unmarshal(resp, &tasks); err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tREASON")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\n", truncateID(t.ID), t.State, truncate(t.Reason, 60))
	}
	w.Flush()
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	resp, err := apiGet(fmt.Sprintf("/history?limit=%d", historyLimit))
	if err != nil {
		return err
	}

	var records []struct {
		TaskID      string `json:"task_id"`
		ServiceName string `json:"service_name"`
		Outcome     string `json:"outcome"`
		Reason      string `json:"reason,omitempty"`
		DurationMS  int64  `json:"duration_ms"`
		CreatedAt   string `json:"created_at"`
	}
	if err := json.Unmarshal(resp, &records); err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No history records found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tSERVICE\tOUTCOME\tDURATION\tWHEN")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncateID(rec.TaskID), rec.ServiceName, rec.Outcome,
			(time.Duration(rec.DurationMS) * time.Millisecond).String(), rec.CreatedAt)
	}
	w.Flush()
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	health, err := CheckHealth()
	if health == nil {
		return err
	}

	fmt.Printf("Backend:   %s\n", health.Backend)
	fmt.Printf("Model:     %s\n", health.Model)
	if health.Available {
		fmt.Println("Available: yes")
		return nil
	}
	fmt.Println("Available: no")
	if health.Error != "" {
		fmt.Printf("Error:     %s\n", health.Error)
	}
	return err
}

func printTerminal(task taskPayload) error {
	if task.Status == "failed" {
		return fmt.Errorf("task %s failed: %s", task.TaskID, task.Reason)
	}
	fmt.Printf("Task %s completed\n", task.TaskID)
	if task.Result != "" {
		fmt.Println("\n--- RESULT ---")
		fmt.Println(task.Result)
	}
	return nil
}

func fetchStatus(id string) (*taskPayload, error) {
	resp, err := apiGet("/status/" + id)
	if err != nil {
		return nil, err
	}
	var task taskPayload
	if err := json.Unmarshal(resp, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// --- Helpers ---

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
