// Package models defines the core domain types for mcpgen.
package models

import "time"

// TaskState represents the lifecycle state of a generation task.
type TaskState string

const (
	TaskStateStarted   TaskState = "started"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	// TaskStateUnknown is returned for identities the manager has never seen.
	TaskStateUnknown TaskState = "unknown"
)

// Terminal reports whether the state is a terminal one.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

// Task is one asynchronous unit of generation work. Tasks are owned by
// the task manager; callers always receive copies.
type Task struct {
	ID        string    `json:"id"`
	State     TaskState `json:"state"`
	Result    string    `json:"result,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerationRequest is a code-generation request. Immutable once accepted.
type GenerationRequest struct {
	Prompt       string   `json:"prompt"`
	ServiceName  string   `json:"service_name"`
	ContextFiles []string `json:"context_files"`
}

// RepositoryDescriptor identifies one remote repository and, once cloned,
// its stable local path.
type RepositoryDescriptor struct {
	Name      string `json:"name"`
	CloneURL  string `json:"clone_url"`
	Branch    string `json:"branch"`
	LocalPath string `json:"local_path,omitempty"`
}

// PublishRecord describes one publish attempt. It is scoped to the
// attempt and discarded afterwards, never persisted.
type PublishRecord struct {
	WorkDir       string
	Branch        string
	CommitMessage string
	FilePath      string
}

// GenerationRecord is the persisted audit row for one generation attempt.
type GenerationRecord struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	ServiceName string    `json:"service_name"`
	PromptHash  string    `json:"prompt_hash"`
	Outcome     string    `json:"outcome"`
	Reason      string    `json:"reason,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
