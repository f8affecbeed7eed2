// Package tasks tracks in-flight generation tasks and their results.
package tasks

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raopodili/mcpgen/internal/models"
)

// Manager owns the task registry. It is the only component with
// concurrent writers; the single mutex is held only for the brief
// registry read or write, never across I/O.
//
// Completed tasks are retained for the lifetime of the process. Restart
// loses all task history.
type Manager struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
}

// NewManager creates an empty task manager.
func NewManager() *Manager {
	return &Manager{tasks: make(map[string]*models.Task)}
}

// Create registers a new task in the started state and returns its ID.
func (m *Manager) Create() string {
	now := time.Now().UTC()
	task := &models.Task{
		ID:        uuid.New().String(),
		State:     models.TaskStateStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.tasks[task.ID] = task
	m.mu.Unlock()

	return task.ID
}

// Complete marks a task completed and stores its result. The caller is
// the single execution unit driving the task, so terminal transitions
// cannot race each other.
func (m *Manager) Complete(id, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.State.Terminal() {
		return
	}
	task.State = models.TaskStateCompleted
	task.Result = result
	task.UpdatedAt = time.Now().UTC()
}

// Fail marks a task failed with a human-readable reason. It never
// returns an error: background work must always be able to record its
// outcome.
func (m *Manager) Fail(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.State.Terminal() {
		return
	}
	task.State = models.TaskStateFailed
	task.Reason = reason
	task.UpdatedAt = time.Now().UTC()
}

// Get returns a copy of the task. Unrecognized identities yield a task
// in the unknown state rather than an error, so status queries are
// total and side-effect-free.
func (m *Manager) Get(id string) models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return models.Task{ID: id, State: models.TaskStateUnknown}
	}
	return *task
}

// List returns a snapshot of all tasks, newest first.
func (m *Manager) List() []models.Task {
	m.mu.Lock()
	out := make([]models.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		out = append(out, *task)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
