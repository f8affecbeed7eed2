package tasks

import (
	"fmt"
	"sync"
	"testing"

	"github.com/raopodili/mcpgen/internal/models"
)

func TestCreate_UniqueIDs(t *testing.T) {
	m := NewManager()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := m.Create()
		if id == "" {
			t.Fatal("Expected non-empty task ID")
		}
		if seen[id] {
			t.Fatalf("Duplicate task ID: %s", id)
		}
		seen[id] = true
	}
}

func TestCreate_InitialStateStarted(t *testing.T) {
	m := NewManager()
	id := m.Create()

	task := m.Get(id)
	if task.State != models.TaskStateStarted {
		t.Errorf("Expected state started, got %s", task.State)
	}
	if task.Result != "" || task.Reason != "" {
		t.Error("Expected empty result and reason on a fresh task")
	}
}

func TestComplete_StoresResult(t *testing.T) {
	m := NewManager()
	id := m.Create()

	m.Complete(id, "class RefundService {}")

	task := m.Get(id)
	if task.State != models.TaskStateCompleted {
		t.Errorf("Expected state completed, got %s", task.State)
	}
	if task.Result != "class RefundService {}" {
		t.Errorf("Unexpected result: %q", task.Result)
	}
}

func TestFail_StoresReason(t *testing.T) {
	m := NewManager()
	id := m.Create()

	m.Fail(id, "generator returned empty response")

	task := m.Get(id)
	if task.State != models.TaskStateFailed {
		t.Errorf("Expected state failed, got %s", task.State)
	}
	if task.Reason != "generator returned empty response" {
		t.Errorf("Unexpected reason: %q", task.Reason)
	}
}

func TestTerminalTransition_HappensOnce(t *testing.T) {
	m := NewManager()
	id := m.Create()

	m.Complete(id, "first")
	m.Fail(id, "late failure")
	m.Complete(id, "second")

	task := m.Get(id)
	if task.State != models.TaskStateCompleted {
		t.Errorf("Expected state completed after first transition, got %s", task.State)
	}
	if task.Result != "first" {
		t.Errorf("Expected first result to win, got %q", task.Result)
	}
	if task.Reason != "" {
		t.Errorf("Expected no failure reason, got %q", task.Reason)
	}
}

func TestGet_UnknownID(t *testing.T) {
	m := NewManager()

	task := m.Get("no-such-task")
	if task.State != models.TaskStateUnknown {
		t.Errorf("Expected state unknown, got %s", task.State)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	m := NewManager()
	id := m.Create()

	task := m.Get(id)
	task.Result = "mutated by caller"

	if got := m.Get(id); got.Result != "" {
		t.Error("Caller mutation leaked into the registry")
	}
}

func TestConcurrentCreateAndPoll(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	ids := make(chan string, 200)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := m.Create()
			ids <- id
			m.Complete(id, fmt.Sprintf("result-%d", n))
		}(i)
	}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Get("unknown")
			m.List()
		}()
	}
	wg.Wait()
	close(ids)

	count := 0
	for id := range ids {
		task := m.Get(id)
		if task.State != models.TaskStateCompleted {
			t.Errorf("Task %s not completed: %s", id, task.State)
		}
		count++
	}
	if count != 100 {
		t.Errorf("Expected 100 tasks, got %d", count)
	}
}

func TestList_NewestFirst(t *testing.T) {
	m := NewManager()
	for i := 0; i < 5; i++ {
		m.Create()
	}

	list := m.List()
	if len(list) != 5 {
		t.Fatalf("Expected 5 tasks, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Error("Expected tasks ordered newest first")
		}
	}
}
