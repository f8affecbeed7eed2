package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusStarted   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
	statusCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	statusFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
)

// TaskItem implements list.Item for the generation task list.
type TaskItem struct {
	ID     string
	State  string
	Result string
	Reason string
}

func (i TaskItem) FilterValue() string { return i.ID }
func (i TaskItem) Title() string       { return i.ID }
func (i TaskItem) Description() string {
	state := formatState(i.State)
	if i.Reason != "" {
		return fmt.Sprintf("%s • %s", state, truncate(i.Reason, 60))
	}
	return state
}

func formatState(state string) string {
	switch state {
	case "started":
		return statusStarted.Render("● started")
	case "completed":
		return statusCompleted.Render("● completed")
	case "failed":
		return statusFailed.Render("● failed")
	default:
		return state
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// TaskListModel manages the task list screen.
type TaskListModel struct {
	client  *Client
	list    list.Model
	width   int
	height  int
	loading bool
}

// NewTaskListModel creates a new task list model.
func NewTaskListModel(client *Client) *TaskListModel {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "Generation Tasks"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = listTitleStyle

	return &TaskListModel{
		client: client,
		list:   l,
	}
}

// Init initializes the task list.
func (m *TaskListModel) Init() tea.Cmd {
	return m.Refresh()
}

// SetSize sets the list dimensions.
func (m *TaskListModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h)
}

// SelectedTask returns the currently selected task.
func (m *TaskListModel) SelectedTask() *TaskItem {
	if item := m.list.SelectedItem(); item != nil {
		task := item.(TaskItem)
		return &task
	}
	return nil
}

// Refresh fetches tasks from the API.
func (m *TaskListModel) Refresh() tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		tasks, err := m.client.ListTasks()
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

// Update handles messages.
func (m *TaskListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		m.loading = false
		items := make([]list.Item, len(msg.tasks))
		for i, t := range msg.tasks {
			items[i] = t
		}
		m.list.SetItems(items)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.Refresh()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list.
func (m *TaskListModel) View() string {
	if m.loading && len(m.list.Items()) == 0 {
		return "Loading tasks..."
	}
	return m.list.View()
}

type tasksLoadedMsg struct {
	tasks []TaskItem
}

type errMsg struct {
	err error
}
