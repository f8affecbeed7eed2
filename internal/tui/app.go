// Package tui provides the interactive terminal UI for watching
// generation tasks.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshInterval = 2 * time.Second

var (
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))
)

// App is the main TUI application model.
type App struct {
	client   *Client
	taskList *TaskListModel
	viewport viewport.Model
	mode     string // "list" or "detail"
	detail   *TaskItem
	width    int
	height   int
	lastErr  error
}

// New creates the TUI application for the API at baseURL.
func New(baseURL string) *App {
	client := NewClient(baseURL)
	return &App{
		client:   client,
		taskList: NewTaskListModel(client),
		viewport: viewport.New(80, 20),
		mode:     "list",
	}
}

// Run starts the TUI event loop.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the initial fetch and the refresh ticker.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.taskList.Init(), tick())
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.taskList.SetSize(msg.Width, msg.Height-2)
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 4
		return a, nil

	case tickMsg:
		// Keep the list live while it is visible.
		if a.mode == "list" {
			return a, tea.Batch(a.taskList.Refresh(), tick())
		}
		return a, tick()

	case errMsg:
		a.lastErr = msg.err
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if a.mode == "detail" {
				a.mode = "list"
				return a, nil
			}
			return a, tea.Quit
		case "enter":
			if a.mode == "list" {
				if task := a.taskList.SelectedTask(); task != nil {
					a.detail = task
					a.viewport.SetContent(detailContent(task))
					a.viewport.GotoTop()
					a.mode = "detail"
				}
				return a, nil
			}
		case "esc":
			a.mode = "list"
			return a, nil
		}
	}

	if a.mode == "detail" {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	_, cmd := a.taskList.Update(msg)
	return a, cmd
}

func detailContent(task *TaskItem) string {
	if task.Reason != "" {
		return "Reason:\n\n" + task.Reason
	}
	if task.Result != "" {
		return task.Result
	}
	return "No output yet."
}

// View renders the current screen.
func (a *App) View() string {
	if a.mode == "detail" && a.detail != nil {
		header := detailTitleStyle.Render("Task " + a.detail.ID + " — " + a.detail.State)
		help := helpStyle.Render("esc/q back • ↑/↓ scroll")
		return header + "\n" + a.viewport.View() + "\n" + help
	}

	view := a.taskList.View()
	help := helpStyle.Render("enter details • r refresh • q quit")
	if a.lastErr != nil {
		help += "  " + errorStyle.Render("error: "+a.lastErr.Error())
	}
	return view + "\n" + help
}
