// Package tui renders the live job watch view: a terminal rendition of the
// dashboard's jobs page fed by the job list poller.
package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okian/roadlens/internal/app"
	"github.com/okian/roadlens/internal/domain/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type jobsMsg []model.Job

type pollErrMsg struct{ err error }

type runDoneMsg struct {
	jobID int64
	err   error
}

type watchModel struct {
	ctx     context.Context
	poller  *app.Poller
	updates <-chan tea.Msg

	table   table.Model
	jobs    []model.Job
	lastErr string
	status  string
}

func newWatchModel(ctx context.Context, poller *app.Poller, updates <-chan tea.Msg) watchModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Status", Width: 12},
			{Title: "File", Width: 40},
			{Title: "Duration", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	return watchModel{ctx: ctx, poller: poller, updates: updates, table: t}
}

// waitForUpdate blocks on the poller's callback channel.
func (m watchModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg { return <-m.updates }
}

func (m watchModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case jobsMsg:
		m.jobs = msg
		m.lastErr = ""
		rows := make([]table.Row, 0, len(msg))
		for _, j := range msg {
			duration := ""
			if j.DurationS > 0 {
				duration = fmt.Sprintf("%.1fs", j.DurationS)
			}
			rows = append(rows, table.Row{
				strconv.FormatInt(j.ID, 10), j.Status, j.Filename, duration,
			})
		}
		m.table.SetRows(rows)
		return m, m.waitForUpdate()

	case pollErrMsg:
		// Stale-but-available: the previous rows stay on screen.
		m.lastErr = msg.err.Error()
		return m, m.waitForUpdate()

	case runDoneMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("run job %d: %v", msg.jobID, msg.err))
		} else {
			m.status = statusStyle.Render(fmt.Sprintf("job %d queued for processing", msg.jobID))
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m.runSelected()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m watchModel) runSelected() (tea.Model, tea.Cmd) {
	row := m.table.SelectedRow()
	if row == nil {
		return m, nil
	}
	jobID, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return m, nil
	}
	for _, j := range m.jobs {
		if j.ID == jobID && !j.Queued() {
			m.status = mutedStyle.Render("only queued jobs can be run")
			return m, nil
		}
	}
	m.status = mutedStyle.Render(fmt.Sprintf("running job %d...", jobID))
	return m, func() tea.Msg {
		return runDoneMsg{jobID: jobID, err: m.poller.TriggerRun(m.ctx, jobID)}
	}
}

func (m watchModel) View() string {
	out := titleStyle.Render("RoadLens processing jobs") + "\n"
	out += panelStyle.Render(m.table.View()) + "\n"
	if m.lastErr != "" {
		out += errorStyle.Render("poll error: "+m.lastErr) + mutedStyle.Render("  (showing last known list)") + "\n"
	}
	if m.status != "" {
		out += m.status + "\n"
	}
	out += mutedStyle.Render("r: run selected queued job • q: quit")
	return out
}

// Run starts the poller, wires its callbacks into a bubbletea program, and
// blocks until the user quits. The poller is always stopped on the way out.
func Run(ctx context.Context, poller *app.Poller) error {
	updates := make(chan tea.Msg, 16)
	push := func(msg tea.Msg) {
		select {
		case updates <- msg:
		default: // UI is behind; drop in favor of the next snapshot
		}
	}

	stop := poller.Start(ctx,
		func(jobs []model.Job) { push(jobsMsg(jobs)) },
		func(err error) { push(pollErrMsg{err: err}) },
	)
	defer stop()

	_, err := tea.NewProgram(newWatchModel(ctx, poller, updates), tea.WithAltScreen()).Run()
	return err
}
