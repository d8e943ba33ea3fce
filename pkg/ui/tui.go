package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/lp-portfolio/business/portfolio/domain"
	"github.com/fd1az/lp-portfolio/pkg/ui/components"
)

// LoadTimeout bounds one report build.
const LoadTimeout = 2 * time.Minute

// Loader builds the report shown by the TUI.
type Loader func(ctx context.Context) (domain.Report, error)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReport  Phase = "report"
	PhaseError   Phase = "error"
)

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctx     context.Context
	account string
	load    Loader

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	table   table.Model

	phase      Phase
	report     domain.Report
	elapsed    time.Duration
	err        error
	showDetail bool
	width      int
}

// New creates a new TUI model for account.
func New(ctx context.Context, account string, load Loader) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	t := table.New(
		table.WithColumns(components.Columns()),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(ColorBorder).BorderBottom(true).Bold(true)
	st.Selected = st.Selected.Foreground(lipgloss.Color("#FFFFFF")).Background(ColorPrimary)
	t.SetStyles(st)

	return Model{
		ctx:     ctx,
		account: account,
		load:    load,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		table:   t,
		phase:   PhaseLoading,
	}
}

// Init starts the spinner and the first load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, LoadTimeout)
		defer cancel()

		start := time.Now()
		r, err := m.load(ctx)
		if err != nil {
			return ErrorMsg{Error: err}
		}
		return ReportMsg{Report: r, Elapsed: time.Since(start)}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			if m.phase == PhaseLoading {
				return m, nil
			}
			m.phase = PhaseLoading
			m.showDetail = false
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		case key.Matches(msg, m.keys.Detail):
			if m.phase == PhaseReport {
				m.showDetail = !m.showDetail
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case spinner.TickMsg:
		if m.phase != PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ReportMsg:
		m.phase = PhaseReport
		m.report = msg.Report
		m.elapsed = msg.Elapsed
		m.err = nil
		m.table.SetRows(components.Rows(msg.Report.Items))
		m.table.SetCursor(0)
		return m, nil

	case ErrorMsg:
		m.phase = PhaseError
		m.err = msg.Error
		return m, nil
	}

	if m.phase == PhaseReport {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// selected returns the item under the cursor.
func (m Model) selected() (domain.Item, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.report.Items) {
		return domain.Item{}, false
	}
	return m.report.Items[i], true
}

// View renders the TUI.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("LP Portfolio"))
	b.WriteString(" ")
	b.WriteString(MutedValue.Render(m.account))
	b.WriteString("\n\n")

	switch m.phase {
	case PhaseLoading:
		fmt.Fprintf(&b, "%s building report…\n", m.spinner.View())
	case PhaseError:
		b.WriteString(ErrorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case PhaseReport:
		b.WriteString(m.reportView())
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) reportView() string {
	var b strings.Builder

	if len(m.report.Items) == 0 {
		b.WriteString(MutedValue.Render("no positions"))
		b.WriteString("\n")
	} else {
		b.WriteString(BoxStyle.Render(m.table.View()))
		b.WriteString("\n")
	}
	b.WriteString(components.Summary(m.report.Totals))
	b.WriteString("\n")
	b.WriteString(MutedValue.Render(fmt.Sprintf("generated %s in %s",
		m.report.GeneratedAt.Format(time.RFC3339), m.elapsed.Round(time.Millisecond))))
	b.WriteString("\n")

	if n := len(m.report.Unresolved); n > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("! %d position(s) could not be resolved: %s",
			n, strings.Join(m.report.Unresolved, ", "))))
		b.WriteString("\n")
	}
	if n := len(m.report.MissingPrices); n > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("? %d token(s) without a price, valued at zero", n)))
		b.WriteString("\n")
	}

	if m.showDetail {
		it, ok := m.selected()
		switch {
		case !ok:
		case it.CloseOut == "":
			b.WriteString(MutedValue.Render("no close-out manifest for " + it.Name))
			b.WriteString("\n")
		default:
			b.WriteString(ManifestStyle.Render(strings.TrimRight(it.CloseOut, "\n")))
			b.WriteString("\n")
		}
	}
	return b.String()
}
