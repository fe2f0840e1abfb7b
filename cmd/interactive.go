// Copyright © 2025 Jake Rogers <code@supportoss.org>
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakeTRogers/importBuddy/checker"
	"github.com/JakeTRogers/importBuddy/logger"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// resultMsg carries the outcome of one load attempt back to the model.
type resultMsg checker.Result

// interactiveModel is the Bubbletea model for the interactive check view.
type interactiveModel struct {
	// Run setup
	checker *checker.Checker
	ctx     context.Context
	pkg     string
	names   []string

	// Progress of the current run
	results []checker.Result
	running bool
	runs    int
	report  *checker.Report // last run whose attempts all resolved

	// UI State
	spinner spinner.Model
	cursor  int
	width   int
	height  int

	quitting bool
}

// Key bindings
type interactiveKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Rerun key.Binding
	Quit  key.Binding
}

var interactiveKeys = interactiveKeyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Rerun: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "re-run")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // Bright pink
			Bold(true)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// initInteractiveModel creates a new interactive model
func initInteractiveModel(ctx context.Context, c *checker.Checker, pkg string, names []string) interactiveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cursorStyle

	m := interactiveModel{
		checker: c,
		ctx:     ctx,
		pkg:     pkg,
		names:   append([]string{}, names...), // Copy
		spinner: s,
		width:   80,
		height:  24,
	}
	// Init cannot return a model, so the first run starts here
	m.resetRun()
	return m
}

// resetRun clears the progress of the previous run and marks a new one
// running. The previous report stays until the new run completes.
func (m *interactiveModel) resetRun() {
	m.results = make([]checker.Result, 0, len(m.names))
	m.running = true
	m.runs++
}

// startRun resets progress and returns the command for the first attempt.
func (m *interactiveModel) startRun() tea.Cmd {
	m.resetRun()
	return m.checkNext()
}

// checkNext returns a command attempting the next unchecked name. Attempts
// are issued one at a time; the following one starts only when this result
// arrives.
func (m interactiveModel) checkNext() tea.Cmd {
	if len(m.results) >= len(m.names) {
		return nil
	}
	c, ctx, pkg, name := m.checker, m.ctx, m.pkg, m.names[len(m.results)]
	return func() tea.Msg {
		return resultMsg(c.CheckOne(ctx, pkg, name))
	}
}

// Init implements tea.Model
func (m interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.checkNext())
}

// Update implements tea.Model
func (m interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case resultMsg:
		if !m.running {
			return m, nil
		}
		m.results = append(m.results, checker.Result(msg))
		if len(m.results) < len(m.names) {
			return m, m.checkNext()
		}
		m.running = false
		m.report = checker.NewReport(m.pkg, m.results)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, interactiveKeys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, interactiveKeys.Up):
			m.moveCursorUp()
			return m, nil

		case key.Matches(msg, interactiveKeys.Down):
			m.moveCursorDown()
			return m, nil

		case key.Matches(msg, interactiveKeys.Rerun):
			if m.running {
				return m, nil
			}
			return m, m.startRun()
		}
	}

	return m, nil
}

func (m *interactiveModel) moveCursorUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *interactiveModel) moveCursorDown() {
	if m.cursor < len(m.names)-1 {
		m.cursor++
	}
}

// rowStatus renders the status column for row i.
func (m interactiveModel) rowStatus(i int) string {
	switch {
	case i < len(m.results):
		if m.results[i].OK() {
			return passStyle.Render("PASS")
		}
		return failStyle.Render("FAIL")
	case i == len(m.results) && m.running:
		return m.spinner.View() + "   "
	default:
		return dimStyle.Render("··· ")
	}
}

// visibleRange returns the slice of rows that fits the window around the cursor.
func (m interactiveModel) visibleRange() (int, int) {
	visible := m.height - 10 // title, summary, detail and help
	if visible < 5 {
		visible = 5
	}
	if visible >= len(m.names) {
		return 0, len(m.names)
	}
	start := m.cursor - visible/2
	if start < 0 {
		start = 0
	}
	end := start + visible
	if end > len(m.names) {
		end = len(m.names)
		start = end - visible
	}
	return start, end
}

// View implements tea.Model
func (m interactiveModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("📦 Submodules of %s", m.pkg)))
	b.WriteString("\n")

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		prefix := "  "
		name := m.names[i]
		if i == m.cursor {
			prefix = cursorStyle.Render("▸ ")
			name = cursorStyle.Render(name)
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", prefix, m.rowStatus(i), name))
	}

	b.WriteString("\n")
	b.WriteString(m.renderSummary())
	if detail := m.renderDetail(); detail != "" {
		b.WriteString("\n")
		b.WriteString(detail)
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

// renderSummary renders the progress or final summary line.
func (m interactiveModel) renderSummary() string {
	if m.running || m.report == nil {
		return dimStyle.Render(fmt.Sprintf("checking %d/%d…", len(m.results)+1, len(m.names)))
	}
	summary := formatSummary(m.report)
	if m.report.OK {
		return passStyle.Render(summary)
	}
	return failStyle.Render(summary)
}

// renderDetail renders the failure detail of the row under the cursor.
func (m interactiveModel) renderDetail() string {
	if m.cursor >= len(m.results) || m.results[m.cursor].OK() {
		return ""
	}
	res := m.results[m.cursor]
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	return detailStyle.Width(width).Render(fmt.Sprintf("%s\n%s", res.Qualified, res.Detail))
}

// renderHelp renders the help bar at the bottom
func (m interactiveModel) renderHelp() string {
	parts := []string{"↑↓: navigate"}
	if !m.running {
		parts = append(parts, "r: re-run")
	}
	parts = append(parts, "q: quit")
	return helpStyle.Render(strings.Join(parts, " • "))
}

// runInteractive starts the interactive view and returns the report of the
// last run that completed, or nil if none did.
func runInteractive(ctx context.Context, c *checker.Checker, log *zerolog.Logger) (*checker.Report, error) {
	// Disable logging before starting TUI to prevent interference with display
	log.Warn().Msg("disabling logging for interactive view")
	logger.Disable()

	model := initInteractiveModel(ctx, c, parentPackage, submodules)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running interactive view: %w", err)
	}

	m, ok := finalModel.(interactiveModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type: %T", finalModel)
	}

	return m.report, nil
}

// NewInteractiveCmd creates and returns a new interactive command.
// Each call returns a fresh instance for test isolation.
func NewInteractiveCmd() *cobra.Command {
	log := logger.GetLogger()

	interactiveCmd := &cobra.Command{
		Use:   "interactive",
		Short: "Watch submodule checks run one at a time",
		Long: `Run the same checks as the root command in a terminal UI.

Submodules are attempted one at a time in order. Each row shows PASS or FAIL as soon as its attempt
finishes; the summary appears once every attempt has finished.

Navigation:
  - ↑/↓ or j/k: Move the cursor; a failed row shows its error below the list
  - r: Re-run every check
  - q: Quit

The exit code follows the last run that completed.

Example:
  $ importBuddy interactive --python-path /opt/zinc/lib`,
		Args:    cobra.NoArgs,
		PreRunE: validateSettings,
	}

	// runInteractiveCmd executes the interactive command.
	runInteractiveCmd := func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ld, err := newLoader(loaderName)
		if err != nil {
			return err
		}
		c := checker.New(ld, checker.WithTimeout(timeout))
		if err := checker.Validate(parentPackage, submodules); err != nil {
			return err
		}

		report, err := runInteractive(ctx, c, log)
		if err != nil {
			return errors.Wrap(err, "interactive view failed")
		}
		cmd.SilenceUsage = true
		if report == nil {
			return errors.New("quit before the checks finished")
		}

		fmt.Fprintln(cmd.OutOrStdout(), formatSummary(report))
		return reportError(report)
	}

	interactiveCmd.RunE = runInteractiveCmd
	addCheckFlags(interactiveCmd.Flags())

	return interactiveCmd
}
