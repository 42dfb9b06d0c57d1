package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"vibedoc.ai/mcpcall/internal/application/services"
)

// DashboardFlags holds command-line flags for the dashboard command
type DashboardFlags struct {
	RefreshRate time.Duration
}

// statusSource is the part of the prober the dashboard needs
type statusSource interface {
	Probe(ctx context.Context) []services.ServiceStatus
}

// NewDashboardCommand creates the dashboard command
func NewDashboardCommand(a *app) *cobra.Command {
	flags := &DashboardFlags{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live terminal view of service health",
		Long: `Launch an interactive terminal dashboard that probes every enabled
service at a fixed interval and shows whether it answers tool calls.

Examples:
  mcpcall dashboard
  mcpcall dashboard --refresh 30s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), a.container.Prober, flags)
		},
	}

	cmd.Flags().DurationVar(&flags.RefreshRate, "refresh", 15*time.Second, "Interval between probe rounds")

	return cmd
}

// runDashboard starts the terminal dashboard
func runDashboard(ctx context.Context, source statusSource, flags *DashboardFlags) error {
	model := newDashboardModel(ctx, source, flags)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}

	return nil
}

// dashboardModel holds the state for the Bubble Tea dashboard
type dashboardModel struct {
	ctx          context.Context
	source       statusSource
	flags        *DashboardFlags
	statuses     []services.ServiceStatus
	selectedRow  int
	paused       bool
	probing      bool
	rounds       int
	lastUpdate   time.Time
	windowWidth  int
	windowHeight int
}

func newDashboardModel(ctx context.Context, source statusSource, flags *DashboardFlags) dashboardModel {
	return dashboardModel{
		ctx:     ctx,
		source:  source,
		flags:   flags,
		probing: true,
	}
}

// Init implements the Bubble Tea init method
func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.probeCmd(),
	)
}

// Update implements the Bubble Tea update method
func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case " ":
			m.paused = !m.paused
			return m, nil

		case "up", "k":
			if m.selectedRow > 0 {
				m.selectedRow--
			}
			return m, nil

		case "down", "j":
			if m.selectedRow < len(m.statuses)-1 {
				m.selectedRow++
			}
			return m, nil

		case "r":
			return m.startProbe()
		}

	case tickMsg:
		if m.paused {
			return m, m.tickCmd()
		}
		next, cmd := m.startProbe()
		return next, tea.Batch(m.tickCmd(), cmd)

	case statusesLoadedMsg:
		m.statuses = msg.statuses
		m.lastUpdate = msg.at
		m.probing = false
		m.rounds++
		if m.selectedRow >= len(m.statuses) {
			m.selectedRow = max(len(m.statuses)-1, 0)
		}
		return m, nil
	}

	return m, nil
}

// startProbe launches a probe round unless one is already running
func (m dashboardModel) startProbe() (dashboardModel, tea.Cmd) {
	if m.probing {
		return m, nil
	}
	m.probing = true
	return m, m.probeCmd()
}

// View implements the Bubble Tea view method
func (m dashboardModel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderStatusTable(),
		m.renderFooter(),
	)
}

func (m dashboardModel) renderHeader() string {
	title := titleStyle.Render("mcpcall Dashboard")

	var online int
	for _, s := range m.statuses {
		if s.Online {
			online++
		}
	}
	info := fmt.Sprintf("Services: %d | Online: %d | Rounds: %d", len(m.statuses), online, m.rounds)

	status, style := "LIVE", okStyle
	switch {
	case m.paused:
		status, style = "PAUSED", failStyle
	case m.probing:
		status = "PROBING"
	}

	line1 := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", info, "  ", style.Render(status))

	updated := "never"
	if !m.lastUpdate.IsZero() {
		updated = m.lastUpdate.Format("15:04:05")
	}
	line2 := fmt.Sprintf("Last Update: %s | Refresh Rate: %v", updated, m.flags.RefreshRate)

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2, "")
}

func (m dashboardModel) renderStatusTable() string {
	if len(m.statuses) == 0 {
		return mutedStyle.Render("\n  No results yet. Probing services...\n")
	}
	return renderStatusTable(m.statuses, m.selectedRow)
}

func (m dashboardModel) renderFooter() string {
	controls := hintStyle.Render("Controls: [Space] Pause/Resume | [↑↓] Navigate | [r] Refresh | [q] Quit")
	return lipgloss.JoinVertical(lipgloss.Left, "", controls)
}

// tickMsg is sent every refresh interval
type tickMsg time.Time

func (m dashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.flags.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// statusesLoadedMsg carries one finished probe round
type statusesLoadedMsg struct {
	statuses []services.ServiceStatus
	at       time.Time
}

func (m dashboardModel) probeCmd() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		return statusesLoadedMsg{statuses: source.Probe(ctx), at: time.Now()}
	}
}
