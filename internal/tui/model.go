package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"salespulse/internal/kpi"
)

// Backend is the dashboard session the terminal view reads from.
type Backend interface {
	Snapshot() *kpi.Snapshot
	Refresh(ctx context.Context) (*kpi.Snapshot, error)
	Report(ae, month string) (kpi.Report, error)
	ActiveDeals(ae, month string, key kpi.SortKey, dir kpi.SortDirection) ([]kpi.DealRow, error)
	AccountExecutives() []string
	Now() time.Time
}

// pollInterval is how often the view checks for a snapshot published by the background
// refresher.
const pollInterval = 5 * time.Second

var sortCycle = []kpi.SortKey{kpi.SortNone, kpi.SortStage, kpi.SortRisk, kpi.SortAge}

type keyMap struct {
	NextAE    key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Sort      key.Binding
	Direction key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextAE, k.PrevMonth, k.NextMonth, k.Sort, k.Direction, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	NextAE:    key.NewBinding(key.WithKeys("a", "tab"), key.WithHelp("a", "next AE")),
	PrevMonth: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev month")),
	NextMonth: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next month")),
	Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
	Direction: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "asc/desc")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type refreshedMsg struct {
	err error
}

type pollMsg time.Time

// Model is the bubbletea model of the terminal dashboard.
type Model struct {
	backend Backend
	ctx     context.Context

	aes     []string
	aeIndex int
	month   string
	sortKey kpi.SortKey
	sortDir kpi.SortDirection

	report     kpi.Report
	snapshotID string
	table      table.Model
	help       help.Model

	refreshing bool
	err        error
	width      int
	height     int
}

// New builds the model for the current month and all AEs.
func New(ctx context.Context, backend Backend) Model {
	t := table.New(
		table.WithColumns(dealColumns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m := Model{
		backend: backend,
		ctx:     ctx,
		month:   kpi.CurrentMonth(backend.Now()).Month(),
		sortDir: kpi.SortAsc,
		table:   t,
		help:    help.New(),
	}
	m.reload()
	return m
}

var dealColumns = []table.Column{
	{Title: "ID", Width: 8},
	{Title: "Name", Width: 22},
	{Title: "Stage", Width: 18},
	{Title: "Owner", Width: 10},
	{Title: "Created", Width: 10},
	{Title: "Days", Width: 5},
	{Title: "Risk", Width: 14},
}

// Filter is the selected AE, "all" for the whole team.
func (m Model) Filter() string {
	if m.aeIndex == 0 || m.aeIndex > len(m.aes) {
		return kpi.AllAEs
	}
	return m.aes[m.aeIndex-1]
}

// reload recomputes the report and table for the current selection.
func (m *Model) reload() {
	m.aes = m.backend.AccountExecutives()
	if m.aeIndex > len(m.aes) {
		m.aeIndex = 0
	}
	if snap := m.backend.Snapshot(); snap != nil {
		m.snapshotID = snap.ID
	}

	report, err := m.backend.Report(m.Filter(), m.month)
	if err != nil {
		m.err = err
		m.table.SetRows(nil)
		return
	}
	m.report = report
	m.err = nil

	rows, err := m.backend.ActiveDeals(m.Filter(), m.month, m.sortKey, m.sortDir)
	if err != nil {
		m.err = err
		return
	}
	m.table.SetRows(dealRows(rows))
}

func dealRows(rows []kpi.DealRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{
			r.ID,
			r.Name,
			string(r.Stage),
			r.Owner,
			r.CreateDate.Format("2006-01-02"),
			fmt.Sprintf("%d", r.DaysInStage),
			r.RiskLabel,
		})
	}
	return out
}

// shiftMonth moves a YYYY-MM month by delta months.
func shiftMonth(month string, delta int) string {
	t, err := time.Parse(kpi.MonthLayout, month)
	if err != nil {
		return month
	}
	return t.AddDate(0, delta, 0).Format(kpi.MonthLayout)
}

func nextSortKey(k kpi.SortKey) kpi.SortKey {
	for i, s := range sortCycle {
		if s == k {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return kpi.SortNone
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		_, err := m.backend.Refresh(m.ctx)
		return refreshedMsg{err: err}
	}
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return poll()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(max(5, msg.Height-24))
		return m, nil

	case refreshedMsg:
		m.refreshing = false
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("Refresh from terminal dashboard failed")
		}
		m.reload()
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case pollMsg:
		if snap := m.backend.Snapshot(); snap != nil && snap.ID != m.snapshotID {
			m.reload()
		}
		return m, poll()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.NextAE):
			m.aeIndex = (m.aeIndex + 1) % (len(m.aes) + 1)
			m.reload()
			return m, nil
		case key.Matches(msg, keys.PrevMonth):
			m.month = shiftMonth(m.month, -1)
			m.reload()
			return m, nil
		case key.Matches(msg, keys.NextMonth):
			m.month = shiftMonth(m.month, 1)
			m.reload()
			return m, nil
		case key.Matches(msg, keys.Sort):
			m.sortKey = nextSortKey(m.sortKey)
			m.reload()
			return m, nil
		case key.Matches(msg, keys.Direction):
			m.sortDir = m.sortDir.Toggle()
			m.reload()
			return m, nil
		case key.Matches(msg, keys.Refresh):
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.refresh()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := headerStyle.Render("Sales KPI Dashboard")
	sortLabel := "none"
	if m.sortKey != kpi.SortNone {
		sortLabel = fmt.Sprintf("%s %s", m.sortKey, m.sortDir)
	}
	meta := subtle.Render(fmt.Sprintf("AE: %s · Month: %s · Sort: %s", m.Filter(), m.month, sortLabel))

	status := subtle.Render(fmt.Sprintf("Source %s · loaded %s", m.report.Source, m.report.LoadedAt.Format("Jan 2 15:04")))
	if m.refreshing {
		status = subtle.Render("Refreshing...")
	}

	parts := []string{header, meta, status}
	if m.report.Diagnostic != "" {
		parts = append(parts, warnStyle.Render(m.report.Diagnostic))
	}
	if m.err != nil {
		parts = append(parts, warnStyle.Render("Error: "+m.err.Error()))
	}
	if len(m.report.Cards) > 0 {
		parts = append(parts, renderCards(m.report.Cards))
	}
	parts = append(parts,
		lipgloss.JoinHorizontal(lipgloss.Top, panel.Render(m.table.View()), panel.Render(m.pipeline())),
		m.help.View(keys),
	)
	return strings.Join(parts, "\n")
}

func (m Model) pipeline() string {
	p := m.report.Pipeline
	lines := []string{
		headerStyle.Render("Pipeline"),
		fmt.Sprintf("Open deals: %d", p.OpenDeals),
		fmt.Sprintf("Open value: $%s", p.OpenValue.StringFixed(0)),
		fmt.Sprintf("Won value:  $%s", p.ClosedWonValue.StringFixed(0)),
		"",
	}
	for _, sc := range p.ByStage {
		if sc.Count == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-18s %3d", sc.Stage, sc.Count))
	}
	return strings.Join(lines, "\n")
}

// Run shows the dashboard until the user quits or ctx is done.
func Run(ctx context.Context, backend Backend) error {
	p := tea.NewProgram(New(ctx, backend), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal dashboard: %w", err)
	}
	return nil
}
