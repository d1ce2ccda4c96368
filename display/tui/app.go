// Package tui is the interactive sysmon dashboard. It only ever reads the
// sampler through sampler.Reader; recording happens on the scheduler goroutine.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysinfo"
	"gitlab.com/tinyland/lab/sysmon/display/widgets"
	"gitlab.com/tinyland/lab/sysmon/internal/format"
	"gitlab.com/tinyland/lab/sysmon/sampler"
	"gitlab.com/tinyland/lab/sysmon/status"
)

// Tab identifies which tab is currently active.
type Tab int

const (
	TabOverview Tab = iota
	TabCPU
	TabMemory
	TabNetwork
	TabProcesses
	tabCount // sentinel for wrapping
)

// tabNames maps each Tab value to its display label.
var tabNames = map[Tab]string{
	TabOverview:  "Overview",
	TabCPU:       "CPU",
	TabMemory:    "Memory",
	TabNetwork:   "Network",
	TabProcesses: "Processes",
}

func tabZoneID(t Tab) string {
	return fmt.Sprintf("tab-%d", int(t))
}

// Inspector reads point-in-time system details. *sysinfo.Inspector satisfies it.
type Inspector interface {
	Host(ctx context.Context) (sysinfo.HostInfo, error)
	CoreUsage(ctx context.Context) ([]float64, error)
	Processes(ctx context.Context, limit int, sortBy sysinfo.SortBy) ([]sysinfo.ProcessInfo, error)
	Interfaces(ctx context.Context) ([]sysinfo.InterfaceInfo, error)
}

// Options configures the dashboard.
type Options struct {
	// Refresh is the snapshot interval (default 1s).
	Refresh      time.Duration
	ProcessLimit int
	ProcessSort  sysinfo.SortBy
	// Mouse enables clickable tabs.
	Mouse bool
	Theme Theme
}

// Model is the top-level Bubbletea model for the dashboard.
type Model struct {
	reader    sampler.Reader
	inspector Inspector
	opts      Options
	styles    styles
	zones     *zone.Manager
	help      help.Model
	now       func() time.Time

	activeTab Tab
	width     int
	height    int
	ready     bool

	order  []sampler.MetricID
	snaps  map[sampler.MetricID]sampler.Snapshot
	host   *sysinfo.HostInfo
	cores  []float64
	procs  []sysinfo.ProcessInfo
	ifaces []sysinfo.InterfaceInfo

	health status.SystemStatus

	sortBy      sysinfo.SortBy
	procOffset  int
	detailErr   error
	lastUpdated time.Time
}

// NewModel returns a Model on the Overview tab.
func NewModel(r sampler.Reader, in Inspector, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = time.Second
	}
	if opts.ProcessSort == "" {
		opts.ProcessSort = sysinfo.SortByCPU
	}
	if opts.Theme.Name == "" {
		opts.Theme = DarkTheme
	}
	zm := zone.New()
	zm.SetEnabled(opts.Mouse)
	return Model{
		reader:    r,
		inspector: in,
		opts:      opts,
		styles:    newStyles(opts.Theme),
		zones:     zm,
		help:      help.New(),
		now:       time.Now,
		activeTab: TabOverview,
		snaps:     map[sampler.MetricID]sampler.Snapshot{},
		sortBy:    opts.ProcessSort,
		health:    status.SystemStatus{Overall: status.LevelUnknown},
	}
}

// Init implements tea.Model. It loads data immediately and starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tickCmd(m.opts.Refresh))
}

func (m Model) refresh() tea.Cmd {
	cmds := []tea.Cmd{snapshotCmd(m.reader, m.now)}
	if m.inspector != nil {
		cmds = append(cmds, detailsCmd(m.inspector, m.opts.ProcessLimit, m.sortBy))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tea.Batch(m.refresh(), tickCmd(m.opts.Refresh))

	case snapshotMsg:
		m.order = msg.order
		m.snaps = msg.snaps
		m.lastUpdated = msg.at
		m.health = m.evaluate()

	case detailsMsg:
		if msg.host != nil {
			m.host = msg.host
		}
		if msg.cores != nil {
			m.cores = msg.cores
		}
		if msg.procs != nil {
			m.procs = msg.procs
			m.clampOffset()
		}
		if msg.ifaces != nil {
			m.ifaces = msg.ifaces
		}
		m.detailErr = msg.err
		m.health = m.evaluate()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		for t := Tab(0); t < tabCount; t++ {
			if m.zones.Get(tabZoneID(t)).InBounds(msg) {
				m.activeTab = t
				break
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.NextTab):
		m.activeTab = (m.activeTab + 1) % tabCount
	case key.Matches(msg, keys.PrevTab):
		m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
	case key.Matches(msg, keys.Overview):
		m.activeTab = TabOverview
	case key.Matches(msg, keys.CPU):
		m.activeTab = TabCPU
	case key.Matches(msg, keys.Memory):
		m.activeTab = TabMemory
	case key.Matches(msg, keys.Network):
		m.activeTab = TabNetwork
	case key.Matches(msg, keys.Processes):
		m.activeTab = TabProcesses
	case key.Matches(msg, keys.ScrollDown):
		m.procOffset++
		m.clampOffset()
	case key.Matches(msg, keys.ScrollUp):
		if m.procOffset > 0 {
			m.procOffset--
		}
	case key.Matches(msg, keys.GoTop):
		m.procOffset = 0
	case key.Matches(msg, keys.Sort):
		if m.sortBy == sysinfo.SortByCPU {
			m.sortBy = sysinfo.SortByMemory
		} else {
			m.sortBy = sysinfo.SortByCPU
		}
		m.procOffset = 0
		return m, m.refresh()
	case key.Matches(msg, keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// evaluate grades the current snapshots, scaling load by the core count.
func (m Model) evaluate() status.SystemStatus {
	cfg := status.DefaultEvaluatorConfig()
	if m.host != nil {
		cfg.LogicalCores = m.host.LogicalCores
	}
	snaps := make([]sampler.Snapshot, 0, len(m.order))
	for _, id := range m.order {
		if snap, ok := m.snaps[id]; ok {
			snaps = append(snaps, snap)
		}
	}
	return status.NewEvaluator(cfg).Evaluate(snaps)
}

func (m *Model) clampOffset() {
	if maxOff := len(m.procs) - 1; m.procOffset > maxOff {
		m.procOffset = max(maxOff, 0)
	}
}

// View implements tea.Model. It renders the header, active tab content, and footer.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	content := m.renderTabContent(max(bodyHeight, 1))

	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, header, content, footer))
}

// renderHeader renders the tab bar with the active tab highlighted.
func (m Model) renderHeader() string {
	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		style := m.styles.inactiveTab
		if t == m.activeTab {
			style = m.styles.activeTab
		}
		tabs = append(tabs, m.zones.Mark(tabZoneID(t), style.Render(tabNames[t])))
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return m.styles.header.Width(m.width).Render(tabBar + "  " + m.renderHealth())
}

// renderHealth renders the overall level and the worst metric's reason.
func (m Model) renderHealth() string {
	var color lipgloss.Color
	switch m.health.Overall {
	case status.LevelHealthy:
		color = widgets.ColorOK
	case status.LevelWarning:
		color = widgets.ColorWarning
	case status.LevelCritical:
		color = widgets.ColorDanger
	default:
		color = widgets.ColorGap
	}
	badge := lipgloss.NewStyle().Foreground(color).Render("● " + m.health.Overall.String())
	if worst, ok := m.health.Worst(); ok && worst.Level != status.LevelHealthy {
		badge += " " + m.styles.muted.Render(worst.Reason)
	}
	return badge
}

// renderTabContent delegates to the renderer for the active tab.
func (m Model) renderTabContent(height int) string {
	frameW, frameH := m.styles.content.GetFrameSize()
	width := max(m.width-frameW, 10)
	height = max(height-frameH, 1)
	lay := LayoutForSize(DetectLayout(m.width), height)

	var content string
	switch m.activeTab {
	case TabOverview:
		content = m.renderOverview(width, lay)
	case TabCPU:
		content = m.renderCPU(width, lay)
	case TabMemory:
		content = m.renderMemory(width, lay)
	case TabNetwork:
		content = m.renderNetwork(width, lay)
	case TabProcesses:
		content = m.renderProcesses(width, height)
	}

	return m.styles.content.Width(m.width).Height(height + frameH).Render(content)
}

// renderFooter renders key help, the age of the last refresh and any detail error.
func (m Model) renderFooter() string {
	line := m.help.View(keys)
	if !m.lastUpdated.IsZero() {
		line += "  Updated: " + format.FormatAge(m.lastUpdated, m.now())
	}
	if m.detailErr != nil {
		line += "  (some details unavailable)"
	}
	return m.styles.footer.Width(m.width).Render(line)
}
