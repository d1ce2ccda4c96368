package tui

import (
	"fmt"
	"strings"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysinfo"
	"gitlab.com/tinyland/lab/sysmon/display/widgets"
	"gitlab.com/tinyland/lab/sysmon/internal/format"
)

// renderProcesses shows the process table from procOffset, fitted to height.
func (m Model) renderProcesses(width, height int) string {
	order := "CPU"
	if m.sortBy == sysinfo.SortByMemory {
		order = "memory"
	}
	title := m.styles.title.Render(sectionTitle(fmt.Sprintf("Processes by %s", order), width))
	if len(m.procs) == 0 {
		return title + "\n" + m.styles.muted.Render("No process data yet")
	}

	// Title, header and rule take three rows.
	visible := max(height-3, 1)
	start := min(m.procOffset, len(m.procs)-1)
	end := min(start+visible, len(m.procs))

	tbl := widgets.NewTable(
		widgets.Column{Title: "PID", Right: true},
		widgets.Column{Title: "Name"},
		widgets.Column{Title: "CPU", Right: true},
		widgets.Column{Title: "Memory", Right: true},
	)
	tbl.MaxWidth = width
	for _, p := range m.procs[start:end] {
		tbl.Rows = append(tbl.Rows, []string{
			fmt.Sprint(p.PID),
			p.Name,
			format.Percent(p.CPUPercent),
			format.Bytes(p.RSS),
		})
	}
	return strings.Join([]string{title, tbl.Render()}, "\n")
}
