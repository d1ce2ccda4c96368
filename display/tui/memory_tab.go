package tui

import (
	"strings"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/internal/format"
)

// renderMemory shows the memory history chart with used, total and swap.
func (m Model) renderMemory(width int, lay LayoutConfig) string {
	sections := []string{
		m.bigChart(sysmetrics.MemoryUsedPercent, width, lay.ChartHeight, m.opts.Theme.Primary),
		"",
	}

	used := format.Gap
	if snap, ok := m.snaps[sysmetrics.MemoryUsedBytes]; ok {
		used = format.Latest(snap)
	}
	total := format.Gap
	if m.host != nil && m.host.TotalMemory > 0 {
		total = format.Bytes(m.host.TotalMemory)
	}
	sections = append(sections,
		m.styles.label.Render("Used")+" "+used+" of "+total,
		m.metricRow(sysmetrics.MemoryUsedBytes, width, lay.LabelWidth),
		m.metricRow(sysmetrics.SwapUsedBytes, width, lay.LabelWidth),
		m.metricRow(sysmetrics.DiskUsedPercent, width, lay.LabelWidth),
	)
	return strings.Join(sections, "\n")
}
