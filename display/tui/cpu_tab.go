package tui

import (
	"fmt"
	"strings"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/display/widgets"
)

// renderCPU shows the CPU history chart, load and per-core usage.
func (m Model) renderCPU(width int, lay LayoutConfig) string {
	sections := []string{
		m.bigChart(sysmetrics.CPUUsagePercent, width, lay.ChartHeight, m.opts.Theme.Secondary),
		"",
		m.metricRow(sysmetrics.LoadAvg1, width, lay.LabelWidth),
		m.metricRow(sysmetrics.ProcessCount, width, lay.LabelWidth),
	}

	if lay.ShowCores && len(m.cores) > 0 {
		sections = append(sections, "", m.styles.title.Render(sectionTitle("Cores", width)))
		g := widgets.NewGauge(lay.GaugeWidth)
		// Two gauges per line when there is room.
		perLine := 1
		if width >= 2*(lay.GaugeWidth+16) {
			perLine = 2
		}
		var row []string
		for i, pct := range m.cores {
			g.Label = fmt.Sprintf("%-7s", fmt.Sprintf("core %d", i))
			row = append(row, g.Render(pct))
			if len(row) == perLine {
				sections = append(sections, strings.Join(row, "   "))
				row = nil
			}
		}
		if len(row) > 0 {
			sections = append(sections, strings.Join(row, "   "))
		}
	}
	return strings.Join(sections, "\n")
}
