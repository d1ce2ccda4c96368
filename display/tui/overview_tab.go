package tui

import (
	"strings"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/display/widgets"
	"gitlab.com/tinyland/lab/sysmon/internal/format"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

// overviewGauges are the percentage metrics drawn as bars on the overview.
var overviewGauges = []sampler.MetricID{
	sysmetrics.CPUUsagePercent,
	sysmetrics.MemoryUsedPercent,
	sysmetrics.DiskUsedPercent,
}

// renderOverview shows host identity, usage gauges and a sparkline per metric.
func (m Model) renderOverview(width int, lay LayoutConfig) string {
	var lines []string

	if h := m.host; h != nil {
		lines = append(lines,
			m.styles.title.Render(h.Hostname)+"  "+h.Platform+"  "+h.Kernel,
			m.styles.muted.Render("up "+format.FormatDuration(h.Uptime)+"  ·  "+
				h.CPUModel+"  ·  "+format.Bytes(h.TotalMemory)+" RAM"),
			"",
		)
	}

	for _, id := range overviewGauges {
		snap, ok := m.snaps[id]
		if !ok {
			continue
		}
		g := widgets.NewGauge(lay.GaugeWidth)
		g.Label = format.PadRight(labelFor(id), lay.LabelWidth)
		lines = append(lines, g.Render(latestValue(snap)))
	}

	lines = append(lines, "", m.styles.title.Render(sectionTitle("History", width)))
	for _, id := range m.order {
		lines = append(lines, m.metricRow(id, width, lay.LabelWidth))
	}
	return strings.Join(lines, "\n")
}
