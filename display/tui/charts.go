package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/display/widgets"
	"gitlab.com/tinyland/lab/sysmon/internal/format"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

// labelFor returns the display label for id, or the id itself.
func labelFor(id sampler.MetricID) string {
	if d, ok := sysmetrics.Lookup(id); ok {
		return d.Label
	}
	return string(id)
}

// chartMax is the y-axis ceiling: 100 for percentages, otherwise the
// window's peak floored at 1.
func chartMax(snap sampler.Snapshot) float64 {
	if snap.Kind == sampler.KindPercent {
		return 100
	}
	return snap.Max()
}

// latestValue returns the newest value, or NaN for an empty or gap tail.
func latestValue(snap sampler.Snapshot) float64 {
	s, ok := snap.Latest()
	if !ok {
		return math.NaN()
	}
	return s.Value
}

// summary renders "now X  peak Y  gaps N/M" for a snapshot.
func summary(snap sampler.Snapshot) string {
	peak := format.Gap
	if snap.Len() > snap.Gaps() {
		peak = format.Value(snap.Kind, snap.Max())
	}
	return fmt.Sprintf("now %s  peak %s  gaps %d/%d",
		format.Latest(snap), peak, snap.Gaps(), snap.Len())
}

// metricRow renders one labelled sparkline with the latest value on the right.
func (m Model) metricRow(id sampler.MetricID, width, labelWidth int) string {
	const valueWidth = 12
	label := m.styles.label.Render(format.PadRight(labelFor(id), labelWidth))
	snap, ok := m.snaps[id]
	if !ok {
		return label + " " + m.styles.muted.Render("not tracked")
	}
	chartWidth := width - labelWidth - valueWidth - 2
	if chartWidth < 1 {
		return label + " " + format.PadLeft(format.Latest(snap), valueWidth)
	}
	spark := widgets.RenderSparkline(snap.Values(), chartWidth, chartMax(snap))
	return label + " " + spark + " " + format.PadLeft(format.Latest(snap), valueWidth)
}

// bigChart renders a titled multi-row chart of one metric.
func (m Model) bigChart(id sampler.MetricID, width, height int, color lipgloss.Color) string {
	title := m.styles.title.Render(sectionTitle(labelFor(id), width))
	snap, ok := m.snaps[id]
	if !ok {
		return title + "\n" + m.styles.muted.Render("not tracked")
	}
	chart := widgets.RenderChart(widgets.ChartConfig{
		Values: snap.Values(),
		Width:  width,
		Height: height,
		Max:    chartMax(snap),
		Color:  color,
	})
	axis := m.styles.muted.Render(fmt.Sprintf("max %s  ·  %d samples", format.Value(snap.Kind, chartMax(snap)), snap.Capacity))
	return strings.Join([]string{title, chart, axis, summary(snap)}, "\n")
}
