package tui

import "strings"

// LayoutSize represents a responsive breakpoint for terminal width.
type LayoutSize int

const (
	// LayoutCompact is used for terminals narrower than 60 characters.
	LayoutCompact LayoutSize = iota
	// LayoutNormal is used for terminals between 60 and 120 characters wide.
	LayoutNormal
	// LayoutWide is used for terminals wider than 120 characters.
	LayoutWide
)

// DetectLayout returns the appropriate LayoutSize for the given terminal width.
func DetectLayout(width int) LayoutSize {
	switch {
	case width < 60:
		return LayoutCompact
	case width <= 120:
		return LayoutNormal
	default:
		return LayoutWide
	}
}

// LayoutConfig holds responsive layout values that adapt to terminal size.
type LayoutConfig struct {
	// GaugeWidth is the character width for gauge bars.
	GaugeWidth int
	// LabelWidth is the width of the metric label column.
	LabelWidth int
	// ChartHeight is the row count of the large history charts.
	ChartHeight int
	// ShowCores controls whether per-core gauges are drawn on the CPU tab.
	ShowCores bool
}

// LayoutForSize returns a LayoutConfig for the given breakpoint and content height.
func LayoutForSize(size LayoutSize, height int) LayoutConfig {
	var cfg LayoutConfig
	switch size {
	case LayoutCompact:
		cfg = LayoutConfig{GaugeWidth: 10, LabelWidth: 10, ChartHeight: 3}
	case LayoutWide:
		cfg = LayoutConfig{GaugeWidth: 30, LabelWidth: 14, ChartHeight: 10, ShowCores: true}
	default:
		cfg = LayoutConfig{GaugeWidth: 20, LabelWidth: 12, ChartHeight: 6, ShowCores: true}
	}
	// Leave room for titles and tables below the charts.
	if limit := height / 3; limit > 0 && cfg.ChartHeight > limit {
		cfg.ChartHeight = limit
	}
	return cfg
}

// sectionTitle renders a centered title with horizontal rules on either side.
// Format: "──── Title ────"
func sectionTitle(title string, width int) string {
	if width <= 0 {
		return title
	}

	decorLen := len([]rune(title)) + 2
	if decorLen >= width {
		return title
	}

	remaining := width - decorLen
	left := strings.Repeat("─", remaining/2)
	right := strings.Repeat("─", remaining-remaining/2)
	return left + " " + title + " " + right
}
