package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Threshold colors shared by gauges and the TUI theme.
var (
	ColorOK      = lipgloss.Color("#22C55E")
	ColorWarning = lipgloss.Color("#EAB308")
	ColorDanger  = lipgloss.Color("#EF4444")
	ColorGap     = lipgloss.Color("#6B7280")
)

// Gauge is a horizontal usage bar for a 0-100 percentage.
type Gauge struct {
	// Width is the bar width in cells (default 20).
	Width int
	// Label is printed before the bar.
	Label string
	// Warning and Danger are the percentages at which the bar changes color.
	Warning float64
	Danger  float64
	// HidePercent suppresses the trailing "NN%" text.
	HidePercent bool
}

// NewGauge returns a gauge with 70/90 thresholds.
func NewGauge(width int) Gauge {
	return Gauge{Width: width, Warning: 70, Danger: 90}
}

// LevelColor returns the threshold color for pct.
func (g Gauge) LevelColor(pct float64) lipgloss.Color {
	switch {
	case math.IsNaN(pct):
		return ColorGap
	case g.Danger > 0 && pct >= g.Danger:
		return ColorDanger
	case g.Warning > 0 && pct >= g.Warning:
		return ColorWarning
	default:
		return ColorOK
	}
}

// Render draws the bar for pct. NaN renders an empty grey bar with "--".
func (g Gauge) Render(pct float64) string {
	width := g.Width
	if width <= 0 {
		width = 20
	}

	gap := math.IsNaN(pct)
	filled := 0
	if !gap {
		pct = math.Max(0, math.Min(100, pct))
		filled = int(math.Round(pct / 100 * float64(width)))
	}

	var sb strings.Builder
	if g.Label != "" {
		sb.WriteString(g.Label)
		sb.WriteByte(' ')
	}
	style := lipgloss.NewStyle().Foreground(g.LevelColor(pct))
	sb.WriteString(style.Render(strings.Repeat("█", filled)))
	sb.WriteString(lipgloss.NewStyle().Foreground(ColorGap).Render(strings.Repeat("░", width-filled)))

	if !g.HidePercent {
		if gap {
			sb.WriteString("   --")
		} else {
			sb.WriteString(fmt.Sprintf(" %3.0f%%", pct))
		}
	}
	return sb.String()
}
