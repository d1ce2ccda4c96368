package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// chartBlocks are the eighth-height block runes used for sub-cell resolution,
// lowest first.
var chartBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// GapRune marks a column whose sample was not observed.
const GapRune = '·'

// ChartConfig controls a history chart.
type ChartConfig struct {
	// Values to plot, oldest first. NaN marks a gap.
	Values []float64
	// Width is the number of columns. Values beyond it are dropped from the
	// old end; fewer values are right-aligned so the newest is at the edge.
	Width int
	// Height is the number of text rows (default 1).
	Height int
	// Max is the value mapped to the top of the chart. Values at or below
	// zero map to the floor. Max <= 0 uses 1.
	Max float64
	// Color styles the bars. Empty renders unstyled.
	Color lipgloss.Color
}

// level maps v to a number of filled eighths out of height*8.
func level(v, peak float64, height int) int {
	total := height * len(chartBlocks)
	n := int(math.Round(v / peak * float64(total)))
	if n < 0 {
		return 0
	}
	if n > total {
		return total
	}
	return n
}

// RenderChart draws values as a bar chart scaled to [0, Max]. Gaps are drawn
// as GapRune on the bottom row and left blank above it.
func RenderChart(cfg ChartConfig) string {
	width := cfg.Width
	if width <= 0 {
		width = len(cfg.Values)
	}
	if width <= 0 {
		return ""
	}
	height := cfg.Height
	if height <= 0 {
		height = 1
	}
	peak := cfg.Max
	if peak <= 0 {
		peak = 1
	}

	values := cfg.Values
	if len(values) > width {
		values = values[len(values)-width:]
	}
	pad := width - len(values)

	rows := make([][]rune, height)
	for r := range rows {
		rows[r] = []rune(strings.Repeat(" ", width))
	}

	for i, v := range values {
		col := pad + i
		if math.IsNaN(v) {
			rows[height-1][col] = GapRune
			continue
		}
		filled := level(v, peak, height)
		// Row 0 is the top; fill from the bottom row upwards.
		for r := height - 1; r >= 0 && filled > 0; r-- {
			if filled >= len(chartBlocks) {
				rows[r][col] = chartBlocks[len(chartBlocks)-1]
				filled -= len(chartBlocks)
				continue
			}
			rows[r][col] = chartBlocks[filled-1]
			filled = 0
		}
		if level(v, peak, height) == 0 {
			rows[height-1][col] = chartBlocks[0]
		}
	}

	lines := make([]string, height)
	for r, row := range rows {
		lines[r] = string(row)
	}
	out := strings.Join(lines, "\n")
	if cfg.Color != "" {
		out = lipgloss.NewStyle().Foreground(cfg.Color).Render(out)
	}
	return out
}

// RenderSparkline draws a single-row chart of values scaled to [0, peak].
func RenderSparkline(values []float64, width int, peak float64) string {
	return RenderChart(ChartConfig{Values: values, Width: width, Height: 1, Max: peak})
}
