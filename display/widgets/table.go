package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/sysmon/internal/format"
)

// Column defines a single table column.
type Column struct {
	// Title is the header text.
	Title string
	// Width is the fixed width. Zero sizes the column to its content.
	Width int
	// Right aligns cells to the right edge.
	Right bool
}

// Table renders rows of text cells under a header.
type Table struct {
	Columns []Column
	Rows    [][]string
	// MaxWidth shrinks the widest auto-sized column until the table fits. Zero disables.
	MaxWidth int
	// Separator defaults to two spaces.
	Separator   string
	HeaderStyle lipgloss.Style
	// Selected highlights one row index; -1 for none.
	Selected      int
	SelectedStyle lipgloss.Style
}

// NewTable returns a table with a bold header and no selection.
func NewTable(cols ...Column) Table {
	return Table{
		Columns:       cols,
		Separator:     "  ",
		HeaderStyle:   lipgloss.NewStyle().Bold(true),
		Selected:      -1,
		SelectedStyle: lipgloss.NewStyle().Reverse(true),
	}
}

// Render draws the header, a rule and every row.
func (t Table) Render() string {
	if len(t.Columns) == 0 {
		return ""
	}
	sep := t.Separator
	if sep == "" {
		sep = "  "
	}
	widths := t.widths(len([]rune(sep)))

	lines := make([]string, 0, len(t.Rows)+2)
	header := make([]string, len(t.Columns))
	rule := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = cell(c.Title, widths[i], c.Right)
		rule[i] = strings.Repeat("─", widths[i])
	}
	lines = append(lines, t.HeaderStyle.Render(strings.Join(header, sep)), strings.Join(rule, sep))

	for r, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			text := ""
			if i < len(row) {
				text = row[i]
			}
			cells[i] = cell(text, widths[i], c.Right)
		}
		line := strings.Join(cells, sep)
		if r == t.Selected {
			line = t.SelectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func cell(s string, width int, right bool) string {
	if right {
		return format.PadLeft(s, width)
	}
	return format.PadRight(s, width)
}

func (t Table) widths(sepWidth int) []int {
	widths := make([]int, len(t.Columns))
	auto := make([]bool, len(t.Columns))
	total := sepWidth * (len(t.Columns) - 1)
	for i, c := range t.Columns {
		if c.Width > 0 {
			widths[i] = c.Width
		} else {
			auto[i] = true
			w := len([]rune(c.Title))
			for _, row := range t.Rows {
				if i < len(row) && len([]rune(row[i])) > w {
					w = len([]rune(row[i]))
				}
			}
			widths[i] = max(w, 1)
		}
		total += widths[i]
	}

	// Shrink the widest auto column one cell at a time.
	for t.MaxWidth > 0 && total > t.MaxWidth {
		widest := -1
		for i, w := range widths {
			if auto[i] && w > 4 && (widest < 0 || w > widths[widest]) {
				widest = i
			}
		}
		if widest < 0 {
			break
		}
		widths[widest]--
		total--
	}
	return widths
}
