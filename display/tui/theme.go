package tui

import "github.com/charmbracelet/lipgloss"

// Theme is a named color scheme for the dashboard.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	// Series colors for the upload and download charts.
	Upload   lipgloss.Color
	Download lipgloss.Color
	// Compact drops content padding and the header rule.
	Compact bool
}

// Built-in themes.
var (
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   lipgloss.Color("#7C3AED"),
		Secondary: lipgloss.Color("#06B6D4"),
		Muted:     lipgloss.Color("#6B7280"),
		Upload:    lipgloss.Color("#F59E0B"),
		Download:  lipgloss.Color("#22C55E"),
	}

	MinimalTheme = Theme{
		Name:      "minimal",
		Primary:   lipgloss.Color("#8B5CF6"),
		Secondary: lipgloss.Color("#67E8F9"),
		Muted:     lipgloss.Color("#9CA3AF"),
		Upload:    lipgloss.Color("#FCD34D"),
		Download:  lipgloss.Color("#4ADE80"),
		Compact:   true,
	}
)

var themes = []Theme{DarkTheme, MinimalTheme}

// ThemeNames lists the built-in theme names.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// ThemeByName returns the named theme, or DarkTheme when unknown.
func ThemeByName(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return DarkTheme
}

// styles are the lipgloss styles derived from a Theme.
type styles struct {
	activeTab   lipgloss.Style
	inactiveTab lipgloss.Style
	header      lipgloss.Style
	footer      lipgloss.Style
	content     lipgloss.Style
	title       lipgloss.Style
	label       lipgloss.Style
	muted       lipgloss.Style
}

func newStyles(t Theme) styles {
	s := styles{
		activeTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(t.Primary).
			Padding(0, 2),
		inactiveTab: lipgloss.NewStyle().
			Foreground(t.Muted).
			Padding(0, 2),
		footer: lipgloss.NewStyle().
			Foreground(t.Muted),
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Secondary),
		label: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),
		muted: lipgloss.NewStyle().Foreground(t.Muted),
	}
	if t.Compact {
		s.header = lipgloss.NewStyle()
		s.content = lipgloss.NewStyle().Padding(0, 1)
	} else {
		s.header = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted)
		s.content = lipgloss.NewStyle().Padding(1, 2)
	}
	return s
}
