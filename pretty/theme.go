package pretty

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/joshyorko/swarmdash/dashcore"
	"github.com/joshyorko/swarmdash/logbuf"
)

// Theme defines the color palette of the dashboard
// Inspired by Tokyo Night color scheme
type Theme struct {
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor

	TextBright lipgloss.AdaptiveColor
	Text       lipgloss.AdaptiveColor
	TextMuted  lipgloss.AdaptiveColor
	TextDim    lipgloss.AdaptiveColor

	Border    lipgloss.AdaptiveColor
	BorderDim lipgloss.AdaptiveColor
}

// DefaultTheme returns the standard theme
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.AdaptiveColor{Dark: "#82aaff", Light: "#2e7de9"},
		Secondary: lipgloss.AdaptiveColor{Dark: "#c792ea", Light: "#7847bd"},
		Accent:    lipgloss.AdaptiveColor{Dark: "#89ddff", Light: "#007197"},

		Success: lipgloss.AdaptiveColor{Dark: "#c3e88d", Light: "#587539"},
		Warning: lipgloss.AdaptiveColor{Dark: "#ffcb6b", Light: "#8c6c3e"},
		Error:   lipgloss.AdaptiveColor{Dark: "#ff5370", Light: "#f52a65"},
		Info:    lipgloss.AdaptiveColor{Dark: "#89ddff", Light: "#0891b2"},

		TextBright: lipgloss.AdaptiveColor{Dark: "#eeffff", Light: "#343b58"},
		Text:       lipgloss.AdaptiveColor{Dark: "#bfc7d5", Light: "#4c505e"},
		TextMuted:  lipgloss.AdaptiveColor{Dark: "#697098", Light: "#8990a3"},
		TextDim:    lipgloss.AdaptiveColor{Dark: "#4e5579", Light: "#b4b5b9"},

		Border:    lipgloss.AdaptiveColor{Dark: "#5c6370", Light: "#c4c8da"},
		BorderDim: lipgloss.AdaptiveColor{Dark: "#3e4452", Light: "#dfe1e8"},
	}
}

// Styles container for pre-computed styles
type Styles struct {
	Theme Theme

	Panel lipgloss.Style

	Title     lipgloss.Style
	Bright    lipgloss.Style
	Text      lipgloss.Style
	Muted     lipgloss.Style
	Dim       lipgloss.Style
	Connector lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Accent  lipgloss.Style
	Info    lipgloss.Style

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	MeterFilled lipgloss.Style
	MeterEmpty  lipgloss.Style
}

// NewStyles creates a new Styles struct from a Theme
func NewStyles(t Theme) Styles {
	s := Styles{Theme: t}

	s.Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(t.TextBright)
	s.Bright = lipgloss.NewStyle().Foreground(t.TextBright)
	s.Text = lipgloss.NewStyle().Foreground(t.Text)
	s.Muted = lipgloss.NewStyle().Foreground(t.TextMuted)
	s.Dim = lipgloss.NewStyle().Foreground(t.TextDim)
	s.Connector = lipgloss.NewStyle().Foreground(t.BorderDim)

	s.Success = lipgloss.NewStyle().Foreground(t.Success)
	s.Warning = lipgloss.NewStyle().Foreground(t.Warning)
	s.Error = lipgloss.NewStyle().Foreground(t.Error)
	s.Accent = lipgloss.NewStyle().Foreground(t.Accent)
	s.Info = lipgloss.NewStyle().Foreground(t.Info)

	s.TabActive = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	s.TabInactive = lipgloss.NewStyle().Foreground(t.TextMuted).Padding(0, 1)

	s.MeterFilled = lipgloss.NewStyle().Foreground(t.Success)
	s.MeterEmpty = lipgloss.NewStyle().Foreground(t.TextDim)

	return s
}

// PanelStyle is the bordered box used for every dashboard panel.
func (s Styles) PanelStyle(border lipgloss.AdaptiveColor) lipgloss.Style {
	return s.Panel.BorderForeground(border)
}

// Status returns the text style of a task status.
func (s Styles) Status(status dashcore.TaskStatus) lipgloss.Style {
	switch status {
	case dashcore.StatusRunning:
		return s.Warning.Bold(true)
	case dashcore.StatusComplete:
		return s.Success
	case dashcore.StatusFailed, dashcore.StatusCancelled:
		return s.Error
	case dashcore.StatusAssigned:
		return s.Accent
	case dashcore.StatusPending:
		return s.Lipgloss(s.Theme.Primary)
	default:
		return s.Dim
	}
}

// Level returns the text style of an activity entry.
func (s Styles) Level(level logbuf.Level) lipgloss.Style {
	switch level {
	case logbuf.LevelSuccess:
		return s.Success
	case logbuf.LevelNotice:
		return s.Lipgloss(s.Theme.Secondary)
	case logbuf.LevelWarn:
		return s.Warning
	case logbuf.LevelError:
		return s.Error
	case logbuf.LevelCritical:
		return s.Error.Bold(true)
	default:
		return s.Info
	}
}

// Lipgloss is a plain foreground style in color.
func (s Styles) Lipgloss(color lipgloss.AdaptiveColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(color)
}
