package interactive

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Command is what a key press asks the dashboard to do.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandZoomIn
	CommandZoomOut
	CommandNextTab
	CommandPrevTab
	CommandGridTab
	CommandActivityTab
	CommandInProgressUp
	CommandInProgressDown
	CommandCompletedUp
	CommandCompletedDown
)

// KeyMap holds all the key bindings of the dashboard
type KeyMap struct {
	Quit key.Binding

	// Tree depth
	ZoomIn  key.Binding
	ZoomOut key.Binding

	// Tabs
	NextTab     key.Binding
	PrevTab     key.Binding
	GridTab     key.Binding
	ActivityTab key.Binding

	// Pane scrolling, grid tab only
	InProgressUp   key.Binding
	InProgressDown key.Binding
	CompletedUp    key.Binding
	CompletedDown  key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),

		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "show one more level"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "show one level less"),
		),

		NextTab: key.NewBinding(
			key.WithKeys("tab", "]", "right", "l", "L"),
			key.WithHelp("tab/]", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("[", "left", "h", "H"),
			key.WithHelp("[", "previous tab"),
		),
		GridTab: key.NewBinding(
			key.WithKeys("g", "G"),
			key.WithHelp("g", "agent grid"),
		),
		ActivityTab: key.NewBinding(
			key.WithKeys("a", "A"),
			key.WithHelp("a", "activity"),
		),

		InProgressUp: key.NewBinding(
			key.WithKeys("w", "W"),
			key.WithHelp("w", "scroll in progress up"),
		),
		InProgressDown: key.NewBinding(
			key.WithKeys("s", "S"),
			key.WithHelp("s", "scroll in progress down"),
		),
		CompletedUp: key.NewBinding(
			key.WithKeys("e", "E"),
			key.WithHelp("e", "scroll completed up"),
		),
		CompletedDown: key.NewBinding(
			key.WithKeys("d", "D"),
			key.WithHelp("d", "scroll completed down"),
		),
	}
}

// Command maps a key press; unbound keys give CommandNone.
func (k KeyMap) Command(msg tea.KeyMsg) Command {
	switch {
	case key.Matches(msg, k.Quit):
		return CommandQuit
	case key.Matches(msg, k.ZoomIn):
		return CommandZoomIn
	case key.Matches(msg, k.ZoomOut):
		return CommandZoomOut
	case key.Matches(msg, k.NextTab):
		return CommandNextTab
	case key.Matches(msg, k.PrevTab):
		return CommandPrevTab
	case key.Matches(msg, k.GridTab):
		return CommandGridTab
	case key.Matches(msg, k.ActivityTab):
		return CommandActivityTab
	case key.Matches(msg, k.InProgressUp):
		return CommandInProgressUp
	case key.Matches(msg, k.InProgressDown):
		return CommandInProgressDown
	case key.Matches(msg, k.CompletedUp):
		return CommandCompletedUp
	case key.Matches(msg, k.CompletedDown):
		return CommandCompletedDown
	}
	return CommandNone
}

// Bindings lists every binding in help order.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{
		k.ZoomIn, k.ZoomOut,
		k.NextTab, k.PrevTab, k.GridTab, k.ActivityTab,
		k.InProgressUp, k.InProgressDown, k.CompletedUp, k.CompletedDown,
		k.Quit,
	}
}

// HelpText is a two column listing of the bindings, for command help.
func (k KeyMap) HelpText() string {
	var out strings.Builder
	for _, binding := range k.Bindings() {
		help := binding.Help()
		out.WriteString("  ")
		out.WriteString(help.Key)
		out.WriteString(strings.Repeat(" ", max(1, 8-len(help.Key))))
		out.WriteString(help.Desc)
		out.WriteString("\n")
	}
	return out.String()
}
