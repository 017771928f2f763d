package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type helpModel struct {
	keys  keyMap
	width int
	theme Theme
}

func newHelpModel(theme Theme) helpModel {
	return helpModel{
		keys:  defaultKeyMap(),
		width: 80,
		theme: theme,
	}
}

func (m *helpModel) SetWidth(width int) {
	m.width = width
}

func (m helpModel) View() string {
	var b strings.Builder

	keyStyle := m.theme.TopBarBadge
	descStyle := m.theme.Footer

	b.WriteString(m.theme.TopBarTitle.Render("inkwell help"))
	b.WriteString("\n\n")

	b.WriteString(m.theme.PaneTitleF.Render("keys"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  send\n", keyStyle.Render("enter")))
	b.WriteString(fmt.Sprintf("  %s  switch focus between input and context panel\n", keyStyle.Render("tab")))
	b.WriteString(fmt.Sprintf("  %s  switch prose / workshop mode\n", keyStyle.Render("shift+tab")))
	b.WriteString(fmt.Sprintf("  %s  show or hide the context panel\n", keyStyle.Render("ctrl+t")))
	b.WriteString(fmt.Sprintf("  %s  reload the compendium from disk\n", keyStyle.Render("ctrl+r")))
	b.WriteString(fmt.Sprintf("  %s  cycle point of view\n", keyStyle.Render("alt+p")))
	b.WriteString(fmt.Sprintf("  %s  cycle tense\n", keyStyle.Render("alt+n")))
	b.WriteString(fmt.Sprintf("  %s  read the last reply aloud\n", keyStyle.Render("alt+s")))
	b.WriteString(fmt.Sprintf("  %s  quit\n", keyStyle.Render("ctrl+c")))

	b.WriteString("\n")
	b.WriteString(m.theme.PaneTitleF.Render("context panel"))
	b.WriteString("\n")
	b.WriteString(descStyle.Render("  up/down move, space toggles a box, left/right switch"))
	b.WriteString("\n")
	b.WriteString(descStyle.Render("  between the project outline and the compendium."))
	b.WriteString("\n")
	b.WriteString(descStyle.Render("  Checked summaries and entries ride along with every send."))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(m.theme.Footer.Render("ctrl+c quit | shift+tab mode | enter send"))

	return b.String()
}

type keyMap struct {
	Quit          key.Binding
	Enter         key.Binding
	FocusNext     key.Binding
	NextMode      key.Binding
	ToggleContext key.Binding
	ToggleHelp    key.Binding
	Reload        key.Binding
	CyclePOV      key.Binding
	CycleTense    key.Binding
	Speak         key.Binding
	TreeUp        key.Binding
	TreeDown      key.Binding
	TreeToggle    key.Binding
	TreePrevTab   key.Binding
	TreeNextTab   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch focus"),
		),
		NextMode: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "switch mode"),
		),
		ToggleContext: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "context panel"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "help"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload compendium"),
		),
		CyclePOV: key.NewBinding(
			key.WithKeys("alt+p"),
			key.WithHelp("alt+p", "cycle pov"),
		),
		CycleTense: key.NewBinding(
			key.WithKeys("alt+n"),
			key.WithHelp("alt+n", "cycle tense"),
		),
		Speak: key.NewBinding(
			key.WithKeys("alt+s"),
			key.WithHelp("alt+s", "read last reply aloud"),
		),
		TreeUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up", "move up"),
		),
		TreeDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down", "move down"),
		),
		TreeToggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle"),
		),
		TreePrevTab: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left", "project tab"),
		),
		TreeNextTab: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right", "compendium tab"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.FocusNext, k.NextMode, k.ToggleContext, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Enter, k.FocusNext, k.NextMode, k.Quit},
		{k.ToggleContext, k.Reload, k.CyclePOV, k.CycleTense},
	}
}
