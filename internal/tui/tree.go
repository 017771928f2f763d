package tui

import (
	"fmt"
	"strings"

	"inkwell/internal/app"

	"github.com/charmbracelet/lipgloss"
)

type treeTab int

const (
	tabProject treeTab = iota
	tabCompendium
)

func (t treeTab) title() string {
	if t == tabCompendium {
		return "Compendium"
	}
	return "Project"
}

// treeRow is one visible line of the panel: a node plus its indent depth.
type treeRow struct {
	node  *app.SelectionNode
	depth int
}

// treePanel renders the two selection trees as a scrollable checkbox
// list. It owns cursor and scroll state; check state lives in the trees
// themselves so the assembler sees every toggle immediately.
type treePanel struct {
	forest app.SelectionForest
	tab    treeTab
	cursor int
	offset int

	width  int
	height int
	theme  Theme
}

func newTreePanel(theme Theme) *treePanel {
	return &treePanel{theme: theme, width: 32, height: 20}
}

func (p *treePanel) SetForest(forest app.SelectionForest) {
	p.forest = forest
	p.cursor = 0
	p.offset = 0
}

func (p *treePanel) SetSize(width, height int) {
	p.width = max(1, width)
	p.height = max(1, height)
	p.clampCursor()
}

func (p *treePanel) SwitchTab(tab treeTab) {
	if tab == p.tab {
		return
	}
	p.tab = tab
	p.cursor = 0
	p.offset = 0
}

func (p *treePanel) Tab() treeTab { return p.tab }

func (p *treePanel) bound() *app.BoundTree {
	if p.tab == tabCompendium {
		return p.forest.Compendium
	}
	return p.forest.Project
}

// rows flattens the active tree in document order.
func (p *treePanel) rows() []treeRow {
	bt := p.bound()
	if bt == nil || bt.Tree == nil {
		return nil
	}
	var out []treeRow
	var walk func(id app.NodeID, depth int)
	walk = func(id app.NodeID, depth int) {
		n, ok := bt.Tree.Node(id)
		if !ok {
			return
		}
		out = append(out, treeRow{node: n, depth: depth})
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	for _, root := range bt.Tree.Roots() {
		walk(root, 0)
	}
	return out
}

func (p *treePanel) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
	p.clampCursor()
}

func (p *treePanel) MoveDown() {
	if p.cursor < len(p.rows())-1 {
		p.cursor++
	}
	p.clampCursor()
}

// CursorNode returns the node under the cursor, nil when the tree is empty.
func (p *treePanel) CursorNode() *app.SelectionNode {
	rows := p.rows()
	if p.cursor < 0 || p.cursor >= len(rows) {
		return nil
	}
	return rows[p.cursor].node
}

// Toggle flips the checkbox under the cursor. Rows without a checkbox
// ignore the key.
func (p *treePanel) Toggle() {
	n := p.CursorNode()
	if n == nil || !n.Checkable {
		return
	}
	bt := p.bound()
	if bt == nil {
		return
	}
	// Toggle only fails for unknown or non-checkable ids, both ruled
	// out above.
	_ = bt.Tree.Toggle(n.ID)
}

// CurrentScene reports the scene under the cursor when the project tab
// is active and the cursor sits on a scene leaf.
func (p *treePanel) CurrentScene() *app.SelectionNode {
	if p.tab != tabProject {
		return nil
	}
	n := p.CursorNode()
	if n == nil || !strings.HasPrefix(string(n.ID), "scene/") {
		return nil
	}
	return n
}

func (p *treePanel) clampCursor() {
	rows := p.rows()
	if p.cursor >= len(rows) {
		p.cursor = len(rows) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	visible := p.visibleLines()
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
	if p.offset < 0 {
		p.offset = 0
	}
}

// visibleLines is the row budget after the tab header.
func (p *treePanel) visibleLines() int {
	return max(1, p.height-2)
}

func glyph(n *app.SelectionNode) string {
	if !n.Checkable {
		return "▸"
	}
	switch n.State {
	case app.Checked:
		return "[x]"
	case app.Partial:
		return "[~]"
	default:
		return "[ ]"
	}
}

func (p *treePanel) View(focused bool) string {
	var b strings.Builder

	projectTitle := p.theme.PaneTitle.Render(tabProject.title())
	compTitle := p.theme.PaneTitle.Render(tabCompendium.title())
	if p.tab == tabProject {
		projectTitle = p.theme.PaneTitleF.Render(tabProject.title())
	} else {
		compTitle = p.theme.PaneTitleF.Render(tabCompendium.title())
	}
	b.WriteString(projectTitle + p.theme.Footer.Render(" | ") + compTitle)
	b.WriteString("\n")

	rows := p.rows()
	if len(rows) == 0 {
		b.WriteString(p.theme.Footer.Render("(empty)"))
		return b.String()
	}

	visible := p.visibleLines()
	end := min(len(rows), p.offset+visible)
	for i := p.offset; i < end; i++ {
		row := rows[i]
		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", row.depth), glyph(row.node), row.node.Label)
		line = truncate(line, p.width)

		style := p.theme.TreeRow
		if !row.node.Checkable {
			style = p.theme.TreeHeader
		} else if row.node.State == app.Checked {
			style = p.theme.TreeChecked
		} else if row.node.State == app.Partial {
			style = p.theme.TreePartial
		}
		if focused && i == p.cursor {
			style = p.theme.TreeCursor
		}

		b.WriteString(style.Render(line))
		if i != end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// truncate cuts a line to the panel width, accounting for styled runes.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
