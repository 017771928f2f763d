package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkwell/internal/app"
)

func testForest(t *testing.T) app.SelectionForest {
	t.Helper()
	dir := t.TempDir()

	outline := app.Outline{Acts: []app.Act{{
		Name: "Act 1",
		Chapters: []app.Chapter{{
			Name:    "Chapter 1",
			Summary: "The town floods.",
			Scenes: []app.Scene{
				{Name: "Scene A", Content: "Hello"},
				{Name: "Scene B", Content: "Rain."},
			},
		}},
	}}}
	comp := app.Compendium{Categories: map[string]map[string]string{
		"Characters": {"Alice": "A stubborn carpenter."},
	}}

	outlinePath := filepath.Join(dir, "outline.json")
	compPath := filepath.Join(dir, "compendium.json")
	for path, v := range map[string]any{outlinePath: outline, compPath: comp} {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	projectSource := app.NewProjectOutlineSource(app.NewFileOutlineStore(outlinePath), "test", nil)
	compSource := app.NewCompendiumSource(app.NewFileCompendiumStore(compPath), nil)
	return app.SelectionForest{
		Project:    &app.BoundTree{Tree: projectSource.BuildTree(), Source: projectSource},
		Compendium: &app.BoundTree{Tree: compSource.BuildTree(), Source: compSource},
	}
}

func TestTreePanelFlattensDocumentOrder(t *testing.T) {
	p := newTreePanel(NewNoColorTheme())
	p.SetForest(testForest(t))

	rows := p.rows()
	wantLabels := []string{"Act 1", "Chapter 1", "Scene A", "Scene B"}
	if len(rows) != len(wantLabels) {
		t.Fatalf("rows = %d, want %d", len(rows), len(wantLabels))
	}
	for i, want := range wantLabels {
		if rows[i].node.Label != want {
			t.Fatalf("row %d = %q, want %q", i, rows[i].node.Label, want)
		}
	}
	if rows[0].depth != 0 || rows[2].depth != 2 {
		t.Fatalf("unexpected depths: act=%d scene=%d", rows[0].depth, rows[2].depth)
	}
}

func TestTreePanelToggleChecksSubtree(t *testing.T) {
	p := newTreePanel(NewNoColorTheme())
	p.SetForest(testForest(t))

	// Cursor starts on the act header; space must be a no-op there.
	p.Toggle()
	if got := p.rows()[1].node.State; got != app.Unchecked {
		t.Fatalf("toggling a header changed chapter state to %v", got)
	}

	p.MoveDown() // chapter
	p.Toggle()
	for _, row := range p.rows()[1:] {
		if row.node.State != app.Checked {
			t.Fatalf("%s = %v after chapter toggle, want Checked", row.node.ID, row.node.State)
		}
	}

	view := p.View(true)
	if !strings.Contains(view, "[x] Chapter 1") {
		t.Fatalf("view missing checked glyph:\n%s", view)
	}
	if !strings.Contains(view, "▸ Act 1") {
		t.Fatalf("view missing header glyph:\n%s", view)
	}
}

func TestTreePanelPartialGlyph(t *testing.T) {
	p := newTreePanel(NewNoColorTheme())
	forest := testForest(t)
	p.SetForest(forest)

	if err := forest.Project.Tree.SetCheckState("scene/0/0/0", app.Checked); err != nil {
		t.Fatalf("check scene: %v", err)
	}
	if !strings.Contains(p.View(false), "[~] Chapter 1") {
		t.Fatalf("view missing partial glyph:\n%s", p.View(false))
	}
}

func TestTreePanelCurrentScene(t *testing.T) {
	p := newTreePanel(NewNoColorTheme())
	p.SetForest(testForest(t))

	if p.CurrentScene() != nil {
		t.Fatal("act header must not count as a scene")
	}
	p.MoveDown()
	p.MoveDown() // Scene A
	scene := p.CurrentScene()
	if scene == nil || scene.Label != "Scene A" {
		t.Fatalf("CurrentScene = %v, want Scene A", scene)
	}

	p.SwitchTab(tabCompendium)
	if p.CurrentScene() != nil {
		t.Fatal("compendium tab must not report a scene")
	}
}

func TestTreePanelSwitchTabResetsCursor(t *testing.T) {
	p := newTreePanel(NewNoColorTheme())
	p.SetForest(testForest(t))

	p.MoveDown()
	p.MoveDown()
	p.SwitchTab(tabCompendium)

	rows := p.rows()
	if len(rows) != 2 {
		t.Fatalf("compendium rows = %d, want 2", len(rows))
	}
	if p.cursor != 0 {
		t.Fatalf("cursor = %d after tab switch, want 0", p.cursor)
	}
	if rows[0].node.Label != "Characters" || rows[1].node.Label != "Alice" {
		t.Fatalf("unexpected compendium rows: %q, %q", rows[0].node.Label, rows[1].node.Label)
	}
	// Categories are checkable containers, unlike acts.
	if !rows[0].node.Checkable {
		t.Fatal("category row must be checkable")
	}
}

func TestTruncateKeepsWidth(t *testing.T) {
	got := truncate("a very long label that will not fit", 10)
	if len([]rune(got)) > 10 {
		t.Fatalf("truncate produced %d runes: %q", len([]rune(got)), got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncate did not mark the cut: %q", got)
	}
}
