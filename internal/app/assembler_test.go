package app

import (
	"errors"
	"strings"
	"testing"
)

var errMock = errors.New("mock failure")

type staticOutlineStore struct {
	outline Outline
	err     error
}

func (s staticOutlineStore) Outline(string) (Outline, error) {
	return s.outline, s.err
}

type staticCompendiumStore struct {
	comp Compendium
	err  error
}

func (s staticCompendiumStore) Compendium() (Compendium, error) {
	return s.comp, s.err
}

func (s staticCompendiumStore) Reload() error {
	return s.err
}

func testOutline() Outline {
	return Outline{Acts: []Act{{
		Name: "Act 1",
		Chapters: []Chapter{
			{
				Name:    "Chapter 1",
				Summary: "The town floods.",
				Scenes: []Scene{
					{Name: "Scene A", Content: "Hello"},
					{Name: "Scene B", Content: "Rain on the window."},
				},
			},
			{Name: "Chapter 2", Summary: "They rebuild."},
		},
	}}}
}

func testCompendium() Compendium {
	return Compendium{Categories: map[string]map[string]string{
		"Characters": {
			"Alice": "A stubborn carpenter.",
			"Bob":   "",
		},
	}}
}

func buildForest(t *testing.T, outline Outline, comp Compendium) SelectionForest {
	t.Helper()
	projectSource := NewProjectOutlineSource(staticOutlineStore{outline: outline}, "test", nil)
	compSource := NewCompendiumSource(staticCompendiumStore{comp: comp}, nil)
	return SelectionForest{
		Project:    &BoundTree{Tree: projectSource.BuildTree(), Source: projectSource},
		Compendium: &BoundTree{Tree: compSource.BuildTree(), Source: compSource},
	}
}

func check(t *testing.T, tree *SelectionTree, id NodeID) {
	t.Helper()
	if err := tree.SetCheckState(id, Checked); err != nil {
		t.Fatalf("check %s: %v", id, err)
	}
}

func TestAssembleAllUncheckedIsEmpty(t *testing.T) {
	forest := buildForest(t, testOutline(), testCompendium())
	if got := AssembleContext(forest); got != "" {
		t.Fatalf("assemble(unchecked forest) = %q, want empty string", got)
	}
}

func TestAssembleSingleScene(t *testing.T) {
	forest := buildForest(t, testOutline(), testCompendium())
	check(t, forest.Project.Tree, "scene/0/0/0")

	want := "Additional Context:\n[Scene Content - Scene A]:\nHello"
	if got := AssembleContext(forest); got != want {
		t.Fatalf("assemble = %q, want %q", got, want)
	}
}

func TestAssembleChapterWithScenesRendersOnlyLeaves(t *testing.T) {
	forest := buildForest(t, testOutline(), testCompendium())
	// Checking the chapter forces both scenes checked; the chapter's own
	// summary must not appear because traversal descends into children.
	check(t, forest.Project.Tree, "chapter/0/0")

	got := AssembleContext(forest)
	if strings.Contains(got, "The town floods.") {
		t.Fatalf("chapter summary double-counted alongside scenes:\n%s", got)
	}
	if !strings.Contains(got, "[Scene Content - Scene A]:\nHello") ||
		!strings.Contains(got, "[Scene Content - Scene B]:\nRain on the window.") {
		t.Fatalf("expected both scene blocks, got:\n%s", got)
	}
}

func TestAssembleChapterLeafRendersSummary(t *testing.T) {
	forest := buildForest(t, testOutline(), testCompendium())
	// Chapter 2 has no scenes, so it renders as a leaf.
	check(t, forest.Project.Tree, "chapter/0/1")

	want := "Additional Context:\n[Chapter Summary - Chapter 2]:\nThey rebuild."
	if got := AssembleContext(forest); got != want {
		t.Fatalf("assemble = %q, want %q", got, want)
	}
}

func TestAssembleEmptySummarySkipped(t *testing.T) {
	outline := Outline{Acts: []Act{{
		Name:     "Act 1",
		Chapters: []Chapter{{Name: "Sketch"}},
	}}}
	forest := buildForest(t, outline, Compendium{})
	check(t, forest.Project.Tree, "chapter/0/0")

	if got := AssembleContext(forest); got != "" {
		t.Fatalf("empty-summary chapter should contribute nothing, got %q", got)
	}
}

func TestAssembleCompendiumEntry(t *testing.T) {
	forest := buildForest(t, Outline{}, testCompendium())
	check(t, forest.Compendium.Tree, "entry/Characters/Alice")

	want := "Additional Context:\nA stubborn carpenter."
	if got := AssembleContext(forest); got != want {
		t.Fatalf("assemble = %q, want %q", got, want)
	}
}

func TestAssembleMissingEntryUsesPlaceholder(t *testing.T) {
	forest := buildForest(t, Outline{}, testCompendium())
	// Bob exists in the tree but has no stored text.
	check(t, forest.Compendium.Tree, "entry/Characters/Bob")

	want := "Additional Context:\n[No content for Bob in category Characters]"
	if got := AssembleContext(forest); got != want {
		t.Fatalf("assemble = %q, want %q", got, want)
	}
}

func TestAssembleProjectBeforeCompendium(t *testing.T) {
	forest := buildForest(t, testOutline(), testCompendium())
	check(t, forest.Compendium.Tree, "entry/Characters/Alice")
	check(t, forest.Project.Tree, "scene/0/0/0")

	got := AssembleContext(forest)
	sceneAt := strings.Index(got, "[Scene Content - Scene A]")
	entryAt := strings.Index(got, "A stubborn carpenter.")
	if sceneAt == -1 || entryAt == -1 || sceneAt > entryAt {
		t.Fatalf("project blocks must precede compendium blocks:\n%s", got)
	}
}

func TestContextBlockRoundTrip(t *testing.T) {
	blocks := []ContextBlock{
		{Provenance: ProvChapterSummary, Label: "Chapter 1", Body: "The town floods."},
		{Provenance: ProvSceneContent, Label: "Scene A", Body: "Hello\nmultiline"},
	}
	for _, b := range blocks {
		parsed := ParseContextBlock(b.Render())
		if parsed.Provenance != b.Provenance || parsed.Label != b.Label || parsed.Body != b.Body {
			t.Fatalf("round trip of %+v gave %+v", b, parsed)
		}
	}

	placeholder := "[No content for Bob in category Characters]"
	parsed := ParseContextBlock(placeholder)
	if parsed.Provenance != ProvCompendiumEntry || parsed.Label != "Bob" || parsed.Category != "Characters" {
		t.Fatalf("placeholder parse gave %+v", parsed)
	}

	bare := ParseContextBlock("A stubborn carpenter.")
	if bare.Provenance != ProvCompendiumEntry || bare.Body != "A stubborn carpenter." {
		t.Fatalf("bare text parse gave %+v", bare)
	}
}

func TestSelectedLabels(t *testing.T) {
	forest := buildForest(t, testOutline(), testCompendium())
	check(t, forest.Project.Tree, "scene/0/0/1")
	check(t, forest.Compendium.Tree, "entry/Characters/Alice")

	got := SelectedLabels(forest)
	want := []string{"Scene B", "Characters: Alice"}
	if len(got) != len(want) {
		t.Fatalf("SelectedLabels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SelectedLabels[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSourcesDegradeToEmptyTree(t *testing.T) {
	projectSource := NewProjectOutlineSource(staticOutlineStore{err: errMock}, "test", nil)
	if tree := projectSource.BuildTree(); tree.Len() != 0 {
		t.Fatalf("outline error should yield empty tree, got %d nodes", tree.Len())
	}

	compSource := NewCompendiumSource(staticCompendiumStore{err: errMock}, nil)
	if tree := compSource.BuildTree(); tree.Len() != 0 {
		t.Fatalf("compendium error should yield empty tree, got %d nodes", tree.Len())
	}
}
