package app

import (
	"fmt"
	"regexp"
	"strings"
)

// ContextHeader prefixes assembled context when at least one block
// rendered. An empty assembly carries no header at all.
const ContextHeader = "Additional Context:"

// Provenance identifies which kind of node produced a context block.
type Provenance string

const (
	ProvChapterSummary  Provenance = "chapter-summary"
	ProvSceneContent    Provenance = "scene-content"
	ProvCompendiumEntry Provenance = "compendium-entry"
)

// ContextBlock is one rendered fragment of selected context. Blocks are
// built fresh on every assembly; the tree may have changed since the
// last render, so nothing is cached.
type ContextBlock struct {
	Provenance Provenance
	Label      string
	Category   string // compendium entries only
	Body       string
}

// Render produces the wire form of a block. Chapter summaries and scene
// content carry a bracketed tag line; compendium entries are inserted
// as bare text.
func (b ContextBlock) Render() string {
	switch b.Provenance {
	case ProvChapterSummary:
		return fmt.Sprintf("[Chapter Summary - %s]:\n%s", b.Label, b.Body)
	case ProvSceneContent:
		return fmt.Sprintf("[Scene Content - %s]:\n%s", b.Label, b.Body)
	default:
		return b.Body
	}
}

var (
	blockTagPattern    = regexp.MustCompile(`(?s)^\[(Chapter Summary|Scene Content) - (.+?)\]:\n(.*)$`)
	placeholderPattern = regexp.MustCompile(`^\[No content for (.+) in category (.+)\]$`)
)

// ParseContextBlock reverses Render. Tagged blocks recover provenance,
// label and body; the compendium missing-entry placeholder recovers
// entry and category; anything else is treated as bare compendium text.
func ParseContextBlock(rendered string) ContextBlock {
	if m := blockTagPattern.FindStringSubmatch(rendered); m != nil {
		prov := ProvChapterSummary
		if m[1] == "Scene Content" {
			prov = ProvSceneContent
		}
		return ContextBlock{Provenance: prov, Label: m[2], Body: m[3]}
	}
	if m := placeholderPattern.FindStringSubmatch(rendered); m != nil {
		return ContextBlock{Provenance: ProvCompendiumEntry, Label: m[1], Category: m[2], Body: rendered}
	}
	return ContextBlock{Provenance: ProvCompendiumEntry, Body: rendered}
}

// ContextSource builds a selection tree over one domain and renders its
// checked leaves. The tree algorithm knows nothing about either domain;
// all rendering policy lives behind this interface.
type ContextSource interface {
	// BuildTree reads the backing store and produces a fresh tree. A
	// missing or unreadable store degrades to an empty tree.
	BuildTree() *SelectionTree
	// RenderLeaf renders a checked leaf. ok is false when the leaf has
	// nothing to contribute (e.g. a chapter with no summary).
	RenderLeaf(n *SelectionNode) (ContextBlock, bool)
}

// BoundTree pairs a built tree with the source that can render it.
type BoundTree struct {
	Tree   *SelectionTree
	Source ContextSource
}

// SelectionForest holds the two independent selection trees. Assembly
// order is fixed: project first, then compendium.
type SelectionForest struct {
	Project    *BoundTree
	Compendium *BoundTree
}

// AssembleContext walks both trees depth-first and joins every rendered
// block with a blank line. Nodes with children are recursed regardless
// of their own state; only checked leaves emit text. The result is ""
// when nothing is selected, otherwise the header line plus the blocks.
func AssembleContext(forest SelectionForest) string {
	blocks := CollectBlocks(forest)
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if rendered := b.Render(); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return ContextHeader + "\n" + strings.Join(parts, "\n\n")
}

// CollectBlocks gathers the checked-leaf blocks from both trees in
// fixed order without rendering them to a single string.
func CollectBlocks(forest SelectionForest) []ContextBlock {
	var blocks []ContextBlock
	for _, bt := range []*BoundTree{forest.Project, forest.Compendium} {
		if bt == nil || bt.Tree == nil || bt.Source == nil {
			continue
		}
		for _, rootID := range bt.Tree.Roots() {
			collectFrom(bt, rootID, &blocks)
		}
	}
	return blocks
}

func collectFrom(bt *BoundTree, id NodeID, blocks *[]ContextBlock) {
	n, ok := bt.Tree.Node(id)
	if !ok {
		return
	}
	if len(n.Children) == 0 {
		if n.Checkable && n.State.normalized() == Checked {
			if block, ok := bt.Source.RenderLeaf(n); ok {
				*blocks = append(*blocks, block)
			}
		}
		return
	}
	for _, childID := range n.Children {
		collectFrom(bt, childID, blocks)
	}
}

// SelectedLabels lists the checked leaves of the forest by display
// label, compendium entries qualified by their category. The workshop
// chat appends these lines under a "Context:" header instead of the
// full rendered text. Leaves with no renderable body still count: the
// label alone is the selection.
func SelectedLabels(forest SelectionForest) []string {
	var labels []string
	for _, bt := range []*BoundTree{forest.Project, forest.Compendium} {
		if bt == nil || bt.Tree == nil || bt.Source == nil {
			continue
		}
		bt.Tree.Walk(func(n *SelectionNode) {
			if len(n.Children) != 0 || !n.Checkable || n.State.normalized() != Checked {
				return
			}
			block, _ := bt.Source.RenderLeaf(n)
			if block.Provenance == ProvCompendiumEntry && block.Category != "" {
				labels = append(labels, block.Category+": "+n.Label)
				return
			}
			labels = append(labels, n.Label)
		})
	}
	return labels
}
