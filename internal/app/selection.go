package app

import (
	"errors"
	"fmt"
)

// CheckState is the tri-state value a checkable node can display.
//
// Partial is display-only: it is derived from children during upward
// recomputation and is never a valid input to SetCheckState.
type CheckState int

const (
	Unchecked CheckState = iota
	Checked
	Partial
)

func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Partial:
		return "partial"
	default:
		return "unchecked"
	}
}

// normalized maps anything outside the known range to Unchecked, so a
// corrupted node excludes content instead of including it.
func (s CheckState) normalized() CheckState {
	switch s {
	case Checked, Partial:
		return s
	default:
		return Unchecked
	}
}

type NodeID string

var (
	ErrUnknownNode  = errors.New("unknown selection node")
	ErrNotCheckable = errors.New("node is not checkable")
	ErrBadState     = errors.New("state cannot be assigned directly")
)

// SelectionNode is one row of a selection tree. Data is an opaque
// payload owned by whichever source built the tree; the tree itself
// never inspects it.
type SelectionNode struct {
	ID        NodeID
	Label     string
	Checkable bool
	State     CheckState
	Data      any

	Parent   NodeID
	Children []NodeID
}

// SelectionTree is a checkable hierarchy with tri-state propagation.
// Child order is insertion order and matches source document order.
type SelectionTree struct {
	nodes map[NodeID]*SelectionNode
	roots []NodeID
}

func NewSelectionTree() *SelectionTree {
	return &SelectionTree{nodes: make(map[NodeID]*SelectionNode)}
}

func (t *SelectionTree) AddRoot(id NodeID, label string, checkable bool, data any) *SelectionNode {
	n := &SelectionNode{ID: id, Label: label, Checkable: checkable, Data: data}
	t.nodes[id] = n
	t.roots = append(t.roots, id)
	return n
}

func (t *SelectionTree) AddChild(parent NodeID, id NodeID, label string, checkable bool, data any) (*SelectionNode, error) {
	p, ok := t.nodes[parent]
	if !ok {
		return nil, fmt.Errorf("add child %q: %w", id, ErrUnknownNode)
	}
	n := &SelectionNode{ID: id, Label: label, Checkable: checkable, Data: data, Parent: parent}
	t.nodes[id] = n
	p.Children = append(p.Children, id)
	return n, nil
}

func (t *SelectionTree) Node(id NodeID) (*SelectionNode, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

func (t *SelectionTree) Roots() []NodeID {
	return t.roots
}

// Len reports the number of nodes in the tree.
func (t *SelectionTree) Len() int {
	return len(t.nodes)
}

// SetCheckState applies a user toggle to a checkable node. The state is
// forced onto every checkable descendant, then every ancestor is
// recomputed bottom-up. Non-checkable nodes reject the call, and Partial
// can never be assigned directly.
func (t *SelectionTree) SetCheckState(id NodeID, state CheckState) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("set state on %q: %w", id, ErrUnknownNode)
	}
	if !n.Checkable {
		return fmt.Errorf("set state on %q: %w", id, ErrNotCheckable)
	}
	if state != Checked && state != Unchecked {
		return fmt.Errorf("set state %v on %q: %w", state, id, ErrBadState)
	}
	t.forceDown(n, state)
	t.recomputeUp(n.Parent)
	return nil
}

// Toggle flips a checkable node between Checked and Unchecked. A Partial
// container toggles to Checked, matching how checkbox widgets behave.
func (t *SelectionTree) Toggle(id NodeID) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("toggle %q: %w", id, ErrUnknownNode)
	}
	next := Checked
	if n.State.normalized() == Checked {
		next = Unchecked
	}
	return t.SetCheckState(id, next)
}

func (t *SelectionTree) forceDown(n *SelectionNode, state CheckState) {
	if n.Checkable {
		n.State = state
	}
	// Grouping nodes hold no state of their own but checkable
	// descendants below them still receive the forced state.
	for _, childID := range n.Children {
		if child, ok := t.nodes[childID]; ok {
			t.forceDown(child, state)
		}
	}
}

func (t *SelectionTree) recomputeUp(id NodeID) {
	for id != "" {
		n, ok := t.nodes[id]
		if !ok {
			return
		}
		if !n.Checkable {
			// Pure grouping nodes never aggregate; their display state is
			// always Unchecked and recomputation stops here.
			n.State = Unchecked
			return
		}
		if agg, ok := t.aggregate(n); ok {
			n.State = agg
		}
		id = n.Parent
	}
}

// aggregate applies the three-way rule over a node's checkable children:
// Checked iff all are Checked, Unchecked iff none are Checked and none
// Partial, Partial otherwise. Returns false for nodes with no checkable
// children, whose state is their own.
func (t *SelectionTree) aggregate(n *SelectionNode) (CheckState, bool) {
	total := 0
	checked := 0
	partial := 0
	for _, childID := range n.Children {
		child, ok := t.nodes[childID]
		if !ok || !child.Checkable {
			continue
		}
		total++
		switch child.State.normalized() {
		case Checked:
			checked++
		case Partial:
			partial++
		}
	}
	if total == 0 {
		return Unchecked, false
	}
	switch {
	case checked == total:
		return Checked, true
	case checked == 0 && partial == 0:
		return Unchecked, true
	default:
		return Partial, true
	}
}

// Walk visits every node depth-first in child order, roots first.
func (t *SelectionTree) Walk(visit func(n *SelectionNode)) {
	for _, rootID := range t.roots {
		t.walkFrom(rootID, visit)
	}
}

func (t *SelectionTree) walkFrom(id NodeID, visit func(n *SelectionNode)) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	visit(n)
	for _, childID := range n.Children {
		t.walkFrom(childID, visit)
	}
}
