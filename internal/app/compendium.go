package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Compendium is the reference catalog: category → entry → text.
type Compendium struct {
	Categories map[string]map[string]string `json:"categories"`
}

// CompendiumStore hands out the current catalog. Implementations must
// tolerate a missing backing store by returning an empty catalog.
// Reload discards any cached copy; callers rebuild trees afterwards.
type CompendiumStore interface {
	Compendium() (Compendium, error)
	Reload() error
}

// FileCompendiumStore reads the catalog from a JSON file once and keeps
// it until Reload. Lookups never touch the disk.
type FileCompendiumStore struct {
	Path string

	mu     sync.Mutex
	loaded bool
	cached Compendium
}

func NewFileCompendiumStore(path string) *FileCompendiumStore {
	return &FileCompendiumStore{Path: path}
}

func (s *FileCompendiumStore) Compendium() (Compendium, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.cached, nil
	}
	comp, err := s.read()
	if err != nil {
		return Compendium{}, err
	}
	s.cached = comp
	s.loaded = true
	return comp, nil
}

func (s *FileCompendiumStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comp, err := s.read()
	if err != nil {
		return err
	}
	s.cached = comp
	s.loaded = true
	return nil
}

func (s *FileCompendiumStore) read() (Compendium, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Compendium{}, nil
		}
		return Compendium{}, fmt.Errorf("read compendium: %w", err)
	}
	var comp Compendium
	if err := json.Unmarshal(data, &comp); err != nil {
		return Compendium{}, fmt.Errorf("parse compendium: %w", err)
	}
	return comp, nil
}

type entryRef struct {
	category string
	entry    string
}

// CompendiumSource exposes the catalog as a selection tree. Unlike act
// headers, category headers are checkable containers: toggling one
// checks every entry beneath it, and their states aggregate back up.
type CompendiumSource struct {
	store  CompendiumStore
	logger *Logger
}

func NewCompendiumSource(store CompendiumStore, logger *Logger) *CompendiumSource {
	return &CompendiumSource{store: store, logger: logger}
}

func (s *CompendiumSource) BuildTree() *SelectionTree {
	tree := NewSelectionTree()
	comp, err := s.store.Compendium()
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("compendium unavailable, using empty tree", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return tree
	}

	categories := make([]string, 0, len(comp.Categories))
	for name := range comp.Categories {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	for _, category := range categories {
		catID := NodeID("category/" + category)
		tree.AddRoot(catID, category, true, nil)

		entries := make([]string, 0, len(comp.Categories[category]))
		for name := range comp.Categories[category] {
			entries = append(entries, name)
		}
		sort.Strings(entries)
		for _, entry := range entries {
			entryID := NodeID("entry/" + category + "/" + entry)
			_, _ = tree.AddChild(catID, entryID, entry, true, entryRef{category: category, entry: entry})
		}
	}
	return tree
}

// RenderLeaf emits the entry's stored text. Entries with no text in the
// store render as a literal placeholder rather than being skipped, so
// the prompt shows the author exactly what is missing.
func (s *CompendiumSource) RenderLeaf(n *SelectionNode) (ContextBlock, bool) {
	ref, ok := n.Data.(entryRef)
	if !ok {
		return ContextBlock{}, false
	}
	block := ContextBlock{
		Provenance: ProvCompendiumEntry,
		Label:      ref.entry,
		Category:   ref.category,
		Body:       s.Text(ref.category, ref.entry),
	}
	return block, true
}

// Text looks an entry up in the store as it is right now; a stale tree
// pointing at a removed entry yields the placeholder, not a failure.
func (s *CompendiumSource) Text(category, entry string) string {
	comp, err := s.store.Compendium()
	if err == nil {
		if text, ok := comp.Categories[category][entry]; ok && text != "" {
			return text
		}
	}
	return fmt.Sprintf("[No content for %s in category %s]", entry, category)
}
