package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Outline is the act → chapter → scene hierarchy of a manuscript.
type Outline struct {
	Acts []Act `json:"acts"`
}

type Act struct {
	Name     string    `json:"name"`
	Chapters []Chapter `json:"chapters"`
}

type Chapter struct {
	Name    string  `json:"name"`
	Summary string  `json:"summary"`
	Scenes  []Scene `json:"scenes"`
}

type Scene struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// OutlineStore provides the manuscript structure for one project.
type OutlineStore interface {
	Outline(projectID string) (Outline, error)
}

// FileOutlineStore reads the outline from a JSON file. A missing file
// is an empty outline, not an error.
type FileOutlineStore struct {
	Path string
}

func NewFileOutlineStore(path string) *FileOutlineStore {
	return &FileOutlineStore{Path: path}
}

func (s *FileOutlineStore) Outline(projectID string) (Outline, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Outline{}, nil
		}
		return Outline{}, fmt.Errorf("read outline: %w", err)
	}
	var outline Outline
	if err := json.Unmarshal(data, &outline); err != nil {
		return Outline{}, fmt.Errorf("parse outline: %w", err)
	}
	return outline, nil
}

type chapterRef struct {
	act     int
	chapter int
}

type sceneRef struct {
	act     int
	chapter int
	scene   int
}

// ProjectOutlineSource exposes the outline as a selection tree. Acts are
// pure non-interactive headers; only chapters and scenes are checkable.
// The outline is snapshotted at tree-build time so rendering stays
// consistent with the tree the user toggled.
type ProjectOutlineSource struct {
	store     OutlineStore
	projectID string
	logger    *Logger

	outline Outline
}

func NewProjectOutlineSource(store OutlineStore, projectID string, logger *Logger) *ProjectOutlineSource {
	return &ProjectOutlineSource{store: store, projectID: projectID, logger: logger}
}

func (s *ProjectOutlineSource) BuildTree() *SelectionTree {
	tree := NewSelectionTree()
	outline, err := s.store.Outline(s.projectID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("outline unavailable, using empty project tree", map[string]interface{}{
				"project": s.projectID,
				"error":   err.Error(),
			})
		}
		s.outline = Outline{}
		return tree
	}
	s.outline = outline

	for ai, act := range outline.Acts {
		actID := NodeID(fmt.Sprintf("act/%d", ai))
		tree.AddRoot(actID, orLabel(act.Name, "Unnamed Act"), false, nil)
		for ci, chapter := range act.Chapters {
			chapterID := NodeID(fmt.Sprintf("chapter/%d/%d", ai, ci))
			if _, err := tree.AddChild(actID, chapterID, orLabel(chapter.Name, "Unnamed Chapter"), true, chapterRef{act: ai, chapter: ci}); err != nil {
				continue
			}
			for si, scene := range chapter.Scenes {
				sceneID := NodeID(fmt.Sprintf("scene/%d/%d/%d", ai, ci, si))
				_, _ = tree.AddChild(chapterID, sceneID, orLabel(scene.Name, "Unnamed Scene"), true, sceneRef{act: ai, chapter: ci, scene: si})
			}
		}
	}
	return tree
}

// RenderLeaf emits a chapter's summary or a scene's content. ok is false
// when the stored text is empty, so the block is skipped entirely. A
// chapter only renders as a leaf; once it has scenes the traversal
// descends into them and the summary is never double-counted.
func (s *ProjectOutlineSource) RenderLeaf(n *SelectionNode) (ContextBlock, bool) {
	switch ref := n.Data.(type) {
	case chapterRef:
		block := ContextBlock{Provenance: ProvChapterSummary, Label: n.Label}
		summary := s.chapterSummary(ref)
		if summary == "" {
			return block, false
		}
		block.Body = summary
		return block, true
	case sceneRef:
		block := ContextBlock{Provenance: ProvSceneContent, Label: n.Label}
		content := s.sceneContent(ref)
		if content == "" {
			return block, false
		}
		block.Body = content
		return block, true
	default:
		return ContextBlock{}, false
	}
}

func (s *ProjectOutlineSource) chapterSummary(ref chapterRef) string {
	if ref.act < 0 || ref.act >= len(s.outline.Acts) {
		return ""
	}
	chapters := s.outline.Acts[ref.act].Chapters
	if ref.chapter < 0 || ref.chapter >= len(chapters) {
		return ""
	}
	return chapters[ref.chapter].Summary
}

func (s *ProjectOutlineSource) sceneContent(ref sceneRef) string {
	if ref.act < 0 || ref.act >= len(s.outline.Acts) {
		return ""
	}
	chapters := s.outline.Acts[ref.act].Chapters
	if ref.chapter < 0 || ref.chapter >= len(chapters) {
		return ""
	}
	scenes := chapters[ref.chapter].Scenes
	if ref.scene < 0 || ref.scene >= len(scenes) {
		return ""
	}
	return scenes[ref.scene].Content
}

// SceneText returns a scene's stored content by tree position, used for
// continuation context when drafting into an existing scene.
func (s *ProjectOutlineSource) SceneText(n *SelectionNode) (string, bool) {
	ref, ok := n.Data.(sceneRef)
	if !ok {
		return "", false
	}
	return s.sceneContent(ref), true
}

func orLabel(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
