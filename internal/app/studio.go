package app

import (
	"context"
	"strings"
)

// Studio wires the stores, sources, prompt library, transport, and
// workshop chat into one application object the UI drives.
type Studio struct {
	Config  Config
	Logger  *Logger
	Library PromptLibrary

	OutlineSource    *ProjectOutlineSource
	CompendiumSource *CompendiumSource
	CompendiumStore  CompendiumStore

	Forest SelectionForest

	Assembler *PromptAssembler
	Transport Transport
	Workshop  *Workshop

	POV          string
	POVCharacter string
	Tense        string

	Speaker Speaker

	prosePrompt  *PromptConfig
	proseWorker  *Worker
	speechWorker *Worker
	store        SessionStore
}

// NewStudio builds the application from config. A missing prompt
// library or session store degrades with a log line; the tool still
// runs with defaults and an in-memory conversation.
func NewStudio(cfg Config, logger *Logger, store SessionStore) (*Studio, error) {
	var transport Transport
	if cfg.APIKey == "" {
		transport = EchoTransport{}
	} else {
		transport = NewHTTPTransport(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens)
	}

	library, err := LoadPromptLibrary(cfg.PromptsPath)
	if err != nil && logger != nil {
		logger.Warn("prompt library unavailable, using defaults", map[string]interface{}{
			"path":  cfg.PromptsPath,
			"error": err.Error(),
		})
	}

	compendiumStore := NewFileCompendiumStore(cfg.CompendiumPath)
	s := &Studio{
		Config:           cfg,
		Logger:           logger,
		Library:          library,
		OutlineSource:    NewProjectOutlineSource(NewFileOutlineStore(cfg.OutlinePath), cfg.Project, logger),
		CompendiumSource: NewCompendiumSource(compendiumStore, logger),
		CompendiumStore:  compendiumStore,
		Assembler:        NewPromptAssembler(logger),
		Transport:        transport,
		POV:              cfg.POV,
		POVCharacter:     cfg.POVCharacter,
		Tense:            cfg.Tense,
		proseWorker:      NewWorker(),
		speechWorker:     NewWorker(),
		store:            store,
	}
	if len(cfg.SpeechCommand) > 0 {
		s.Speaker = &CommandSpeaker{Args: cfg.SpeechCommand}
	}
	s.RebuildForest()

	summarizer := &TransportSummarizer{
		Transport: transport,
		Overrides: Overrides{MaxTokens: 1024},
	}
	conv := NewConversationManager(cfg.TokenBudget, HeuristicEstimator{}, summarizer, logger)

	var session *Session
	if store != nil {
		sess, msgs, err := store.CurrentSession(cfg.Project)
		if err != nil {
			if logger != nil {
				logger.Warn("session store unavailable, conversation will not persist", map[string]interface{}{
					"error": err.Error(),
				})
			}
		} else {
			session = sess
			conv.Restore(msgs)
		}
	}
	s.Workshop = NewWorkshop(conv, transport, compendiumStore, store, session, logger)
	if len(library.Workshop) > 0 {
		s.Workshop.SelectPrompt(library.Workshop[0])
	}
	return s, nil
}

// RebuildForest re-reads both stores and replaces the selection trees.
// Any existing check state is dropped; callers rebuild when the
// underlying documents changed shape.
func (s *Studio) RebuildForest() {
	s.Forest = SelectionForest{
		Project:    &BoundTree{Tree: s.OutlineSource.BuildTree(), Source: s.OutlineSource},
		Compendium: &BoundTree{Tree: s.CompendiumSource.BuildTree(), Source: s.CompendiumSource},
	}
}

// ReloadCompendium refreshes the catalog from disk and rebuilds its tree.
func (s *Studio) ReloadCompendium() error {
	if err := s.CompendiumStore.Reload(); err != nil {
		return err
	}
	s.Forest.Compendium = &BoundTree{Tree: s.CompendiumSource.BuildTree(), Source: s.CompendiumSource}
	return nil
}

// SelectProsePrompt picks a named prose template for subsequent sends.
func (s *Studio) SelectProsePrompt(name string) bool {
	p, ok := s.Library.ProsePrompt(name)
	if !ok {
		return false
	}
	s.prosePrompt = &p
	return true
}

func (s *Studio) ProsePrompt() PromptConfig {
	if s.prosePrompt != nil {
		return *s.prosePrompt
	}
	return s.Library.DefaultProse()
}

func (s *Studio) ProseBusy() bool {
	return s.proseWorker.Busy()
}

// SendProse assembles the final prose prompt and submits it to the
// worker. sceneNode, when it is a scene leaf, contributes its stored
// text as continuation context. The result channel delivers the
// generated prose as a string.
func (s *Studio) SendProse(ctx context.Context, actionBeats string, sceneNode *SelectionNode) (<-chan TaskResult, error) {
	if strings.TrimSpace(actionBeats) == "" {
		return nil, ErrEmptyMessage
	}

	prompt := s.ProsePrompt()
	sceneText := ""
	if sceneNode != nil {
		if text, ok := s.OutlineSource.SceneText(sceneNode); ok {
			sceneText = text
		}
	}

	final := s.Assembler.Assemble(ProseRequest{
		ActionBeats:  actionBeats,
		Template:     prompt.Text,
		POV:          s.POV,
		POVCharacter: s.POVCharacter,
		Tense:        s.Tense,
		SceneText:    sceneText,
		ExtraContext: AssembleContext(s.Forest),
	})
	overrides := prompt.Overrides(200, 0.7)

	return s.proseWorker.Submit(ctx, func(ctx context.Context) (any, error) {
		return s.Transport.Send(ctx, final, nil, overrides)
	})
}

// SpeakText plays text through the configured speech engine on its own
// worker, so playback never blocks a send.
func (s *Studio) SpeakText(ctx context.Context, text string) (<-chan TaskResult, error) {
	if s.Speaker == nil {
		return nil, ErrNoSpeaker
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	return s.speechWorker.Submit(ctx, func(ctx context.Context) (any, error) {
		return nil, s.Speaker.Speak(ctx, text)
	})
}

// Close releases the session store.
func (s *Studio) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
