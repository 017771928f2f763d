package app

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyMessage rejects a send with no actual input before any
// request is issued.
var ErrEmptyMessage = errors.New("message is empty")

// SendOutcome is what a completed workshop send delivers back to the UI.
type SendOutcome struct {
	Response   string
	Summarized bool
}

// Workshop is the open-ended chat: a conversation manager under a token
// budget, a transport, and the single-flight worker that keeps requests
// off the UI loop. The in-flight task may summarize the conversation;
// the manager's own lock keeps concurrent UI reads consistent.
type Workshop struct {
	conv       *ConversationManager
	transport  Transport
	worker     *Worker
	compendium CompendiumStore
	store      SessionStore
	session    *Session
	logger     *Logger

	prompt *PromptConfig
}

func NewWorkshop(conv *ConversationManager, transport Transport, compendium CompendiumStore, store SessionStore, session *Session, logger *Logger) *Workshop {
	return &Workshop{
		conv:       conv,
		transport:  transport,
		worker:     NewWorker(),
		compendium: compendium,
		store:      store,
		session:    session,
		logger:     logger,
	}
}

// SelectPrompt picks the workshop template whose text seeds the system
// message on the first send and whose settings override the transport
// defaults.
func (w *Workshop) SelectPrompt(p PromptConfig) {
	w.prompt = &p
}

func (w *Workshop) PromptName() string {
	if w.prompt == nil {
		return ""
	}
	return w.prompt.Name
}

func (w *Workshop) Busy() bool {
	return w.worker.Busy()
}

func (w *Workshop) History() []Message {
	return w.conv.Messages()
}

// Estimate and Budget expose the conversation's token accounting for
// the status line.
func (w *Workshop) Estimate() int { return w.conv.Estimate() }

func (w *Workshop) Budget() int { return w.conv.Budget() }

func (w *Workshop) Phase() ConversationPhase { return w.conv.Phase() }

// prepareMessage validates the input and augments it with the selected
// context labels and any compendium references it mentions.
func (w *Workshop) prepareMessage(input string, contextLines []string) (string, error) {
	message := strings.TrimSpace(input)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if len(contextLines) > 0 {
		message += "\nContext:\n" + strings.Join(contextLines, "\n")
	}
	if refs := CompendiumReferences(w.compendium, message); len(refs) > 0 {
		message += "\n[Compendium references: " + strings.Join(refs, ", ") + "]"
	}
	return message, nil
}

// Send appends the user turn and submits the budget check plus the
// transport call as one background task. The result channel delivers a
// SendOutcome; on transport failure the history keeps the user turn but
// gains no phantom assistant turn.
func (w *Workshop) Send(ctx context.Context, input string, contextLines []string) (<-chan TaskResult, error) {
	if w.worker.Busy() {
		return nil, ErrBusy
	}
	message, err := w.prepareMessage(input, contextLines)
	if err != nil {
		return nil, err
	}

	if w.conv.Len() == 0 && w.prompt != nil && w.prompt.Text != "" {
		w.persist(w.conv.Append(RoleSystem, w.prompt.Text))
	}
	w.persist(w.conv.Append(RoleUser, message))

	overrides := Overrides{}
	if w.prompt != nil {
		overrides = w.prompt.Overrides(2000, 1.0)
	}

	return w.worker.Submit(ctx, func(ctx context.Context) (any, error) {
		summarized, err := w.conv.MaybeSummarize(ctx)
		if err != nil {
			// Send the full history anyway; the transport will report
			// its own overflow if the payload really is too large.
			if w.logger != nil {
				w.logger.Warn("summarization failed, sending unsummarized history", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
		if summarized && w.store != nil && w.session != nil {
			if err := w.store.ReplaceMessages(w.session.ID, w.conv.Messages()); err != nil && w.logger != nil {
				w.logger.Error("persist summarized history", map[string]interface{}{"error": err.Error()})
			}
		}
		response, err := w.transport.Send(ctx, "", w.conv.Messages(), overrides)
		if err != nil {
			return nil, err
		}
		return SendOutcome{Response: response, Summarized: summarized}, nil
	})
}

// CompleteSend records the assistant turn once a response arrived.
func (w *Workshop) CompleteSend(response string) Message {
	msg := w.conv.Append(RoleAssistant, response)
	w.persist(msg)
	return msg
}

func (w *Workshop) persist(msg Message) {
	if w.store == nil || w.session == nil {
		return
	}
	if err := w.store.AppendMessage(w.session.ID, msg); err != nil && w.logger != nil {
		w.logger.Error("persist message", map[string]interface{}{
			"session": w.session.ID,
			"error":   err.Error(),
		})
	}
}
