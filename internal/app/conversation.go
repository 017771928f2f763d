package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation, both in memory and at rest.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Estimator prices a message sequence in approximate tokens. It must be
// deterministic and monotonic in the message contents.
type Estimator interface {
	Estimate(messages []Message) int
}

// Summarizer condenses a message sequence into a single system-message
// body.
type Summarizer interface {
	Summarize(ctx context.Context, messages []Message) (string, error)
}

// HeuristicEstimator prices messages with EstimateTokens over each
// content string.
type HeuristicEstimator struct{}

func (HeuristicEstimator) Estimate(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(m.Content)
	}
	return total
}

// DefaultTokenBudget is the conversation size above which the manager
// summarizes.
const DefaultTokenBudget = 2000

// ConversationPhase tracks where the manager is in its lifecycle.
type ConversationPhase int

const (
	ConversationEmpty ConversationPhase = iota
	ConversationActive
	ConversationSummarized
)

// ConversationManager holds ordered chat history under a token budget.
// Appends recompute the running estimate; MaybeSummarize collapses the
// history once the estimate exceeds the budget. History is append-only
// from the caller's perspective except for that one atomic replacement.
// The send task mutates the history on a worker goroutine while the UI
// loop reads the estimate and phase, so every access goes through mu.
type ConversationManager struct {
	budget     int
	estimator  Estimator
	summarizer Summarizer
	logger     *Logger

	mu       sync.Mutex
	messages []Message
	estimate int
	phase    ConversationPhase
}

func NewConversationManager(budget int, estimator Estimator, summarizer Summarizer, logger *Logger) *ConversationManager {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	if estimator == nil {
		estimator = HeuristicEstimator{}
	}
	return &ConversationManager{
		budget:     budget,
		estimator:  estimator,
		summarizer: summarizer,
		logger:     logger,
	}
}

func (m *ConversationManager) Append(role Role, content string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	m.estimate = m.estimator.Estimate(m.messages)
	m.phase = ConversationActive
	return msg
}

// Restore replaces the in-memory history wholesale, used when resuming
// a persisted session.
func (m *ConversationManager) Restore(messages []Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append([]Message(nil), messages...)
	m.estimate = m.estimator.Estimate(m.messages)
	if len(m.messages) == 0 {
		m.phase = ConversationEmpty
	} else {
		m.phase = ConversationActive
	}
}

// Messages returns a copy of the history in order.
func (m *ConversationManager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

func (m *ConversationManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func (m *ConversationManager) Estimate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.estimate
}

// Budget never changes after construction, so it needs no lock.
func (m *ConversationManager) Budget() int { return m.budget }

func (m *ConversationManager) Phase() ConversationPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *ConversationManager) OverBudget() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.estimate > m.budget
}

// MaybeSummarize checks the budget and, if exceeded, replaces the
// history with at most two messages: the original leading system
// message (when one exists) followed by a synthetic system message
// holding the summary. The rule is idempotent, so re-summarizing an
// already summarized conversation needs no extra state. On summarizer
// failure the history is left untouched.
func (m *ConversationManager) MaybeSummarize(ctx context.Context) (bool, error) {
	m.mu.Lock()
	if m.estimate <= m.budget {
		m.mu.Unlock()
		return false, nil
	}
	if m.summarizer == nil {
		estimate := m.estimate
		m.mu.Unlock()
		return false, fmt.Errorf("conversation over budget (%d > %d) with no summarizer", estimate, m.budget)
	}
	before := m.estimate
	snapshot := append([]Message(nil), m.messages...)
	m.mu.Unlock()

	// The lock is not held across the summarizer call, so the UI keeps
	// reading estimate and phase while the request runs. Sends are
	// single-flight, so nothing appends between snapshot and swap.
	summary, err := m.summarizer.Summarize(ctx, snapshot)
	if err != nil {
		return false, fmt.Errorf("summarize conversation: %w", err)
	}

	retained := make([]Message, 0, 2)
	if len(snapshot) > 0 && snapshot[0].Role == RoleSystem {
		retained = append(retained, snapshot[0])
	}
	retained = append(retained, Message{
		ID:        uuid.NewString(),
		Role:      RoleSystem,
		Content:   summary,
		CreatedAt: time.Now().UTC(),
	})

	m.mu.Lock()
	m.messages = retained
	m.estimate = m.estimator.Estimate(m.messages)
	m.phase = ConversationSummarized
	after := m.estimate
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("conversation summarized", map[string]interface{}{
			"estimate_before": before,
			"estimate_after":  after,
			"budget":          m.budget,
		})
	}
	return true, nil
}

// summaryTranscriptChars caps the transcript handed to the summarizer so
// the summarization request itself cannot blow the model's context.
const summaryTranscriptChars = 24000

// buildTranscript flattens messages into a role-tagged transcript,
// keeping the most recent turns when the cap is hit.
func buildTranscript(messages []Message) string {
	var parts []string
	total := 0
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		part := fmt.Sprintf("[%s]\n%s", strings.ToUpper(string(m.Role)), m.Content)
		if total+len(part) > summaryTranscriptChars && len(parts) > 0 {
			break
		}
		parts = append(parts, part)
		total += len(part)
	}
	// Restore chronological order.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "\n\n")
}

// TransportSummarizer asks the LLM backend to compress the conversation.
type TransportSummarizer struct {
	Transport Transport
	Overrides Overrides
}

const summaryInstruction = "Summarize the conversation below between a writer and their " +
	"assistant. Keep every plot decision, character detail, and stylistic instruction " +
	"that later turns may depend on. Reply with the summary only.\n\n"

func (s *TransportSummarizer) Summarize(ctx context.Context, messages []Message) (string, error) {
	prompt := summaryInstruction + buildTranscript(messages)
	return s.Transport.Send(ctx, prompt, nil, s.Overrides)
}
