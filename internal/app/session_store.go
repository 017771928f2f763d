package app

import "time"

// Session is one persisted workshop conversation for a project.
type Session struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore persists workshop sessions and their messages.
//
// Implementations must preserve message order, and ReplaceMessages must
// be atomic: summarization swaps the whole history in one step or not
// at all.
type SessionStore interface {
	// CurrentSession loads the project's active session and its
	// messages, creating a fresh session when none exists.
	CurrentSession(project string) (*Session, []Message, error)
	CreateSession(project string) (*Session, error)
	SaveSession(sess *Session) error

	AppendMessage(sessionID string, msg Message) error
	LoadMessages(sessionID string) ([]Message, error)
	ReplaceMessages(sessionID string, msgs []Message) error

	Close() error
}
