package app

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteSessionStore keeps sessions and messages in a single database
// file under the storage root.
type SQLiteSessionStore struct {
	Root   string
	dbPath string

	mu   sync.Mutex
	db   *sql.DB
	once sync.Once
	err  error
}

func NewSQLiteSessionStore(root string) (*SQLiteSessionStore, error) {
	if strings.TrimSpace(root) == "" {
		root = DefaultStorageRoot()
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	st := &SQLiteSessionStore{
		Root:   root,
		dbPath: filepath.Join(root, "inkwell.db"),
	}
	// Initialize eagerly so callers fail fast.
	if err := st.init(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SQLiteSessionStore) init() error {
	s.once.Do(func() {
		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			s.err = err
			return
		}
		// Keep sqlite responsive under contention.
		_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
		_, _ = db.Exec("PRAGMA journal_mode = WAL;")
		_, _ = db.Exec("PRAGMA synchronous = NORMAL;")

		schema := []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				project TEXT NOT NULL,
				title TEXT,
				created_at_ns INTEGER NOT NULL,
				updated_at_ns INTEGER NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_project_updated ON sessions(project, updated_at_ns);`,
			`CREATE TABLE IF NOT EXISTS current_sessions (
				project TEXT PRIMARY KEY,
				session_id TEXT NOT NULL,
				updated_at_ns INTEGER NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS messages (
				id TEXT NOT NULL,
				session_id TEXT NOT NULL,
				seq INTEGER NOT NULL,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at_ns INTEGER NOT NULL,
				PRIMARY KEY (session_id, id)
			);`,
			`CREATE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq);`,
		}
		for _, stmt := range schema {
			if _, err := db.Exec(stmt); err != nil {
				_ = db.Close()
				s.err = err
				return
			}
		}
		s.db = db
	})
	return s.err
}

func (s *SQLiteSessionStore) dbConn() (*sql.DB, error) {
	if err := s.init(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, errors.New("sqlite store unavailable")
	}
	return db, nil
}

func (s *SQLiteSessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteSessionStore) CreateSession(project string) (*Session, error) {
	db, err := s.dbConn()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Project:   project,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Exec(
		`INSERT INTO sessions (id, project, title, created_at_ns, updated_at_ns) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Project, sess.Title, now.UnixNano(), now.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO current_sessions (project, session_id, updated_at_ns) VALUES (?, ?, ?)
		 ON CONFLICT(project) DO UPDATE SET session_id = excluded.session_id, updated_at_ns = excluded.updated_at_ns`,
		project, sess.ID, now.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("set current session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteSessionStore) SaveSession(sess *Session) error {
	db, err := s.dbConn()
	if err != nil {
		return err
	}
	sess.UpdatedAt = time.Now().UTC()
	_, err = db.Exec(
		`UPDATE sessions SET title = ?, updated_at_ns = ? WHERE id = ?`,
		sess.Title, sess.UpdatedAt.UnixNano(), sess.ID,
	)
	return err
}

func (s *SQLiteSessionStore) CurrentSession(project string) (*Session, []Message, error) {
	db, err := s.dbConn()
	if err != nil {
		return nil, nil, err
	}
	var sessionID string
	err = db.QueryRow(`SELECT session_id FROM current_sessions WHERE project = ?`, project).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		sess, err := s.CreateSession(project)
		if err != nil {
			return nil, nil, err
		}
		return sess, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var (
		sess      Session
		createdNs int64
		updatedNs int64
		title     sql.NullString
	)
	err = db.QueryRow(
		`SELECT id, project, title, created_at_ns, updated_at_ns FROM sessions WHERE id = ?`, sessionID,
	).Scan(&sess.ID, &sess.Project, &title, &createdNs, &updatedNs)
	if errors.Is(err, sql.ErrNoRows) {
		sess2, err := s.CreateSession(project)
		if err != nil {
			return nil, nil, err
		}
		return sess2, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	sess.Title = title.String
	sess.CreatedAt = time.Unix(0, createdNs).UTC()
	sess.UpdatedAt = time.Unix(0, updatedNs).UTC()

	msgs, err := s.LoadMessages(sess.ID)
	if err != nil {
		return nil, nil, err
	}
	return &sess, msgs, nil
}

func (s *SQLiteSessionStore) AppendMessage(sessionID string, msg Message) error {
	db, err := s.dbConn()
	if err != nil {
		return err
	}
	// Allocate the next seq inside the INSERT so concurrent appenders
	// cannot read the same MAX and collide.
	_, err = db.Exec(
		`INSERT INTO messages (id, session_id, seq, role, content, created_at_ns)
		 VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?), ?, ?, ?)`,
		msg.ID, sessionID, sessionID, string(msg.Role), msg.Content, msg.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) LoadMessages(sessionID string) ([]Message, error) {
	db, err := s.dbConn()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(
		`SELECT id, role, content, created_at_ns FROM messages WHERE session_id = ? ORDER BY seq ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			msg       Message
			role      string
			createdNs int64
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &createdNs); err != nil {
			return nil, err
		}
		msg.Role = Role(role)
		msg.CreatedAt = time.Unix(0, createdNs).UTC()
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// ReplaceMessages swaps the stored history in one transaction, mirroring
// the in-memory summarization replacement.
func (s *SQLiteSessionStore) ReplaceMessages(sessionID string, msgs []Message) error {
	db, err := s.dbConn()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	for i, msg := range msgs {
		if _, err := tx.Exec(
			`INSERT INTO messages (id, session_id, seq, role, content, created_at_ns) VALUES (?, ?, ?, ?, ?, ?)`,
			msg.ID, sessionID, i+1, string(msg.Role), msg.Content, msg.CreatedAt.UnixNano(),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
