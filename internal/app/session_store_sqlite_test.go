package app

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *SQLiteSessionStore {
	t.Helper()
	store, err := NewSQLiteSessionStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content, CreatedAt: time.Now().UTC()}
}

func TestCurrentSessionCreatesOnFirstUse(t *testing.T) {
	store := newTestStore(t)
	sess, msgs, err := store.CurrentSession("novel")
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if sess == nil || sess.Project != "novel" {
		t.Fatalf("session = %+v, want fresh session for project", sess)
	}
	if len(msgs) != 0 {
		t.Fatalf("fresh session has %d messages, want 0", len(msgs))
	}

	again, _, err := store.CurrentSession("novel")
	if err != nil {
		t.Fatalf("current session again: %v", err)
	}
	if again.ID != sess.ID {
		t.Fatalf("current session changed: %s != %s", again.ID, sess.ID)
	}
}

func TestAppendAndLoadMessagesPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	sess, _, err := store.CurrentSession("novel")
	if err != nil {
		t.Fatalf("current session: %v", err)
	}

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		if err := store.AppendMessage(sess.ID, testMessage(RoleUser, c)); err != nil {
			t.Fatalf("append %q: %v", c, err)
		}
	}

	msgs, err := store.LoadMessages(sess.ID)
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	if len(msgs) != len(contents) {
		t.Fatalf("loaded %d messages, want %d", len(msgs), len(contents))
	}
	for i, c := range contents {
		if msgs[i].Content != c {
			t.Fatalf("message %d = %q, want %q", i, msgs[i].Content, c)
		}
	}
}

func TestConcurrentAppendsGetDistinctSeqs(t *testing.T) {
	store := newTestStore(t)
	sess, _, err := store.CurrentSession("novel")
	if err != nil {
		t.Fatalf("current session: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.AppendMessage(sess.ID, testMessage(RoleUser, "turn")); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	var distinct int
	err = store.db.QueryRow(
		`SELECT COUNT(DISTINCT seq) FROM messages WHERE session_id = ?`, sess.ID,
	).Scan(&distinct)
	if err != nil {
		t.Fatalf("count seqs: %v", err)
	}
	if distinct != writers {
		t.Fatalf("distinct seqs = %d, want %d", distinct, writers)
	}
}

func TestReplaceMessagesSwapsHistory(t *testing.T) {
	store := newTestStore(t)
	sess, _, err := store.CurrentSession("novel")
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := store.AppendMessage(sess.ID, testMessage(RoleUser, "turn")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	replacement := []Message{
		testMessage(RoleSystem, "base"),
		testMessage(RoleSystem, "summary"),
	}
	if err := store.ReplaceMessages(sess.ID, replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}

	msgs, err := store.LoadMessages(sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "base" || msgs[1].Content != "summary" {
		t.Fatalf("replaced history = %+v", msgs)
	}

	// Appending after a replace must continue the sequence.
	if err := store.AppendMessage(sess.ID, testMessage(RoleUser, "next")); err != nil {
		t.Fatalf("append after replace: %v", err)
	}
	msgs, err = store.LoadMessages(sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if msgs[len(msgs)-1].Content != "next" {
		t.Fatalf("append after replace landed at %+v", msgs)
	}
}
