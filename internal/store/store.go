package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// DefaultThread always exists for every user and cannot be deleted.
const DefaultThread = "default"

var ErrDefaultThread = errors.New("the default thread cannot be deleted")

// NormalizeThreadID derives a thread identifier from a user-supplied name:
// runs of whitespace collapse to a single "-", case is preserved.
func NormalizeThreadID(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return DefaultThread
	}
	return strings.Join(fields, "-")
}

// SessionStore holds every user's conversation histories in process memory.
// Histories do not survive a restart and are not bounded in size.
type SessionStore struct {
	mu      sync.RWMutex
	threads map[string]map[string][]Message // userID -> threadID -> history
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		threads: make(map[string]map[string][]Message),
	}
}

// History returns a copy of the ordered message sequence for (user, thread),
// creating an empty history on first use. The default thread is seeded the
// first time a user touches the store.
func (s *SessionStore) History(userID, threadID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.userThreads(userID)[threadID]
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Append adds a message to the end of (user, thread), creating the thread if
// it does not exist yet.
func (s *SessionStore) Append(userID, threadID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threads := s.userThreads(userID)
	threads[threadID] = append(threads[threadID], msg)
}

// Threads lists the user's thread identifiers. The default thread is always
// present, listed first; the rest are sorted for stable responses, with no
// promise about creation order.
func (s *SessionStore) Threads(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{DefaultThread}
	for id := range s.threads[userID] {
		if id != DefaultThread {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids[1:])
	return ids
}

// Delete discards the history for (user, thread). Deleting the default
// thread is rejected; deleting an unknown thread is a no-op.
func (s *SessionStore) Delete(userID, threadID string) error {
	if threadID == DefaultThread {
		return ErrDefaultThread
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if threads, ok := s.threads[userID]; ok {
		delete(threads, threadID)
	}
	return nil
}

// userThreads returns the user's thread map, creating it (with an empty
// default thread) on first access. Callers must hold the write lock.
func (s *SessionStore) userThreads(userID string) map[string][]Message {
	threads, ok := s.threads[userID]
	if !ok {
		threads = map[string][]Message{DefaultThread: nil}
		s.threads[userID] = threads
	}
	return threads
}
