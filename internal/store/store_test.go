package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeThreadID(t *testing.T) {
	assert.Equal(t, "trip-plan", NormalizeThreadID("trip plan"))
	assert.Equal(t, "Trip-Plan", NormalizeThreadID("  Trip   Plan "), "case is preserved, whitespace collapsed")
	assert.Equal(t, "default", NormalizeThreadID(""))
	assert.Equal(t, "default", NormalizeThreadID("   "))
	assert.Equal(t, "solo", NormalizeThreadID("solo"))
}

func TestThreadsAlwaysIncludesDefault(t *testing.T) {
	s := NewSessionStore()

	// Before any message was ever sent.
	assert.Equal(t, []string{"default"}, s.Threads("alice"))

	s.Append("alice", "trip-plan", Message{Role: RoleUser, Content: "hi"})
	assert.Equal(t, []string{"default", "trip-plan"}, s.Threads("alice"))
}

func TestThreadsSortedDefaultFirst(t *testing.T) {
	s := NewSessionStore()
	s.Append("alice", "zebra", Message{Role: RoleUser, Content: "z"})
	s.Append("alice", "apple", Message{Role: RoleUser, Content: "a"})

	assert.Equal(t, []string{"default", "apple", "zebra"}, s.Threads("alice"))
}

func TestAppendAndHistory(t *testing.T) {
	s := NewSessionStore()

	assert.Empty(t, s.History("alice", "default"))

	s.Append("alice", "default", Message{Role: RoleUser, Content: "hello"})
	s.Append("alice", "default", Message{Role: RoleAssistant, Content: "hi there"})

	history := s.History("alice", "default")
	require.Len(t, history, 2)
	assert.Equal(t, Message{Role: RoleUser, Content: "hello"}, history[0])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "hi there"}, history[1])
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewSessionStore()
	s.Append("alice", "default", Message{Role: RoleUser, Content: "hello"})

	history := s.History("alice", "default")
	history[0].Content = "tampered"

	assert.Equal(t, "hello", s.History("alice", "default")[0].Content)
}

func TestHistoriesAreScopedPerUser(t *testing.T) {
	s := NewSessionStore()
	s.Append("alice", "default", Message{Role: RoleUser, Content: "alice says"})

	assert.Empty(t, s.History("bob", "default"))
}

func TestDeleteThread(t *testing.T) {
	s := NewSessionStore()
	s.Append("alice", "trip-plan", Message{Role: RoleUser, Content: "hi"})

	require.NoError(t, s.Delete("alice", "trip-plan"))
	assert.Equal(t, []string{"default"}, s.Threads("alice"))

	// A later lookup with the same id starts a fresh empty history.
	assert.Empty(t, s.History("alice", "trip-plan"))
}

func TestDeleteUnknownThreadIsNoOp(t *testing.T) {
	s := NewSessionStore()
	assert.NoError(t, s.Delete("alice", "never-existed"))
}

func TestDeleteDefaultThreadRejected(t *testing.T) {
	s := NewSessionStore()
	s.Append("alice", "default", Message{Role: RoleUser, Content: "keep me"})

	err := s.Delete("alice", "default")
	assert.ErrorIs(t, err, ErrDefaultThread)

	// History is untouched.
	history := s.History("alice", "default")
	require.Len(t, history, 1)
	assert.Equal(t, "keep me", history[0].Content)
}
