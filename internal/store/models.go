package store

// Role identifies the author of a message within a thread.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. Position within the thread's
// history is its only ordering; messages carry no id or timestamp.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
