package relay

// Roles carried on the completion API wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat's rolling conversation window.
// Ordering is chronological, oldest first.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type j = map[string]any
