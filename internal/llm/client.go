package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation entry. Ordering within a log is
// creation order. The json tags match the persisted document shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client produces a completion for an ordered message context.
// Implementations make exactly one provider call per invocation and
// do not retry.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
