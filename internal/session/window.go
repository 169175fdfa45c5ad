package session

import "chat-relay/internal/llm"

// DefaultWindowSize bounds how many recent messages are sent to the
// completion provider per request. Recency is the only relevance
// signal.
const DefaultWindowSize = 5

// Window returns the last size messages of msgs in original order,
// fewer if the log is shorter. size <= 0 yields an empty window.
func Window(msgs []llm.Message, size int) []llm.Message {
	if size <= 0 {
		return nil
	}
	if len(msgs) <= size {
		return msgs
	}
	return msgs[len(msgs)-size:]
}
