package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"chat-relay/internal/llm"
	"chat-relay/internal/storage"
)

// DefaultSystemPrompt is the preamble prepended to every provider
// request unless the service is constructed with its own.
const DefaultSystemPrompt = "You are a helpful assistant."

// Service owns one request cycle: load the session, append the user
// turn, pick the context window, ask the provider, append and persist
// the assistant turn.
type Service struct {
	store        storage.Store
	llmClient    llm.Client
	systemPrompt string
	windowSize   int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store storage.Store, llmClient llm.Client, systemPrompt string, windowSize int) *Service {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Service{
		store:        store,
		llmClient:    llmClient,
		systemPrompt: systemPrompt,
		windowSize:   windowSize,
		locks:        make(map[string]*sync.Mutex),
	}
}

// userLock serializes Ask per user so two concurrent turns cannot
// overwrite each other's saved history.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Ask runs one conversation turn for userID. On provider failure
// nothing is persisted: the prompt of a failed turn is not part of
// durable history.
func (s *Service) Ask(ctx context.Context, userID, prompt string) (string, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	sess, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}

	sess.Messages = append(sess.Messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	window := Window(sess.Messages, s.windowSize)
	contextMsgs := make([]llm.Message, 0, len(window)+1)
	contextMsgs = append(contextMsgs, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	contextMsgs = append(contextMsgs, window...)

	resp, err := s.llmClient.Generate(ctx, contextMsgs)
	if err != nil {
		return "", fmt.Errorf("generate completion for %s: %w", userID, err)
	}
	log.Printf("LLM response for %s [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
		userID, resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)

	sess.Messages = append(sess.Messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
	if err := s.store.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return resp.Content, nil
}

// History returns the stored log for userID, empty for unknown users.
func (s *Service) History(ctx context.Context, userID string) ([]llm.Message, error) {
	return s.store.History(ctx, userID)
}
