package ai

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultMaxHistory is how many prior messages are replayed to the coach.
const DefaultMaxHistory = 20

// ChatService keeps per-learner coaching conversations in memory.
type ChatService struct {
	provider   Provider
	maxHistory int
	sessions   map[string]*ChatSession
	mu         sync.Mutex
}

// ChatSession represents an active chat session
type ChatSession struct {
	UserID       string
	Messages     []ChatMessage
	CreatedAt    time.Time
	LastActivity time.Time
}

// NewChatService creates a new chat service
func NewChatService(provider Provider) *ChatService {
	return &ChatService{
		provider:   provider,
		maxHistory: DefaultMaxHistory,
		sessions:   make(map[string]*ChatSession),
	}
}

func (s *ChatService) session(userID string) *ChatSession {
	session, ok := s.sessions[userID]
	if !ok {
		now := time.Now()
		session = &ChatSession{UserID: userID, CreatedAt: now, LastActivity: now}
		s.sessions[userID] = session
	}
	return session
}

// History returns a copy of the conversation for userID.
func (s *ChatService) History(userID string) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return append([]ChatMessage(nil), session.Messages...)
	}
	return nil
}

// Ask sends message to the coach with the stored history and records both turns on success.
// userID may be empty for an anonymous learner.
func (s *ChatService) Ask(ctx context.Context, userID, message, syllabusContext string) (*ChatResponse, error) {
	history := s.History(userID)
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	response, err := s.provider.Chat(WithUserID(ctx, userID), message, syllabusContext, history)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat response: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.session(userID)
	session.Messages = append(session.Messages,
		ChatMessage{Role: "user", Content: message},
		ChatMessage{Role: "assistant", Content: response.Message},
	)
	if excess := len(session.Messages) - 2*s.maxHistory; excess > 0 {
		session.Messages = append([]ChatMessage(nil), session.Messages[excess:]...)
	}
	session.LastActivity = time.Now()

	return response, nil
}

// CloseSession forgets the conversation for userID.
func (s *ChatService) CloseSession(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
