package ai

import (
	"context"

	"github.com/benvon/study-advent/internal/models"
)

// Provider generates study calendars and answers coaching questions.
type Provider interface {
	// GenerateTasks turns a syllabus into exactly models.CalendarDays tasks, ordered by day.
	GenerateTasks(ctx context.Context, syllabus string) ([]models.Task, error)

	// Chat answers message with the syllabus as context and the prior turns as history.
	Chat(ctx context.Context, message string, syllabusContext string, history []ChatMessage) (*ChatResponse, error)
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatResponse represents a response from the study coach
type ChatResponse struct {
	Message string `json:"message"`
}

// ProviderFactory creates a provider from string settings
type ProviderFactory func(config map[string]string) (Provider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
