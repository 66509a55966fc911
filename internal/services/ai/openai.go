package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/benvon/study-advent/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 60 * time.Second

	// MaxSyllabusPromptLength bounds how much syllabus text is sent to the model
	MaxSyllabusPromptLength = 8000

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

const generationSystemPrompt = `You are a study planner. Break the student's syllabus into an advent calendar of exactly 24 daily study tasks.
Each task must be a short, concrete, actionable title that builds on the previous days.
Respond with valid JSON only, in the form {"tasks":[{"day":1,"title":"...","isUnlocked":true,"isCompleted":false}, ...]}.`

const coachSystemPrompt = `You are an encouraging study coach helping a student work through their advent study calendar.
Answer concisely. Suggest concrete next steps and study techniques when useful.`

// OpenAIProvider implements Provider using OpenAI chat completions.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// GenerateTasks asks the model for a 24-day calendar in JSON mode.
func (p *OpenAIProvider) GenerateTasks(ctx context.Context, syllabus string) ([]models.Task, error) {
	syllabus = strings.TrimSpace(syllabus)
	if syllabus == "" {
		return nil, ErrEmptySyllabus
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(generationSystemPrompt),
		openai.UserMessage(buildGenerationPrompt(syllabus)),
	}

	content, err := p.complete(ctx, "generate_tasks", messages, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	return parseTasksResponse(content)
}

// Chat answers a coaching question.
func (p *OpenAIProvider) Chat(ctx context.Context, message string, syllabusContext string, history []ChatMessage) (*ChatResponse, error) {
	systemContent := coachSystemPrompt
	if s := strings.TrimSpace(syllabusContext); s != "" {
		systemContent += "\n\nThe student's syllabus:\n" + TruncateString(s, MaxSyllabusPromptLength)
	}

	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	openAIMessages = append(openAIMessages, openai.SystemMessage(systemContent))
	for _, msg := range history {
		switch msg.Role {
		case "assistant":
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		}
	}
	openAIMessages = append(openAIMessages, openai.UserMessage(message))

	content, err := p.complete(ctx, "chat", openAIMessages, false)
	if err != nil {
		return nil, fmt.Errorf("failed to chat: %w", err)
	}

	return &ChatResponse{Message: content}, nil
}

// complete sends one chat completion request and returns the first choice's content.
func (p *OpenAIProvider) complete(ctx context.Context, operation string, messages []openai.ChatCompletionMessageParamUnion, jsonMode bool) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}
	if jsonMode {
		req.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	userID := ExtractUserID(ctx)
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("message_count", len(messages)),
			zap.Bool("json_mode", jsonMode),
			zap.String("user_id", userID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("user_id", userID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}
	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("user_id", userID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}

func buildGenerationPrompt(syllabus string) string {
	var b strings.Builder
	b.WriteString("Create a 24-day study plan for the following syllabus.\n")
	b.WriteString("Day 1 should start with fundamentals; day 24 should be a final review.\n\n")
	b.WriteString("Syllabus:\n")
	b.WriteString(TruncateString(syllabus, MaxSyllabusPromptLength))
	return b.String()
}

type generatedTask struct {
	Day   int    `json:"day"`
	Title string `json:"title"`
}

// parseTasksResponse decodes the model output into one locked, incomplete task per day.
// Duplicate days keep the first title; out-of-range days are dropped.
func parseTasksResponse(content string) ([]models.Task, error) {
	var payload struct {
		Tasks []generatedTask `json:"tasks"`
	}
	raw := content
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		start := bytes.IndexByte([]byte(raw), '{')
		end := bytes.LastIndexByte([]byte(raw), '}')
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse tasks response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
			return nil, fmt.Errorf("failed to parse tasks response: %w", err)
		}
	}

	byDay := make(map[int]string, models.CalendarDays)
	for _, t := range payload.Tasks {
		title := strings.TrimSpace(t.Title)
		if t.Day < 1 || t.Day > models.CalendarDays || title == "" {
			continue
		}
		if _, seen := byDay[t.Day]; !seen {
			byDay[t.Day] = title
		}
	}
	if len(byDay) != models.CalendarDays {
		return nil, fmt.Errorf("%w: got %d of %d days", ErrIncompleteCalendar, len(byDay), models.CalendarDays)
	}

	tasks := make([]models.Task, 0, models.CalendarDays)
	for day, title := range byDay {
		tasks = append(tasks, models.Task{Day: day, Title: title})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Day < tasks[j].Day })
	return tasks, nil
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry, logger *zap.Logger) {
	registry.Register("openai", func(config map[string]string) (Provider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		return NewOpenAIProviderWithLogger(apiKey, config["base_url"], config["model"], logger, config["debug"] == "true"), nil
	})
}
