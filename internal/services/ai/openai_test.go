package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func calendarJSON(days int) string {
	tasks := make([]string, 0, days)
	for d := 1; d <= days; d++ {
		tasks = append(tasks, fmt.Sprintf(`{"day":%d,"title":"Study topic %d","isUnlocked":false,"isCompleted":false}`, d, d))
	}
	return `{"tasks":[` + strings.Join(tasks, ",") + `]}`
}

func TestBuildGenerationPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildGenerationPrompt("Graph algorithms: BFS, DFS, Dijkstra")
	if !strings.Contains(prompt, "Graph algorithms: BFS, DFS, Dijkstra") {
		t.Error("Expected prompt to include the syllabus")
	}
	if !strings.Contains(prompt, "24-day") {
		t.Error("Expected prompt to ask for a 24-day plan")
	}

	long := buildGenerationPrompt(strings.Repeat("x", MaxSyllabusPromptLength*2))
	if len(long) > MaxSyllabusPromptLength+200 {
		t.Errorf("Expected syllabus to be truncated, got prompt of %d bytes", len(long))
	}
}

func TestParseTasksResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		wantErr  error
		validate func(*testing.T, string, error)
	}{
		{
			name:    "full calendar",
			content: calendarJSON(24),
		},
		{
			name:    "json wrapped in prose",
			content: "Here is your plan:\n" + calendarJSON(24) + "\nGood luck!",
		},
		{
			name:    "too few days",
			content: calendarJSON(20),
			wantErr: ErrIncompleteCalendar,
		},
		{
			name:    "not json",
			content: "sorry, I cannot help",
			validate: func(t *testing.T, _ string, err error) {
				if err == nil || !strings.Contains(err.Error(), "failed to parse") {
					t.Errorf("Expected parse error, got %v", err)
				}
			},
		},
		{
			name:    "out of range and blank titles are dropped",
			content: strings.Replace(calendarJSON(24), `{"day":24,"title":"Study topic 24"`, `{"day":25,"title":"Study topic 24"`, 1),
			wantErr: ErrIncompleteCalendar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tasks, err := parseTasksResponse(tt.content)
			if tt.validate != nil {
				tt.validate(t, tt.content, err)
				return
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(tasks) != 24 {
				t.Fatalf("Expected 24 tasks, got %d", len(tasks))
			}
			for i, task := range tasks {
				if task.Day != i+1 {
					t.Errorf("Expected day %d at index %d, got %d", i+1, i, task.Day)
				}
				if task.IsUnlocked || task.IsCompleted {
					t.Errorf("Expected day %d to start locked and incomplete", task.Day)
				}
			}
		})
	}
}

type capturedRequest struct {
	Model          string `json:"model"`
	Messages       []any  `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func fakeCompletionServer(t *testing.T, status int, content string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			_ = json.NewDecoder(r.Body).Decode(captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"rate_limit_error","code":"rate_limit_exceeded"}}`))
			return
		}
		body, _ := json.Marshal(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1733000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_GenerateTasks(t *testing.T) {
	t.Parallel()

	var captured capturedRequest
	srv := fakeCompletionServer(t, http.StatusOK, calendarJSON(24), &captured)
	p := NewOpenAIProviderWithLogger("sk-test", srv.URL+"/v1", "", nil, false)

	tasks, err := p.GenerateTasks(context.Background(), "Linear algebra")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tasks) != 24 {
		t.Errorf("Expected 24 tasks, got %d", len(tasks))
	}
	if captured.Model != DefaultOpenAIModel {
		t.Errorf("Expected model %s, got %s", DefaultOpenAIModel, captured.Model)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Errorf("Expected json_object response format, got %+v", captured.ResponseFormat)
	}
}

func TestOpenAIProvider_GenerateTasksEmptySyllabus(t *testing.T) {
	t.Parallel()

	p := NewOpenAIProvider("sk-test", "")
	if _, err := p.GenerateTasks(context.Background(), "   "); !errors.Is(err, ErrEmptySyllabus) {
		t.Errorf("Expected ErrEmptySyllabus, got %v", err)
	}
}

func TestOpenAIProvider_RateLimited(t *testing.T) {
	t.Parallel()

	srv := fakeCompletionServer(t, http.StatusTooManyRequests, "", nil)
	p := NewOpenAIProviderWithLogger("sk-test", srv.URL+"/v1", "", nil, false)

	_, err := p.GenerateTasks(context.Background(), "Linear algebra")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !IsRateLimitError(err) {
		t.Errorf("Expected rate limit error, got %v", err)
	}
}

func TestOpenAIProvider_ChatReplaysHistory(t *testing.T) {
	t.Parallel()

	var captured capturedRequest
	srv := fakeCompletionServer(t, http.StatusOK, "Try spaced repetition.", &captured)
	p := NewOpenAIProviderWithLogger("sk-test", srv.URL+"/v1", "gpt-4o", nil, false)

	history := []ChatMessage{
		{Role: "user", Content: "How do I start?"},
		{Role: "assistant", Content: "With day 1."},
	}
	resp, err := p.Chat(context.Background(), "How do I remember it?", "Biology 101", history)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Message != "Try spaced repetition." {
		t.Errorf("Expected coach reply, got %q", resp.Message)
	}
	// system + history + new message
	if len(captured.Messages) != 4 {
		t.Errorf("Expected 4 messages, got %d", len(captured.Messages))
	}
	if captured.ResponseFormat != nil {
		t.Error("Expected chat to use plain text responses")
	}
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	RegisterOpenAI(registry, nil)

	if _, err := registry.GetProvider("openai", map[string]string{}); err == nil {
		t.Error("Expected error for missing api_key")
	}
	if _, err := registry.GetProvider("openai", map[string]string{"api_key": "sk-test"}); err != nil {
		t.Errorf("Expected provider, got %v", err)
	}

	var notFound *ErrProviderNotFound
	if _, err := registry.GetProvider("llama", nil); !errors.As(err, &notFound) {
		t.Errorf("Expected ErrProviderNotFound, got %v", err)
	}
}
