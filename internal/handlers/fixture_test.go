package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/persistence"
	"github.com/benvon/study-advent/internal/planner"
	"github.com/benvon/study-advent/internal/rooms"
	"github.com/benvon/study-advent/internal/services/ai"
	"github.com/benvon/study-advent/internal/storage"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var dec1 = time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

// fakeProvider plans "<syllabus> part N" for every day and echoes chat messages.
type fakeProvider struct {
	chatErr error
}

func (p *fakeProvider) GenerateTasks(_ context.Context, syllabus string) ([]models.Task, error) {
	tasks := make([]models.Task, models.CalendarDays)
	for i := range tasks {
		tasks[i] = models.Task{Day: i + 1, Title: fmt.Sprintf("%s part %d", syllabus, i+1)}
	}
	return tasks, nil
}

func (p *fakeProvider) Chat(_ context.Context, message, syllabusContext string, history []ai.ChatMessage) (*ai.ChatResponse, error) {
	if p.chatErr != nil {
		return nil, p.chatErr
	}
	return &ai.ChatResponse{Message: fmt.Sprintf("re %s (%d prior, syllabus %q)", message, len(history), syllabusContext)}, nil
}

type testServer struct {
	router   *mux.Router
	planner  *planner.Planner
	store    *storage.MemoryStore
	clock    *events.FixedClock
	provider *fakeProvider
}

type serverOptions struct {
	noGenerator bool
	auth        []AuthHandlerOption
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()

	clock := events.NewFixedClock(dec1)
	store := storage.NewMemoryStore()
	provider := &fakeProvider{}
	persister := persistence.New(store, nil, zap.NewNop())

	var generator planner.TaskGenerator = provider
	if opts.noGenerator {
		generator = nil
	}
	p := planner.New(store, persister, generator, zap.NewNop(), planner.WithClock(clock))

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	NewPlannerHandler(p, zap.NewNop()).RegisterRoutes(api)
	NewRoomHandler(rooms.NewService(store, rooms.DefaultCatalog(), zap.NewNop()), zap.NewNop()).RegisterRoutes(api)
	NewNotificationHandler(store, zap.NewNop()).RegisterRoutes(api)
	NewChatHandler(ai.NewChatService(provider), p, zap.NewNop(), nil).RegisterRoutes(api)
	NewExportHandler(p, zap.NewNop()).RegisterRoutes(api)

	auth := NewAuthHandler(p, zap.NewNop(), opts.auth...)
	auth.RegisterRoutes(api.PathPrefix("/auth").Subrouter())
	auth.RegisterLoginRoutes(r)

	return &testServer{router: r, planner: p, store: store, clock: clock, provider: provider}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) generate(t *testing.T) {
	t.Helper()
	w := s.do(t, newTestRequest(http.MethodPost, "/api/v1/calendar/generate", map[string]string{"syllabus": "Go"}))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected calendar generation to succeed, got %d: %s", w.Code, w.Body.String())
	}
}

// envelope decodes the standard response wrapper.
func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

// data decodes the "data" member of a success envelope into dst.
func data(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body.Success {
		t.Fatal("Expected success to be true")
	}
	if err := json.Unmarshal(body.Data, dst); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}
