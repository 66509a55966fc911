package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/services/ai"
)

func TestRooms(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOptions{})

	var list []models.RoomView
	data(t, s.do(t, newTestRequest(http.MethodGet, "/api/v1/rooms", nil)), &list)
	if len(list) == 0 {
		t.Fatal("Expected the default rooms")
	}

	w := s.do(t, newTestRequest(http.MethodPost, "/api/v1/rooms/deep-focus/join", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var joined models.RoomView
	data(t, w, &joined)
	if !joined.Joined {
		t.Error("Expected room to be joined")
	}

	w = s.do(t, newTestRequest(http.MethodPost, "/api/v1/rooms/deep-focus/leave", nil))
	var left models.RoomView
	data(t, w, &left)
	if left.Joined {
		t.Error("Expected room to be left")
	}

	if w := s.do(t, newTestRequest(http.MethodPost, "/api/v1/rooms/nowhere/join", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestNotificationSettings(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOptions{})

	var got models.NotificationSettings
	data(t, s.do(t, newTestRequest(http.MethodGet, "/api/v1/notifications/settings", nil)), &got)
	if got != models.DefaultNotificationSettings() {
		t.Errorf("Expected defaults, got %+v", got)
	}

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{name: "valid", body: models.NotificationSettings{Enabled: true, DailyReminderTime: "18:30"}, wantStatus: http.StatusOK},
		{name: "bad time", body: models.NotificationSettings{Enabled: true, DailyReminderTime: "25:00"}, wantStatus: http.StatusBadRequest},
		{name: "missing time", body: map[string]any{"enabled": true}, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, newTestRequest(http.MethodPut, "/api/v1/notifications/settings", tt.body))
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}

	data(t, s.do(t, newTestRequest(http.MethodGet, "/api/v1/notifications/settings", nil)), &got)
	want := models.NotificationSettings{Enabled: true, DailyReminderTime: "18:30"}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestChat(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOptions{})
	s.generate(t)

	w := s.do(t, newTestRequest(http.MethodPost, "/api/v1/chat", ChatMessageRequest{Message: "What is day 1 about?"}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var reply ChatMessageResponse
	data(t, w, &reply)
	if reply.Reply != `re What is day 1 about? (0 prior, syllabus "Go")` {
		t.Errorf("Unexpected reply %q", reply.Reply)
	}

	var history []ai.ChatMessage
	data(t, s.do(t, newTestRequest(http.MethodGet, "/api/v1/chat", nil)), &history)
	if len(history) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(history))
	}

	if w := s.do(t, newTestRequest(http.MethodDelete, "/api/v1/chat", nil)); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	data(t, s.do(t, newTestRequest(http.MethodGet, "/api/v1/chat", nil)), &history)
	if len(history) != 0 {
		t.Errorf("Expected empty history, got %d", len(history))
	}

	if w := s.do(t, newTestRequest(http.MethodPost, "/api/v1/chat", ChatMessageRequest{})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for an empty message, got %d", w.Code)
	}
}

func TestChat_ProviderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "rate limited", err: &ai.APIError{StatusCode: 429, Message: "slow down"}, wantStatus: http.StatusTooManyRequests},
		{name: "quota", err: &ai.APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true}, wantStatus: http.StatusServiceUnavailable},
		{name: "other", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, serverOptions{})
			s.provider.chatErr = tt.err

			w := s.do(t, newTestRequest(http.MethodPost, "/api/v1/chat", ChatMessageRequest{Message: "hi"}))
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestExport(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOptions{})

	for _, path := range []string{"/api/v1/export/ics", "/api/v1/export/print", "/api/v1/export/google/1"} {
		if w := s.do(t, newTestRequest(http.MethodGet, path, nil)); w.Code != http.StatusConflict {
			t.Errorf("Expected status 409 for %s without a calendar, got %d", path, w.Code)
		}
	}

	s.generate(t)

	w := s.do(t, newTestRequest(http.MethodGet, "/api/v1/export/ics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Expected text/calendar, got %s", ct)
	}
	ics := w.Body.String()
	if !strings.HasPrefix(ics, "BEGIN:VCALENDAR") || strings.Count(ics, "BEGIN:VEVENT") != models.CalendarDays {
		t.Errorf("Expected a calendar with %d events", models.CalendarDays)
	}
	if !strings.Contains(ics, "DTSTART;VALUE=DATE:20241201") {
		t.Error("Expected day 1 to start today")
	}

	w = s.do(t, newTestRequest(http.MethodGet, "/api/v1/export/print", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if csp := w.Header().Get("Content-Security-Policy"); csp != printContentSecurityPolicy {
		t.Errorf("Expected print CSP, got %q", csp)
	}
	if !strings.Contains(w.Body.String(), "Go part 24") {
		t.Error("Expected every task in the print view")
	}

	var link map[string]string
	data(t, s.do(t, newTestRequest(http.MethodGet, "/api/v1/export/google/3", nil)), &link)
	if !strings.HasPrefix(link["url"], "https://calendar.google.com/") || !strings.Contains(link["url"], "20241203") {
		t.Errorf("Unexpected link %q", link["url"])
	}

	if w := s.do(t, newTestRequest(http.MethodGet, "/api/v1/export/google/30", nil)); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
