package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	healthy := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name         string
		path         string
		checks       map[string]CheckFunc
		wantStatus   int
		wantHealth   string
		wantChecks   map[string]string
		expectChecks bool
	}{
		{
			name:       "liveness ignores probes",
			path:       "/healthz",
			checks:     map[string]CheckFunc{"redis": failing},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:         "readiness all healthy",
			path:         "/readyz",
			checks:       map[string]CheckFunc{"local_store": healthy, "database": healthy},
			wantStatus:   http.StatusOK,
			wantHealth:   "healthy",
			wantChecks:   map[string]string{"local_store": "healthy", "database": "healthy"},
			expectChecks: true,
		},
		{
			name:         "readiness one failing",
			path:         "/readyz",
			checks:       map[string]CheckFunc{"local_store": healthy, "queue": failing},
			wantStatus:   http.StatusServiceUnavailable,
			wantHealth:   "unhealthy",
			wantChecks:   map[string]string{"local_store": "healthy", "queue": "unhealthy: connection refused"},
			expectChecks: true,
		},
		{
			name:         "extended mode runs probes",
			path:         "/healthz?mode=extended",
			checks:       map[string]CheckFunc{"queue": failing},
			wantStatus:   http.StatusServiceUnavailable,
			wantHealth:   "unhealthy",
			wantChecks:   map[string]string{"queue": "unhealthy: connection refused"},
			expectChecks: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthChecker()
			for name, check := range tt.checks {
				h.Register(name, check)
			}
			h.Register("ignored", nil)

			r := mux.NewRouter()
			h.RegisterRoutes(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("Expected status %q, got %q", tt.wantHealth, resp.Status)
			}
			if !tt.expectChecks {
				if len(resp.Checks) != 0 {
					t.Errorf("Expected no checks, got %v", resp.Checks)
				}
				return
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("Expected %d checks, got %v", len(tt.wantChecks), resp.Checks)
			}
			for name, want := range tt.wantChecks {
				if resp.Checks[name] != want {
					t.Errorf("Expected check %s to be %q, got %q", name, want, resp.Checks[name])
				}
			}
		})
	}
}
