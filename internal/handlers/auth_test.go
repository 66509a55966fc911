package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/persistence"
	"github.com/benvon/study-advent/internal/request"
)

type fakeFlow struct {
	exchangeErr error
}

func (f *fakeFlow) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeFlow) ExchangeCode(_ context.Context, code string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "id-token-for-" + code, nil
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (*models.JWTClaims, error) {
	if !strings.HasPrefix(token, "id-token-for-") {
		return nil, errors.New("bad token")
	}
	return &models.JWTClaims{Sub: "learner-1", Email: "learner@example.com"}, nil
}

type recordingUsers struct {
	recorded []string
}

func (u *recordingUsers) RecordSignIn(_ context.Context, user *models.User) error {
	u.recorded = append(u.recorded, user.Subject)
	return nil
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	users := &recordingUsers{}
	s := newTestServer(t, serverOptions{auth: []AuthHandlerOption{WithSignInRecorder(users)}})

	req := newTestRequest(http.MethodPost, "/api/v1/auth/signin", nil)
	if w := s.do(t, req); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without a user, got %d", w.Code)
	}

	user := &models.User{Subject: "learner-1", Email: "learner@example.com"}
	req = newTestRequest(http.MethodPost, "/api/v1/auth/signin", nil)
	req = req.WithContext(request.WithUser(req.Context(), user))

	w := s.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp SignInResponse
	data(t, w, &resp)
	if resp.Source != persistence.SourceNone {
		t.Errorf("Expected source none without a remote store, got %s", resp.Source)
	}
	if s.planner.UserID() != "learner-1" {
		t.Errorf("Expected planner bound to learner-1, got %q", s.planner.UserID())
	}
	if len(users.recorded) != 1 || users.recorded[0] != "learner-1" {
		t.Errorf("Expected the sign-in to be recorded, got %v", users.recorded)
	}

	req = newTestRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(request.WithUser(req.Context(), user))
	var me models.User
	data(t, s.do(t, req), &me)
	if me.Subject != "learner-1" {
		t.Errorf("Expected learner-1, got %q", me.Subject)
	}

	if w := s.do(t, newTestRequest(http.MethodPost, "/api/v1/auth/signout", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if s.planner.UserID() != "" {
		t.Error("Expected planner to be unbound after sign-out")
	}
}

func TestLogin_NotConfigured(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOptions{})
	for _, path := range []string{"/auth/login", "/auth/callback?code=x&state=y"} {
		if w := s.do(t, newTestRequest(http.MethodGet, path, nil)); w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503 for %s, got %d", path, w.Code)
		}
	}
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOptions{auth: []AuthHandlerOption{
		WithLoginFlow(&fakeFlow{}, fakeVerifier{}, "https://app.example.com/"),
	}})

	w := s.do(t, newTestRequest(http.MethodGet, "/auth/login", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != oauthStateCookie || !cookies[0].HttpOnly {
		t.Fatalf("Expected an HttpOnly state cookie, got %+v", cookies)
	}
	state := cookies[0].Value
	if loc := w.Header().Get("Location"); !strings.Contains(loc, url.QueryEscape(state)) {
		t.Errorf("Expected state in redirect, got %s", loc)
	}

	tests := []struct {
		name       string
		query      string
		cookie     string
		wantStatus int
	}{
		{name: "provider error", query: "error=access_denied", cookie: state, wantStatus: http.StatusBadRequest},
		{name: "missing cookie", query: "code=abc&state=" + state, wantStatus: http.StatusBadRequest},
		{name: "state mismatch", query: "code=abc&state=other", cookie: state, wantStatus: http.StatusBadRequest},
		{name: "missing code", query: "state=" + state, cookie: state, wantStatus: http.StatusBadRequest},
		{name: "success", query: "code=abc&state=" + state, cookie: state, wantStatus: http.StatusFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newTestRequest(http.MethodGet, "/auth/callback?"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: tt.cookie})
			}
			w := s.do(t, req)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusFound {
				return
			}

			loc := w.Header().Get("Location")
			if !strings.HasPrefix(loc, "https://app.example.com/#") || !strings.Contains(loc, "id_token=id-token-for-abc") {
				t.Errorf("Expected redirect to the frontend with the token, got %s", loc)
			}
			if s.planner.UserID() != "learner-1" {
				t.Errorf("Expected planner bound to learner-1, got %q", s.planner.UserID())
			}
		})
	}
}

func TestLoginFlow_ExchangeFails(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOptions{auth: []AuthHandlerOption{
		WithLoginFlow(&fakeFlow{exchangeErr: errors.New("invalid_grant")}, fakeVerifier{}, ""),
	}})

	req := newTestRequest(http.MethodGet, "/auth/callback?code=abc&state=s1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "s1"})
	if w := s.do(t, req); w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
}
