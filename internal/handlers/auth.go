package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/benvon/study-advent/internal/middleware"
	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/persistence"
	"github.com/benvon/study-advent/internal/planner"
	"github.com/benvon/study-advent/internal/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	oauthStateCookie = "study_advent_oauth_state"
	oauthStateMaxAge = 600
)

// SignInRecorder keeps the account record for a signed-in learner.
type SignInRecorder interface {
	RecordSignIn(ctx context.Context, user *models.User) error
}

// LoginFlow is the provider side of the authorization-code login.
type LoginFlow interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// AuthHandler binds the planner to the caller's identity
type AuthHandler struct {
	planner     *planner.Planner
	users       SignInRecorder
	flow        LoginFlow
	verifier    middleware.TokenVerifier
	frontendURL string
	logger      *zap.Logger
}

// AuthHandlerOption configures an AuthHandler.
type AuthHandlerOption func(*AuthHandler)

// WithSignInRecorder records every sign-in in the account store.
func WithSignInRecorder(users SignInRecorder) AuthHandlerOption {
	return func(h *AuthHandler) { h.users = users }
}

// WithLoginFlow enables the server-side login redirect. Tokens from the callback are checked by verifier.
func WithLoginFlow(flow LoginFlow, verifier middleware.TokenVerifier, frontendURL string) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.flow = flow
		h.verifier = verifier
		h.frontendURL = frontendURL
	}
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(p *planner.Planner, logger *zap.Logger, opts ...AuthHandlerOption) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &AuthHandler{planner: p, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers auth routes on the given router.
// The router should already have the /api/v1/auth prefix and require authentication.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/signin", h.SignIn).Methods(http.MethodPost)
	r.HandleFunc("/signout", h.SignOut).Methods(http.MethodPost)
	r.HandleFunc("/me", h.GetMe).Methods(http.MethodGet)
}

// RegisterLoginRoutes registers the browser login redirect and callback.
func (h *AuthHandler) RegisterLoginRoutes(r *mux.Router) {
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodGet)
	r.HandleFunc("/auth/callback", h.Callback).Methods(http.MethodGet)
}

// SignInResponse reports where the planner state came from after binding.
type SignInResponse struct {
	User      *models.User          `json:"user"`
	Source    persistence.Source    `json:"source"`
	SyncState persistence.SyncState `json:"sync_state"`
}

// SignIn binds the planner to the bearer identity and reconciles with the remote store
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil || user.Subject == "" {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, h.bind(r.Context(), user))
}

func (h *AuthHandler) bind(ctx context.Context, user *models.User) SignInResponse {
	if h.users != nil {
		if err := h.users.RecordSignIn(ctx, user); err != nil {
			h.logger.Warn("sign_in_record_failed", zap.Error(err))
		}
	}
	source := h.planner.SignIn(ctx, user.Subject)
	return SignInResponse{User: user, Source: source, SyncState: h.planner.SyncState()}
}

// SignOut unbinds the remote identity; local progress is kept
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.planner.SignOut()
	respondJSON(w, http.StatusOK, map[string]any{"signed_in": false})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Login starts the authorization-code flow
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.flow == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Sign-in is not configured")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.flow.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the login, binds the planner and hands the ID token to the frontend
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.flow == nil || h.verifier == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Sign-in is not configured")
		return
	}

	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Sign-in was not completed: "+providerErr)
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	state := q.Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid login state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/auth", MaxAge: -1, HttpOnly: true})

	code := q.Get("code")
	if code == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Missing authorization code")
		return
	}

	idToken, err := h.flow.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Warn("oauth_code_exchange_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to complete sign-in")
		return
	}

	claims, err := h.verifier.Verify(r.Context(), idToken)
	if err != nil {
		h.logger.Warn("oauth_id_token_rejected", zap.Error(err))
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid ID token")
		return
	}

	resp := h.bind(r.Context(), claims.User())
	if h.frontendURL == "" {
		respondJSON(w, http.StatusOK, map[string]any{"id_token": idToken, "sign_in": resp})
		return
	}

	fragment := url.Values{}
	fragment.Set("id_token", idToken)
	fragment.Set("source", string(resp.Source))
	http.Redirect(w, r, h.frontendURL+"#"+fragment.Encode(), http.StatusFound)
}
