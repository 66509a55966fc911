package handlers

import (
	"net/http"

	"github.com/benvon/study-advent/internal/planner"
	"github.com/benvon/study-advent/internal/request"
	"github.com/benvon/study-advent/internal/services/ai"
	"github.com/benvon/study-advent/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ChatHandler handles study assistant requests
type ChatHandler struct {
	chat    *ai.ChatService
	planner *planner.Planner
	logger  *zap.Logger
	limit   func(http.Handler) http.Handler
}

// NewChatHandler creates a new chat handler. limit wraps the message endpoint and may be nil.
func NewChatHandler(chat *ai.ChatService, p *planner.Planner, logger *zap.Logger, limit func(http.Handler) http.Handler) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	return &ChatHandler{chat: chat, planner: p, logger: logger, limit: limit}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.Handle("/chat", h.limit(http.HandlerFunc(h.SendMessage))).Methods(http.MethodPost)
	r.HandleFunc("/chat", h.GetHistory).Methods(http.MethodGet)
	r.HandleFunc("/chat", h.EndChat).Methods(http.MethodDelete)
}

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatMessageResponse is the assistant's reply
type ChatMessageResponse struct {
	Reply string `json:"reply"`
}

// conversationID keys the chat history: the signed-in subject, else the planner's bound identity.
func (h *ChatHandler) conversationID(r *http.Request) string {
	if sub := request.Subject(r); sub != "" {
		return sub
	}
	return h.planner.UserID()
}

// SendMessage asks the assistant a question about the current syllabus
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message := validation.SanitizeText(req.Message)
	if message == "" {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", "message is required")
		return
	}

	syllabus := h.planner.Snapshot().SyllabusText
	resp, err := h.chat.Ask(r.Context(), h.conversationID(r), message, syllabus)
	if err != nil {
		respondServiceError(w, h.logger, "chat", err)
		return
	}
	respondJSON(w, http.StatusOK, ChatMessageResponse{Reply: resp.Message})
}

// GetHistory returns the conversation so far
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history := h.chat.History(h.conversationID(r))
	if history == nil {
		history = []ai.ChatMessage{}
	}
	respondJSON(w, http.StatusOK, history)
}

// EndChat forgets the conversation
func (h *ChatHandler) EndChat(w http.ResponseWriter, r *http.Request) {
	h.chat.CloseSession(h.conversationID(r))
	w.WriteHeader(http.StatusNoContent)
}
