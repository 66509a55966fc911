package handlers

import (
	"net/http"

	"github.com/benvon/study-advent/internal/rooms"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RoomHandler handles study room requests
type RoomHandler struct {
	rooms  *rooms.Service
	logger *zap.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(svc *rooms.Service, logger *zap.Logger) *RoomHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomHandler{rooms: svc, logger: logger}
}

// RegisterRoutes registers room routes
func (h *RoomHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/rooms", h.ListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}/join", h.JoinRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}/leave", h.LeaveRoom).Methods(http.MethodPost)
}

// ListRooms returns every room with its occupancy
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.rooms.List())
}

// JoinRoom adds the learner to a room
func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	view, err := h.rooms.Join(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, h.logger, "join_room", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// LeaveRoom removes the learner from a room
func (h *RoomHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	view, err := h.rooms.Leave(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, h.logger, "leave_room", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
