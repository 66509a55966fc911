// Package rooms manages membership of the static study-room directory.
package rooms

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed rooms.yaml
var roomsYAML []byte

var (
	ErrRoomNotFound = errors.New("study room not found")
	ErrRoomFull     = errors.New("study room is full")
)

// ParseCatalog decodes a YAML room directory.
func ParseCatalog(data []byte) ([]models.StudyRoom, error) {
	var doc struct {
		Rooms []models.StudyRoom `yaml:"rooms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse room catalog: %w", err)
	}
	return doc.Rooms, nil
}

// DefaultCatalog returns the built-in room directory.
func DefaultCatalog() []models.StudyRoom {
	rooms, err := ParseCatalog(roomsYAML)
	if err != nil {
		panic(err)
	}
	return rooms
}

// Service joins and leaves rooms for the local learner.
type Service struct {
	mu      sync.Mutex
	store   storage.Store
	catalog []models.StudyRoom
	logger  *zap.Logger
}

// NewService creates a room service over catalog. A nil catalog uses the built-in one.
func NewService(store storage.Store, catalog []models.StudyRoom, logger *zap.Logger) *Service {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, catalog: catalog, logger: logger}
}

func (s *Service) membership() models.RoomMembership {
	m, err := storage.ReadJSON(s.store, storage.KeyStudyRooms, models.RoomMembership{})
	if err != nil {
		s.logger.Error("room_membership_load_failed", zap.Error(err))
	}
	return m
}

func (s *Service) find(id string) (models.StudyRoom, bool) {
	for _, r := range s.catalog {
		if r.ID == id {
			return r, true
		}
	}
	return models.StudyRoom{}, false
}

func view(room models.StudyRoom, joined bool) models.RoomView {
	if joined {
		room.Members++
	}
	return models.RoomView{StudyRoom: room, Joined: joined}
}

// List returns every room, counting the learner in the rooms they joined.
func (s *Service) List() []models.RoomView {
	s.mu.Lock()
	defer s.mu.Unlock()

	joined := s.membership().Joined
	out := make([]models.RoomView, 0, len(s.catalog))
	for _, r := range s.catalog {
		out = append(out, view(r, slices.Contains(joined, r.ID)))
	}
	return out
}

// Join adds the learner to a room. Joining a room twice is a no-op.
func (s *Service) Join(id string) (models.RoomView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.find(id)
	if !ok {
		return models.RoomView{}, ErrRoomNotFound
	}
	m := s.membership()
	if slices.Contains(m.Joined, id) {
		return view(room, true), nil
	}
	if room.Capacity > 0 && room.Members >= room.Capacity {
		return models.RoomView{}, ErrRoomFull
	}

	m.Joined = append(m.Joined, id)
	if err := storage.WriteJSON(s.store, storage.KeyStudyRooms, m); err != nil {
		return models.RoomView{}, err
	}
	s.logger.Info("room_joined", zap.String("room_id", id))
	return view(room, true), nil
}

// Leave removes the learner from a room. Leaving a room not joined is a no-op.
func (s *Service) Leave(id string) (models.RoomView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.find(id)
	if !ok {
		return models.RoomView{}, ErrRoomNotFound
	}
	m := s.membership()
	idx := slices.Index(m.Joined, id)
	if idx < 0 {
		return view(room, false), nil
	}

	m.Joined = slices.Delete(m.Joined, idx, idx+1)
	if err := storage.WriteJSON(s.store, storage.KeyStudyRooms, m); err != nil {
		return models.RoomView{}, err
	}
	s.logger.Info("room_left", zap.String("room_id", id))
	return view(room, false), nil
}
