package analytics

import (
	"context"
	"sync"

	"github.com/benvon/study-advent/internal/models"
)

// SessionLog is the append-only history of study sessions.
// The aggregate keeps its own copy; a log lets callers page through history
// without loading the whole snapshot.
type SessionLog interface {
	Append(ctx context.Context, session models.StudySession) error
	List(ctx context.Context, offset, limit int) ([]models.StudySession, int, error)
	Clear(ctx context.Context) error
}

// SliceLog is an in-memory SessionLog.
type SliceLog struct {
	mu       sync.RWMutex
	sessions []models.StudySession
}

// NewSliceLog creates an empty in-memory log.
func NewSliceLog() *SliceLog {
	return &SliceLog{}
}

func (l *SliceLog) Append(_ context.Context, session models.StudySession) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions = append(l.sessions, session)
	return nil
}

// List returns sessions in insertion order along with the total count.
func (l *SliceLog) List(_ context.Context, offset, limit int) ([]models.StudySession, int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := len(l.sessions)
	lo, hi := Page(total, offset, limit)
	return append([]models.StudySession{}, l.sessions[lo:hi]...), total, nil
}

func (l *SliceLog) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions = nil
	return nil
}

// Page clamps offset and limit to [0,total]. A non-positive limit means "to the end".
func Page(total, offset, limit int) (int, int) {
	lo := min(max(offset, 0), total)
	hi := total
	if limit > 0 {
		hi = min(lo+limit, total)
	}
	return lo, hi
}
