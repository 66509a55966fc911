package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/benvon/study-advent/internal/analytics"
	"github.com/benvon/study-advent/internal/models"
	bolt "go.etcd.io/bbolt"
)

const (
	appDir     = "study-advent"
	dbFileName = "planner.db"

	sessionKeyLayout = "20060102T150405.000000000"
)

var (
	kvBucket      = []byte("kv")
	sessionBucket = []byte("sessions")

	// ErrStoreLocked is returned when another process holds the database.
	ErrStoreLocked = errors.New("local store is locked: is another planner process running?")
)

// DefaultPath returns the planner database path under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appDir, dbFileName))
}

// BoltStore is a Store and session log backed by a bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path, creating parent directories as needed.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	var fileMode fs.FileMode = 0o600
	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, ErrStoreLocked
		}
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(kvBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.db.Path()
}

func (s *BoltStore) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(kvBucket).Get([]byte(key))
		if v != nil {
			// bbolt values are only valid inside the transaction
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *BoltStore) Set(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Put([]byte(key), value)
	})
}

func (s *BoltStore) Remove(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Delete([]byte(key))
	})
}

// SessionLog returns the session history kept in the same database.
func (s *BoltStore) SessionLog() *BoltSessionLog {
	return &BoltSessionLog{db: s.db}
}

// BoltSessionLog keeps sessions keyed by UTC start time, so iteration is chronological.
type BoltSessionLog struct {
	db *bolt.DB
}

var _ analytics.SessionLog = (*BoltSessionLog)(nil)

func sessionKey(sess models.StudySession) []byte {
	return []byte(sess.StartTime.UTC().Format(sessionKeyLayout) + "/" + sess.ID.String())
}

func (l *BoltSessionLog) Append(_ context.Context, sess models.StudySession) error {
	value, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(sessionKey(sess), value)
	})
}

// List returns sessions oldest first, along with the total count.
func (l *BoltSessionLog) List(_ context.Context, offset, limit int) ([]models.StudySession, int, error) {
	var out []models.StudySession
	total := 0
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		total = b.Stats().KeyN
		lo, hi := analytics.Page(total, offset, limit)

		c := b.Cursor()
		i := 0
		for k, v := c.First(); k != nil && i < hi; k, v = c.Next() {
			if i >= lo {
				var sess models.StudySession
				if err := json.Unmarshal(v, &sess); err != nil {
					return fmt.Errorf("failed to decode session %s: %w", k, err)
				}
				out = append(out, sess)
			}
			i++
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (l *BoltSessionLog) Clear(_ context.Context) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(sessionBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(sessionBucket)
		return err
	})
}
