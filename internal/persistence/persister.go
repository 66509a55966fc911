// Package persistence reconciles the device-local store with an optional remote store.
//
// Local writes are synchronous. Remote writes run in the background and their
// failures are logged, never returned. On load, a remote snapshot replaces the
// local one wholesale.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RemoteStore is the per-user progress store.
type RemoteStore interface {
	// LoadProgress returns nil, nil when the user has no record.
	LoadProgress(ctx context.Context, userID string) (*models.ProgressRecord, error)
	SaveProgress(ctx context.Context, userID string, snapshot models.Snapshot) error
	DeleteProgress(ctx context.Context, userID string) (bool, error)
}

// Source tells where a loaded snapshot came from.
type Source string

const (
	SourceNone   Source = "none"
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
	// SourceUnavailable means the remote record could not be read; local state was kept.
	SourceUnavailable Source = "unavailable"
)

// SyncState is the reconciliation status reported to clients.
type SyncState string

const (
	SyncNoData        SyncState = "no_data"
	SyncLocalOnly     SyncState = "local_only"
	SyncRemotePending SyncState = "remote_pending"
	SyncSynced        SyncState = "synced"
)

const defaultRemoteTimeout = 10 * time.Second

// Persister writes snapshots locally and mirrors them remotely for signed-in users.
type Persister struct {
	local         storage.Store
	remote        RemoteStore
	logger        *zap.Logger
	remoteTimeout time.Duration

	wg sync.WaitGroup

	mu          sync.Mutex
	state       SyncState
	generation  uint64
	lastWritten uint64

	// serializes remote writes so a stale snapshot never lands after a newer one
	remoteMu sync.Mutex
}

// Option configures a Persister.
type Option func(*Persister)

// WithRemoteTimeout bounds each background remote write.
func WithRemoteTimeout(d time.Duration) Option {
	return func(p *Persister) {
		if d > 0 {
			p.remoteTimeout = d
		}
	}
}

// New creates a Persister. remote may be nil.
func New(local storage.Store, remote RemoteStore, logger *zap.Logger, opts ...Option) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Persister{
		local:         local,
		remote:        remote,
		logger:        logger,
		remoteTimeout: defaultRemoteTimeout,
		state:         SyncNoData,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HasRemote reports whether a remote store is configured.
func (p *Persister) HasRemote() bool {
	return p.remote != nil
}

// State returns the current sync state.
func (p *Persister) State() SyncState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Persister) setState(s SyncState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// SaveLocal writes the snapshot under the progress and analytics keys.
func (p *Persister) SaveLocal(snapshot models.Snapshot) {
	if err := storage.WriteJSON(p.local, storage.KeyProgress, snapshot.ProgressState); err != nil {
		p.logger.Error("local_save_failed", zap.String("key", storage.KeyProgress), zap.Error(err))
	}
	if err := storage.WriteJSON(p.local, storage.KeyAnalytics, snapshot.Analytics); err != nil {
		p.logger.Error("local_save_failed", zap.String("key", storage.KeyAnalytics), zap.Error(err))
	}
}

// SaveRemote upserts the snapshot for userID. It reports success; failures are logged.
func (p *Persister) SaveRemote(ctx context.Context, userID string, snapshot models.Snapshot) bool {
	if p.remote == nil || userID == "" {
		return false
	}
	if err := p.remote.SaveProgress(ctx, userID, snapshot); err != nil {
		p.logger.Error("remote_save_failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return true
}

// Save persists locally, then mirrors remotely in the background when userID is set.
// The background write outlives ctx cancellation; use Wait to drain it.
func (p *Persister) Save(ctx context.Context, userID string, snapshot models.Snapshot) {
	p.SaveLocal(snapshot)

	if p.remote == nil || userID == "" {
		p.setState(SyncLocalOnly)
		return
	}

	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.state = SyncRemotePending
	p.mu.Unlock()

	snap := snapshot.Clone()
	bg := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.remoteMu.Lock()
		defer p.remoteMu.Unlock()

		p.mu.Lock()
		stale := gen < p.lastWritten
		p.mu.Unlock()
		if stale {
			p.logger.Debug("remote_save_skipped_stale", zap.String("user_id", userID), zap.Uint64("generation", gen))
			return
		}

		writeCtx, cancel := context.WithTimeout(bg, p.remoteTimeout)
		defer cancel()
		ok := p.SaveRemote(writeCtx, userID, snap)

		p.mu.Lock()
		defer p.mu.Unlock()
		if gen > p.lastWritten {
			p.lastWritten = gen
		}
		if gen != p.generation {
			// a newer save owns the state
			return
		}
		if ok {
			p.state = SyncSynced
		} else {
			p.state = SyncLocalOnly
		}
	}()
}

// Wait blocks until in-flight remote writes finish.
func (p *Persister) Wait() {
	p.wg.Wait()
}

// ErrRemoteUnavailable is returned by Load when the remote store could not be read.
// The snapshot returned alongside it is the local fallback and must not be pushed
// over the remote record.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// Load returns the authoritative snapshot: remote for a signed-in user when present, else local.
// A failed remote read still yields the local snapshot, together with ErrRemoteUnavailable.
func (p *Persister) Load(ctx context.Context, userID string) (*models.Snapshot, Source, error) {
	var remoteErr error
	if p.remote != nil && userID != "" {
		record, err := p.remote.LoadProgress(ctx, userID)
		switch {
		case err != nil:
			p.logger.Warn("remote_load_failed", zap.String("user_id", userID), zap.Error(err))
			remoteErr = fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		case record != nil:
			snap := record.Snapshot
			p.setState(SyncSynced)
			return &snap, SourceRemote, nil
		}
	}

	progress, err := storage.ReadJSON[*models.ProgressState](p.local, storage.KeyProgress, nil)
	if err != nil {
		p.logger.Error("local_load_failed", zap.String("key", storage.KeyProgress), zap.Error(err))
	}
	if progress == nil {
		p.setState(SyncNoData)
		return nil, SourceNone, remoteErr
	}

	analyticsData, err := storage.ReadJSON(p.local, storage.KeyAnalytics, models.NewAnalyticsData())
	if err != nil {
		p.logger.Error("local_load_failed", zap.String("key", storage.KeyAnalytics), zap.Error(err))
	}

	p.setState(SyncLocalOnly)
	return &models.Snapshot{ProgressState: *progress, Analytics: analyticsData}, SourceLocal, remoteErr
}

// Clear removes local progress and, for a signed-in user, the remote record concurrently.
// A remote write already in flight finishes before the delete; queued ones are dropped.
func (p *Persister) Clear(ctx context.Context, userID string) error {
	p.remoteMu.Lock()
	defer p.remoteMu.Unlock()

	p.mu.Lock()
	p.generation++
	p.lastWritten = p.generation
	p.mu.Unlock()

	var g errgroup.Group

	g.Go(func() error {
		var errs []error
		for _, key := range []string{storage.KeyProgress, storage.KeyAnalytics} {
			if err := p.local.Remove(key); err != nil {
				p.logger.Error("local_clear_failed", zap.String("key", key), zap.Error(err))
				errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
			}
		}
		return errors.Join(errs...)
	})

	if p.remote != nil && userID != "" {
		g.Go(func() error {
			existed, err := p.remote.DeleteProgress(ctx, userID)
			if err != nil {
				p.logger.Error("remote_clear_failed", zap.String("user_id", userID), zap.Error(err))
				return err
			}
			p.logger.Debug("remote_cleared", zap.String("user_id", userID), zap.Bool("existed", existed))
			return nil
		})
	}

	err := g.Wait()
	p.setState(SyncNoData)
	return err
}
