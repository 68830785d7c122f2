package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
)

// fakeSnapshotRepo records writes in order and keeps the latest snapshot per code.
type fakeSnapshotRepo struct {
	mu     sync.Mutex
	writes []string
	stored map[string]entity.Snapshot
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{stored: make(map[string]entity.Snapshot)}
}

func (that *fakeSnapshotRepo) Save(_ context.Context, snapshot entity.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.writes = append(that.writes, "save "+snapshot.Code)
	that.stored[snapshot.Code] = snapshot
	return nil
}

func (that *fakeSnapshotRepo) GetByCode(_ context.Context, code string) (*entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot, ok := that.stored[code]
	if !ok {
		return nil, repository.ErrSnapshotNotFound
	}
	return &snapshot, nil
}

func (that *fakeSnapshotRepo) DeleteByCode(_ context.Context, code string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.writes = append(that.writes, "delete "+code)
	if _, ok := that.stored[code]; !ok {
		return repository.ErrSnapshotNotFound
	}
	delete(that.stored, code)
	return nil
}

func (that *fakeSnapshotRepo) log() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]string(nil), that.writes...)
}

func TestSnapshotMirror(t *testing.T) {
	ctx := context.Background()

	t.Run("Keeps only the newest pending snapshot of each session", func(t *testing.T) {
		// Given: a mirror whose worker has not caught up
		repo := newFakeSnapshotRepo()
		mirror := NewSnapshotMirror(suite.NewLogger(), repo)

		// When: many updates arrive for two sessions, ending with a finished game
		for version := uint64(1); version <= 100; version++ {
			mirror.Broadcast(ctx, entity.Snapshot{Code: "ABC123", State: entity.StateInProgress, Version: version})
		}
		mirror.Broadcast(ctx, entity.Snapshot{Code: "XYZ789", Version: 1})
		mirror.Broadcast(ctx, entity.Snapshot{Code: "ABC123", State: entity.StateFinished, Version: 101})
		mirror.flush(ctx)

		// Then: one write per session, in first-seen order, and the final state is kept
		assert.Equal(t, []string{"save ABC123", "save XYZ789"}, repo.log())

		latest, err := mirror.Latest(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, entity.StateFinished, latest.State)
		assert.Equal(t, uint64(101), latest.Version)
	})

	t.Run("Removal replaces pending snapshots", func(t *testing.T) {
		repo := newFakeSnapshotRepo()
		mirror := NewSnapshotMirror(suite.NewLogger(), repo)
		mirror.Broadcast(ctx, entity.Snapshot{Code: "ABC123", Version: 1})
		mirror.flush(ctx)

		mirror.Broadcast(ctx, entity.Snapshot{Code: "ABC123", Version: 2})
		mirror.Forget(ctx, "abc123")
		mirror.flush(ctx)

		assert.Equal(t, []string{"save ABC123", "delete ABC123"}, repo.log())

		_, err := mirror.Latest(ctx, "ABC123")
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Worker writes the final snapshot", func(t *testing.T) {
		// Given: a running mirror
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		repo := newFakeSnapshotRepo()
		mirror := NewSnapshotMirror(suite.NewLogger(), repo)
		go mirror.Run(runCtx)

		// When: a burst of snapshots is broadcast
		for version := uint64(1); version <= 50; version++ {
			mirror.Broadcast(ctx, entity.Snapshot{Code: "ABC123", Version: version})
		}

		// Then: the store ends up with the last one
		require.Eventually(t, func() bool {
			latest, err := mirror.Latest(ctx, "ABC123")
			return err == nil && latest.Version == 50
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestSnapshotMirror_Redis(t *testing.T) {
	// Given: a mirror backed by a real Redis
	ctx, st := suite.New(t)
	repo := repository.NewSnapshotRepository(st.Storage, "session", time.Minute)
	mirror := NewSnapshotMirror(st.Logger, repo)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go mirror.Run(runCtx)

	// When: a snapshot is broadcast
	mirror.Broadcast(ctx, entity.Snapshot{Code: "ABC123", State: entity.StateWaiting, Version: 1})

	// Then: it eventually becomes readable with any case of the code
	require.Eventually(t, func() bool {
		snapshot, err := mirror.Latest(ctx, "abc123")
		return err == nil && snapshot.Version == 1
	}, 5*time.Second, 50*time.Millisecond)
}
