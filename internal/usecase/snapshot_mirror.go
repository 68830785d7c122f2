package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
)

type snapshotRepo interface {
	Save(ctx context.Context, snapshot entity.Snapshot) error
	GetByCode(ctx context.Context, code string) (*entity.Snapshot, error)
	DeleteByCode(ctx context.Context, code string) error
}

type mirrorTask struct {
	snapshot *entity.Snapshot
	remove   string
}

// SnapshotMirror copies broadcast snapshots into Redis on a single worker.
// Updates waiting for the worker are coalesced per session: only the newest
// snapshot (or the removal) of each code is written.
type SnapshotMirror struct {
	logger *slog.Logger
	repo   snapshotRepo

	mu      sync.Mutex
	pending map[string]mirrorTask
	order   []string
	wake    chan struct{}
}

func NewSnapshotMirror(logger *slog.Logger, repo snapshotRepo) *SnapshotMirror {
	return &SnapshotMirror{
		logger:  logger.With("component", "snapshot-mirror"),
		repo:    repo,
		pending: make(map[string]mirrorTask),
		wake:    make(chan struct{}, 1),
	}
}

func (that *SnapshotMirror) Broadcast(_ context.Context, snapshot entity.Snapshot) {
	that.enqueue(snapshot.Code, mirrorTask{snapshot: &snapshot})
}

func (that *SnapshotMirror) Forget(_ context.Context, code string) {
	code = pkg.CanonicalCode(code)
	that.enqueue(code, mirrorTask{remove: code})
}

// Latest reads back the mirrored snapshot of code.
func (that *SnapshotMirror) Latest(ctx context.Context, code string) (entity.Snapshot, error) {
	snapshot, err := that.repo.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return entity.Snapshot{}, fmt.Errorf("%w: no mirrored snapshot for %s", apperror.ErrSessionNotFound, pkg.CanonicalCode(code))
	}

	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to read mirrored snapshot: %w", err)
	}

	return *snapshot, nil
}

func (that *SnapshotMirror) enqueue(code string, task mirrorTask) {
	that.mu.Lock()
	if _, ok := that.pending[code]; !ok {
		that.order = append(that.order, code)
	}
	that.pending[code] = task
	that.mu.Unlock()

	select {
	case that.wake <- struct{}{}:
	default:
	}
}

// Run writes pending updates until ctx is done.
func (that *SnapshotMirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-that.wake:
			that.flush(ctx)
		}
	}
}

func (that *SnapshotMirror) flush(ctx context.Context) {
	that.mu.Lock()
	order, pending := that.order, that.pending
	that.order, that.pending = nil, make(map[string]mirrorTask)
	that.mu.Unlock()

	for _, code := range order {
		that.apply(ctx, pending[code])
	}
}

func (that *SnapshotMirror) apply(ctx context.Context, task mirrorTask) {
	log := that.logger.With("method", "apply")

	if task.snapshot != nil {
		if err := that.repo.Save(ctx, *task.snapshot); err != nil {
			log.Error("failed to save snapshot", "code", task.snapshot.Code, "error", err)
		}
		return
	}

	err := that.repo.DeleteByCode(ctx, task.remove)
	if err != nil && !errors.Is(err, repository.ErrSnapshotNotFound) {
		log.Error("failed to delete snapshot", "code", task.remove, "error", err)
	}
}
