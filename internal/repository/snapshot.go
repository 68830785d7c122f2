package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository mirrors the latest snapshot of each session into Redis
// and publishes every saved snapshot on the channel named like its key.
// Sessions are never restored from it.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot entity.Snapshot) error
	GetByCode(ctx context.Context, code string) (*entity.Snapshot, error)
	DeleteByCode(ctx context.Context, code string) error
}

type dbSnapshot struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSnapshotRepository(client *redis.Client, prefix string, ttl time.Duration) SnapshotRepository {
	return &dbSnapshot{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (that *dbSnapshot) key(code string) string {
	return that.prefix + ":" + pkg.CanonicalCode(code)
}

// Save overwrites the stored snapshot and publishes it in one transaction.
func (that *dbSnapshot) Save(ctx context.Context, snapshot entity.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	key := that.key(snapshot.Code)

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, snapshotJSON, that.ttl)
		pipe.Publish(ctx, key, snapshotJSON)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (that *dbSnapshot) GetByCode(ctx context.Context, code string) (*entity.Snapshot, error) {
	response, err := that.client.Get(ctx, that.key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot by code: %w", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

func (that *dbSnapshot) DeleteByCode(ctx context.Context, code string) error {
	deleted, err := that.client.Del(ctx, that.key(code)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot by code: %w", err)
	}

	if deleted == 0 {
		return ErrSnapshotNotFound
	}

	return nil
}
