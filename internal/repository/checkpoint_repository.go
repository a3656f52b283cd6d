package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prepstack/satprep-backend/internal/session"
	"github.com/redis/go-redis/v9"
)

// CheckpointTTL bounds how long an interrupted session stays resumable.
// Every autosave refreshes it.
const CheckpointTTL = 48 * time.Hour

// CheckpointRepository stores session checkpoints in Redis. It implements
// session.CheckpointStore.
type CheckpointRepository struct {
	rdb *redis.Client
}

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(rdb *redis.Client) *CheckpointRepository {
	return &CheckpointRepository{rdb: rdb}
}

// Read returns the stored checkpoint bytes for a key.
func (r *CheckpointRepository) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNoCheckpoint
		}
		return nil, err
	}
	return data, nil
}

// Write overwrites the checkpoint slot and refreshes its TTL.
func (r *CheckpointRepository) Write(ctx context.Context, key string, data []byte) error {
	return r.rdb.Set(ctx, key, data, CheckpointTTL).Err()
}

// Clear deletes the checkpoint slot.
func (r *CheckpointRepository) Clear(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}
