package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/repositories"
	redisclient "github.com/zatekoja/Medicalqueryreview/internal/infrastructure/clients/redis"
	apperrors "github.com/zatekoja/Medicalqueryreview/pkg/errors"
)

// RedisAdapter stores the latest snapshot under a single Redis key
type RedisAdapter struct {
	client *redisclient.Client
	key    string
}

// NewRedisAdapter creates a Redis-backed snapshot store
func NewRedisAdapter(client *redisclient.Client, key string) repositories.SnapshotRepository {
	return &RedisAdapter{
		client: client,
		key:    key,
	}
}

// Save replaces the stored snapshot
func (a *RedisAdapter) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	if snapshot == nil {
		return apperrors.NewInternalError("snapshot is nil", fmt.Errorf("snapshot is nil"))
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return apperrors.NewInternalError("failed to encode snapshot", err)
	}
	if err := a.client.Client().Set(ctx, a.key, payload, 0).Err(); err != nil {
		return apperrors.NewExternalError("failed to store snapshot in Redis", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil when the key is absent
func (a *RedisAdapter) Load(ctx context.Context) (*entities.Snapshot, error) {
	payload, err := a.client.Client().Get(ctx, a.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewExternalError("failed to read snapshot from Redis", err)
	}
	return decode(payload)
}

// Ping verifies the connection to Redis
func (a *RedisAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
