package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/domain/repository"
	"aeroclassifieds/pkg/errors"
)

const stagingKeyPrefix = "staging:"

type redisStagingRepository struct {
	client *redis.Client
}

func NewRedisStagingRepository(client *redis.Client) repository.StagingRepository {
	return &redisStagingRepository{client: client}
}

func (r *redisStagingRepository) Put(ctx context.Context, blob *entity.StagedBlob, ttl time.Duration) error {
	payload, err := json.Marshal(blob)
	if err != nil {
		return errors.Internal("Failed to encode staged attachment", err)
	}
	if err := r.client.Set(ctx, stagingKeyPrefix+blob.Ref, payload, ttl).Err(); err != nil {
		return errors.Internal("Failed to stage attachment", err)
	}
	return nil
}

func (r *redisStagingRepository) Get(ctx context.Context, ref string) (*entity.StagedBlob, error) {
	payload, err := r.client.Get(ctx, stagingKeyPrefix+ref).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFound("Staged attachment", nil)
		}
		return nil, errors.Internal("Failed to read staged attachment", err)
	}

	var blob entity.StagedBlob
	if err := json.Unmarshal(payload, &blob); err != nil {
		return nil, errors.Internal("Failed to decode staged attachment", err)
	}
	return &blob, nil
}

func (r *redisStagingRepository) Delete(ctx context.Context, ref string) error {
	if err := r.client.Del(ctx, stagingKeyPrefix+ref).Err(); err != nil {
		return errors.Internal("Failed to drop staged attachment", err)
	}
	return nil
}

// Sweep is a no-op: keys carry their own TTL.
func (r *redisStagingRepository) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}
