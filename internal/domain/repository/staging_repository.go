package repository

import (
	"context"
	"time"

	"aeroclassifieds/internal/domain/entity"
)

// StagingRepository keeps attachment bytes addressable by an ephemeral ref
// until they are uploaded or expire.
type StagingRepository interface {
	Put(ctx context.Context, blob *entity.StagedBlob, ttl time.Duration) error
	Get(ctx context.Context, ref string) (*entity.StagedBlob, error)
	Delete(ctx context.Context, ref string) error
	Sweep(ctx context.Context) (int, error)
}
