package memory

import (
	"context"
	"sync"
	"time"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/pkg/errors"
)

type stagedEntry struct {
	blob      *entity.StagedBlob
	expiresAt time.Time
}

// StagingRepository keeps staged attachments in process memory. Expired
// entries are invisible to Get and reclaimed by Sweep.
type StagingRepository struct {
	Now func() time.Time

	mu    sync.Mutex
	items map[string]stagedEntry
}

func NewStagingRepository() *StagingRepository {
	return &StagingRepository{
		Now:   time.Now,
		items: make(map[string]stagedEntry),
	}
}

func (r *StagingRepository) Put(ctx context.Context, blob *entity.StagedBlob, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[blob.Ref] = stagedEntry{blob: blob, expiresAt: r.Now().Add(ttl)}
	return nil
}

func (r *StagingRepository) Get(ctx context.Context, ref string) (*entity.StagedBlob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.items[ref]
	if !ok || !r.Now().Before(entry.expiresAt) {
		return nil, errors.NotFound("Staged attachment", nil)
	}
	cp := *entry.blob
	return &cp, nil
}

func (r *StagingRepository) Delete(ctx context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, ref)
	return nil
}

func (r *StagingRepository) Sweep(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Now()
	removed := 0
	for ref, entry := range r.items {
		if !now.Before(entry.expiresAt) {
			delete(r.items, ref)
			removed++
		}
	}
	return removed, nil
}
