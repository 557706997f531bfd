package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/domain/repository"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/logger"
)

// AttachmentUseCase stages image bytes under a "blob:" ref until a message
// that references them is sent.
type AttachmentUseCase struct {
	staging  repository.StagingRepository
	maxBytes int64
	ttl      time.Duration
	now      func() time.Time
}

func NewAttachmentUseCase(staging repository.StagingRepository, maxBytes int64, ttl time.Duration) *AttachmentUseCase {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AttachmentUseCase{
		staging:  staging,
		maxBytes: maxBytes,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (uc *AttachmentUseCase) Stage(ctx context.Context, ownerID, filename string, r io.Reader) (*entity.Attachment, error) {
	if ownerID == "" {
		return nil, errors.Unauthorized("User not authenticated", nil)
	}

	data, err := io.ReadAll(io.LimitReader(r, uc.maxBytes+1))
	if err != nil {
		return nil, errors.BadRequest("Unable to read attachment", err)
	}
	if len(data) == 0 {
		return nil, errors.BadRequest("Attachment is empty", nil)
	}
	if int64(len(data)) > uc.maxBytes {
		return nil, errors.BadRequest(fmt.Sprintf("Attachment exceeds maximum allowed size (%dMB)", uc.maxBytes/(1024*1024)), nil)
	}

	mtype := mimetype.Detect(data)
	if !isAllowedImageType(mtype) {
		logger.Warn("Rejected attachment from %s: detected type %s", ownerID, mtype.String())
		return nil, errors.BadRequest("Only image attachments are supported", nil)
	}

	now := uc.now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, errors.Internal("Failed to allocate attachment id", err)
	}

	blob := &entity.StagedBlob{
		Ref:         entity.EphemeralScheme + id.String(),
		OwnerID:     ownerID,
		Filename:    sanitizeFilename(filename),
		ContentType: mtype.String(),
		Data:        data,
		CreatedAt:   now,
	}
	if err := uc.staging.Put(ctx, blob, uc.ttl); err != nil {
		logger.Error("Failed to stage attachment for %s: %v", ownerID, err)
		return nil, errors.Internal("Failed to stage attachment", err)
	}

	logger.Debug("Staged attachment %s (%s, %d bytes) for %s", blob.Ref, blob.ContentType, len(data), ownerID)
	return &entity.Attachment{
		Type:     entity.AttachmentTypeImage,
		URL:      blob.Ref,
		Filename: blob.Filename,
	}, nil
}

func (uc *AttachmentUseCase) SweepExpired(ctx context.Context) (int, error) {
	removed, err := uc.staging.Sweep(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Info("Swept %d expired staged attachments", removed)
	}
	return removed, nil
}

func (uc *AttachmentUseCase) StartSweepJob(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		logger.Warn("Staging sweep job disabled (interval %s)", interval)
		return
	}
	ticker := time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				if _, err := uc.SweepExpired(ctx); err != nil {
					logger.Error("Staging sweep job error: %v", err)
				}
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

func isAllowedImageType(mtype *mimetype.MIME) bool {
	allowedTypes := []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	for _, allowedType := range allowedTypes {
		if mtype.Is(allowedType) {
			return true
		}
	}

	return false
}

// sanitizeFilename keeps a safe base name for object paths.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		return "attachment"
	}
	return cleaned
}
