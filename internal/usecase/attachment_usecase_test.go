package usecase

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/pkg/errors"
)

func TestStage_ImageGetsEphemeralRef(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()

	a, err := f.attachments.Stage(ctx, "u1", "../../etc/wing.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.URL, entity.EphemeralScheme))
	assert.Equal(t, "wing.png", a.Filename)
	assert.Equal(t, entity.AttachmentTypeImage, a.Type)

	blob, err := f.staging.Get(ctx, a.URL)
	require.NoError(t, err)
	assert.Equal(t, "u1", blob.OwnerID)
	assert.Equal(t, "image/png", blob.ContentType)
	assert.Equal(t, pngHeader, blob.Data)
}

func TestStage_Rejections(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()

	_, err := f.attachments.Stage(ctx, "u1", "notes.txt", strings.NewReader("plain text, not an image"))
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = f.attachments.Stage(ctx, "u1", "empty.png", bytes.NewReader(nil))
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = f.attachments.Stage(ctx, "", "a.png", bytes.NewReader(pngHeader))
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	small := NewAttachmentUseCase(f.staging, 8, time.Hour)
	_, err = small.Stage(ctx, "u1", "a.png", bytes.NewReader(pngHeader))
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx := context.Background()
	uc := NewAttachmentUseCase(f.staging, 1<<20, time.Second)
	uc.now = f.clock.Now

	a, err := uc.Stage(ctx, "u1", "a.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	// every clock read advances a second, so the entry is already stale
	removed, err := uc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = f.staging.Get(ctx, a.URL)
	assert.True(t, errors.IsNotFound(err))
}

func TestStartSweepJob_NonPositiveIntervalDisablesJob(t *testing.T) {
	f := newFixture(t, entity.DedupDirectional)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.NotPanics(t, func() { f.attachments.StartSweepJob(ctx, 0) })
	assert.NotPanics(t, func() { f.attachments.StartSweepJob(ctx, -time.Minute) })
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":        "photo.jpg",
		"my photo (1).png": "my_photo__1_.png",
		`C:\Users\x\a.png`: "a.png",
		"../../secret":     "secret",
		"":                 "attachment",
		"..":               "attachment",
		"ünïcödé.gif":      "_n_c_d_.gif",
	}

	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}
