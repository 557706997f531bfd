package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CONVERSATION_DEDUP_MODE", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gcs", cfg.StorageDriver)
	assert.Equal(t, int64(10<<20), cfg.AttachmentMaxBytes)
	assert.Equal(t, 30*time.Minute, cfg.StagingTTL)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.True(t, cfg.GCSPublicACL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("S3_USE_SSL", "false")
	t.Setenv("GCS_PUBLIC_ACL", "false")
	t.Setenv("CLEANUP_INTERVAL_SECONDS", "0")
	t.Setenv("CONVERSATION_DEDUP_MODE", "Unordered")
	t.Setenv("STAGING_TTL_SECONDS", "90")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ATTACHMENT_MAX_BYTES", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "https://aero.example, ,https://admin.aero.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.StorageDriver)
	assert.False(t, cfg.S3UseSSL)
	assert.False(t, cfg.GCSPublicACL)
	assert.Zero(t, cfg.CleanupInterval)
	assert.Equal(t, "unordered", cfg.DedupMode)
	assert.Equal(t, 90*time.Second, cfg.StagingTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, int64(10<<20), cfg.AttachmentMaxBytes)
	assert.Equal(t, []string{"https://aero.example", "https://admin.aero.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsDevelopment())
}
