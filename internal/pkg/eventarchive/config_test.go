package eventarchive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDisabledByDefault(t *testing.T) {
	t.Setenv("EVENT_ARCHIVE_ENABLED", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.IsEnabled())
}

func TestLoadConfigEnabledRequiresCredentials(t *testing.T) {
	t.Setenv("EVENT_ARCHIVE_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	t.Setenv("S3_SECRET_ACCESS_KEY", "")
	t.Setenv("S3_BUCKET_NAME", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigEnabled(t *testing.T) {
	t.Setenv("EVENT_ARCHIVE_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "webhook-archive")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, "webhook-archive", cfg.BucketName)
}

func TestObjectKeyLayout(t *testing.T) {
	cfg := &Config{}
	receivedAt := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	key := cfg.ObjectKey("app/uninstalled", "evt-123", receivedAt)
	assert.Equal(t, "webhooks/app/uninstalled/2026/08/evt-123.json", key)
}
