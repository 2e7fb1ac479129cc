package eventarchive

import (
	"errors"
	"fmt"
	"time"

	"github.com/StoreKeel/StoreKeel/internal/pkg/env"
)

// Config holds S3 event archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads archive configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("EVENT_ARCHIVE_ENABLED", "false") == "true",
	}

	// Validate required fields if the archive is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the event archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the event archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the event archive is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if the event archive is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates the S3 object key for a webhook delivery.
// Format: webhooks/<topic>/YYYY/MM/<event id>.json
func (c *Config) ObjectKey(topic, eventID string, receivedAt time.Time) string {
	return fmt.Sprintf("webhooks/%s/%04d/%02d/%s.json", topic, receivedAt.Year(), int(receivedAt.Month()), eventID)
}
