package eventarchive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// Archive stores raw webhook payloads in an S3 bucket for audit and replay.
// Every operation is best-effort from the caller's point of view: uninstall
// processing logs and continues when archival fails.
type Archive struct {
	s3Client *s3.Client
	config   *Config
}

// NewArchive creates an S3-backed event archive
func NewArchive(cfg *Config) (*Archive, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("event archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	return &Archive{
		s3Client: s3Client,
		config:   cfg,
	}, nil
}

// Store writes one webhook delivery to the bucket
func (a *Archive) Store(ctx context.Context, topic, eventID string, payload []byte) error {
	key := a.config.ObjectKey(topic, eventID, time.Now())

	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(payload))),
		Metadata: map[string]string{
			"topic":    topic,
			"event-id": eventID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to archive event %s/%s: %w", topic, eventID, err)
	}

	log.Infof("[EventArchive] Archived s3://%s/%s", a.config.BucketName, key)
	return nil
}

// NewArchiveFromEnv returns the archive, or nil when disabled or
// misconfigured. Callers treat a nil archive as "archival off".
func NewArchiveFromEnv() *Archive {
	cfg, err := LoadConfig()
	if err != nil {
		log.Warnf("[EventArchive] Disabled: %v", err)
		return nil
	}
	if !cfg.IsEnabled() {
		return nil
	}
	archive, err := NewArchive(cfg)
	if err != nil {
		log.Warnf("[EventArchive] Disabled: %v", err)
		return nil
	}
	return archive
}
