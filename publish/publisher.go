// Package publish deposits rendered reports in object storage.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/tagpatrol/tagpatrol/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// uploadTimeout bounds the put; uploads are never retried
	uploadTimeout = 2 * time.Minute

	// timestampLayout gives whole-second resolution keys
	timestampLayout = "2006-01-02-15-04-05"
)

// S3API is the slice of the S3 client the publisher needs
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads report artifacts under timestamp-derived keys
type Publisher struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
	logger *telemetry.Logger
	tracer trace.Tracer
}

// NewPublisher creates a publisher targeting one bucket
func NewPublisher(cfg aws.Config, bucket, prefix string) *Publisher {
	return &Publisher{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
		logger: telemetry.NewLogger("publisher"),
		tracer: otel.Tracer("publisher"),
	}
}

// Key builds the collision-resistant destination key for a point in time
func Key(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", prefix, t.Format(timestampLayout))
}

// Publish performs a single durable put and returns the destination key.
// Failure is reported, not retried; no read-back verification.
func (p *Publisher) Publish(ctx context.Context, data []byte) (string, error) {
	key := Key(p.prefix, p.now())

	ctx, span := p.tracer.Start(ctx, "Publish",
		trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeXLSX),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}

	p.logger.WithContext(ctx).Info().
		Str("bucket", p.bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("report uploaded")

	return key, nil
}

// Stage writes the artifact to a local directory before or instead of upload
func Stage(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create staging directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to stage report %s: %w", path, err)
	}
	return path, nil
}
