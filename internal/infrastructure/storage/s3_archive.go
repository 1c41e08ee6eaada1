// Package storage archives raw ERP exports in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	importapp "github.com/erp/posync/internal/application/import"
	"github.com/erp/posync/internal/domain/bulk"
	infraconfig "github.com/erp/posync/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ensure S3ExportArchive implements ExportArchive
var _ importapp.ExportArchive = (*S3ExportArchive)(nil)

// S3ExportArchive keeps a copy of every imported export in a bucket.
// It works with any S3-compatible store (AWS S3, MinIO, RustFS).
type S3ExportArchive struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3ExportArchiveOption is a functional option for configuring S3ExportArchive
type S3ExportArchiveOption func(*S3ExportArchive)

// WithLogger sets a custom logger for S3ExportArchive
func WithLogger(logger *zap.Logger) S3ExportArchiveOption {
	return func(s *S3ExportArchive) {
		s.logger = logger
	}
}

// NewS3ExportArchive creates an archive from configuration. Without static
// keys the default AWS credential chain is used.
func NewS3ExportArchive(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3ExportArchiveOption) (*S3ExportArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid storage endpoint %q", cfg.Endpoint)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	archive := &S3ExportArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// ArchiveKey returns <prefix>/<entity>/<yyyy>/<mm>/<dd>/<history-id>.csv
func ArchiveKey(prefix string, entity bulk.ImportEntityType, historyID uuid.UUID, at time.Time) string {
	at = at.UTC()
	return path.Join(prefix, string(entity), at.Format("2006"), at.Format("01"), at.Format("02"), historyID.String()+".csv")
}

// Archive uploads the raw export and returns its key
func (s *S3ExportArchive) Archive(ctx context.Context, entity bulk.ImportEntityType, historyID uuid.UUID, at time.Time, data []byte) (string, error) {
	key := ArchiveKey(s.prefix, entity, historyID, at)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
		Metadata: map[string]string{
			"import-id":   historyID.String(),
			"entity-type": string(entity),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive export: %w", err)
	}
	s.logger.Debug("Archived export", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int("bytes", len(data)))
	return key, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (s *S3ExportArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		// lost a creation race
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// GetBucket returns the bucket name
func (s *S3ExportArchive) GetBucket() string {
	return s.bucket
}

// NoopExportArchive is used when archiving is disabled
type NoopExportArchive struct{}

// Archive does nothing and returns an empty key
func (NoopExportArchive) Archive(context.Context, bulk.ImportEntityType, uuid.UUID, time.Time, []byte) (string, error) {
	return "", nil
}

// NewExportArchive returns the S3 archive when storage is enabled and the
// no-op archive otherwise.
func NewExportArchive(ctx context.Context, cfg infraconfig.StorageConfig, logger *zap.Logger) (importapp.ExportArchive, error) {
	if !cfg.Enabled {
		return NoopExportArchive{}, nil
	}
	archive, err := NewS3ExportArchive(ctx, &cfg, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		logger.Warn("Archive bucket not ready; archiving will be retried per import", zap.Error(err))
	}
	return archive, nil
}
