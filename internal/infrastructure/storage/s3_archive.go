// Package storage provides the S3-compatible archive store for invoice blobs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appinvoice "github.com/facturas/backend/internal/application/invoice"
	"github.com/facturas/backend/internal/domain/invoice"
	infraconfig "github.com/facturas/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3ArchiveStore implements the archive port
var _ appinvoice.ArchiveStore = (*S3ArchiveStore)(nil)

// S3ArchiveStore writes invoice records to an S3-compatible bucket under
// tenant/date partitioned keys. It works against AWS S3, MinIO and any
// other S3-compatible backend.
type S3ArchiveStore struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3ArchiveStoreOption is a functional option for configuring S3ArchiveStore
type S3ArchiveStoreOption func(*S3ArchiveStore)

// WithLogger sets a custom logger for S3ArchiveStore
func WithLogger(logger *zap.Logger) S3ArchiveStoreOption {
	return func(s *S3ArchiveStore) {
		s.logger = logger
	}
}

// NewS3ArchiveStore creates an archive store from configuration
func NewS3ArchiveStore(cfg *infraconfig.ArchiveConfig, opts ...S3ArchiveStoreOption) (*S3ArchiveStore, error) {
	if cfg == nil {
		return nil, errors.New("archive configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid archive endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	store := &S3ArchiveStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// NewS3ArchiveStoreWithClient creates a store with an existing S3
// client. Useful for testing against a stubbed transport.
func NewS3ArchiveStoreWithClient(client *s3.Client, bucket, prefix string, logger *zap.Logger) *S3ArchiveStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3ArchiveStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// EnsureBucket creates the bucket if it doesn't exist. Call during
// application startup; losing the create race to another instance is
// treated as success.
func (s *S3ArchiveStore) EnsureBucket(ctx context.Context) error {
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
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive writes the invoice payload under its partitioned key and
// returns the partition location the downstream catalog records.
func (s *S3ArchiveStore) Archive(ctx context.Context, inv *invoice.Invoice, payload []byte) (string, error) {
	key := s.objectKey(inv)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive invoice: %w", err)
	}

	location := s.partitionLocation(inv)
	s.logger.Info("invoice archived",
		zap.String("bucket", s.bucket),
		zap.String("key", key))
	return location, nil
}

// objectKey builds the blob key: <prefix>/tenant_id=<t>/fecha=<date>/<id>.json
func (s *S3ArchiveStore) objectKey(inv *invoice.Invoice) string {
	return path.Join(s.partitionKey(inv), inv.ID.String()+".json")
}

func (s *S3ArchiveStore) partitionKey(inv *invoice.Invoice) string {
	return path.Join(s.prefix,
		"tenant_id="+inv.TenantID,
		"fecha="+inv.Date)
}

// partitionLocation is the s3:// URI of the partition directory
func (s *S3ArchiveStore) partitionLocation(inv *invoice.Invoice) string {
	return "s3://" + path.Join(s.bucket, s.partitionKey(inv)) + "/"
}
