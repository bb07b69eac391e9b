package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
	infraconfig "github.com/tradecomply/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3BlobStore implements BlobStore
var _ bulkapp.BlobStore = (*S3BlobStore)(nil)

const jsonContentType = "application/json"

// S3BlobStore implements BlobStore on any S3-compatible service (AWS S3, MinIO, RustFS).
// Buckets are chosen per call.
type S3BlobStore struct {
	client *s3.Client
	logger *zap.Logger
}

// S3BlobStoreOption is a functional option for configuring S3BlobStore
type S3BlobStoreOption func(*S3BlobStore)

// WithLogger sets a custom logger for S3BlobStore
func WithLogger(logger *zap.Logger) S3BlobStoreOption {
	return func(s *S3BlobStore) {
		s.logger = logger
	}
}

// NewS3BlobStore creates a new S3BlobStore from configuration.
func NewS3BlobStore(cfg *infraconfig.StorageConfig, opts ...S3BlobStoreOption) (*S3BlobStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	store := &S3BlobStore{
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *S3BlobStore) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating storage bucket", zap.String("bucket", bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put writes data to bucket/key, replacing any existing object
func (s *S3BlobStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if bucket == "" || key == "" {
		return ErrEmptyKey
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", bucket, key, err)
	}
	s.logger.Debug("Stored object",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	return nil
}

// Get reads the object at bucket/key. Missing objects return ErrObjectNotFound.
func (s *S3BlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" || key == "" {
		return nil, ErrEmptyKey
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
		}
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Delete removes the object at bucket/key. Deleting a missing object succeeds.
func (s *S3BlobStore) Delete(ctx context.Context, bucket, key string) error {
	if bucket == "" || key == "" {
		return ErrEmptyKey
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Exists reports whether an object is stored at bucket/key
func (s *S3BlobStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if bucket == "" || key == "" {
		return false, ErrEmptyKey
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	// Some S3-compatible services only report the code in the message
	return strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey")
}

func contentTypeFor(key string) string {
	if strings.HasSuffix(key, ".json") {
		return jsonContentType
	}
	return "application/octet-stream"
}
