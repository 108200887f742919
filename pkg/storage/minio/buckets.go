// File: pkg/storage/minio/buckets.go
package minio

import (
	"context"
	"fmt"

	"s3client/pkg/common"
	"s3client/pkg/storage"

	miniogo "github.com/minio/minio-go/v7"
)

func (m *MinIOStorage) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	m.logger.Debug("Starting MinIO ListBuckets operation")

	infos, err := m.core.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing buckets: %w", mapError(err))
	}

	buckets := make([]storage.Bucket, 0, len(infos))
	for _, info := range infos {
		buckets = append(buckets, storage.Bucket{
			Name:      info.Name,
			Provider:  common.MinIO,
			Location:  m.region,
			CreatedAt: info.CreationDate,
		})
	}
	return buckets, nil
}

func (m *MinIOStorage) CreateBucket(ctx context.Context, bucket, location string) error {
	if err := storage.ValidateBucket(bucket); err != nil {
		return err
	}
	if location == "" {
		location = m.region
	}
	m.logger.Debug("Starting MinIO CreateBucket operation", "bucket", bucket, "location", location)

	if err := m.core.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("failed to create bucket '%s': %w", bucket, mapError(err))
	}
	return nil
}

func (m *MinIOStorage) DeleteBucket(ctx context.Context, bucket string) error {
	m.logger.Debug("Starting MinIO DeleteBucket operation", "bucket", bucket)
	if err := m.core.RemoveBucket(ctx, bucket); err != nil {
		return fmt.Errorf("failed to delete bucket '%s': %w", bucket, mapError(err))
	}
	return nil
}

// MinIO returns an empty policy rather than an error for buckets without one
func (m *MinIOStorage) GetBucketPolicy(ctx context.Context, bucket string) (string, error) {
	policy, err := m.core.GetBucketPolicy(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("failed to get policy for bucket '%s': %w", bucket, mapError(err))
	}
	if policy == "" {
		return "", fmt.Errorf("%w: bucket '%s' has no policy", storage.ErrNotFound, bucket)
	}
	return policy, nil
}

func (m *MinIOStorage) PutBucketPolicy(ctx context.Context, bucket, policy string) error {
	if err := m.core.SetBucketPolicy(ctx, bucket, policy); err != nil {
		return fmt.Errorf("failed to set policy for bucket '%s': %w", bucket, mapError(err))
	}
	return nil
}

func (m *MinIOStorage) GetBucketVersioning(ctx context.Context, bucket string) (storage.VersioningStatus, error) {
	cfg, err := m.core.GetBucketVersioning(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("failed to get versioning for bucket '%s': %w", bucket, mapError(err))
	}
	switch cfg.Status {
	case "Enabled":
		return storage.VersioningEnabled, nil
	case "Suspended":
		return storage.VersioningSuspended, nil
	default:
		return storage.VersioningDisabled, nil
	}
}

// MinIO does not serve static websites
func (m *MinIOStorage) PutBucketWebsite(_ context.Context, bucket string, _ storage.WebsiteConfig) error {
	return fmt.Errorf("%w: website hosting for bucket '%s'", storage.ErrUnsupported, bucket)
}
