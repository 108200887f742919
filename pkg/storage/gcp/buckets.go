// File: pkg/storage/gcp/buckets.go
package gcp

import (
	"context"
	"fmt"

	"s3client/pkg/common"
	"s3client/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

func (g *GCPStorage) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	g.logger.Debug("Starting GCP ListBuckets operation")
	var buckets []storage.Bucket

	it := g.client.Buckets(ctx, g.projectID)
	for {
		bucketAttrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error listing buckets: %w", mapError(err))
		}

		buckets = append(buckets, storage.Bucket{
			Name:      bucketAttrs.Name,
			Provider:  common.GCP,
			Location:  bucketAttrs.Location,
			CreatedAt: bucketAttrs.Created,
		})
	}

	return buckets, nil
}

func (g *GCPStorage) CreateBucket(ctx context.Context, bucketName string, location string) error {
	if err := storage.ValidateBucket(bucketName); err != nil {
		return err
	}
	g.logger.Debug("Starting GCP CreateBucket operation", "bucket", bucketName, "location", location)

	attrs := &gcpstorage.BucketAttrs{
		Location: location,
	}
	if err := g.client.Bucket(bucketName).Create(ctx, g.projectID, attrs); err != nil {
		return fmt.Errorf("failed to create bucket '%s': %w", bucketName, mapError(err))
	}
	return nil
}

func (g *GCPStorage) DeleteBucket(ctx context.Context, bucketName string) error {
	g.logger.Debug("Starting GCP DeleteBucket operation", "bucket", bucketName)
	if err := g.client.Bucket(bucketName).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete bucket '%s': %w", bucketName, mapError(err))
	}
	return nil
}

// Returns the bucket's IAM policy (version 3) as JSON
func (g *GCPStorage) GetBucketPolicy(ctx context.Context, bucketName string) (string, error) {
	policy, err := g.client.Bucket(bucketName).IAM().V3().Policy(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get IAM policy for bucket '%s': %w", bucketName, mapError(err))
	}
	return marshalPolicy(policy.Bindings)
}

// Replaces the bucket's IAM bindings with those in the JSON policy document
func (g *GCPStorage) PutBucketPolicy(ctx context.Context, bucketName, policy string) error {
	bindings, err := unmarshalPolicy(policy)
	if err != nil {
		return err
	}

	handle := g.client.Bucket(bucketName).IAM().V3()
	// The fetched policy carries the etag that guards against concurrent updates
	current, err := handle.Policy(ctx)
	if err != nil {
		return fmt.Errorf("failed to get IAM policy for bucket '%s': %w", bucketName, mapError(err))
	}
	current.Bindings = bindings

	if err := handle.SetPolicy(ctx, current); err != nil {
		return fmt.Errorf("failed to set IAM policy for bucket '%s': %w", bucketName, mapError(err))
	}
	return nil
}

// GCS has no suspended state: versioning is either on or off
func (g *GCPStorage) GetBucketVersioning(ctx context.Context, bucketName string) (storage.VersioningStatus, error) {
	attrs, err := g.client.Bucket(bucketName).Attrs(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting bucket attributes: %w", mapError(err))
	}
	return mapVersioning(attrs.VersioningEnabled), nil
}

func (g *GCPStorage) PutBucketWebsite(ctx context.Context, bucketName string, website storage.WebsiteConfig) error {
	_, err := g.client.Bucket(bucketName).Update(ctx, gcpstorage.BucketAttrsToUpdate{
		Website: mapWebsite(website),
	})
	if err != nil {
		return fmt.Errorf("failed to configure website for bucket '%s': %w", bucketName, mapError(err))
	}
	return nil
}
