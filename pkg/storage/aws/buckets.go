// File: pkg/storage/aws/buckets.go
package aws

import (
	"context"
	"fmt"

	"s3client/pkg/common"
	"s3client/pkg/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func (s *S3Storage) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	s.logger.Debug("Starting AWS ListBuckets operation")

	var buckets []storage.Bucket
	paginator := s3.NewListBucketsPaginator(s.client, &s3.ListBucketsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing buckets: %w", mapError(err))
		}
		for _, b := range page.Buckets {
			location := aws.ToString(b.BucketRegion)
			if location == "" {
				location = s.region
			}
			buckets = append(buckets, storage.Bucket{
				Name:      aws.ToString(b.Name),
				Provider:  common.AWS,
				Location:  location,
				CreatedAt: aws.ToTime(b.CreationDate),
			})
		}
	}
	return buckets, nil
}

// Creates a bucket in location, or in the client's region when location is empty
func (s *S3Storage) CreateBucket(ctx context.Context, bucket, location string) error {
	if err := storage.ValidateBucket(bucket); err != nil {
		return err
	}
	if location == "" {
		location = s.region
	}
	s.logger.Debug("Starting AWS CreateBucket operation", "bucket", bucket, "location", location)

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint
	if location != "" && location != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(location),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket '%s': %w", bucket, mapError(err))
	}
	return nil
}

func (s *S3Storage) DeleteBucket(ctx context.Context, bucket string) error {
	s.logger.Debug("Starting AWS DeleteBucket operation", "bucket", bucket)
	if _, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("failed to delete bucket '%s': %w", bucket, mapError(err))
	}
	return nil
}

func (s *S3Storage) GetBucketPolicy(ctx context.Context, bucket string) (string, error) {
	out, err := s.client.GetBucketPolicy(ctx, &s3.GetBucketPolicyInput{Bucket: aws.String(bucket)})
	if err != nil {
		return "", fmt.Errorf("failed to get policy for bucket '%s': %w", bucket, mapError(err))
	}
	return aws.ToString(out.Policy), nil
}

func (s *S3Storage) PutBucketPolicy(ctx context.Context, bucket, policy string) error {
	_, err := s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policy),
	})
	if err != nil {
		return fmt.Errorf("failed to set policy for bucket '%s': %w", bucket, mapError(err))
	}
	return nil
}

func (s *S3Storage) GetBucketVersioning(ctx context.Context, bucket string) (storage.VersioningStatus, error) {
	out, err := s.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: aws.String(bucket)})
	if err != nil {
		return "", fmt.Errorf("failed to get versioning for bucket '%s': %w", bucket, mapError(err))
	}
	return mapVersioning(out.Status), nil
}

func (s *S3Storage) PutBucketWebsite(ctx context.Context, bucket string, website storage.WebsiteConfig) error {
	website = website.WithDefaults()
	_, err := s.client.PutBucketWebsite(ctx, &s3.PutBucketWebsiteInput{
		Bucket: aws.String(bucket),
		WebsiteConfiguration: &types.WebsiteConfiguration{
			IndexDocument: &types.IndexDocument{Suffix: aws.String(website.IndexDocument)},
			ErrorDocument: &types.ErrorDocument{Key: aws.String(website.ErrorDocument)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to configure website for bucket '%s': %w", bucket, mapError(err))
	}
	return nil
}

func mapVersioning(status types.BucketVersioningStatus) storage.VersioningStatus {
	switch status {
	case types.BucketVersioningStatusEnabled:
		return storage.VersioningEnabled
	case types.BucketVersioningStatusSuspended:
		return storage.VersioningSuspended
	default:
		return storage.VersioningDisabled
	}
}
