// File: pkg/storage/storage.go
package storage

import (
	"context"
	"io"
	"time"

	"s3client/pkg/common"
)

// ObjectStore is the capability every provider adapter implements.
// Clients are constructed per operation and released with Close.
type ObjectStore interface {
	ProviderName() common.Provider

	// Limits reports the store-defined batch and signing limits
	Limits() Limits

	ListBuckets(ctx context.Context) ([]Bucket, error)
	CreateBucket(ctx context.Context, bucket, location string) error
	DeleteBucket(ctx context.Context, bucket string) error

	// ListObjects fetches a single page of the flat (undelimited) listing under prefix.
	// An empty token requests the first page; an empty NextToken in the result marks the last one.
	ListObjects(ctx context.Context, bucket, prefix, token string) (ListingPage, error)
	StatObject(ctx context.Context, bucket, key string) (Object, error)
	PutObject(ctx context.Context, bucket, key string, body io.Reader, opts PutOptions) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, bucket, key string) error

	// DeleteObjects removes up to Limits().MaxDeleteBatch keys and reports the outcome per key.
	// The returned error is only set when the request as a whole failed.
	DeleteObjects(ctx context.Context, bucket string, keys []string) ([]DeleteResult, error)

	GetBucketPolicy(ctx context.Context, bucket string) (string, error)
	PutBucketPolicy(ctx context.Context, bucket, policy string) error
	GetBucketVersioning(ctx context.Context, bucket string) (VersioningStatus, error)
	PutBucketWebsite(ctx context.Context, bucket string, website WebsiteConfig) error

	PresignGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (PresignedURL, error)

	Close() error
}

// UsageReporter is implemented by stores that can report how many bytes a bucket holds.
// A bucket without recent metrics yields an error matching ErrNotFound.
type UsageReporter interface {
	BucketUsage(ctx context.Context, bucket string) (int64, error)
}
