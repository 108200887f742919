// File: internal/transfer/presign.go
package transfer

import (
	"context"
	"fmt"
	"time"

	"s3client/pkg/storage"
)

const DefaultPresignTTL = 3600

// Presign issues a time-limited GET URL for bucket/key. ttlSeconds must be positive and
// within the store's maximum signature lifetime.
func (e *Engine) Presign(ctx context.Context, store storage.ObjectStore, bucket, key string, ttlSeconds int64) (storage.PresignedURL, error) {
	maxTTL := store.Limits().MaxPresignTTL
	if maxTTL <= 0 {
		maxTTL = storage.DefaultMaxPresignTTL
	}
	if ttlSeconds <= 0 || ttlSeconds > int64(maxTTL/time.Second) {
		return storage.PresignedURL{}, fmt.Errorf("%w: %d seconds (must be between 1 and %d)", storage.ErrInvalidTTL, ttlSeconds, int64(maxTTL/time.Second))
	}
	if err := storage.ValidateBucket(bucket); err != nil {
		return storage.PresignedURL{}, err
	}
	if err := storage.ValidateKey(key); err != nil {
		return storage.PresignedURL{}, err
	}

	url, err := store.PresignGetObject(ctx, bucket, key, time.Duration(ttlSeconds)*time.Second)
	if err != nil {
		return storage.PresignedURL{}, fmt.Errorf("failed to presign %s/%s: %w", bucket, key, err)
	}
	e.logger.Debug("Issued presigned URL", "bucket", bucket, "key", key, "expires_at", url.ExpiresAt)
	return url, nil
}
