// File: pkg/storage/errors.go
package storage

import (
	"errors"
	"fmt"
)

var (
	ErrListingFailed     = errors.New("listing failed")
	ErrPrefixMismatch    = errors.New("key does not start with prefix")
	ErrPathOutsideRoot   = errors.New("path is not inside the local root")
	ErrDirectoryMarker   = errors.New("key is a directory marker")
	ErrInvalidTTL        = errors.New("invalid presign ttl")
	ErrDeleteStalled     = errors.New("bulk delete made no progress")
	ErrTransferFailed    = errors.New("transfer failed")
	ErrStoreUnavailable  = errors.New("object store unavailable")
	ErrInvalidBucketName = errors.New("invalid bucket name")
	ErrInvalidKey        = errors.New("invalid object key")
	ErrNotFound          = errors.New("not found")
	ErrUnsupported       = errors.New("operation not supported by provider")
)

// ListingError is returned when a page request fails while enumerating a prefix
type ListingError struct {
	Bucket string
	Prefix string
	Err    error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing s3://%s/%s failed: %v", e.Bucket, e.Prefix, e.Err)
}

func (e *ListingError) Unwrap() []error {
	return []error{ErrListingFailed, e.Err}
}

// TransferError describes a failed single-file transfer
type TransferError struct {
	Path string
	Key  string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s <-> %s failed: %v", e.Path, e.Key, e.Err)
}

func (e *TransferError) Unwrap() []error {
	return []error{ErrTransferFailed, e.Err}
}

// Checks the shape of an object key before it reaches the store
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	if key[0] == '/' {
		return fmt.Errorf("%w: %q begins with '/'", ErrInvalidKey, key)
	}
	return nil
}

func ValidateBucket(bucket string) error {
	if bucket == "" {
		return fmt.Errorf("%w: bucket name is empty", ErrInvalidBucketName)
	}
	return nil
}
