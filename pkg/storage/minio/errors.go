// File: pkg/storage/minio/errors.go
package minio

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"s3client/pkg/storage"

	miniogo "github.com/minio/minio-go/v7"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}

	resp := miniogo.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchBucket", "NoSuchKey", "NoSuchBucketPolicy", "NotFound":
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	case "InvalidBucketName":
		return fmt.Errorf("%w: %w", storage.ErrInvalidBucketName, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	return err
}
