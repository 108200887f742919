// File: pkg/storage/aws/errors.go
package aws

import (
	"errors"
	"fmt"
	"net/http"

	"s3client/pkg/storage"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Translates SDK errors into the storage sentinels while keeping the original error in the chain
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NotFound", "NoSuchBucketPolicy", "NoSuchWebsiteConfiguration":
			return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		case "InvalidBucketName":
			return fmt.Errorf("%w: %w", storage.ErrInvalidBucketName, err)
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch {
		case respErr.HTTPStatusCode() == http.StatusNotFound:
			return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		case respErr.HTTPStatusCode() >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
		}
	}

	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}

	var signErr *v4.SigningError
	if errors.As(err, &signErr) {
		return fmt.Errorf("%w: could not sign request: %w", storage.ErrStoreUnavailable, err)
	}

	return err
}
