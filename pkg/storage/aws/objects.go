// File: pkg/storage/aws/objects.go
package aws

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"s3client/pkg/common"
	"s3client/pkg/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Fetches one ListObjectsV2 page. S3 caps pages at 1000 keys.
func (s *S3Storage) ListObjects(ctx context.Context, bucket, prefix, token string) (storage.ListingPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return storage.ListingPage{}, mapError(err)
	}

	page := storage.ListingPage{Objects: make([]storage.Object, 0, len(out.Contents))}
	for _, o := range out.Contents {
		page.Objects = append(page.Objects, storage.Object{
			Key:          aws.ToString(o.Key),
			Bucket:       bucket,
			Provider:     common.AWS,
			Size:         aws.ToInt64(o.Size),
			LastModified: aws.ToTime(o.LastModified),
			ETag:         strings.Trim(aws.ToString(o.ETag), `"`),
		})
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

func (s *S3Storage) StatObject(ctx context.Context, bucket, key string) (storage.Object, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storage.Object{}, fmt.Errorf("error getting object s3://%s/%s: %w", bucket, key, mapError(err))
	}
	return storage.Object{
		Key:          key,
		Bucket:       bucket,
		Provider:     common.AWS,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		ContentType:  aws.ToString(out.ContentType),
	}, nil
}

// Streams body through the transfer manager, which switches to multipart for large bodies
func (s *S3Storage) PutObject(ctx context.Context, bucket, key string, body io.Reader, opts storage.PutOptions) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *S3Storage) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out.Body, nil
}

func (s *S3Storage) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return mapError(err)
}

// Keys absent from the response errors are treated as deleted
func (s *S3Storage) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]storage.DeleteResult, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if limit := s.Limits().MaxDeleteBatch; len(keys) > limit {
		return nil, fmt.Errorf("batch of %d keys exceeds the limit of %d", len(keys), limit)
	}

	identifiers := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		identifiers[i] = types.ObjectIdentifier{Key: aws.String(k)}
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: identifiers,
			Quiet:   aws.Bool(false),
		},
	})
	if err != nil {
		return nil, mapError(err)
	}

	failed := make(map[string]error, len(out.Errors))
	for _, e := range out.Errors {
		failed[aws.ToString(e.Key)] = fmt.Errorf("%s: %s", aws.ToString(e.Code), aws.ToString(e.Message))
	}

	results := make([]storage.DeleteResult, len(keys))
	for i, k := range keys {
		results[i] = storage.DeleteResult{Key: k, Err: failed[k]}
	}
	return results, nil
}

func (s *S3Storage) PresignGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (storage.PresignedURL, error) {
	issued := s.now()
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return storage.PresignedURL{}, mapError(err)
	}
	return storage.PresignedURL{URL: req.URL, ExpiresAt: issued.Add(ttl)}, nil
}
