// File: pkg/storage/minio/objects.go
package minio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"s3client/pkg/common"
	"s3client/pkg/storage"

	miniogo "github.com/minio/minio-go/v7"
)

const listPageSize = 1000

func (m *MinIOStorage) ListObjects(ctx context.Context, bucket, prefix, token string) (storage.ListingPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ListingPage{}, err
	}

	// Core.ListObjectsV2 takes no context, so cancellation is only observed between pages
	result, err := m.core.ListObjectsV2(bucket, prefix, "", token, "", listPageSize)
	if err != nil {
		return storage.ListingPage{}, mapError(err)
	}

	page := storage.ListingPage{Objects: make([]storage.Object, 0, len(result.Contents))}
	for _, info := range result.Contents {
		page.Objects = append(page.Objects, mapObjectInfo(bucket, info))
	}
	if result.IsTruncated {
		page.NextToken = result.NextContinuationToken
	}
	return page, nil
}

func (m *MinIOStorage) StatObject(ctx context.Context, bucket, key string) (storage.Object, error) {
	info, err := m.core.StatObject(ctx, bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		return storage.Object{}, fmt.Errorf("error getting object %s/%s: %w", bucket, key, mapError(err))
	}
	return mapObjectInfo(bucket, info), nil
}

// A size of -1 makes minio-go stream the body as a multipart upload
func (m *MinIOStorage) PutObject(ctx context.Context, bucket, key string, body io.Reader, opts storage.PutOptions) error {
	_, err := m.core.Client.PutObject(ctx, bucket, key, body, opts.Size, miniogo.PutObjectOptions{
		ContentType: opts.ContentType,
	})
	return mapError(err)
}

// Stats first so a missing object fails here instead of on the first Read
func (m *MinIOStorage) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.core.Client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapError(err)
	}
	return obj, nil
}

func (m *MinIOStorage) DeleteObject(ctx context.Context, bucket, key string) error {
	return mapError(m.core.RemoveObject(ctx, bucket, key, miniogo.RemoveObjectOptions{}))
}

func (m *MinIOStorage) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]storage.DeleteResult, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if limit := m.Limits().MaxDeleteBatch; len(keys) > limit {
		return nil, fmt.Errorf("batch of %d keys exceeds the limit of %d", len(keys), limit)
	}

	objects := make(chan miniogo.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- miniogo.ObjectInfo{Key: k}
	}
	close(objects)

	failed := make(map[string]error)
	for res := range m.core.RemoveObjectsWithResult(ctx, bucket, objects, miniogo.RemoveObjectsOptions{}) {
		if res.Err != nil {
			failed[res.ObjectName] = res.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]storage.DeleteResult, len(keys))
	for i, k := range keys {
		results[i] = storage.DeleteResult{Key: k, Err: failed[k]}
	}
	return results, nil
}

func (m *MinIOStorage) PresignGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (storage.PresignedURL, error) {
	issued := m.now()
	u, err := m.core.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return storage.PresignedURL{}, mapError(err)
	}
	return storage.PresignedURL{URL: u.String(), ExpiresAt: issued.Add(ttl)}, nil
}

func mapObjectInfo(bucket string, info miniogo.ObjectInfo) storage.Object {
	return storage.Object{
		Key:          info.Key,
		Bucket:       bucket,
		Provider:     common.MinIO,
		Size:         info.Size,
		LastModified: info.LastModified,
		ETag:         strings.Trim(info.ETag, `"`),
		ContentType:  info.ContentType,
	}
}
