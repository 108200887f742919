// File: pkg/storage/gcp/objects.go
package gcp

import (
	"context"
	"fmt"
	"io"
	"time"

	"s3client/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

const (
	listPageSize     = 1000
	deleteConcurrent = 8
)

// Fetches one page of the flat listing. The page token is the one issued by the JSON API.
func (g *GCPStorage) ListObjects(ctx context.Context, bucketName, prefix, token string) (storage.ListingPage, error) {
	it := g.client.Bucket(bucketName).Objects(ctx, &gcpstorage.Query{Prefix: prefix})
	pager := iterator.NewPager(it, listPageSize, token)

	var attrs []*gcpstorage.ObjectAttrs
	next, err := pager.NextPage(&attrs)
	if err != nil {
		return storage.ListingPage{}, mapError(err)
	}

	page := storage.ListingPage{
		Objects:   make([]storage.Object, 0, len(attrs)),
		NextToken: next,
	}
	for _, a := range attrs {
		page.Objects = append(page.Objects, mapObjectAttributes(a))
	}
	return page, nil
}

func (g *GCPStorage) StatObject(ctx context.Context, bucketName, objectKey string) (storage.Object, error) {
	g.logger.Debug("Starting GCP StatObject operation", "bucket", bucketName, "object", objectKey)

	attrs, err := g.client.Bucket(bucketName).Object(objectKey).Attrs(ctx)
	if err != nil {
		return storage.Object{}, fmt.Errorf("error getting object attributes: %w", mapError(err))
	}
	return mapObjectAttributes(attrs), nil
}

// The upload is only committed when the writer closes cleanly
func (g *GCPStorage) PutObject(ctx context.Context, bucketName, objectKey string, body io.Reader, opts storage.PutOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(bucketName).Object(objectKey).NewWriter(ctx)
	if opts.ContentType != "" {
		w.ContentType = opts.ContentType
	}

	if _, err := io.Copy(w, body); err != nil {
		// Cancelling before Close aborts the upload
		cancel()
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return mapError(err)
	}
	return nil
}

func (g *GCPStorage) GetObject(ctx context.Context, bucketName, objectKey string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(bucketName).Object(objectKey).NewReader(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

func (g *GCPStorage) DeleteObject(ctx context.Context, bucketName, objectKey string) error {
	return mapError(g.client.Bucket(bucketName).Object(objectKey).Delete(ctx))
}

// GCS has no multi-object delete, so keys are removed concurrently one request each
func (g *GCPStorage) DeleteObjects(ctx context.Context, bucketName string, keys []string) ([]storage.DeleteResult, error) {
	if len(keys) > maxDeleteBatch {
		return nil, fmt.Errorf("batch of %d keys exceeds the limit of %d", len(keys), maxDeleteBatch)
	}

	bucket := g.client.Bucket(bucketName)
	results := make([]storage.DeleteResult, len(keys))

	var eg errgroup.Group
	eg.SetLimit(deleteConcurrent)
	for i, key := range keys {
		eg.Go(func() error {
			results[i] = storage.DeleteResult{Key: key, Err: mapError(bucket.Object(key).Delete(ctx))}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Signs a V4 URL with the client's credentials, which must be able to sign (a service account key or IAM signBlob)
func (g *GCPStorage) PresignGetObject(_ context.Context, bucketName, objectKey string, ttl time.Duration) (storage.PresignedURL, error) {
	expires := g.now().Add(ttl)
	u, err := g.client.Bucket(bucketName).SignedURL(objectKey, &gcpstorage.SignedURLOptions{
		Method:  "GET",
		Expires: expires,
		Scheme:  gcpstorage.SigningSchemeV4,
	})
	if err != nil {
		return storage.PresignedURL{}, fmt.Errorf("failed to sign URL: %w", err)
	}
	return storage.PresignedURL{URL: u, ExpiresAt: expires}, nil
}
