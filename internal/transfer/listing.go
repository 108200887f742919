// File: internal/transfer/listing.go
package transfer

import (
	"context"
	"errors"
	"iter"

	"s3client/pkg/storage"
)

var errTokenNotAdvancing = errors.New("store returned the same continuation token twice")

// ListAll chains the store's pages under prefix into one lazy, single-pass sequence.
// Entries are yielded in store order, one request per page. A failed page ends the
// sequence with a *storage.ListingError; entries already yielded remain valid.
func (e *Engine) ListAll(ctx context.Context, store storage.ObjectStore, bucket, prefix string) iter.Seq2[storage.Object, error] {
	return func(yield func(storage.Object, error) bool) {
		token := ""
		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				yield(storage.Object{}, err)
				return
			}

			result, err := store.ListObjects(ctx, bucket, prefix, token)
			if err != nil {
				e.logger.Debug("Listing page failed", "bucket", bucket, "prefix", prefix, "page", page, "error", err)
				yield(storage.Object{}, &storage.ListingError{Bucket: bucket, Prefix: prefix, Err: err})
				return
			}

			for _, obj := range result.Objects {
				if !yield(obj, nil) {
					return
				}
			}

			if result.NextToken == "" {
				return
			}
			if result.NextToken == token {
				yield(storage.Object{}, &storage.ListingError{Bucket: bucket, Prefix: prefix, Err: errTokenNotAdvancing})
				return
			}
			token = result.NextToken
		}
	}
}

// Materializes the full listing, stopping at the first error
func (e *Engine) CollectAll(ctx context.Context, store storage.ObjectStore, bucket, prefix string) ([]storage.Object, error) {
	var objects []storage.Object
	for obj, err := range e.ListAll(ctx, store, bucket, prefix) {
		if err != nil {
			return objects, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}
