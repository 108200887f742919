// File: internal/transfer/delete.go
package transfer

import (
	"context"
	"fmt"
	"sort"

	"s3client/pkg/storage"
)

// Number of consecutive zero-progress rounds tolerated before giving up
const stallRounds = 2

// EmptyBucket deletes every object under prefix (the whole bucket when empty) by repeatedly
// listing one page and batch-deleting it until a listing comes back empty. Per-key failures are
// collected; when two consecutive rounds delete nothing, it fails with storage.ErrDeleteStalled.
func (e *Engine) EmptyBucket(ctx context.Context, store storage.ObjectStore, bucket, prefix string) (DeleteReport, error) {
	if err := storage.ValidateBucket(bucket); err != nil {
		return DeleteReport{}, err
	}

	batchSize := e.batchSize(store)
	logger := e.logger.With("operation", "EmptyBucket", "bucket", bucket, "prefix", prefix)
	logger.Debug("Starting bulk delete", "batch_size", batchSize)

	report := DeleteReport{Status: StatusCompleted}
	failed := make(map[string]error)

	stalled := 0
	for round := 1; ; round++ {
		if ctx.Err() != nil {
			return cancelledDelete(report, failed), nil
		}

		page, err := store.ListObjects(ctx, bucket, prefix, "")
		if err != nil {
			if ctx.Err() != nil {
				return cancelledDelete(report, failed), nil
			}
			return withFailures(report, failed), &storage.ListingError{Bucket: bucket, Prefix: prefix, Err: err}
		}
		if len(page.Objects) == 0 {
			break
		}

		keys := make([]string, 0, len(page.Objects))
		for _, obj := range page.Objects {
			keys = append(keys, obj.Key)
		}

		deletedThisRound := 0
		for start := 0; start < len(keys); start += batchSize {
			if ctx.Err() != nil {
				return cancelledDelete(report, failed), nil
			}

			batch := keys[start:min(start+batchSize, len(keys))]
			results, err := store.DeleteObjects(ctx, bucket, batch)
			report.Batches++
			if err != nil {
				if ctx.Err() != nil {
					return cancelledDelete(report, failed), nil
				}
				return withFailures(report, failed), fmt.Errorf("batch delete of %d keys in %s failed: %w", len(batch), bucket, err)
			}

			for _, r := range results {
				if r.Err != nil {
					failed[r.Key] = r.Err
					continue
				}
				delete(failed, r.Key)
				report.Deleted++
				deletedThisRound++
			}
		}

		logger.Debug("Delete round finished", "round", round, "listed", len(keys), "deleted", deletedThisRound)

		if deletedThisRound > 0 {
			stalled = 0
			continue
		}
		stalled++
		if stalled >= stallRounds {
			logger.Error("Bulk delete stalled", "round", round, "remaining", len(keys))
			return withFailures(report, failed), fmt.Errorf("%w: %d objects remain in %s after %d rounds without progress",
				storage.ErrDeleteStalled, len(keys), bucket, stallRounds)
		}
	}

	result := withFailures(report, failed)
	logger.Debug("Bulk delete finished", "deleted", result.Deleted, "failed", len(result.Failed), "batches", result.Batches)
	return result, nil
}

func (e *Engine) batchSize(store storage.ObjectStore) int {
	size := store.Limits().MaxDeleteBatch
	if size <= 0 {
		size = storage.DefaultMaxDeleteBatch
	}
	if e.deleteBatch > 0 && e.deleteBatch < size {
		size = e.deleteBatch
	}
	return size
}

func withFailures(report DeleteReport, failed map[string]error) DeleteReport {
	report.Failed = make([]DeleteFailure, 0, len(failed))
	for key, err := range failed {
		report.Failed = append(report.Failed, DeleteFailure{Key: key, Err: err})
	}
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].Key < report.Failed[j].Key
	})
	return report
}

func cancelledDelete(report DeleteReport, failed map[string]error) DeleteReport {
	report.Status = StatusCancelled
	return withFailures(report, failed)
}
