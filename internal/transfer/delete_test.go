// File: internal/transfer/delete_test.go
package transfer_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"s3client/internal/transfer"
	"s3client/pkg/storage"
	"s3client/pkg/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchSizes(batches [][]string) []int {
	sizes := make([]int, len(batches))
	for i, b := range batches {
		sizes[i] = len(b)
	}
	return sizes
}

func TestEmptyBucketRespectsBatchLimit(t *testing.T) {
	t.Parallel()

	for _, pageSize := range []int{1000, 2500} {
		t.Run(fmt.Sprintf("page size %d", pageSize), func(t *testing.T) {
			t.Parallel()

			store := storagetest.New(storagetest.WithPageSize(pageSize), storagetest.WithMaxDeleteBatch(1000))
			seedKeys(store, "bucket", 2500, "obj-%05d")

			report, err := transfer.NewEngine().EmptyBucket(context.Background(), store, "bucket", "")
			require.NoError(t, err)

			assert.Equal(t, 2500, report.Deleted)
			assert.Equal(t, 3, report.Batches)
			assert.Empty(t, report.Failed)
			assert.Equal(t, transfer.StatusCompleted, report.Status)
			assert.Equal(t, []int{1000, 1000, 500}, batchSizes(store.DeleteBatches()))
			assert.Empty(t, store.Keys("bucket"))
		})
	}
}

func TestEmptyBucketEngineBatchCap(t *testing.T) {
	t.Parallel()

	store := storagetest.New(storagetest.WithPageSize(1000))
	seedKeys(store, "bucket", 700, "obj-%04d")

	report, err := transfer.NewEngine(transfer.WithDeleteBatch(300)).EmptyBucket(context.Background(), store, "bucket", "")
	require.NoError(t, err)
	assert.Equal(t, 700, report.Deleted)
	assert.Equal(t, []int{300, 300, 100}, batchSizes(store.DeleteBatches()))
}

func TestEmptyBucketOnlyTouchesPrefix(t *testing.T) {
	t.Parallel()

	store := storagetest.New()
	seedKeys(store, "bucket", 5, "tmp/%d")
	keep := seedKeys(store, "bucket", 3, "keep/%d")

	report, err := transfer.NewEngine().EmptyBucket(context.Background(), store, "bucket", "tmp/")
	require.NoError(t, err)
	assert.Equal(t, 5, report.Deleted)
	assert.Equal(t, keep, store.Keys("bucket"))
}

func TestEmptyBucketAlreadyEmpty(t *testing.T) {
	t.Parallel()

	store := storagetest.New()
	require.NoError(t, store.CreateBucket(context.Background(), "bucket", ""))

	report, err := transfer.NewEngine().EmptyBucket(context.Background(), store, "bucket", "")
	require.NoError(t, err)
	assert.Zero(t, report.Deleted)
	assert.Zero(t, report.Batches)
	assert.Equal(t, 1, store.ListCalls())
}

func TestEmptyBucketStallsWhenNothingDeletes(t *testing.T) {
	t.Parallel()

	store := storagetest.New()
	seedKeys(store, "bucket", 10, "locked-%d")
	store.FailDelete = func(_, key string) error {
		return errors.New("AccessDenied")
	}

	report, err := transfer.NewEngine().EmptyBucket(context.Background(), store, "bucket", "")
	require.ErrorIs(t, err, storage.ErrDeleteStalled)

	assert.Zero(t, report.Deleted)
	assert.Len(t, report.Failed, 10, "failures are reported once per key")
	assert.Equal(t, 2, report.Batches)
	assert.Equal(t, 2, store.ListCalls())
}

func TestEmptyBucketPersistentKeyFailureEventuallyStalls(t *testing.T) {
	t.Parallel()

	store := storagetest.New()
	seedKeys(store, "bucket", 10, "k-%d")
	store.FailDelete = func(_, key string) error {
		if key == "k-3" {
			return errors.New("object locked")
		}
		return nil
	}

	report, err := transfer.NewEngine().EmptyBucket(context.Background(), store, "bucket", "")
	require.ErrorIs(t, err, storage.ErrDeleteStalled)
	assert.Equal(t, 9, report.Deleted)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "k-3", report.Failed[0].Key)
	assert.Equal(t, []string{"k-3"}, store.Keys("bucket"))
}

func TestEmptyBucketRecoversFromTransientFailures(t *testing.T) {
	t.Parallel()

	store := storagetest.New()
	seedKeys(store, "bucket", 10, "k-%d")
	failedOnce := false
	store.FailDelete = func(_, key string) error {
		if key == "k-3" && !failedOnce {
			failedOnce = true
			return errors.New("SlowDown")
		}
		return nil
	}

	report, err := transfer.NewEngine().EmptyBucket(context.Background(), store, "bucket", "")
	require.NoError(t, err)
	assert.Equal(t, 10, report.Deleted)
	assert.Empty(t, report.Failed, "a key deleted on retry is no longer a failure")
	assert.Equal(t, 2, report.Batches)
}

func TestEmptyBucketListingFailure(t *testing.T) {
	t.Parallel()

	store := storagetest.New(storagetest.WithPageSize(5))
	seedKeys(store, "bucket", 12, "k-%02d")
	store.FailList = func(call int, _, _, _ string) error {
		if call == 2 {
			return errors.New("503 Service Unavailable")
		}
		return nil
	}

	report, err := transfer.NewEngine().EmptyBucket(context.Background(), store, "bucket", "")
	require.ErrorIs(t, err, storage.ErrListingFailed)
	assert.Equal(t, 5, report.Deleted)
}

func TestEmptyBucketCancelled(t *testing.T) {
	t.Parallel()

	store := storagetest.New(storagetest.WithPageSize(10), storagetest.WithMaxDeleteBatch(5))
	seedKeys(store, "bucket", 30, "k-%02d")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.FailDelete = func(_, key string) error {
		// Cancel once the first batch is underway; the batch itself still commits
		if key == "k-00" {
			cancel()
		}
		return nil
	}

	report, err := transfer.NewEngine().EmptyBucket(ctx, store, "bucket", "")
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusCancelled, report.Status)
	assert.Equal(t, 5, report.Deleted)
	assert.Equal(t, 1, report.Batches)
	assert.Len(t, store.Keys("bucket"), 25)
}
