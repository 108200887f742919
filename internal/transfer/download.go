// File: internal/transfer/download.go
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"s3client/pkg/storage"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// DownloadFile downloads bucket/key to localPath. The file appears at localPath only
// once the whole object has been written.
func (e *Engine) DownloadFile(ctx context.Context, store storage.ObjectStore, bucket, key, localPath string, sink ProgressSink) error {
	if err := storage.ValidateBucket(bucket); err != nil {
		return err
	}
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	item := TransferItem{Bucket: bucket, Key: key, Path: localPath, Direction: Download, Size: -1}
	_, err := e.downloadItem(ctx, store, item, sink)
	return err
}

// DownloadTree downloads every object under keyPrefix into destRoot, mirroring the key layout.
// Directory markers are skipped. A listing failure aborts the operation and is returned along
// with the report of what had already been transferred.
func (e *Engine) DownloadTree(ctx context.Context, store storage.ObjectStore, bucket, keyPrefix, destRoot string, sink ProgressSink) (TransferReport, error) {
	if err := storage.ValidateBucket(bucket); err != nil {
		return TransferReport{}, err
	}

	prefix := storage.NormalizePrefix(keyPrefix)
	listPrefix := storage.FolderPrefix(keyPrefix)

	logger := e.logger.With("operation", "DownloadTree", "bucket", bucket, "prefix", prefix)
	logger.Debug("Starting tree download", "destination", destRoot, "concurrency", e.concurrency)

	if err := e.fs.MkdirAll(destRoot, 0o755); err != nil {
		return TransferReport{}, fmt.Errorf("cannot create destination %s: %w", destRoot, err)
	}

	var (
		report  reportBuilder
		g       errgroup.Group
		listErr error
	)
	g.SetLimit(e.concurrency)
	claimed := make(map[string]struct{})

	for obj, err := range e.ListAll(ctx, store, bucket, listPrefix) {
		if err != nil {
			listErr = err
			break
		}
		if storage.IsDirectoryMarker(obj.Key) {
			continue
		}

		localPath, err := storage.ToLocalPath(obj.Key, prefix, destRoot)
		if err != nil {
			report.fail("", obj.Key, err)
			continue
		}
		if _, dup := claimed[localPath]; dup {
			logger.Warn("Skipping key that maps to an already claimed path", "key", obj.Key, "path", localPath)
			continue
		}
		claimed[localPath] = struct{}{}

		if ctx.Err() != nil {
			break
		}

		item := TransferItem{Bucket: bucket, Key: obj.Key, Path: localPath, Direction: Download, Size: obj.Size}
		g.Go(func() error {
			e.runItem(ctx, &report, item, func() (int64, error) {
				return e.downloadItem(ctx, store, item, sink)
			})
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return report.finish(StatusCancelled), nil
	}
	if listErr != nil {
		logger.Error("Listing failed during tree download", "error", listErr)
		return report.finish(StatusCompleted), listErr
	}

	result := report.finish(StatusCompleted)
	logger.Debug("Tree download finished", "succeeded", len(result.Succeeded), "failed", len(result.Failed))
	return result, nil
}

func (e *Engine) downloadItem(ctx context.Context, store storage.ObjectStore, item TransferItem, sink ProgressSink) (n int64, err error) {
	var body *progressReader
	defer func() {
		if body != nil {
			body.complete(err)
		} else if sink != nil {
			sink.OnComplete(item, err)
		}
		if err != nil {
			err = &storage.TransferError{Path: item.Path, Key: item.Key, Err: err}
		}
	}()

	dir := filepath.Dir(item.Path)
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("cannot create directory %s: %w", dir, err)
	}

	rc, err := store.GetObject(ctx, item.Bucket, item.Key)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	tmp, err := afero.TempFile(e.fs, dir, "."+filepath.Base(item.Path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("cannot create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	body = newProgressReader(rc, item, sink)
	n, err = io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && item.Size >= 0 && n != item.Size {
		err = fmt.Errorf("short read: got %d of %d bytes", n, item.Size)
	}
	if err == nil {
		err = e.fs.Rename(tmpName, item.Path)
	}
	if err != nil {
		if rmErr := e.fs.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, afero.ErrFileNotFound) {
			e.logger.Warn("Failed to remove partial download", "path", tmpName, "error", rmErr)
		}
		return 0, err
	}
	return n, nil
}
