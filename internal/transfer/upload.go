// File: internal/transfer/upload.go
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"s3client/pkg/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

var errWalkCancelled = errors.New("walk cancelled")

// Bounds symlink chains when resolving an upload root
const maxRootLinks = 40

// UploadFile uploads a single local file to bucket/key
func (e *Engine) UploadFile(ctx context.Context, store storage.ObjectStore, localPath, bucket, key string, sink ProgressSink) error {
	if err := storage.ValidateBucket(bucket); err != nil {
		return err
	}
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	item := TransferItem{Bucket: bucket, Key: key, Path: localPath, Direction: Upload, Size: -1}
	_, err := e.uploadItem(ctx, store, item, sink)
	return err
}

// UploadTree uploads every regular file below localRoot to bucket under keyPrefix.
// Symlinks below the root are not followed; a symlinked root is resolved first. Per-file failures are collected in the report; the returned
// error is only set when the walk cannot start at all.
func (e *Engine) UploadTree(ctx context.Context, store storage.ObjectStore, localRoot, bucket, keyPrefix string, sink ProgressSink) (TransferReport, error) {
	if err := storage.ValidateBucket(bucket); err != nil {
		return TransferReport{}, err
	}

	root, err := e.resolveRoot(filepath.Clean(localRoot))
	if err != nil {
		return TransferReport{}, err
	}
	info, err := e.fs.Stat(root)
	if err != nil {
		return TransferReport{}, fmt.Errorf("cannot read upload root %s: %w", root, err)
	}
	if !info.IsDir() {
		return TransferReport{}, fmt.Errorf("upload root %s is not a directory", root)
	}

	logger := e.logger.With("operation", "UploadTree", "bucket", bucket, "prefix", keyPrefix)
	logger.Debug("Starting tree upload", "root", root, "concurrency", e.concurrency)

	var (
		report reportBuilder
		g      errgroup.Group
	)
	g.SetLimit(e.concurrency)

	walkErr := afero.Walk(e.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			report.fail(path, "", fmt.Errorf("cannot read %s: %w", path, err))
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			logger.Debug("Skipping non-regular file", "path", path, "mode", info.Mode().String())
			return nil
		}

		if ctx.Err() != nil {
			return errWalkCancelled
		}

		key, err := storage.ToKey(root, path, keyPrefix)
		if err != nil {
			report.fail(path, "", err)
			return nil
		}

		item := TransferItem{Bucket: bucket, Key: key, Path: path, Direction: Upload, Size: info.Size()}
		g.Go(func() error {
			e.runItem(ctx, &report, item, func() (int64, error) {
				return e.uploadItem(ctx, store, item, sink)
			})
			return nil
		})
		return nil
	})
	_ = g.Wait()

	status := StatusCompleted
	switch {
	case errors.Is(walkErr, errWalkCancelled):
		status = StatusCancelled
	case walkErr != nil:
		return report.finish(StatusCompleted), fmt.Errorf("walking %s: %w", root, walkErr)
	case ctx.Err() != nil:
		status = StatusCancelled
	}

	result := report.finish(status)
	logger.Debug("Tree upload finished", "succeeded", len(result.Succeeded), "failed", len(result.Failed), "status", result.Status)
	return result, nil
}

// Follows symlinks on the root itself. The walk lstats the root and would otherwise
// skip it as a non-regular file.
func (e *Engine) resolveRoot(root string) (string, error) {
	lstater, ok := e.fs.(afero.Lstater)
	if !ok {
		return root, nil
	}

	for range maxRootLinks {
		info, lstatCalled, err := lstater.LstatIfPossible(root)
		if err != nil {
			return "", fmt.Errorf("cannot read upload root %s: %w", root, err)
		}
		if !lstatCalled || info.Mode()&os.ModeSymlink == 0 {
			return root, nil
		}

		reader, ok := e.fs.(afero.LinkReader)
		if !ok {
			return "", fmt.Errorf("upload root %s is a symlink that cannot be resolved", root)
		}
		target, err := reader.ReadlinkIfPossible(root)
		if err != nil {
			return "", fmt.Errorf("cannot resolve upload root %s: %w", root, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(root), target)
		}
		root = filepath.Clean(target)
	}
	return "", fmt.Errorf("upload root %s: too many levels of symbolic links", root)
}

// Runs one claimed item and records its outcome. Items picked up after cancellation are dropped,
// as are failures caused by the cancellation itself.
func (e *Engine) runItem(ctx context.Context, report *reportBuilder, item TransferItem, transfer func() (int64, error)) {
	if ctx.Err() != nil {
		return
	}
	n, err := transfer()
	if err != nil {
		if ctx.Err() != nil {
			e.logger.Debug("Transfer interrupted by cancellation", "key", item.Key, "error", err)
			return
		}
		report.fail(item.Path, item.Key, err)
		return
	}
	report.succeed(item, n)
}

func (e *Engine) uploadItem(ctx context.Context, store storage.ObjectStore, item TransferItem, sink ProgressSink) (n int64, err error) {
	var body *progressReader
	defer func() {
		if body != nil {
			body.complete(err)
		} else if sink != nil {
			sink.OnComplete(item, err)
		}
	}()

	f, err := e.fs.Open(item.Path)
	if err != nil {
		return 0, &storage.TransferError{Path: item.Path, Key: item.Key, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, &storage.TransferError{Path: item.Path, Key: item.Key, Err: err}
	}
	if !info.Mode().IsRegular() {
		return 0, &storage.TransferError{Path: item.Path, Key: item.Key, Err: fmt.Errorf("%s is not a regular file", item.Path)}
	}
	item.Size = info.Size()

	contentType, err := detectContentType(f)
	if err != nil {
		return 0, &storage.TransferError{Path: item.Path, Key: item.Key, Err: err}
	}

	body = newProgressReader(f, item, sink)
	err = store.PutObject(ctx, item.Bucket, item.Key, body, storage.PutOptions{
		Size:        item.Size,
		ContentType: contentType,
	})
	if err != nil {
		err = &storage.TransferError{Path: item.Path, Key: item.Key, Err: err}
		return 0, err
	}
	return item.Size, nil
}

// Sniffs the content type from the file header and rewinds the file
func detectContentType(f io.ReadSeeker) (string, error) {
	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file: %w", err)
	}
	return mime.String(), nil
}
