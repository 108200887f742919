// File: internal/service/object_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"s3client/internal/provider/factory"
	"s3client/internal/transfer"
	"s3client/pkg/storage"
)

// ObjectService runs object-level and bulk operations through the transfer engine,
// constructing a store client for each call.
type ObjectService struct {
	providerFactory *factory.Factory
	engine          *transfer.Engine
	sink            transfer.ProgressSink
	logger          *slog.Logger
}

// A nil sink disables progress reporting
func NewObjectService(providerFactory *factory.Factory, engine *transfer.Engine, sink transfer.ProgressSink, logger *slog.Logger) *ObjectService {
	return &ObjectService{
		providerFactory: providerFactory,
		engine:          engine,
		sink:            sink,
		logger:          logger.With("service", "ObjectService"),
	}
}

// Lists every object under prefix, following continuation tokens to the end
func (s *ObjectService) ListObjects(ctx context.Context, bucketName, providerName, prefix string) ([]storage.Object, error) {
	s.logger.Debug("Starting ListObjects operation", "bucket", bucketName, "provider", providerName, "prefix", prefix)

	var objects []storage.Object
	err := s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		var err error
		objects, err = s.engine.CollectAll(ctx, client, bucketName, prefix)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to list objects", "bucket", bucketName, "provider", providerName, "error", err)
	}
	return objects, err
}

func (s *ObjectService) DescribeObject(ctx context.Context, bucketName, objectKey, providerName string) (storage.Object, error) {
	s.logger.Debug("Starting DescribeObject operation", "bucket", bucketName, "object", objectKey, "provider", providerName)

	var object storage.Object
	err := s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		if err := storage.ValidateKey(objectKey); err != nil {
			return err
		}
		var err error
		object, err = client.StatObject(ctx, bucketName, objectKey)
		return err
	})
	return object, err
}

func (s *ObjectService) UploadFile(ctx context.Context, providerName, localPath, bucketName, objectKey string) error {
	s.logger.Debug("Starting UploadFile operation", "path", localPath, "bucket", bucketName, "object", objectKey, "provider", providerName)

	return s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		return s.engine.UploadFile(ctx, client, localPath, bucketName, objectKey, s.sink)
	})
}

func (s *ObjectService) DownloadFile(ctx context.Context, providerName, bucketName, objectKey, localPath string) error {
	s.logger.Debug("Starting DownloadFile operation", "bucket", bucketName, "object", objectKey, "path", localPath, "provider", providerName)

	return s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		return s.engine.DownloadFile(ctx, client, bucketName, objectKey, localPath, s.sink)
	})
}

func (s *ObjectService) DeleteObject(ctx context.Context, bucketName, objectKey, providerName string) error {
	s.logger.Debug("Starting DeleteObject operation", "bucket", bucketName, "object", objectKey, "provider", providerName)

	return s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		if err := storage.ValidateKey(objectKey); err != nil {
			return err
		}
		return client.DeleteObject(ctx, bucketName, objectKey)
	})
}

func (s *ObjectService) Presign(ctx context.Context, bucketName, objectKey, providerName string, ttlSeconds int64) (storage.PresignedURL, error) {
	var link storage.PresignedURL
	err := s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		var err error
		link, err = s.engine.Presign(ctx, client, bucketName, objectKey, ttlSeconds)
		return err
	})
	return link, err
}

func (s *ObjectService) UploadDirectory(ctx context.Context, providerName, localRoot, bucketName, keyPrefix string) (transfer.TransferReport, error) {
	s.logger.Debug("Starting UploadDirectory operation", "root", localRoot, "bucket", bucketName, "prefix", keyPrefix, "provider", providerName)

	var report transfer.TransferReport
	err := s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		var err error
		report, err = s.engine.UploadTree(ctx, client, localRoot, bucketName, keyPrefix, s.sink)
		return err
	})
	s.logReport("upload", report, err)
	return report, err
}

func (s *ObjectService) DownloadDirectory(ctx context.Context, providerName, bucketName, keyPrefix, destRoot string) (transfer.TransferReport, error) {
	s.logger.Debug("Starting DownloadDirectory operation", "bucket", bucketName, "prefix", keyPrefix, "dest", destRoot, "provider", providerName)

	var report transfer.TransferReport
	err := s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		var err error
		report, err = s.engine.DownloadTree(ctx, client, bucketName, keyPrefix, destRoot, s.sink)
		return err
	})
	s.logReport("download", report, err)
	return report, err
}

// Deletes every object in the folder named by prefix (the whole bucket when empty).
// The prefix is matched as a folder, like DownloadDirectory does.
func (s *ObjectService) EmptyBucket(ctx context.Context, bucketName, providerName, prefix string) (transfer.DeleteReport, error) {
	prefix = storage.FolderPrefix(prefix)
	s.logger.Debug("Starting EmptyBucket operation", "bucket", bucketName, "provider", providerName, "prefix", prefix)

	var report transfer.DeleteReport
	err := s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		var err error
		report, err = s.engine.EmptyBucket(ctx, client, bucketName, prefix)
		return err
	})
	if err != nil {
		s.logger.Error("Bulk delete did not finish", "bucket", bucketName, "deleted", report.Deleted, "failed", len(report.Failed), "error", err)
	}
	return report, err
}

func (s *ObjectService) logReport(op string, report transfer.TransferReport, err error) {
	switch {
	case err != nil:
		s.logger.Error("Transfer aborted", "operation", op, "succeeded", len(report.Succeeded), "error", err)
	case report.Status == transfer.StatusCancelled:
		s.logger.Warn("Transfer cancelled", "operation", op, "succeeded", len(report.Succeeded))
	case len(report.Failed) > 0:
		s.logger.Warn("Transfer finished with failures", "operation", op, "succeeded", len(report.Succeeded), "failed", len(report.Failed))
	}
}

func (s *ObjectService) withClient(ctx context.Context, providerName string, fn func(storage.ObjectStore) error) error {
	client, err := s.providerFactory.GetObjectStore(ctx, providerName)
	if err != nil {
		s.logger.Error("Failed to initialize provider", "provider", providerName, "error", err)
		return fmt.Errorf("error initializing provider: %w", err)
	}
	defer client.Close()
	return fn(client)
}
