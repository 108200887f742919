// File: internal/service/storage_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"s3client/internal/provider/factory"
	"s3client/pkg/storage"
)

type StorageService struct {
	providerFactory *factory.Factory
	logger          *slog.Logger
}

func NewStorageService(providerFactory *factory.Factory, logger *slog.Logger) *StorageService {
	return &StorageService{
		providerFactory: providerFactory,
		logger:          logger.With("service", "StorageService"),
	}
}

// --- Bucket Operations ---

// Lists buckets from every provider concurrently. Providers that fail are logged and skipped;
// an error is only returned when none of them answered.
func (s *StorageService) ListAllBuckets(ctx context.Context, providerNames []string) ([]storage.Bucket, error) {
	if len(providerNames) == 0 {
		return nil, nil
	}

	s.logger.Debug("Starting ListAllBuckets operation", "providers", providerNames)

	var allBuckets []storage.Bucket
	var errs []error
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, pName := range providerNames {
		wg.Add(1)
		go func(pName string) {
			defer wg.Done()

			buckets, err := s.listProviderBuckets(ctx, pName)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("Failed to list buckets from provider", "provider", pName, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", pName, err))
				return
			}
			allBuckets = append(allBuckets, buckets...)
			s.logger.Debug("Successfully fetched buckets", "provider", pName, "count", len(buckets))
		}(pName)
	}

	wg.Wait()

	if len(errs) == len(providerNames) {
		return nil, errors.Join(errs...)
	}

	sort.Slice(allBuckets, func(i, j int) bool {
		if allBuckets[i].Provider != allBuckets[j].Provider {
			return allBuckets[i].Provider < allBuckets[j].Provider
		}
		return allBuckets[i].Name < allBuckets[j].Name
	})
	return allBuckets, nil
}

func (s *StorageService) listProviderBuckets(ctx context.Context, providerName string) ([]storage.Bucket, error) {
	client, err := s.getStorageClient(ctx, providerName)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.ListBuckets(ctx)
}

// Combines the bucket listing entry with its versioning status and policy
func (s *StorageService) DescribeBucket(ctx context.Context, bucketName, providerName string) (storage.Bucket, error) {
	s.logger.Debug("Starting DescribeBucket operation", "bucket", bucketName, "provider", providerName)

	client, err := s.getStorageClient(ctx, providerName)
	if err != nil {
		return storage.Bucket{}, err
	}
	defer client.Close()

	versioning, err := client.GetBucketVersioning(ctx, bucketName)
	if err != nil {
		s.logger.Error("Failed to describe bucket", "bucket", bucketName, "provider", providerName, "error", err)
		return storage.Bucket{}, err
	}

	details := storage.Bucket{
		Name:       bucketName,
		Provider:   client.ProviderName(),
		Versioning: versioning,
	}

	buckets, err := client.ListBuckets(ctx)
	if err != nil {
		s.logger.Warn("Could not list buckets, location and creation time will be omitted", "bucket", bucketName, "error", err)
	}
	for _, b := range buckets {
		if b.Name == bucketName {
			details.Location = b.Location
			details.CreatedAt = b.CreatedAt
			break
		}
	}

	policy, err := client.GetBucketPolicy(ctx, bucketName)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug("Bucket has no policy", "bucket", bucketName)
	case err != nil:
		s.logger.Warn("Could not retrieve bucket policy", "bucket", bucketName, "error", err)
	default:
		details.Policy = policy
	}

	if reporter, ok := client.(storage.UsageReporter); ok {
		usage, err := reporter.BucketUsage(ctx, bucketName)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.logger.Debug("No usage metrics for bucket", "bucket", bucketName, "error", err)
		case err != nil:
			s.logger.Warn("Could not retrieve bucket usage", "bucket", bucketName, "error", err)
		default:
			details.UsageBytes = &usage
		}
	}

	return details, nil
}

func (s *StorageService) CreateBucket(ctx context.Context, bucketName, providerName, location string) error {
	s.logger.Debug("Starting CreateBucket operation", "bucket", bucketName, "provider", providerName, "location", location)

	return s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		if err := client.CreateBucket(ctx, bucketName, location); err != nil {
			s.logger.Error("Failed to create bucket", "bucket", bucketName, "provider", providerName, "error", err)
			return err
		}
		return nil
	})
}

// Deletes an empty bucket. Use ObjectService.EmptyBucket first for buckets with contents.
func (s *StorageService) DeleteBucket(ctx context.Context, bucketName, providerName string) error {
	s.logger.Debug("Starting DeleteBucket operation", "bucket", bucketName, "provider", providerName)

	return s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		if err := client.DeleteBucket(ctx, bucketName); err != nil {
			s.logger.Error("Failed to delete bucket", "bucket", bucketName, "provider", providerName, "error", err)
			return err
		}
		return nil
	})
}

func (s *StorageService) GetBucketPolicy(ctx context.Context, bucketName, providerName string) (string, error) {
	var policy string
	err := s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		var err error
		policy, err = client.GetBucketPolicy(ctx, bucketName)
		return err
	})
	return policy, err
}

// Rejects documents that are not JSON before they reach the provider
func (s *StorageService) SetBucketPolicy(ctx context.Context, bucketName, providerName, policy string) error {
	if !json.Valid([]byte(policy)) {
		return fmt.Errorf("policy for bucket '%s' is not valid JSON", bucketName)
	}
	s.logger.Debug("Starting SetBucketPolicy operation", "bucket", bucketName, "provider", providerName)

	return s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		return client.PutBucketPolicy(ctx, bucketName, policy)
	})
}

func (s *StorageService) GetBucketVersioning(ctx context.Context, bucketName, providerName string) (storage.VersioningStatus, error) {
	var status storage.VersioningStatus
	err := s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		var err error
		status, err = client.GetBucketVersioning(ctx, bucketName)
		return err
	})
	return status, err
}

// Enables static website hosting, filling in index.html and error.html when unset
func (s *StorageService) ConfigureWebsite(ctx context.Context, bucketName, providerName string, website storage.WebsiteConfig) (storage.WebsiteConfig, error) {
	website = website.WithDefaults()
	s.logger.Debug("Starting ConfigureWebsite operation", "bucket", bucketName, "provider", providerName, "index", website.IndexDocument, "error", website.ErrorDocument)

	err := s.withClient(ctx, providerName, func(client storage.ObjectStore) error {
		return client.PutBucketWebsite(ctx, bucketName, website)
	})
	return website, err
}

func (s *StorageService) withClient(ctx context.Context, providerName string, fn func(storage.ObjectStore) error) error {
	client, err := s.getStorageClient(ctx, providerName)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

// Helper to initialize the storage client and handle common error logging
func (s *StorageService) getStorageClient(ctx context.Context, providerName string) (storage.ObjectStore, error) {
	client, err := s.providerFactory.GetObjectStore(ctx, providerName)
	if err != nil {
		s.logger.Error("Failed to initialize provider", "provider", providerName, "error", err)
		return nil, fmt.Errorf("error initializing provider: %w", err)
	}
	return client, nil
}
