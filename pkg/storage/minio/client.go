// File: pkg/storage/minio/client.go
package minio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"s3client/internal/config"
	"s3client/internal/provider/registry"
	"s3client/pkg/common"
	"s3client/pkg/storage"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func init() {
	registry.RegisterProvider(string(common.MinIO), registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
		RequiredKey: "minio.endpoint",
	})
}

func isConfigured(cfg *config.Config) bool {
	return cfg.MinIO != nil && cfg.MinIO.Endpoint != ""
}

// Credentials come from MINIO_ROOT_USER/MINIO_ACCESS_KEY, then AWS_* variables, then ~/.mc/config.json
func initialize(_ context.Context, cfg *config.Config, logger *slog.Logger) (storage.ObjectStore, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("MinIO configuration missing or incomplete")
	}

	creds := credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvMinio{},
		&credentials.EnvAWS{},
		&credentials.FileMinioClient{},
	})

	return New(cfg.MinIO.Endpoint, Options{
		Creds:  creds,
		Secure: cfg.MinIO.Secure,
		Region: cfg.MinIO.Region,
	}, logger)
}

type Options struct {
	Creds  *credentials.Credentials
	Secure bool
	// Setting a region avoids a GetBucketLocation round trip before signing
	Region string
}

type MinIOStorage struct {
	core   *miniogo.Core
	region string
	logger *slog.Logger
	now    func() time.Time
}

var _ storage.ObjectStore = (*MinIOStorage)(nil)

// Creates a MinIOStorage for a host:port endpoint using path-style addressing
func New(endpoint string, opts Options, logger *slog.Logger) (*MinIOStorage, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	core, err := miniogo.NewCore(endpoint, &miniogo.Options{
		Creds:        opts.Creds,
		Secure:       opts.Secure,
		Region:       opts.Region,
		BucketLookup: miniogo.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOStorage{
		core:   core,
		region: opts.Region,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (m *MinIOStorage) ProviderName() common.Provider {
	return common.MinIO
}

func (m *MinIOStorage) Limits() storage.Limits {
	return storage.DefaultLimits()
}

func (m *MinIOStorage) Close() error {
	return nil
}
