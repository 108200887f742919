// File: pkg/storage/gcp/client.go
package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"s3client/internal/config"
	"s3client/internal/provider/registry"
	"s3client/pkg/common"
	"s3client/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Deletes are issued per key, so batches are kept small
const maxDeleteBatch = 100

func init() {
	registry.RegisterProvider(string(common.GCP), registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
		RequiredKey: "gcp.project",
	})
}

// Checks if the GCP configuration block is present and the project ID is set
func isConfigured(cfg *config.Config) bool {
	return cfg.GCP != nil && cfg.GCP.Project != ""
}

// Initializes the GCP storage client, using application default credentials unless a key file is configured
func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ObjectStore, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("GCP configuration missing or incomplete")
	}

	var opts []option.ClientOption
	if cfg.GCP.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCP.CredentialsFile))
	}
	return NewGCPStorage(ctx, cfg.GCP.Project, logger, opts...)
}

type GCPStorage struct {
	client    *gcpstorage.Client
	projectID string
	logger    *slog.Logger
	now       func() time.Time

	queryUsage timeSeriesQuery
}

var (
	_ storage.ObjectStore   = (*GCPStorage)(nil)
	_ storage.UsageReporter = (*GCPStorage)(nil)
)

func NewGCPStorage(ctx context.Context, projectID string, logger *slog.Logger, opts ...option.ClientOption) (*GCPStorage, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client, err := gcpstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP storage client: %w", err)
	}

	return &GCPStorage{
		client:    client,
		projectID: projectID,
		logger:    logger,
		now:       time.Now,

		queryUsage: newMonitoringQuery(opts),
	}, nil
}

func (g *GCPStorage) ProviderName() common.Provider {
	return common.GCP
}

func (g *GCPStorage) Limits() storage.Limits {
	return storage.Limits{
		MaxDeleteBatch: maxDeleteBatch,
		MaxPresignTTL:  storage.DefaultMaxPresignTTL,
	}
}

func (g *GCPStorage) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
