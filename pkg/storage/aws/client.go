// File: pkg/storage/aws/client.go
package aws

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"s3client/internal/config"
	"s3client/internal/provider/registry"
	"s3client/pkg/common"
	"s3client/pkg/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func init() {
	registry.RegisterProvider(string(common.AWS), registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
		RequiredKey: "aws.region",
	})
}

// Checks if the AWS block is present and a region is set
func isConfigured(cfg *config.Config) bool {
	return cfg.AWS != nil && cfg.AWS.Region != ""
}

// Resolves credentials through the default AWS chain (env, shared profile, IMDS)
func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ObjectStore, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("AWS configuration missing or incomplete")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return NewFromConfig(awsCfg, Options{
		Endpoint:  cfg.AWS.Endpoint,
		PathStyle: cfg.AWS.PathStyle,
	}, logger), nil
}

// Options tune the S3 client for S3-compatible endpoints
type Options struct {
	// Custom endpoint URL, e.g. a local S3-compatible server
	Endpoint  string
	PathStyle bool
}

type S3Storage struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	region    string
	logger    *slog.Logger
	now       func() time.Time
}

var _ storage.ObjectStore = (*S3Storage)(nil)

// Creates an S3Storage from a resolved AWS configuration
func NewFromConfig(awsCfg aws.Config, opts Options, logger *slog.Logger) *S3Storage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return &S3Storage{
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
		region:    awsCfg.Region,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *S3Storage) ProviderName() common.Provider {
	return common.AWS
}

func (s *S3Storage) Limits() storage.Limits {
	return storage.DefaultLimits()
}

// The SDK client holds no resources that need releasing
func (s *S3Storage) Close() error {
	return nil
}
