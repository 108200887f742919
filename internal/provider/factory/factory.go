// File: internal/provider/factory/factory.go
package factory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"s3client/internal/config"
	"s3client/internal/provider/registry"
	"s3client/pkg/storage"
)

// Factory builds object store clients on demand. Each command constructs its own
// factory, so clients are never shared between invocations.
type Factory struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// Returns the registered providers whose configuration is present
func (f *Factory) GetConfiguredProviders() []string {
	var configuredProviders []string
	for name, registration := range registry.GetAllRegistrations() {
		if registration.ConfigCheck(f.cfg) {
			configuredProviders = append(configuredProviders, name)
		}
	}
	sort.Strings(configuredProviders)
	return configuredProviders
}

func (f *Factory) IsConfigured(providerName string) bool {
	registration, exists := registry.GetRegistration(providerName)
	if !exists {
		return false
	}
	return registration.ConfigCheck(f.cfg)
}

// Initializes the object store for the given provider
func (f *Factory) GetObjectStore(ctx context.Context, providerName string) (storage.ObjectStore, error) {
	normalizedName := strings.ToLower(providerName)

	registration, exists := registry.GetRegistration(normalizedName)
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s. Supported providers are: %v", providerName, registry.GetSupportedProviders())
	}

	if !registration.ConfigCheck(f.cfg) {
		hint := registration.RequiredKey
		if hint == "" {
			hint = normalizedName + ".<key>"
		}
		return nil, fmt.Errorf("provider '%s' is not configured. Use 's3client config set %s <value>'", normalizedName, hint)
	}

	client, err := registration.Initializer(ctx, f.cfg, f.logger.With("provider", normalizedName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider %s: %w", normalizedName, err)
	}
	return client, nil
}
