// File: internal/provider/registry/registry.go
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"s3client/internal/config"
	"s3client/pkg/storage"
)

// Reports whether the configuration carries enough settings to build the provider's store
type ProviderConfigCheck func(cfg *config.Config) bool

// Builds an object store client from the configuration
type ProviderInitializer func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ObjectStore, error)

type ProviderRegistration struct {
	ConfigCheck ProviderConfigCheck
	Initializer ProviderInitializer
	// Config key shown in hints when the provider is not configured
	RequiredKey string
}

var (
	// Keyed by the lowercase provider name
	providerRegistry = make(map[string]ProviderRegistration)
	registryMu       sync.RWMutex
)

// Registers a provider. Meant to be called from the provider package's init().
func RegisterProvider(name string, registration ProviderRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()

	normalizedName := strings.ToLower(name)
	if _, exists := providerRegistry[normalizedName]; exists {
		panic(fmt.Sprintf("provider %s already registered", normalizedName))
	}
	if registration.ConfigCheck == nil {
		panic(fmt.Sprintf("provider %s registration missing ConfigCheck", normalizedName))
	}
	if registration.Initializer == nil {
		panic(fmt.Sprintf("provider %s registration missing Initializer", normalizedName))
	}

	providerRegistry[normalizedName] = registration
}

// Removes a registration, returning whether it existed
func UnregisterProvider(name string) bool {
	registryMu.Lock()
	defer registryMu.Unlock()

	normalizedName := strings.ToLower(name)
	_, exists := providerRegistry[normalizedName]
	delete(providerRegistry, normalizedName)
	return exists
}

// Returns the sorted names of all registered providers
func GetSupportedProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	providers := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

func IsSupported(providerName string) bool {
	_, exists := GetRegistration(providerName)
	return exists
}

func GetRegistration(providerName string) (ProviderRegistration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	registration, exists := providerRegistry[strings.ToLower(providerName)]
	return registration, exists
}

// Returns a snapshot of the registry
func GetAllRegistrations() map[string]ProviderRegistration {
	registryMu.RLock()
	defer registryMu.RUnlock()

	registrations := make(map[string]ProviderRegistration, len(providerRegistry))
	for k, v := range providerRegistry {
		registrations[k] = v
	}
	return registrations
}
