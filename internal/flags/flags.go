// File: internal/flags/flags.go
package flags

// Centralized definitions for CLI flags used across the application

const (
	// Provider flags target a single provider (describe, create, object commands)
	Provider      = "provider"
	ProviderShort = "p"

	// Providers (plural) is used by 'bucket list'; 'p' is reused since the two never share a command
	Providers      = "providers"
	ProvidersShort = "p"

	// Location or region for bucket creation
	Location      = "location"
	LocationShort = "l"

	// Key prefix that scopes listings, uploads and deletions
	Prefix = "prefix"

	// Bypasses the interactive confirmation of destructive operations
	Force      = "force"
	ForceShort = "f"

	// Debug enables verbose logging on stderr
	Debug      = "debug"
	DebugShort = "d"

	// Output selects table, json or yaml rendering
	Output      = "output"
	OutputShort = "o"

	// Config overrides the config file path
	Config = "config"

	TTL         = "ttl"
	Concurrency = "concurrency"

	// Policy document to upload with 'bucket policy set'
	File      = "file"
	FileShort = "F"

	// Website documents
	Index    = "index"
	ErrorDoc = "error"
)
