// File: pkg/storage/model.go
package storage

import (
	"s3client/pkg/common"
	"time"
)

const (
	// S3 rejects DeleteObjects requests with more keys than this
	DefaultMaxDeleteBatch = 1000
	// SigV4 signatures are valid for at most seven days
	DefaultMaxPresignTTL = 7 * 24 * time.Hour

	DefaultIndexDocument = "index.html"
	DefaultErrorDocument = "error.html"
)

type Bucket struct {
	Name      string
	Provider  common.Provider
	Location  string
	CreatedAt time.Time

	// Only populated by describe operations
	Versioning VersioningStatus
	Policy     string
	// Nil unless the store reports usage metrics
	UsageBytes *int64
}

type Object struct {
	Key          string
	Bucket       string
	Provider     common.Provider
	Size         int64
	LastModified time.Time
	ETag         string
	ContentType  string
}

// Represents one page returned by a listing call
type ListingPage struct {
	Objects []Object
	// Empty when the store has no further pages
	NextToken string
}

type PutOptions struct {
	// A value of -1 indicates that the size is unknown
	Size        int64
	ContentType string
}

// Reports the outcome of deleting a single key within a batch
type DeleteResult struct {
	Key string
	Err error
}

type VersioningStatus string

const (
	VersioningEnabled   VersioningStatus = "Enabled"
	VersioningSuspended VersioningStatus = "Suspended"
	VersioningDisabled  VersioningStatus = "Not enabled"
)

type WebsiteConfig struct {
	IndexDocument string
	ErrorDocument string
}

// Fills in the default index and error documents where unset
func (w WebsiteConfig) WithDefaults() WebsiteConfig {
	if w.IndexDocument == "" {
		w.IndexDocument = DefaultIndexDocument
	}
	if w.ErrorDocument == "" {
		w.ErrorDocument = DefaultErrorDocument
	}
	return w
}

// A signed retrieval URL and the instant it stops being valid
type PresignedURL struct {
	URL       string
	ExpiresAt time.Time
}

type Limits struct {
	MaxDeleteBatch int
	MaxPresignTTL  time.Duration
}

// Returns the S3 limits shared by AWS and most compatible stores
func DefaultLimits() Limits {
	return Limits{
		MaxDeleteBatch: DefaultMaxDeleteBatch,
		MaxPresignTTL:  DefaultMaxPresignTTL,
	}
}
