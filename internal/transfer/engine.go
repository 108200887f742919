// File: internal/transfer/engine.go

// Package transfer implements the bulk operations that sit on top of an ObjectStore:
// paginated listing, directory tree upload/download, bucket emptying and pre-signed links.
package transfer

import (
	"log/slog"

	"github.com/spf13/afero"
)

const DefaultConcurrency = 4

// Engine runs bulk operations against an injected storage.ObjectStore.
// It holds no per-store state, so one Engine can serve several stores concurrently.
type Engine struct {
	fs          afero.Fs
	concurrency int
	deleteBatch int
	logger      *slog.Logger
}

type Option func(*Engine)

// Sets the filesystem used for local reads and writes
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) {
		if fs != nil {
			e.fs = fs
		}
	}
}

// Sets the maximum number of concurrent per-file transfers
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// Caps the delete batch size below the store's own limit
func WithDeleteBatch(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.deleteBatch = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Creates a new Engine backed by the OS filesystem unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fs:          afero.NewOsFs(),
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "transfer")
	return e
}

func (e *Engine) Concurrency() int {
	return e.concurrency
}
