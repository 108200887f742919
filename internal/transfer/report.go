// File: internal/transfer/report.go
package transfer

import (
	"sort"
	"sync"
)

type Direction int

const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	switch d {
	case Upload:
		return "upload"
	case Download:
		return "download"
	default:
		return "unknown"
	}
}

// TransferItem pairs a local path with an object key. Each item is claimed by exactly one worker.
type TransferItem struct {
	Bucket    string
	Key       string
	Path      string
	Direction Direction
	// A value of -1 indicates the size is not known up front
	Size int64
}

type Status string

const (
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

type TransferFailure struct {
	Path string
	Key  string
	Err  error
}

// TransferReport only reflects transfers that committed or definitively failed
type TransferReport struct {
	Succeeded []string
	Failed    []TransferFailure
	Bytes     int64
	Status    Status
}

// Reports whether every item transferred and the operation ran to completion
func (r TransferReport) OK() bool {
	return len(r.Failed) == 0 && r.Status == StatusCompleted
}

type DeleteFailure struct {
	Key string
	Err error
}

type DeleteReport struct {
	Deleted int
	Failed  []DeleteFailure
	Batches int
	Status  Status
}

// Accumulates per-item results from concurrent workers
type reportBuilder struct {
	mu     sync.Mutex
	report TransferReport
}

func (b *reportBuilder) succeed(item TransferItem, n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Succeeded = append(b.report.Succeeded, item.Key)
	b.report.Bytes += n
}

func (b *reportBuilder) fail(path, key string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Failed = append(b.report.Failed, TransferFailure{Path: path, Key: key, Err: err})
}

// Returns the accumulated report sorted by key and path; call only after all workers have finished
func (b *reportBuilder) finish(status Status) TransferReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := b.report
	r.Status = status
	sort.Strings(r.Succeeded)
	sort.Slice(r.Failed, func(i, j int) bool {
		if r.Failed[i].Path != r.Failed[j].Path {
			return r.Failed[i].Path < r.Failed[j].Path
		}
		return r.Failed[i].Key < r.Failed[j].Key
	})
	return r
}
