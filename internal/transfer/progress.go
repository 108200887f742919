// File: internal/transfer/progress.go
package transfer

import (
	"io"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
)

// ProgressSink receives per-file progress. OnProgress percentages never decrease for an item
// and are never delivered after that item's OnComplete.
type ProgressSink interface {
	OnProgress(item TransferItem, percent float64)
	OnComplete(item TransferItem, err error)
}

// Wraps a transfer body and reports byte-weighted progress to a sink
type progressReader struct {
	r    io.Reader
	item TransferItem
	sink ProgressSink

	mu    sync.Mutex
	read  int64
	last  float64
	total int64
	done  bool
}

func newProgressReader(r io.Reader, item TransferItem, sink ProgressSink) *progressReader {
	return &progressReader{r: r, item: item, sink: sink, total: item.Size}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.advance(int64(n))
	}
	return n, err
}

func (p *progressReader) advance(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.read += n
	if p.sink == nil || p.done || p.total <= 0 {
		return
	}
	percent := float64(p.read) * 100 / float64(p.total)
	if percent > 100 {
		percent = 100
	}
	if percent > p.last {
		p.last = percent
		p.sink.OnProgress(p.item, percent)
	}
}

func (p *progressReader) bytesRead() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read
}

// Emits the final progress tick on success and the completion callback exactly once
func (p *progressReader) complete(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return
	}
	p.done = true
	if p.sink == nil {
		return
	}
	if err == nil && p.last < 100 {
		p.last = 100
		p.sink.OnProgress(p.item, 100)
	}
	p.sink.OnComplete(p.item, err)
}

// LogSink writes progress milestones and completions to a structured logger
type LogSink struct {
	logger *slog.Logger

	mu        sync.Mutex
	milestone map[string]int
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{
		logger:    logger,
		milestone: make(map[string]int),
	}
}

func (s *LogSink) OnProgress(item TransferItem, percent float64) {
	step := int(percent) / 25
	s.mu.Lock()
	prev, seen := s.milestone[item.Key]
	if seen && step <= prev {
		s.mu.Unlock()
		return
	}
	s.milestone[item.Key] = step
	s.mu.Unlock()

	s.logger.Debug("Transfer progress", "direction", item.Direction, "key", item.Key, "percent", int(percent))
}

func (s *LogSink) OnComplete(item TransferItem, err error) {
	s.mu.Lock()
	delete(s.milestone, item.Key)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Transfer failed", "direction", item.Direction, "key", item.Key, "path", item.Path, "error", err)
		return
	}
	size := "unknown size"
	if item.Size >= 0 {
		size = humanize.IBytes(uint64(item.Size))
	}
	s.logger.Info("Transferred", "direction", item.Direction, "key", item.Key, "size", size)
}
