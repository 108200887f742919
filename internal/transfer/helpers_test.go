// File: internal/transfer/helpers_test.go
package transfer_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"s3client/internal/transfer"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type progressEvent struct {
	key      string
	complete bool
	percent  float64
	err      error
}

// Records every sink callback in arrival order
type recordingSink struct {
	mu     sync.Mutex
	events []progressEvent
}

func (s *recordingSink) OnProgress(item transfer.TransferItem, percent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, progressEvent{key: item.Key, percent: percent})
}

func (s *recordingSink) OnComplete(item transfer.TransferItem, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, progressEvent{key: item.Key, complete: true, err: err})
}

func (s *recordingSink) byKey() map[string][]progressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]progressEvent)
	for _, ev := range s.events {
		out[ev.key] = append(out[ev.key], ev)
	}
	return out
}

// Fails Open for the configured paths, simulating unreadable files
type denyOpenFs struct {
	afero.Fs
	denied map[string]bool
}

func (fs denyOpenFs) Open(name string) (afero.File, error) {
	if fs.denied[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return fs.Fs.Open(name)
}

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644), "writing %s", path)
	}
}

// Returns every regular file below root, including leftover temporary files
func listFiles(t *testing.T, fs afero.Fs, root string) []string {
	t.Helper()
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func hasPartialFiles(files []string) bool {
	for _, f := range files {
		if strings.HasSuffix(f, ".part") {
			return true
		}
	}
	return false
}
