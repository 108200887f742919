// File: internal/logger/logger_test.go
package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, false)

	log.Debug("hidden detail")
	log.Info("upload finished", "key", "a.txt")

	out := buf.String()
	assert.NotContains(t, out, "hidden detail")
	assert.Contains(t, out, "upload finished")
	assert.Contains(t, out, "a.txt")

	buf.Reset()
	log = NewLogger(&buf, true)
	log.Debug("listing page", "page", 2)
	assert.Contains(t, buf.String(), "listing page")
}
