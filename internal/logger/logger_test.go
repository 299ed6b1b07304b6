package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production")

	log.Info("search issued", "username", "alice", "results", 3)
	log.Debug("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "search issued", entry["msg"])
	assert.Equal(t, "alice", entry["username"])
	assert.Equal(t, float64(3), entry["results"])
}

func TestNewWithWriter_DevelopmentWritesTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "development")

	log.Debug("summarizing", "index", 2)

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "msg=summarizing")
	assert.Contains(t, out, "index=2")
}

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production").With("component", "session")

	log.Warn("index out of range")

	assert.Contains(t, buf.String(), `"component":"session"`)
}
