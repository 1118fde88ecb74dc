package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("production", &buf)

	logger.Debug("hidden")
	logger.Info("code exchanged", "result", "ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "code exchanged", entry["msg"])
	assert.Equal(t, "sorria", entry["service"])
	assert.Equal(t, "ok", entry["result"])
}

func TestNewLogger_DevelopmentIsVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("development", &buf)

	logger.Debug("tick")

	out := buf.String()
	assert.Contains(t, out, "msg=tick")
	assert.Contains(t, out, "source=")
}
