package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironingOrderManagement/internal/config"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"debug": slog.LevelDebug, "INFO": slog.LevelInfo, " warn ": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)

	l.Info("dropped")
	l.With("component", "sla").Warn("sla breach", "order", "ORD006")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "sla breach", rec["msg"])
	assert.Equal(t, "sla", rec["component"])
	assert.Equal(t, "ORD006", rec["order"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, config.LogConfig{Level: "info"})
	require.NoError(t, err)
	l.Info("session opened", "actor", "admin1")
	assert.Contains(t, buf.String(), "actor=admin1")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
