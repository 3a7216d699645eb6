package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), "level %q", in)
	}
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseLogFormat("TEXT"))
	assert.Equal(t, FormatJSON, ParseLogFormat("json"))
	assert.Equal(t, FormatJSON, ParseLogFormat("yaml"))
}

func TestNewStructuredLoggerTo_JSONCarriesModuleAndVersion(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLoggerTo(&buf, "navmenu", "v1.2.3", "info", FormatJSON)
	log.Info("menu loaded", "roots", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "navmenu", rec["module"])
	assert.Equal(t, "v1.2.3", rec["version"])
	assert.Equal(t, "menu loaded", rec["msg"])
	assert.EqualValues(t, 2, rec["roots"])
}

func TestNewStructuredLoggerTo_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructuredLoggerTo(&buf, "navmenu", "dev", "warn", FormatText)
	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.True(t, strings.Contains(out, "msg=kept"), out)
}
