package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMessage = "test message"

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestNewWithWriterLevels(t *testing.T) {
	tests := []struct {
		name          string
		level         string
		expectedLevel zerolog.Level
	}{
		{name: "debug", level: "debug", expectedLevel: zerolog.DebugLevel},
		{name: "info", level: "info", expectedLevel: zerolog.InfoLevel},
		{name: "warn", level: "warn", expectedLevel: zerolog.WarnLevel},
		{name: "error", level: "error", expectedLevel: zerolog.ErrorLevel},
		{name: "invalid_level_defaults_to_info", level: "loud", expectedLevel: zerolog.InfoLevel},
		{name: "empty_level_defaults_to_info", level: "", expectedLevel: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewWithWriter(&bytes.Buffer{}, tt.level, false)
			assert.Equal(t, tt.expectedLevel, l.Level())
		})
	}
}

func TestLogEventFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", false)

	l.Info().
		Str("url", "https://api.example.com/items").
		Int("status_code", 503).
		Int("attempt", 2).
		Bool("timeout", false).
		Dur("delay", 10*time.Second).
		Err(errors.New("boom")).
		Msg(testMessage)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, testMessage, entry["message"])
	assert.Equal(t, "https://api.example.com/items", entry["url"])
	assert.InDelta(t, 503, entry["status_code"], 0)
	assert.InDelta(t, 2, entry["attempt"], 0)
	assert.Equal(t, false, entry["timeout"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry, "time")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", false)

	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Warn().Msgf("visible %d", 1)
	entry := decodeLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "visible 1", entry["message"])
}

func TestStrMasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", false)

	l.Info().Str("authorization", "Bearer abc").Str("endpoint", "/items").Msg(testMessage)

	entry := decodeLine(t, &buf)
	assert.Equal(t, DefaultMaskValue, entry["authorization"])
	assert.Equal(t, "/items", entry["endpoint"])
}

func TestInterfaceMasksHeaderMaps(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", false)

	headers := map[string]string{"Authorization": "Bearer abc", "Accept": "application/json"}
	l.Info().Interface("headers", headers).Msg(testMessage)

	entry := decodeLine(t, &buf)
	logged, ok := entry["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultMaskValue, logged["Authorization"])
	assert.Equal(t, "application/json", logged["Accept"])
	assert.Equal(t, "Bearer abc", headers["Authorization"], "caller map must not be mutated")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", false)

	child := l.WithFields(map[string]any{"component": "retry", "api_key": "k"})
	child.Info().Msg(testMessage)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "retry", entry["component"])
	assert.Equal(t, DefaultMaskValue, entry["api_key"])
}

func TestPrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", true)

	l.Info().Str("url", "https://api.example.com").Msg(testMessage)
	assert.Contains(t, buf.String(), testMessage)
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Info().Str("k", "v").Msg(testMessage)
	})
}
