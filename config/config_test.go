package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBaseURL    = "http://localhost:8080"
	envBaseURL     = "HTTPRETRY_CLIENT_BASEURL"
	envMaxRetries  = "HTTPRETRY_CLIENT_MAXRETRIES"
	envBackoffBase = "HTTPRETRY_CLIENT_BACKOFF_BASE"
)

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv(envBaseURL, testBaseURL)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, testBaseURL, cfg.Client.BaseURL)
	assert.Equal(t, []int{400, 404, 422}, cfg.Client.NonRetriable)
	assert.Equal(t, 4, cfg.Client.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Client.Backoff.Base)
	assert.Equal(t, 30*time.Second, cfg.Client.Backoff.Max)
	assert.InDelta(t, 0.0, cfg.Client.RateLimit.RequestsPerSecond, 0.0001)
	assert.True(t, cfg.Client.RequestID)
	assert.False(t, cfg.Client.Propagate)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.False(t, cfg.Observability.Enabled)
}

func TestLoadMissingBaseURL(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "client.baseurl", verr.Errors[0].Key)
	assert.Equal(t, "is required", verr.Errors[0].Message)
}

func TestLoadBytes(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
client:
  baseurl: https://api.example.com/v1
  nonretriable: [400, 401, 403]
  maxretries: 2
  timeout: 5s
  backoff:
    base: 100ms
    max: 2s
  headers:
    accept: application/json
  ratelimit:
    rps: 10
    burst: 5
log:
  level: debug
  pretty: true
  maskfields: [ssn]
observability:
  enabled: true
  service:
    name: httpretry
  trace:
    endpoint: localhost:4317
    protocol: grpc
    insecure: true
    samplerate: 0.25
`))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1", cfg.Client.BaseURL)
	assert.Equal(t, []int{400, 401, 403}, cfg.Client.NonRetriable)
	assert.Equal(t, 2, cfg.Client.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.Backoff.Base)
	assert.Equal(t, 2*time.Second, cfg.Client.Backoff.Max)
	assert.Equal(t, "application/json", cfg.Client.Headers["accept"])
	assert.InDelta(t, 10.0, cfg.Client.RateLimit.RequestsPerSecond, 0.0001)
	assert.Equal(t, 5, cfg.Client.RateLimit.Burst)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, []string{"ssn"}, cfg.Log.MaskFields)

	assert.True(t, cfg.Observability.Enabled)
	assert.Equal(t, "httpretry", cfg.Observability.Service.Name)
	assert.Equal(t, "grpc", cfg.Observability.Trace.Protocol)
	assert.True(t, cfg.Observability.Trace.Insecure)
	require.NotNil(t, cfg.Observability.Trace.SampleRate)
	assert.InDelta(t, 0.25, *cfg.Observability.Trace.SampleRate, 0.0001)
}

func TestLoadEmptyDenyList(t *testing.T) {
	cfg, err := LoadBytes([]byte("client:\n  baseurl: http://localhost\n  nonretriable: []\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Client.NonRetriable)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "httpretry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
client:
  baseurl: http://from-file:8080
  maxretries: 1
  backoff:
    base: 1s
`), 0o600))

	t.Setenv(envMaxRetries, "7")
	t.Setenv(envBackoffBase, "250ms")
	t.Setenv("HTTPRETRY_CLIENT_NONRETRIABLE", "400,409")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-file:8080", cfg.Client.BaseURL)
	assert.Equal(t, 7, cfg.Client.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.Backoff.Base)
	assert.Equal(t, []int{400, 409}, cfg.Client.NonRetriable)
}

func TestLoadWithOverrides(t *testing.T) {
	t.Setenv(envBaseURL, "http://from-env")
	t.Setenv(envMaxRetries, "3")

	cfg, err := LoadWithOverrides("", map[string]any{
		"client.baseurl": "http://from-flag",
		"log.level":      "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://from-flag", cfg.Client.BaseURL)
	assert.Equal(t, 3, cfg.Client.MaxRetries)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestTransformEnv(t *testing.T) {
	key, value := transformEnv("HTTPRETRY_CLIENT_RATELIMIT_RPS", "2.5")
	assert.Equal(t, "client.ratelimit.rps", key)
	assert.Equal(t, "2.5", value)

	key, value = transformEnv("HTTPRETRY_LOG_MASKFIELDS", "ssn, card_number,")
	assert.Equal(t, "log.maskfields", key)
	assert.Equal(t, []string{"ssn", "card_number"}, value)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := LoadBytes([]byte("client: [unterminated"))
	require.Error(t, err)
}

func TestGetString(t *testing.T) {
	cfg, err := LoadBytes([]byte("client:\n  baseurl: http://localhost\nextensions:\n  region: eu-west-1\n"))
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.GetString("extensions.region"))
	assert.Equal(t, "fallback", cfg.GetString("extensions.zone", "fallback"))
	assert.Empty(t, cfg.GetString("extensions.zone"))

	var nilCfg *Config
	assert.Equal(t, "d", nilCfg.GetString("any", "d"))
}
