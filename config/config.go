package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override configuration.
// HTTPRETRY_CLIENT_BACKOFF_BASE maps to client.backoff.base.
const EnvPrefix = "HTTPRETRY_"

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. The YAML file at path, when path is not empty
// 3. Default values (lowest priority)
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load with a final layer of dotted keys, such as command-line
// flags, that takes priority over environment variables.
func LoadWithOverrides(path string, overrides map[string]any) (*Config, error) {
	var source koanf.Provider
	if path != "" {
		source = file.Provider(path)
	}
	return load(source, overrides)
}

// LoadBytes is Load with the YAML document given inline.
func LoadBytes(data []byte) (*Config, error) {
	return load(rawbytes.Provider(data), nil)
}

func load(source koanf.Provider, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if source != nil {
		if err := k.Load(source, yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are the keys whose environment values are comma-separated lists.
var listKeys = map[string]bool{
	"client.nonretriable": true,
	"log.maskfields":      true,
}

// transformEnv maps HTTPRETRY_CLIENT_MAXRETRIES to client.maxretries.
func transformEnv(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".")
	if !listKeys[key] {
		return key, value
	}
	items := []string{}
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.nonretriable":    []int{400, 404, 422},
		"client.maxretries":      4,
		"client.timeout":         "30s",
		"client.backoff.base":    "30s",
		"client.backoff.max":     "30s",
		"client.ratelimit.rps":   0,
		"client.ratelimit.burst": 1,
		"client.requestid":       true,
		"client.propagate":       false,

		"log.level":  "info",
		"log.pretty": false,

		"observability.enabled": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// GetString returns the raw string at key, or defaultVal when the key is absent.
// It reaches keys that have no typed field, such as extension settings.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		if len(defaultVal) > 0 {
			return defaultVal[0]
		}
		return ""
	}
	return c.k.String(key)
}
