package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/httpretry/observability"
)

// Config represents the overall configuration of an httpretry process.
type Config struct {
	Client        ClientConfig         `koanf:"client" json:"client" yaml:"client" mapstructure:"client"`
	Log           LogConfig            `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	Observability observability.Config `koanf:"observability" json:"observability" yaml:"observability" mapstructure:"observability" validate:"-"`

	// k holds the underlying Koanf instance for access to keys outside the typed structure
	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-" validate:"-"`
}

// ClientConfig holds the retrying HTTP client settings.
type ClientConfig struct {
	BaseURL string `koanf:"baseurl" json:"baseurl" yaml:"baseurl" mapstructure:"baseurl" validate:"required,url"`

	// NonRetriable lists status codes that end the retry loop immediately.
	NonRetriable []int `koanf:"nonretriable" json:"nonretriable" yaml:"nonretriable" mapstructure:"nonretriable" validate:"dive,gte=100,lte=599"`

	// MaxRetries counts attempts after the first one.
	MaxRetries int `koanf:"maxretries" json:"maxretries" yaml:"maxretries" mapstructure:"maxretries" validate:"gte=0"`

	// Timeout bounds every single attempt.
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	Backoff   BackoffConfig     `koanf:"backoff" json:"backoff" yaml:"backoff" mapstructure:"backoff"`
	Headers   map[string]string `koanf:"headers" json:"headers" yaml:"headers" mapstructure:"headers"`
	RateLimit RateLimitConfig   `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit" mapstructure:"ratelimit"`

	// RequestID sends X-Request-ID on every attempt.
	RequestID bool `koanf:"requestid" json:"requestid" yaml:"requestid" mapstructure:"requestid"`

	// Propagate injects the W3C trace context into outgoing requests.
	Propagate bool `koanf:"propagate" json:"propagate" yaml:"propagate" mapstructure:"propagate"`
}

// BackoffConfig holds the exponential backoff bounds.
type BackoffConfig struct {
	Base time.Duration `koanf:"base" json:"base" yaml:"base" mapstructure:"base" validate:"gte=0"`
	Max  time.Duration `koanf:"max" json:"max" yaml:"max" mapstructure:"max" validate:"gte=0"`
}

// RateLimitConfig caps the attempt rate of a client. A zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"rps" json:"rps" yaml:"rps" mapstructure:"rps" validate:"gte=0"`
	Burst             int     `koanf:"burst" json:"burst" yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`

	// MaskFields adds field names to the sensitive data filter.
	MaskFields []string `koanf:"maskfields" json:"maskfields" yaml:"maskfields" mapstructure:"maskfields"`
}
