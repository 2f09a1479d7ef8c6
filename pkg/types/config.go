// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// BackendConfig holds settings for the question-answering backend client.
type BackendConfig struct {
	// URL is the backend base URL (e.g. "http://127.0.0.1:8000").
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Timeout bounds every backend HTTP request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with backend requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of 429/503 retries for the sources listing
	// (default 3). Question requests are never retried.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// APIKey, when set, is sent as a bearer token. It is usually loaded from
	// the secrets directory rather than written into the config file.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// SecretsDir holds one file per credential (default ".secrets").
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`
}

// ServerConfig holds settings for the HTTP front end.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":3000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`

	// RequestTimeout bounds a single request including the backend call.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`

	// RateLimitRPS and RateLimitBurst configure per-client limits on query
	// submissions.
	RateLimitRPS   float64 `json:"rate_limit_rps" yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst" yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`

	// SessionIdle is how long an unused view session is kept.
	SessionIdle time.Duration `json:"session_idle" yaml:"session_idle" mapstructure:"session_idle"`

	// FeedbackURL is the target of the "Give Feedback" link. Empty hides it.
	FeedbackURL string `json:"feedback_url" yaml:"feedback_url" mapstructure:"feedback_url"`
}

// CatalogConfig holds settings for the local source catalogue.
type CatalogConfig struct {
	// Dir is the directory holding catalog.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// QueryDefaults holds the initial mode and chunk count of a new view.
type QueryDefaults struct {
	Mode       QueryMode `json:"mode" yaml:"mode" mapstructure:"mode"`
	ChunkCount int       `json:"chunk_count" yaml:"chunk_count" mapstructure:"chunk_count"`
}

// LogConfig selects logger level and encoding.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" (production) or "console" (development).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all philquery settings.
type Config struct {
	Backend BackendConfig `json:"backend" yaml:"backend" mapstructure:"backend"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Query   QueryDefaults `json:"query" yaml:"query" mapstructure:"query"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
