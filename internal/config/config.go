// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads philquery settings from viper into types.Config.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/philquery/internal/secrets"
	"github.com/pdiddy/philquery/pkg/types"
)

// Defaults for every configuration key.
const (
	DefaultBackendURL  = "http://127.0.0.1:8000"
	DefaultAddr        = ":3000"
	DefaultCatalogDir  = ".philquery"
	DefaultSecretsDir  = ".secrets"
	DefaultFeedbackURL = ""
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", DefaultBackendURL)
	v.SetDefault("backend.timeout", 90*time.Second)
	v.SetDefault("backend.user_agent", "philquery/1.0")
	v.SetDefault("backend.max_retries", 3)
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.secrets_dir", DefaultSecretsDir)

	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.request_timeout", 110*time.Second)
	v.SetDefault("server.rate_limit_rps", 1.0)
	v.SetDefault("server.rate_limit_burst", 5)
	v.SetDefault("server.session_idle", 30*time.Minute)
	v.SetDefault("server.feedback_url", DefaultFeedbackURL)

	v.SetDefault("catalog.dir", DefaultCatalogDir)

	v.SetDefault("query.mode", string(types.ModeUnderstanding))
	v.SetDefault("query.chunk_count", types.DefaultChunkCount)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load applies defaults, decodes v and validates the result. When no
// backend API key is configured, it is read from the secrets directory.
func Load(v *viper.Viper) (types.Config, error) {
	SetDefaults(v)

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Backend.APIKey == "" {
		set, err := secrets.Load(cfg.Backend.SecretsDir)
		if err != nil {
			return types.Config{}, err
		}
		cfg.Backend.APIKey, _ = set.Get(secrets.BackendAPIKey)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at request time.
func Validate(cfg types.Config) error {
	var errs []error

	u, err := url.Parse(cfg.Backend.URL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("backend.url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("backend.url %q: must be an absolute http(s) URL", cfg.Backend.URL))
	}
	if cfg.Backend.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("backend.max_retries %d: must not be negative", cfg.Backend.MaxRetries))
	}
	if !cfg.Query.Mode.Valid() {
		errs = append(errs, fmt.Errorf("query.mode: %w %q", types.ErrInvalidMode, cfg.Query.Mode))
	}
	if err := types.ValidateChunkCount(cfg.Query.ChunkCount); err != nil {
		errs = append(errs, fmt.Errorf("query.chunk_count: %w", err))
	}
	if cfg.Server.RateLimitRPS < 0 || cfg.Server.RateLimitBurst < 0 {
		errs = append(errs, errors.New("server.rate_limit_rps and server.rate_limit_burst must not be negative"))
	}
	return errors.Join(errs...)
}
