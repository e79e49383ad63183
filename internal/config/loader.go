package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override; EnvConfigPath names the YAML file.
const (
	EnvPrefix     = "AQF_"
	EnvConfigPath = "AQF_CONFIG"
)

// keyDelim separates nested koanf keys. Field names such as "pm2.5_(µg/m³)"
// contain both '.' and '/', so neither can be used.
const keyDelim = "::"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if AQF_CONFIG is set
//  3. env (prefix AQF_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvConfigPath))
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file layer.
func LoadFile(_ context.Context, path string) (*Config, error) {
	k := koanf.New(keyDelim)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: AQF_ADDR, AQF_TICK_INTERVAL_MS, ...
	// Map env keys like AQF_TICK_INTERVAL_MS -> tick_interval_ms (flat keys).
	envProvider := env.Provider(EnvPrefix, keyDelim, func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	k.Delete("config")

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.fill(New())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
