package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the ambient configuration read from the environment.
// The actions and their targets come from the command line.
type Config struct {
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	ConfirmDelay time.Duration `env:"ESM_CONFIRM_DELAY" envDefault:"5s"`

	// Elasticsearch
	ESUsername         string `env:"ESM_ES_USERNAME"`
	ESPassword         string `env:"ESM_ES_PASSWORD"`
	ESCompressionLevel int    `env:"ESM_ES_COMPRESSION_LEVEL" envDefault:"0"`
	ESIncludeTypeName  bool   `env:"ESM_ES_INCLUDE_TYPE_NAME" envDefault:"false"`
	ESRefresh          string `env:"ESM_ES_REFRESH"` // "", "true", "false" or "wait_for"

	// PostgreSQL source
	PGMaxConns int32 `env:"ESM_PG_MAX_CONNS" envDefault:"4"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Debug reports whether debug logging was requested
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// HasESCredentials returns true if basic auth should be sent to Elasticsearch
func (c *Config) HasESCredentials() bool {
	return c.ESUsername != ""
}
