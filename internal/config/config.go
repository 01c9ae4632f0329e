// Package config loads bucketfs configuration from defaults, an optional
// YAML file, BUCKETFS_* environment variables and runtime overrides, in
// increasing order of precedence.
package config

import (
	"time"
)

// Config is the complete bucketfs configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Backend is "s3" or "memory".
	Backend string `mapstructure:"backend" yaml:"backend"`

	AccessID         string `mapstructure:"access_id" yaml:"access_id"`
	AccessKey        string `mapstructure:"access_key" yaml:"access_key"`
	Bucket           string `mapstructure:"bucket" yaml:"bucket"`
	Endpoint         string `mapstructure:"endpoint" yaml:"endpoint"`
	EndpointInternal string `mapstructure:"endpoint_internal" yaml:"endpoint_internal,omitempty"`
	Prefix           string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Domain           string `mapstructure:"domain" yaml:"domain,omitempty"`
	SSL              bool   `mapstructure:"ssl" yaml:"ssl"`
	Debug            bool   `mapstructure:"debug" yaml:"debug"`

	Region              string  `mapstructure:"region" yaml:"region,omitempty"`
	Profile             string  `mapstructure:"profile" yaml:"profile,omitempty"`
	ForcePathStyle      bool    `mapstructure:"force_path_style" yaml:"force_path_style"`
	UseInternalEndpoint bool    `mapstructure:"use_internal_endpoint" yaml:"use_internal_endpoint"`
	RateLimit           float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	MaxKeys             int     `mapstructure:"max_keys" yaml:"max_keys"`

	// Options are adapter-wide request options (header name to value).
	Options map[string]string `mapstructure:"options" yaml:"options,omitempty"`
}

// ServerConfig configures the read-only HTTP gateway.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Profile string `mapstructure:"profile" yaml:"profile"`
}

// Redacted returns a copy of c with credentials masked for display.
func (c Config) Redacted() Config {
	c.Storage.AccessID = MaskSecret(c.Storage.AccessID)
	c.Storage.AccessKey = MaskSecret(c.Storage.AccessKey)
	return c
}

// MaskSecret keeps the last four characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
