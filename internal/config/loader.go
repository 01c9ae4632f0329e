package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "BUCKETFS"

	// ConfigName is the base name of the config file searched for.
	ConfigName = "bucketfs"
)

var (
	configMu  sync.RWMutex
	appConfig *Config
)

// EnvSpec binds an environment variable to a config path.
type EnvSpec struct {
	Name string
	Path string
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// File is an explicit config path. When set it must exist.
	File string

	// SearchPaths are directories searched for bucketfs.yaml when File is
	// empty. Defaults to the working directory and the user config dir.
	SearchPaths []string
}

// Load builds the configuration. Later overrides win over earlier ones and
// over every other source. Keys in overrides are nested maps mirroring the
// YAML layout.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	return LoadWithOptions(ctx, LoadOptions{}, overrides...)
}

// LoadWithOptions is Load with explicit file lookup options.
func LoadWithOptions(ctx context.Context, opts LoadOptions, overrides ...map[string]any) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := viper.New()
	SetDefaults(v)

	if err := readConfigFile(v, opts); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, spec := range getEnvSpecs() {
		if err := v.BindEnv(spec.Path, spec.Name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", spec.Name, err)
		}
	}

	for _, o := range overrides {
		for key, value := range flatten("", o) {
			v.Set(key, value)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Logging.Profile = strings.ToLower(cfg.Logging.Profile)
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configMu.Lock()
	appConfig = &cfg
	configMu.Unlock()

	return &cfg, nil
}

// GetConfig returns the most recently loaded configuration, or nil.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.access_id", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.endpoint_internal", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.domain", "")
	v.SetDefault("storage.ssl", true)
	v.SetDefault("storage.debug", false)
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.profile", "")
	v.SetDefault("storage.force_path_style", false)
	v.SetDefault("storage.use_internal_endpoint", false)
	v.SetDefault("storage.rate_limit", 0.0)
	v.SetDefault("storage.max_keys", 1000)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "console")
}

// Validate checks values that cannot be rejected later with a clear error.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "s3", "memory":
	default:
		return fmt.Errorf("storage.backend: unsupported backend %q (expected s3 or memory)", c.Storage.Backend)
	}
	if c.Storage.RateLimit < 0 {
		return fmt.Errorf("storage.rate_limit: must be >= 0")
	}
	if c.Storage.MaxKeys < 0 || c.Storage.MaxKeys > 1000 {
		return fmt.Errorf("storage.max_keys: must be between 0 and 1000")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: out of range")
	}
	return nil
}

// ActiveEndpoint returns the endpoint the backend should talk to.
func (s StorageConfig) ActiveEndpoint() string {
	if s.UseInternalEndpoint && s.EndpointInternal != "" {
		return s.EndpointInternal
	}
	return s.Endpoint
}

func readConfigFile(v *viper.Viper, opts LoadOptions) error {
	v.SetConfigType("yaml")

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", opts.File, err)
		}
		return nil
	}

	paths := opts.SearchPaths
	if len(paths) == 0 {
		paths = defaultSearchPaths()
	}
	v.SetConfigName(ConfigName)
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ConfigName))
	}
	return paths
}

// getEnvSpecs lists the short environment variable aliases. Nested keys
// are also reachable as BUCKETFS_<SECTION>_<KEY>.
func getEnvSpecs() []EnvSpec {
	short := map[string]string{
		"ACCESS_ID":             "storage.access_id",
		"ACCESS_KEY":            "storage.access_key",
		"BACKEND":               "storage.backend",
		"BUCKET":                "storage.bucket",
		"ENDPOINT":              "storage.endpoint",
		"ENDPOINT_INTERNAL":     "storage.endpoint_internal",
		"PREFIX":                "storage.prefix",
		"DOMAIN":                "storage.domain",
		"SSL":                   "storage.ssl",
		"DEBUG":                 "storage.debug",
		"REGION":                "storage.region",
		"USE_INTERNAL_ENDPOINT": "storage.use_internal_endpoint",
		"RATE_LIMIT":            "storage.rate_limit",
		"HOST":                  "server.host",
		"PORT":                  "server.port",
		"LOG_LEVEL":             "logging.level",
		"LOG_PROFILE":           "logging.profile",
	}

	specs := make([]EnvSpec, 0, len(short))
	for name, path := range short {
		specs = append(specs, EnvSpec{Name: EnvPrefix + "_" + name, Path: path})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// flatten turns nested override maps into dotted viper keys.
func flatten(prefix string, m map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}
