package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Storage drivers for the offline collections.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"LEARNQUEST_SERVER_PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"LEARNQUEST_REDIS_ADDR"`
		Password string `yaml:"password" env:"LEARNQUEST_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"LEARNQUEST_REDIS_DB"`
		Prefix   string `yaml:"prefix" env:"LEARNQUEST_REDIS_PREFIX"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"LEARNQUEST_POSTGRES_URL"`
	} `yaml:"postgres"`
	Storage struct {
		Driver     string `yaml:"driver" env:"LEARNQUEST_STORAGE_DRIVER"`
		SQLitePath string `yaml:"sqlite_path" env:"LEARNQUEST_SQLITE_PATH"`
	} `yaml:"storage"`
	Offline struct {
		CacheTTL        string  `yaml:"cache_ttl" env:"LEARNQUEST_OFFLINE_CACHE_TTL"`
		SyncDelay       string  `yaml:"sync_delay" env:"LEARNQUEST_OFFLINE_SYNC_DELAY"`
		CompactInterval string  `yaml:"compact_interval" env:"LEARNQUEST_OFFLINE_COMPACT_INTERVAL"`
		SyncInterval    string  `yaml:"sync_interval" env:"LEARNQUEST_OFFLINE_SYNC_INTERVAL"`
		StatusInterval  string  `yaml:"status_interval" env:"LEARNQUEST_OFFLINE_STATUS_INTERVAL"`
		QuotaMB         float64 `yaml:"quota_mb" env:"LEARNQUEST_OFFLINE_QUOTA_MB"`
	} `yaml:"offline"`
	Connectivity struct {
		ProbeURL      string `yaml:"probe_url" env:"LEARNQUEST_PROBE_URL"`
		ProbeInterval string `yaml:"probe_interval" env:"LEARNQUEST_PROBE_INTERVAL"`
		ProbeTimeout  string `yaml:"probe_timeout" env:"LEARNQUEST_PROBE_TIMEOUT"`
		InitialOnline *bool  `yaml:"initial_online" env:"LEARNQUEST_INITIAL_ONLINE"`
	} `yaml:"connectivity"`
	Catalog struct {
		TTL string `yaml:"ttl" env:"LEARNQUEST_CATALOG_TTL"`
	} `yaml:"catalog"`
	Telemetry struct {
		OTLPEndpoint string `yaml:"otlp_endpoint" env:"LEARNQUEST_OTLP_ENDPOINT"`
		ServiceName  string `yaml:"service_name" env:"LEARNQUEST_SERVICE_NAME"`
	} `yaml:"telemetry"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file is not an error: the environment and defaults still apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields whose LEARNQUEST_* variable is set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// StorageDriver returns the configured driver, defaulting to redis when an address
// is set and memory otherwise.
func (c Config) StorageDriver() string {
	if c.Storage.Driver != "" {
		return c.Storage.Driver
	}
	if c.Redis.Addr != "" {
		return StorageRedis
	}
	return StorageMemory
}

// Online reports the connectivity state the service starts in.
func (c Config) Online() bool {
	if c.Connectivity.InitialOnline == nil {
		return true
	}
	return *c.Connectivity.InitialOnline
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
