package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`

	Catalog Catalog `yaml:"catalog"`
	Storage Storage `yaml:"storage"`
}

type Catalog struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Storage struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	DSN     string `yaml:"dsn"`
	Key     string `yaml:"key"`
}

func defaults() Config {
	return Config{
		AppEnv:   "dev",
		LogLevel: "info",
		HTTPAddr: ":8080",
		Catalog: Catalog{
			BaseURL: "http://localhost:3333",
			Timeout: 5 * time.Second,
		},
		Storage: Storage{
			Backend: BackendFile,
			Dir:     "./data",
			Key:     "@RocketShoes:cart",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "parse config")
		}
	}

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.Catalog.BaseURL = getEnv("CATALOG_URL", cfg.Catalog.BaseURL)
	cfg.Catalog.Timeout = getEnvDuration("CATALOG_TIMEOUT", cfg.Catalog.Timeout)
	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.Dir = getEnv("STORAGE_DIR", cfg.Storage.Dir)
	cfg.Storage.DSN = getEnv("DATABASE_URL", cfg.Storage.DSN)
	cfg.Storage.Key = getEnv("SNAPSHOT_KEY", cfg.Storage.Key)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return errors.New("config: catalog.base_url is required")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Storage.Dir == "" {
			return errors.New("config: storage.dir is required for the file backend")
		}
	case BackendPostgres:
		if c.Storage.DSN == "" {
			return errors.New("config: storage.dsn is required for the postgres backend")
		}
	default:
		return errors.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

// getEnvDuration accepts Go durations ("750ms") or whole seconds ("5").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n := getEnvInt(key, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
