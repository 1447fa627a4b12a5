// Package config loads service settings from defaults, an optional YAML
// file, a .env file and AIMENTOR_* environment variables, in that order of
// increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/aimentor/internal/blob"
	"github.com/abhisek/aimentor/internal/llm"
	"github.com/abhisek/aimentor/internal/store"
)

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Blob     BlobConfig     `yaml:"blob"`
	Redis    RedisConfig    `yaml:"redis"`
	LLM      llm.Config     `yaml:"llm"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Addr         string   `yaml:"addr"`
	Prefix       string   `yaml:"prefix"`
	AllowOrigins []string `yaml:"allow_origins"`

	// AdminRoutes exposes /table/create and /table/drop.
	AdminRoutes bool `yaml:"admin_routes"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// DSN is a file path or URI for sqlite, a connection string for
	// postgres. An empty sqlite DSN uses the per-user data directory.
	DSN string `yaml:"dsn"`
}

type BlobConfig struct {
	// Backend is "dir" or "gcs".
	Backend string         `yaml:"backend"`
	Dir     string         `yaml:"dir"`
	GCS     blob.GCSConfig `yaml:"gcs"`
}

// RedisConfig enables the catalog fragment cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8000",
			Prefix:          "/api/v1",
			AllowOrigins:    []string{"http://localhost:3000"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Driver: string(store.SQLite)},
		Blob:     BlobConfig{Backend: "dir", Dir: "data/blobs"},
		Redis:    RedisConfig{Prefix: "aimentor", TTL: 10 * time.Minute},
		LLM:      llm.DefaultConfig(),
		Log:      LogConfig{Mode: "dev", Level: "info"},
	}
}

// Load builds the configuration. path names an optional YAML file; an
// explicitly named file must exist. A .env file in the working directory
// is loaded without overriding variables already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from AIMENTOR_* environment variables.
func (c *Config) ApplyEnv() {
	setString(&c.HTTP.Addr, "AIMENTOR_HTTP_ADDR")
	setString(&c.HTTP.Prefix, "AIMENTOR_HTTP_PREFIX")
	if v := os.Getenv("AIMENTOR_ALLOW_ORIGINS"); v != "" {
		c.HTTP.AllowOrigins = splitList(v)
	}
	setBool(&c.HTTP.AdminRoutes, "AIMENTOR_ADMIN_ROUTES")

	setString(&c.Database.Driver, "AIMENTOR_DB_DRIVER")
	setString(&c.Database.DSN, "AIMENTOR_DB_DSN")

	setString(&c.Blob.Backend, "AIMENTOR_BLOB_BACKEND")
	setString(&c.Blob.Dir, "AIMENTOR_BLOB_DIR")
	setString(&c.Blob.GCS.Bucket, "AIMENTOR_GCS_BUCKET")
	setString(&c.Blob.GCS.Prefix, "AIMENTOR_GCS_PREFIX")
	setString(&c.Blob.GCS.CredentialsFile, "AIMENTOR_GCS_CREDENTIALS")
	setString(&c.Blob.GCS.EmulatorHost, "STORAGE_EMULATOR_HOST")

	setString(&c.Redis.Addr, "AIMENTOR_REDIS_ADDR")
	setString(&c.Redis.Password, "AIMENTOR_REDIS_PASSWORD")
	if v := os.Getenv("AIMENTOR_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv("AIMENTOR_CATALOG_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Redis.TTL = d
		}
	}

	setString(&c.Log.Mode, "AIMENTOR_LOG_MODE")
	setString(&c.Log.Level, "AIMENTOR_LOG_LEVEL")

	c.LLM.ApplyEnv()
	c.discoverLLMKey()
}

// discoverLLMKey falls back to the conventional vendor key variables when
// no provider was chosen explicitly and the default one has no key.
func (c *Config) discoverLLMKey() {
	if os.Getenv("AIMENTOR_LLM_PROVIDER") != "" || c.LLM.Validate() == nil {
		return
	}
	found, ok := llm.DiscoverConfig()
	if !ok {
		return
	}
	c.LLM.Provider = found.Provider
	switch found.Provider {
	case "openai":
		c.LLM.OpenAI.APIKey = found.OpenAI.APIKey
	case "gemini":
		c.LLM.Gemini.APIKey = found.Gemini.APIKey
	case "anthropic":
		c.LLM.Anthropic.APIKey = found.Anthropic.APIKey
	case "openrouter":
		c.LLM.OpenRouter.APIKey = found.OpenRouter.APIKey
	}
}

// Validate checks the settings needed to start the service.
func (c *Config) Validate() error {
	var errs []error
	switch store.Dialect(c.Database.Driver) {
	case store.SQLite:
	case store.Postgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	switch c.Blob.Backend {
	case "dir":
		if c.Blob.Dir == "" {
			errs = append(errs, errors.New("blob.dir is required for the dir backend"))
		}
	case "gcs":
		if c.Blob.GCS.Bucket == "" {
			errs = append(errs, errors.New("blob.gcs.bucket is required for the gcs backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob backend %q", c.Blob.Backend))
	}

	if !strings.HasPrefix(c.HTTP.Prefix, "/") && c.HTTP.Prefix != "" {
		errs = append(errs, fmt.Errorf("http.prefix %q must start with /", c.HTTP.Prefix))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DatabaseTarget returns the dialect and DSN to open, resolving the
// default sqlite location when no DSN is configured.
func (c *Config) DatabaseTarget() (store.Dialect, string, error) {
	d := store.Dialect(c.Database.Driver)
	if d == store.SQLite && c.Database.DSN == "" {
		p, err := store.DefaultDBPath()
		return d, p, err
	}
	return d, c.Database.DSN, nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, env string) {
	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
