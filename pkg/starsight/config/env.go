package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Env is the environment variable surface of the server. Every field is
// optional; unset variables leave the programmatic configuration untouched.
type Env struct {
	Port        string `env:"PORT" env-description:"HTTP listen port (default 8080)"`
	Environment string `env:"ENVIRONMENT" env-description:"development, production or testing"`
	BaseURL     string `env:"BASE_URL" env-description:"Public site URL used in html_url, detail_url and media links"`
	APIBase     string `env:"API_BASE" env-description:"Path the API is mounted under (default /api/v2)"`

	DatabaseURL string `env:"DATABASE_URL" env-description:"'memory' or a postgres:// connection string"`
	DBSchema    string `env:"DB_SCHEMA" env-description:"Postgres schema set as search_path"`

	StorageURL string `env:"STORAGE_URL" env-description:"memory://, file:///path or s3://bucket/prefix?region=..."`

	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-description:"S3 access key"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-description:"S3 secret key"`
	AWSRegion          string `env:"AWS_REGION" env-description:"S3 region"`

	URLStrategy        string `env:"URL_STRATEGY" env-description:"media, cdn or storage-delegated"`
	MediaPrefix        string `env:"MEDIA_PREFIX" env-description:"Path files are served under for the media strategy"`
	CDNBaseURL         string `env:"CDN_BASE_URL" env-description:"CDN origin for the cdn strategy"`
	URLCacheSize       string `env:"URL_CACHE_SIZE" env-description:"Cached presigned URLs for the storage-delegated strategy"`
	URLCacheTTL        string `env:"URL_CACHE_TTL" env-description:"Lifetime of cached presigned URLs, e.g. 10m"`
	ObjectKeyGenerator string `env:"OBJECT_KEY_GENERATOR" env-description:"flat, sharded or hashed"`

	CORSOrigins    string `env:"CORS_ALLOWED_ORIGINS" env-description:"Comma separated allowed origins"`
	RequestTimeout string `env:"REQUEST_TIMEOUT" env-description:"Per request timeout, e.g. 30s"`

	LogLevel           string `env:"LOG_LEVEL" env-description:"debug, info, warn or error"`
	EnableEventLogging string `env:"ENABLE_EVENT_LOGGING" env-description:"Log content events (default true)"`
	EnableMetrics      string `env:"ENABLE_METRICS" env-description:"Expose /metrics (default true)"`
}

// EnvUsage describes the supported environment variables
func EnvUsage() string {
	text, err := cleanenv.GetDescription(&Env{}, nil)
	if err != nil {
		return err.Error()
	}
	return text
}

// WithEnv applies environment variable overrides.
//
// DATABASE_URL selects the repository: empty or "memory" keeps the in-memory
// store, "postgres://" and "postgresql://" URLs select Postgres.
//
// STORAGE_URL selects the blob store:
//
//	memory://                                    in-memory (default)
//	file:///var/lib/starsight?url_prefix=/files  filesystem
//	s3://bucket/prefix?region=eu-west-1          S3 or an S3-compatible service
//
// See EnvUsage for the full list.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env Env
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return env.apply(c)
	}
}

func (e Env) apply(c *ServerConfig) error {
	setString(&c.Port, e.Port)
	setString(&c.Environment, e.Environment)
	setString(&c.BaseURL, e.BaseURL)
	setString(&c.APIBase, e.APIBase)
	setString(&c.DBSchema, e.DBSchema)
	setString(&c.URLStrategy, e.URLStrategy)
	setString(&c.MediaPrefix, e.MediaPrefix)
	setString(&c.CDNBaseURL, e.CDNBaseURL)
	setString(&c.ObjectKeyGenerator, e.ObjectKeyGenerator)
	setString(&c.LogLevel, e.LogLevel)

	if err := applyDatabaseURL(e.DatabaseURL, c); err != nil {
		return err
	}
	if err := applyStorageURL(e, c); err != nil {
		return err
	}

	if e.CORSOrigins != "" {
		c.CORSOrigins = splitList(e.CORSOrigins)
	}
	if err := setInt(&c.URLCacheSize, "URL_CACHE_SIZE", e.URLCacheSize); err != nil {
		return err
	}
	if err := setDuration(&c.URLCacheTTL, "URL_CACHE_TTL", e.URLCacheTTL); err != nil {
		return err
	}
	if err := setDuration(&c.RequestTimeout, "REQUEST_TIMEOUT", e.RequestTimeout); err != nil {
		return err
	}
	if err := setBool(&c.EnableEventLogging, "ENABLE_EVENT_LOGGING", e.EnableEventLogging); err != nil {
		return err
	}
	if err := setBool(&c.EnableMetrics, "ENABLE_METRICS", e.EnableMetrics); err != nil {
		return err
	}
	return nil
}

// applyDatabaseURL applies database configuration from environment
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "":
		return nil
	case dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
	}
	return nil
}

// applyStorageURL applies storage configuration from environment
func applyStorageURL(e Env, c *ServerConfig) error {
	raw := e.StorageURL
	if raw == "" {
		return nil
	}
	if raw == "memory" || raw == "memory://" {
		c.Storage = StorageBackendConfig{Type: "memory", Config: map[string]interface{}{}}
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		return applyFilesystemStorage(u, c)
	case "s3":
		return applyS3Storage(u, e, c)
	}
	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
}

// applyFilesystemStorage configures filesystem storage from URL
// Format: file:///path/to/data?url_prefix=/files
func applyFilesystemStorage(u *url.URL, c *ServerConfig) error {
	path := u.Host + u.Path
	if path == "" {
		return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
	}

	backend := StorageBackendConfig{
		Type: "fs",
		Config: map[string]interface{}{
			"base_dir": path,
		},
	}
	if prefix := u.Query().Get("url_prefix"); prefix != "" {
		backend.Config["url_prefix"] = prefix
	}
	c.Storage = backend
	return nil
}

// applyS3Storage configures S3 storage from URL
// Format: s3://bucket/prefix?region=us-east-1&endpoint=http://localhost:9000&path_style=true
func applyS3Storage(u *url.URL, e Env, c *ServerConfig) error {
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
	}

	q := u.Query()
	backend := StorageBackendConfig{
		Type: "s3",
		Config: map[string]interface{}{
			"bucket": u.Host,
			"region": "us-east-1",
		},
	}
	if prefix := strings.Trim(u.Path, "/"); prefix != "" {
		backend.Config["prefix"] = prefix
	}
	if e.AWSRegion != "" {
		backend.Config["region"] = e.AWSRegion
	}
	if region := q.Get("region"); region != "" {
		backend.Config["region"] = region
	}
	if endpoint := q.Get("endpoint"); endpoint != "" {
		backend.Config["endpoint"] = endpoint
	}
	if e.AWSAccessKeyID != "" {
		backend.Config["access_key_id"] = e.AWSAccessKeyID
	}
	if e.AWSSecretAccessKey != "" {
		backend.Config["secret_access_key"] = e.AWSSecretAccessKey
	}

	for param, key := range map[string]string{
		"path_style":    "use_path_style",
		"create_bucket": "create_bucket",
	} {
		if raw := q.Get(param); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("invalid boolean for STORAGE_URL %s: %w", param, err)
			}
			backend.Config[key] = v
		}
	}
	if raw := q.Get("presign"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration for STORAGE_URL presign: %w", err)
		}
		backend.Config["presign_duration"] = int(d.Seconds())
	}
	if sse := q.Get("sse"); sse != "" {
		backend.Config["enable_sse"] = true
		backend.Config["sse_algorithm"] = sse
		if kmsKey := q.Get("sse_kms_key_id"); kmsKey != "" {
			backend.Config["sse_kms_key_id"] = kmsKey
		}
	}

	c.Storage = backend
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, key, raw string) error {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	*dst = v
	return nil
}

func setBool(dst *bool, key, raw string) error {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	*dst = v
	return nil
}

func setDuration(dst *time.Duration, key, raw string) error {
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	*dst = v
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
