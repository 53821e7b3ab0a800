package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starsight/starsight-be/pkg/starsight"
	"github.com/starsight/starsight-be/pkg/starsight/api"
	"github.com/starsight/starsight-be/pkg/starsight/objectkey"
	"github.com/starsight/starsight-be/pkg/starsight/repo/memory"
	repopg "github.com/starsight/starsight-be/pkg/starsight/repo/postgres"
	fsstorage "github.com/starsight/starsight-be/pkg/starsight/storage/fs"
	memorystorage "github.com/starsight/starsight-be/pkg/starsight/storage/memory"
	s3storage "github.com/starsight/starsight-be/pkg/starsight/storage/s3"
	"github.com/starsight/starsight-be/pkg/starsight/urlstrategy"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		BaseURL:      "http://localhost:8080",
		APIBase:      api.DefaultAPIBase,
		DatabaseType: "memory",
		Storage: StorageBackendConfig{
			Type:   "memory",
			Config: map[string]interface{}{},
		},
		URLStrategy:        string(urlstrategy.StrategyTypeMedia),
		MediaPrefix:        starsight.DefaultMediaPrefix,
		URLCacheSize:       1000,
		URLCacheTTL:        10 * time.Minute,
		ObjectKeyGenerator: "flat",
		CORSOrigins:        []string{"*"},
		RequestTimeout:     30 * time.Second,
		LogLevel:           "info",
		EnableEventLogging: true,
		EnableMetrics:      true,
	}
}

// ServerConfig represents server configuration for the content API
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// BaseURL prefixes html_url, detail_url and media links
	BaseURL string
	APIBase string

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use, empty keeps the server default

	// Storage configuration
	Storage StorageBackendConfig

	// File URL configuration
	URLStrategy        string // "media", "cdn", "storage-delegated"
	MediaPrefix        string
	CDNBaseURL         string
	URLCacheSize       int
	URLCacheTTL        time.Duration
	ObjectKeyGenerator string // "flat", "sharded", "hashed"

	// HTTP options
	CORSOrigins    []string
	RequestTimeout time.Duration

	LogLevel           string
	EnableEventLogging bool
	EnableMetrics      bool
}

// StorageBackendConfig represents configuration for the blob storage backend
type StorageBackendConfig struct {
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// IsProduction reports whether the server runs with production settings
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.Storage.Type {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("unsupported storage backend type: %s", c.Storage.Type)
	}

	switch urlstrategy.URLStrategyType(c.URLStrategy) {
	case urlstrategy.StrategyTypeMedia:
		if !strings.HasPrefix(c.MediaPrefix, "/") {
			return errors.New("media_prefix must start with '/'")
		}
	case urlstrategy.StrategyTypeCDN:
		if c.CDNBaseURL == "" {
			return errors.New("cdn_base_url is required for the cdn url strategy")
		}
	case urlstrategy.StrategyTypeStorageDelegated:
		if c.Storage.Type == "s3" {
			presign := time.Duration(intValue(c.Storage.Config, "presign_duration")) * time.Second
			if presign <= 0 {
				presign = s3storage.DefaultPresignDuration
			}
			if c.URLCacheTTL >= presign {
				return fmt.Errorf("url_cache_ttl (%s) must be shorter than the S3 presign duration (%s)", c.URLCacheTTL, presign)
			}
		}
	default:
		return fmt.Errorf("unknown url strategy: %s", c.URLStrategy)
	}

	if !strings.HasPrefix(c.APIBase, "/") {
		return errors.New("api_base must start with '/'")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// BuildService creates a Service instance from the server configuration.
// The returned cleanup releases the database pool, if any.
func (c *ServerConfig) BuildService(ctx context.Context, extra ...starsight.Option) (starsight.Service, func(), error) {
	var options []starsight.Option

	// Set up repository
	repo, cleanup, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, starsight.WithRepository(repo))

	// Set up storage backend
	store, err := c.buildStorageBackend(c.Storage)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Type, err)
	}
	options = append(options, starsight.WithBlobStore(store))

	strategy, err := urlstrategy.NewURLStrategy(urlstrategy.Config{
		Type:        urlstrategy.URLStrategyType(c.URLStrategy),
		MediaPrefix: c.MediaPrefix,
		BaseURL:     c.BaseURL,
		CDNBaseURL:  c.CDNBaseURL,
		BlobStore:   store,
		CacheSize:   c.URLCacheSize,
		CacheTTL:    c.URLCacheTTL,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to build url strategy: %w", err)
	}
	options = append(options, starsight.WithURLStrategy(strategy))

	keys, err := objectkey.New(c.ObjectKeyGenerator)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	options = append(options, starsight.WithKeyGenerator(keys))

	// Set up event sink
	if c.EnableEventLogging {
		options = append(options, starsight.WithEventSink(starsight.NewLoggingEventSink(slog.Default())))
	}

	options = append(options, extra...)
	svc, err := starsight.New(options...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// RouterConfig returns the HTTP router settings derived from the server configuration
func (c *ServerConfig) RouterConfig(logger *slog.Logger, metrics *api.Metrics) api.RouterConfig {
	cfg := api.RouterConfig{
		Options: api.Options{
			BaseURL: c.BaseURL,
			APIBase: c.APIBase,
		},
		CORSOrigins:    c.CORSOrigins,
		RequestTimeout: c.RequestTimeout,
		Logger:         logger,
	}
	if c.URLStrategy == string(urlstrategy.StrategyTypeMedia) {
		cfg.MediaPrefix = c.MediaPrefix
	}
	if c.EnableMetrics {
		cfg.Metrics = metrics
	}
	return cfg
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (starsight.Repository, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), func() {}, nil
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, nil, errors.New("database_url is required for postgres")
		}
		cfg, err := poolConfig(c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func poolConfig(databaseURL, schema string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	return cfg, nil
}

// PingPostgres verifies connectivity to Postgres and optionally sets search_path for the session.
// It fails if the schema (when provided) does not exist.
func PingPostgres(ctx context.Context, databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	cfg, err := poolConfig(databaseURL, schema)
	if err != nil {
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	if schema != "" {
		var exists bool
		err := pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)", schema).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check schema: %w", err)
		}
		if !exists {
			return fmt.Errorf("schema %q does not exist", schema)
		}
	}
	return nil
}

// buildStorageBackend creates a BlobStore based on the configuration
func (c *ServerConfig) buildStorageBackend(config StorageBackendConfig) (starsight.BlobStore, error) {
	switch config.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		baseDir, _ := config.Config["base_dir"].(string)
		if baseDir == "" {
			baseDir = "./data/storage"
		}
		urlPrefix, _ := config.Config["url_prefix"].(string)
		return fsstorage.New(fsstorage.Config{
			BaseDir:   baseDir,
			URLPrefix: urlPrefix,
		})

	case "s3":
		s3Config := s3storage.Config{
			Region:                 stringValue(config.Config, "region"),
			Bucket:                 stringValue(config.Config, "bucket"),
			Prefix:                 stringValue(config.Config, "prefix"),
			AccessKeyID:            stringValue(config.Config, "access_key_id"),
			SecretAccessKey:        stringValue(config.Config, "secret_access_key"),
			Endpoint:               stringValue(config.Config, "endpoint"),
			UsePathStyle:           boolValue(config.Config, "use_path_style"),
			PresignDuration:        intValue(config.Config, "presign_duration"),
			EnableSSE:              boolValue(config.Config, "enable_sse"),
			SSEAlgorithm:           stringValue(config.Config, "sse_algorithm"),
			SSEKMSKeyID:            stringValue(config.Config, "sse_kms_key_id"),
			CreateBucketIfNotExist: boolValue(config.Config, "create_bucket"),
		}
		return s3storage.New(s3Config)

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}

func stringValue(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func boolValue(m map[string]interface{}, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func intValue(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// ParseLogLevel maps a level name to its slog level
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}
