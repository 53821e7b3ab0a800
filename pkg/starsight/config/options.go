package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/starsight/starsight-be/pkg/starsight/urlstrategy"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the runtime environment
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithBaseURL sets the public site URL
func WithBaseURL(baseURL string) Option {
	return func(c *ServerConfig) error {
		c.BaseURL = baseURL
		return nil
	}
}

// WithAPIBase sets the path the API is mounted under
func WithAPIBase(apiBase string) Option {
	return func(c *ServerConfig) error {
		c.APIBase = apiBase
		return nil
	}
}

// WithDatabase sets the database type and connection URL
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("unsupported database type: %s", dbType)
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the Postgres schema
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithMemoryStorage keeps blobs in memory
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage = StorageBackendConfig{Type: "memory", Config: map[string]interface{}{}}
		return nil
	}
}

// WithFilesystemStorage stores blobs below baseDir
func WithFilesystemStorage(baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}

		backend := StorageBackendConfig{
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": baseDir,
			},
		}
		if urlPrefix != "" {
			backend.Config["url_prefix"] = urlPrefix
		}

		c.Storage = backend
		return nil
	}
}

// WithS3Storage stores blobs in an S3 bucket
func WithS3Storage(bucket, region string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}

		c.Storage = StorageBackendConfig{
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": bucket,
				"region": region,
			},
		}
		return nil
	}
}

// WithS3Credentials sets static credentials for the S3 backend
func WithS3Credentials(accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if c.Storage.Type != "s3" {
			return fmt.Errorf("S3 credentials require S3 storage")
		}
		c.Storage.Config["access_key_id"] = accessKeyID
		c.Storage.Config["secret_access_key"] = secretAccessKey
		return nil
	}
}

// WithS3Endpoint points the S3 backend at an S3-compatible service such as MinIO
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		if c.Storage.Type != "s3" {
			return fmt.Errorf("S3 endpoint requires S3 storage")
		}
		c.Storage.Config["endpoint"] = endpoint
		c.Storage.Config["use_path_style"] = usePathStyle
		return nil
	}
}

// WithS3PresignDuration sets the lifetime of presigned download URLs
func WithS3PresignDuration(durationSeconds int) Option {
	return func(c *ServerConfig) error {
		if c.Storage.Type != "s3" {
			return fmt.Errorf("S3 presign duration requires S3 storage")
		}
		if durationSeconds <= 0 {
			return fmt.Errorf("presign duration must be positive, got: %d", durationSeconds)
		}
		c.Storage.Config["presign_duration"] = durationSeconds
		return nil
	}
}

// WithMediaURLs serves files from the application under mediaPrefix
func WithMediaURLs(mediaPrefix string) Option {
	return func(c *ServerConfig) error {
		c.URLStrategy = string(urlstrategy.StrategyTypeMedia)
		if mediaPrefix != "" {
			c.MediaPrefix = mediaPrefix
		}
		return nil
	}
}

// WithCDNURLs links files directly on a CDN
func WithCDNURLs(cdnBaseURL string) Option {
	return func(c *ServerConfig) error {
		c.URLStrategy = string(urlstrategy.StrategyTypeCDN)
		c.CDNBaseURL = cdnBaseURL
		return nil
	}
}

// WithStorageDelegatedURLs links files with URLs issued by the storage backend
func WithStorageDelegatedURLs(cacheSize int, cacheTTL time.Duration) Option {
	return func(c *ServerConfig) error {
		c.URLStrategy = string(urlstrategy.StrategyTypeStorageDelegated)
		if cacheSize > 0 {
			c.URLCacheSize = cacheSize
		}
		if cacheTTL > 0 {
			c.URLCacheTTL = cacheTTL
		}
		return nil
	}
}

// WithObjectKeyGenerator sets the object key generator
func WithObjectKeyGenerator(generator string) Option {
	return func(c *ServerConfig) error {
		switch generator {
		case "flat", "sharded", "hashed":
			c.ObjectKeyGenerator = generator
			return nil
		}
		return fmt.Errorf("unknown object key generator: %s", generator)
	}
}

// WithCORSOrigins sets the allowed cross-origin callers
func WithCORSOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.CORSOrigins = origins
		return nil
	}
}

// WithLogLevel sets the minimum log level
func WithLogLevel(level string) Option {
	return func(c *ServerConfig) error {
		c.LogLevel = level
		return nil
	}
}

// WithEventLogging enables or disables event logging
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithMetrics enables or disables the /metrics endpoint
func WithMetrics(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = enabled
		return nil
	}
}

// WithDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Place it before WithEnv.
func WithDotEnv(files ...string) Option {
	return func(c *ServerConfig) error {
		if err := godotenv.Load(files...); err != nil && len(files) > 0 {
			return fmt.Errorf("failed to load env files: %w", err)
		}
		return nil
	}
}

// WithDefaults resets the configuration to library defaults
func WithDefaults() Option {
	return func(c *ServerConfig) error {
		*c = defaults()
		return nil
	}
}
