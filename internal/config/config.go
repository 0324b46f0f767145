package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"travel-journal/internal/model"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
	Media    MediaConfig    `toml:"media"`
	CORS     CORSConfig     `toml:"cors"`
}

type AppConfig struct {
	Name    string `toml:"name"`
	Env     string `toml:"env"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret"`
	JWTExpireMinute int    `toml:"jwt_expire_minute"`
}

// DatabaseConfig selects the SQL backend. Driver is one of "mysql",
// "postgres" or "sqlite"; only the fields of the selected driver are read.
type DatabaseConfig struct {
	Driver string `toml:"driver"`

	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DB       string `toml:"db"`
	Params   string `toml:"params"`

	// SQLitePath is a file path or a sqlite DSN such as "file::memory:".
	SQLitePath string `toml:"sqlite_path"`
}

// RedisConfig is optional. With an empty Addr entry reads are not cached.
type RedisConfig struct {
	Addr                 string `toml:"addr"`
	Password             string `toml:"password"`
	DB                   int    `toml:"db"`
	EntryTTLSeconds      int    `toml:"entry_ttl_seconds"`
	EntryDirtyTTLSeconds int    `toml:"entry_dirty_ttl_seconds"`
}

// RabbitMQConfig is optional. With an empty URL media cleanup runs inline.
type RabbitMQConfig struct {
	URL               string `toml:"url"`
	MediaCleanupQueue string `toml:"media_cleanup_queue"`
}

// MediaConfig selects where uploaded images are written. Backend is
// "filesystem" or "s3".
type MediaConfig struct {
	Backend         string `toml:"backend"`
	PublicPrefix    string `toml:"public_prefix"`
	UploadDir       string `toml:"upload_dir"`
	EntryMaxBytes   int64  `toml:"entry_max_bytes"`
	EntryMaxFiles   int    `toml:"entry_max_files"`
	ProfileMaxBytes int64  `toml:"profile_max_bytes"`

	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Media.Backend {
	case "filesystem":
		if c.Media.UploadDir == "" {
			return fmt.Errorf("media upload_dir is required for the filesystem backend")
		}
	case "s3":
		if c.Media.S3Bucket == "" {
			return fmt.Errorf("media s3_bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown media backend %q", c.Media.Backend)
	}
	if c.Media.EntryMaxFiles < 0 || c.Media.EntryMaxFiles > model.MaxEntryImages {
		return fmt.Errorf("media entry_max_files must be between 0 and %d, got %d", model.MaxEntryImages, c.Media.EntryMaxFiles)
	}
	if c.Media.EntryMaxBytes <= 0 {
		return fmt.Errorf("media entry_max_bytes must be positive")
	}
	if c.Media.ProfileMaxBytes <= 0 {
		return fmt.Errorf("media profile_max_bytes must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret must not be empty")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.Auth.JWTExpireMinute) * time.Minute
}

// DSN renders the connection string for the configured driver.
func (c *Config) DSN() string {
	db := c.Database
	switch db.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host, db.Port, db.User, db.Password, db.DB)
		if db.Params != "" {
			dsn += " " + db.Params
		}
		return dsn
	case "sqlite":
		return db.SQLitePath
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.DB,
			db.Params,
		)
	}
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "travel-journal",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    5000,
			GinMode: "debug",
		},
		Auth: AuthConfig{
			JWTSecret:       "change-me-in-production",
			JWTExpireMinute: 60 * 24 * 30,
		},
		Database: DatabaseConfig{
			Driver:     "mysql",
			Host:       "127.0.0.1",
			Port:       3306,
			User:       "root",
			Password:   "",
			DB:         "travel_journal",
			Params:     "parseTime=true&loc=Local&charset=utf8mb4",
			SQLitePath: "travel-journal.db",
		},
		Redis: RedisConfig{
			Addr:                 "127.0.0.1:6379",
			Password:             "",
			DB:                   0,
			EntryTTLSeconds:      300,
			EntryDirtyTTLSeconds: 5,
		},
		RabbitMQ: RabbitMQConfig{
			URL:               "",
			MediaCleanupQueue: "media.cleanup",
		},
		Media: MediaConfig{
			Backend:         "filesystem",
			PublicPrefix:    "/uploads",
			UploadDir:       "uploads",
			EntryMaxBytes:   5_000_000,
			EntryMaxFiles:   3,
			ProfileMaxBytes: 1_000_000,
			S3Region:        "us-east-1",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTExpireMinute = getEnvAsInt("JWT_EXPIRE_MINUTE", cfg.Auth.JWTExpireMinute)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvAsInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DB = getEnv("DB_NAME", cfg.Database.DB)
	cfg.Database.Params = getEnv("DB_PARAMS", cfg.Database.Params)
	cfg.Database.SQLitePath = getEnv("DB_SQLITE_PATH", cfg.Database.SQLitePath)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.EntryTTLSeconds = getEnvAsInt("REDIS_ENTRY_TTL_SECONDS", cfg.Redis.EntryTTLSeconds)
	cfg.Redis.EntryDirtyTTLSeconds = getEnvAsInt("REDIS_ENTRY_DIRTY_TTL_SECONDS", cfg.Redis.EntryDirtyTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.MediaCleanupQueue = getEnv("RABBITMQ_MEDIA_CLEANUP_QUEUE", cfg.RabbitMQ.MediaCleanupQueue)

	cfg.Media.Backend = getEnv("MEDIA_BACKEND", cfg.Media.Backend)
	cfg.Media.PublicPrefix = getEnv("MEDIA_PUBLIC_PREFIX", cfg.Media.PublicPrefix)
	cfg.Media.UploadDir = getEnv("MEDIA_UPLOAD_DIR", cfg.Media.UploadDir)
	cfg.Media.S3Bucket = getEnv("MEDIA_S3_BUCKET", cfg.Media.S3Bucket)
	cfg.Media.S3Region = getEnv("MEDIA_S3_REGION", cfg.Media.S3Region)
	cfg.Media.S3Prefix = getEnv("MEDIA_S3_PREFIX", cfg.Media.S3Prefix)
	cfg.Media.S3Endpoint = getEnv("MEDIA_S3_ENDPOINT", cfg.Media.S3Endpoint)
	cfg.Media.S3AccessKey = getEnv("MEDIA_S3_ACCESS_KEY", cfg.Media.S3AccessKey)
	cfg.Media.S3SecretKey = getEnv("MEDIA_S3_SECRET_KEY", cfg.Media.S3SecretKey)

	if raw, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok && raw != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
