package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageMongoDB  = "mongodb"
	StoragePostgres = "postgres"
)

// Media drivers.
const (
	MediaMemory = "memory"
	MediaMinio  = "minio"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Storage  StorageConfig
	MongoDB  MongoDBConfig
	Postgres PostgresConfig
	Session  SessionConfig
	Media    MediaConfig
	Minio    MinioConfig
	Sheets   SheetsConfig
	Export   ExportConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string
}

// StorageConfig selects the durable slot driver.
type StorageConfig struct {
	Driver     string
	SQLitePath string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// PostgresConfig holds settings for PostgreSQL.
type PostgresConfig struct {
	DSN string
}

// SessionConfig controls session and visibility behaviour.
type SessionConfig struct {
	// DefaultRole, when set, is used for requests without a session instead
	// of rejecting them.
	DefaultRole    string
	VisibilityRule string
}

// MediaConfig selects where product images are stored.
type MediaConfig struct {
	Driver   string
	MaxBytes int64
}

// MinioConfig holds object storage credentials.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether spreadsheet export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ExportConfig holds scheduler-related settings.
type ExportConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getenvWithDefault("STORAGE_DRIVER", StorageSQLite)),
			SQLitePath: getenvWithDefault("SQLITE_PATH", "farmchainx.db"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "farmchainx"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Session: SessionConfig{
			DefaultRole:    os.Getenv("SESSION_DEFAULT_ROLE"),
			VisibilityRule: getenvWithDefault("VISIBILITY_RULE", "status"),
		},
		Media: MediaConfig{
			Driver:   strings.ToLower(getenvWithDefault("MEDIA_DRIVER", MediaMemory)),
			MaxBytes: getenvInt64("MEDIA_MAX_BYTES", 5<<20),
		},
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getenvWithDefault("MINIO_BUCKET", "farmchainx-media"),
			Region:    os.Getenv("MINIO_REGION"),
			UseSSL:    getenvBool("MINIO_USE_SSL", false),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
		},
		Export: ExportConfig{
			CronSchedule: getenvWithDefault("EXPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be provided")
		}
	case StorageMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN must be provided")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Media.Driver {
	case MediaMemory:
	case MediaMinio:
		switch {
		case c.Minio.Endpoint == "":
			return errors.New("MINIO_ENDPOINT must be provided")
		case c.Minio.AccessKey == "":
			return errors.New("MINIO_ACCESS_KEY must be provided")
		case c.Minio.SecretKey == "":
			return errors.New("MINIO_SECRET_KEY must be provided")
		case c.Minio.Bucket == "":
			return errors.New("MINIO_BUCKET must not be empty")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_DRIVER %q", c.Media.Driver)
	}

	if c.Media.MaxBytes <= 0 {
		return errors.New("MEDIA_MAX_BYTES must be positive")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_EXPORT_ID must be provided together")
	}

	if c.Sheets.Enabled() {
		if c.Export.CronSchedule == "" {
			return errors.New("EXPORT_CRON_SCHEDULE must be provided")
		}
		if c.Export.Timezone == "" {
			return errors.New("TIMEZONE must be provided")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
