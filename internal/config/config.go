package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the MediaVault API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Quota    QuotaConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	StreamURLTTL    time.Duration
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	TokenSecret    string
	AccessTokenTTL time.Duration
	BcryptCost     int
}

// QuotaConfig holds per-user admission limits and upload-lock policy.
type QuotaConfig struct {
	MaxStorageBytes        int64
	MaxDailyBandwidthBytes int64
	LockStaleAfter         time.Duration
}

// AuditConfig parameterizes the asynchronous audit emitter.
type AuditConfig struct {
	QueueSize    int
	WriteTimeout time.Duration
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// LogConfig controls application logging.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("MEDIAVAULT_API_HOST", "0.0.0.0"),
			Port:         getInt("MEDIAVAULT_API_PORT", 8080),
			ReadTimeout:  getDuration("MEDIAVAULT_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("MEDIAVAULT_API_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDuration("MEDIAVAULT_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "mediavault_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "mediavault"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "mediavault"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "mediavault"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
			StreamURLTTL:    getDuration("MEDIAVAULT_STREAM_URL_TTL", 15*time.Minute),
		},
		Auth:  loadAuthConfig(),
		Quota: loadQuotaConfig(),
		Audit: AuditConfig{
			QueueSize:    getInt("MEDIAVAULT_AUDIT_QUEUE_SIZE", 256),
			WriteTimeout: getDuration("MEDIAVAULT_AUDIT_WRITE_TIMEOUT", 5*time.Second),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("MEDIAVAULT_METRICS_PATH", "/metrics"),
		},
		Log: LogConfig{
			Level:  getString("MEDIAVAULT_LOG_LEVEL", "info"),
			Pretty: getBool("MEDIAVAULT_LOG_PRETTY", false),
		},
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("MEDIAVAULT_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		TokenSecret:    getString("MEDIAVAULT_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		AccessTokenTTL: getDuration("MEDIAVAULT_AUTH_ACCESS_TOKEN_TTL", time.Hour),
		BcryptCost:     cost,
	}
}

func loadQuotaConfig() QuotaConfig {
	return QuotaConfig{
		MaxStorageBytes:        getInt64("MEDIAVAULT_QUOTA_MAX_STORAGE_BYTES", 50*1024*1024),
		MaxDailyBandwidthBytes: getInt64("MEDIAVAULT_QUOTA_MAX_DAILY_BANDWIDTH_BYTES", 100*1024*1024),
		LockStaleAfter:         getDuration("MEDIAVAULT_UPLOAD_LOCK_STALE_AFTER", 5*time.Minute),
	}
}
