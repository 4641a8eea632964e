package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"invoice-dashboard/internal/logger"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
	URLTTL          time.Duration
}

type ExportConfig struct {
	Backend      string // local or s3
	Dir          string
	PublicPrefix string
	ExternalURL  string
	MaxAge       time.Duration
}

type AppConfig struct {
	Env                string
	Port               string
	Postgres           PostgresConfig
	Redis              RedisConfig
	S3                 S3Config
	Export             ExportConfig
	Log                logger.LogConfig
	CacheTTL           time.Duration
	TopCustomers       int
	RateLimitPerMinute int
}

func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envReader collects the first parse error so Load can report it once.
type envReader struct {
	err error
}

func (r *envReader) int(key, def string) int {
	s := getenv(key, def)
	i, err := strconv.Atoi(s)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("config: %s: invalid int value %q", key, s)
	}
	return i
}

func (r *envReader) bool(key, def string) bool {
	s := getenv(key, def)
	b, err := strconv.ParseBool(s)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("config: %s: invalid bool value %q", key, s)
	}
	return b
}

func (r *envReader) seconds(key, def string) time.Duration {
	return time.Duration(r.int(key, def)) * time.Second
}

func Load() (AppConfig, error) {
	var r envReader
	cfg := AppConfig{
		Env:  getenv("APP_ENV", "development"),
		Port: getenv("APP_PORT", "8010"),
		Postgres: PostgresConfig{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     r.int("PG_PORT", "5432"),
			User:     getenv("PG_USER", "postgres"),
			Password: getenv("PG_PASSWORD", ""),
			DBName:   getenv("PG_DB", "invoicing_db"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          r.int("REDIS_DB", "0"),
			MaxRetries:  r.int("REDIS_MAX_RETRIES", "5"),
			DialTimeout: r.int("REDIS_DIAL_TIMEOUT", "10"),
			Timeout:     r.int("REDIS_TIMEOUT", "5"),
			Prefix:      getenv("REDIS_PREFIX", "invoicing_"),
		},
		S3: S3Config{
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "exports"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          r.bool("S3_USE_SSL", "false"),
			Prefix:          getenv("S3_PREFIX", ""),
			URLTTL:          r.seconds("S3_URL_TTL_SECONDS", "1800"),
		},
		Export: ExportConfig{
			Backend:      getenv("EXPORT_BACKEND", "local"),
			Dir:          getenv("EXPORT_DIR", "./exports"),
			PublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
			ExternalURL:  getenv("EXTERNAL_URL", ""),
			MaxAge:       r.seconds("EXPORT_MAX_AGE_SECONDS", "1800"),
		},
		Log: logger.LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "console"),
			Output: getenv("LOG_OUTPUT", "stdout"),
		},
		CacheTTL:           r.seconds("CACHE_TTL_SECONDS", "60"),
		TopCustomers:       r.int("TOP_CUSTOMERS", "5"),
		RateLimitPerMinute: r.int("RATE_LIMIT_PER_MINUTE", "30"),
	}
	if r.err != nil {
		return AppConfig{}, r.err
	}
	if cfg.Export.Backend != "local" && cfg.Export.Backend != "s3" {
		return AppConfig{}, fmt.Errorf("config: EXPORT_BACKEND must be local or s3, got %q", cfg.Export.Backend)
	}
	if cfg.TopCustomers < 0 {
		return AppConfig{}, fmt.Errorf("config: TOP_CUSTOMERS must not be negative")
	}
	return cfg, nil
}
