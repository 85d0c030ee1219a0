package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-dive-auth/internal/model"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	DocumentStoreLocal = "local"
	DocumentStoreS3    = "s3"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	StoreBackend string
	DatabaseURL  string
	DBMaxConns   int32
	DBMinConns   int32

	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	BcryptCost    int

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int
	MaxUploadSize    int64

	DocumentStore string
	UploadRoot    string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3Prefix      string
	S3AccessKey   string
	S3SecretKey   string

	RedisURL         string
	RedisPassword    string
	IdentityCacheTTL time.Duration

	AdminEmail    string
	AdminPassword string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		StoreBackend:            strings.ToLower(getEnv("STORE_BACKEND", StoreBackendPostgres)),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 2)),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:            getDuration("JWT_ACCESS_TTL", time.Hour),
		JWTRefreshTTL:           getDuration("JWT_REFRESH_TTL", 168*time.Hour),
		BcryptCost:              getInt("BCRYPT_COST", 12),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		MaxUploadSize:           getInt64("MAX_UPLOAD_SIZE", model.MinSignupBodySize),
		DocumentStore:           strings.ToLower(getEnv("DOCUMENT_STORE", DocumentStoreLocal)),
		UploadRoot:              getEnv("UPLOAD_ROOT", "./uploads"),
		S3Bucket:                strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:                getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:              strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3Prefix:                strings.Trim(strings.TrimSpace(os.Getenv("S3_PREFIX")), "/"),
		S3AccessKey:             strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey:             strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		RedisURL:                strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		IdentityCacheTTL:        getDuration("IDENTITY_CACHE_TTL", time.Minute),
		AdminEmail:              strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword:           os.Getenv("ADMIN_PASSWORD"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.MaxUploadSize < model.MinSignupBodySize {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be at least %d bytes to fit both signup documents", model.MinSignupBodySize)
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", StoreBackendPostgres)
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q", StoreBackendPostgres, StoreBackendMemory)
	}

	switch c.DocumentStore {
	case DocumentStoreLocal:
		if strings.TrimSpace(c.UploadRoot) == "" {
			return fmt.Errorf("UPLOAD_ROOT cannot be empty")
		}
	case DocumentStoreS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when DOCUMENT_STORE=%s", DocumentStoreS3)
		}
	default:
		return fmt.Errorf("DOCUMENT_STORE must be %q or %q", DocumentStoreLocal, DocumentStoreS3)
	}

	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be %q or %q", "text", "json")
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
