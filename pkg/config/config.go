package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Storage backends accepted by STOREFRONT_STORAGE_BACKEND.
const (
	StorageBackendNone = "none"
	StorageBackendGCS  = "gcs"
	StorageBackendS3   = "s3"
)

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvDBDriver        = "STOREFRONT_DB_DRIVER"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvStorageBackend  = "STOREFRONT_STORAGE_BACKEND"
	EnvStorageBaseURL  = "STOREFRONT_STORAGE_BASE_URL"
	EnvStorageTimeout  = "STOREFRONT_STORAGE_TIMEOUT"
	EnvGCSBucket       = "STOREFRONT_GCS_BUCKET"
	EnvS3Bucket        = "STOREFRONT_S3_BUCKET"
	EnvS3Region        = "STOREFRONT_S3_REGION"
	EnvAdminAPIToken   = "STOREFRONT_ADMIN_API_TOKEN"
	EnvAdminTokenHash  = "STOREFRONT_ADMIN_API_TOKEN_HASH"
	EnvPricingUSDRate  = "STOREFRONT_PRICING_USD_RATE"
	EnvCartTTL         = "STOREFRONT_CART_TTL"
	EnvAutoMigrate     = "STOREFRONT_AUTO_MIGRATE"
	EnvCORSAllowOrigin = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Storage      StorageConfig
	GCS          GCSConfig
	S3           S3Config
	Admin        AdminConfig
	Pricing      PricingConfig
	Cart         CartConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	if err := cfg.validateStorage(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"3001"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN" required:"true"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"200ms"`
}

// IsSQLite reports whether the embedded SQLite driver is selected.
func (d DBConfig) IsSQLite() bool {
	return strings.EqualFold(d.Driver, "sqlite")
}

func (d DBConfig) validate() error {
	switch strings.ToLower(d.Driver) {
	case "postgres", "sqlite":
		return nil
	default:
		return fmt.Errorf("unsupported db driver %q", d.Driver)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured. The cart is disabled without one.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type StorageConfig struct {
	Backend string        `envconfig:"STOREFRONT_STORAGE_BACKEND" default:"none"`
	BaseURL string        `envconfig:"STOREFRONT_STORAGE_BASE_URL"`
	Timeout time.Duration `envconfig:"STOREFRONT_STORAGE_TIMEOUT" default:"20s"`
}

type GCSConfig struct {
	ProjectID       string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	BucketName      string `envconfig:"STOREFRONT_GCS_BUCKET"`
	CredentialsJSON string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type S3Config struct {
	Bucket          string `envconfig:"STOREFRONT_S3_BUCKET"`
	Region          string `envconfig:"STOREFRONT_S3_REGION" default:"us-east-1"`
	Endpoint        string `envconfig:"STOREFRONT_S3_ENDPOINT"`
	AccessKeyID     string `envconfig:"STOREFRONT_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"STOREFRONT_S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `envconfig:"STOREFRONT_S3_USE_PATH_STYLE" default:"false"`
}

type AdminConfig struct {
	APIToken        string        `envconfig:"STOREFRONT_ADMIN_API_TOKEN"`
	APITokenHash    string        `envconfig:"STOREFRONT_ADMIN_API_TOKEN_HASH"`
	RateLimit       int           `envconfig:"STOREFRONT_ADMIN_RATE_LIMIT" default:"120"`
	RateLimitWindow time.Duration `envconfig:"STOREFRONT_ADMIN_RATE_LIMIT_WINDOW" default:"1m"`
}

type PricingConfig struct {
	USDRate string `envconfig:"STOREFRONT_PRICING_USD_RATE" default:"0.25"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"720h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (c *Config) validateStorage() error {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Storage.Backend = backend
	switch backend {
	case "", StorageBackendNone:
		c.Storage.Backend = StorageBackendNone
		return nil
	case StorageBackendGCS:
		if c.GCS.BucketName == "" {
			return fmt.Errorf("%s is required when storage backend is gcs", EnvGCSBucket)
		}
	case StorageBackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("%s is required when storage backend is s3", EnvS3Bucket)
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	if c.Storage.BaseURL == "" {
		return fmt.Errorf("%s is required when storage backend is %s", EnvStorageBaseURL, backend)
	}
	return nil
}
