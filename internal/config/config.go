package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"production"`
	Host     string `env:"HOST" envDefault:"0.0.0.0"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL     string `env:"DATABASE_URL"`
	DBHost          string `env:"DB_HOST" envDefault:"localhost"`
	DBPort          string `env:"DB_PORT" envDefault:"5432"`
	DBUser          string `env:"DB_USER" envDefault:"postgres"`
	DBPassword      string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName          string `env:"DB_NAME" envDefault:"companion"`
	DBSSLMode       string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxOpenConns  int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns  int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBSyncOnStartup bool   `env:"DB_SYNC" envDefault:"false"`

	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`

	CORSOrigins        []string `env:"CORS_ORIGINS" envSeparator:","`
	AuthRateLimitRPS   float64  `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int      `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	AvatarStorage  string `env:"AVATAR_STORAGE" envDefault:"local"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	AvatarMaxBytes int64  `env:"AVATAR_MAX_BYTES" envDefault:"5242880"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.dsn()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c *Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) validate() error {
	if c.AccessTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET environment variable is required")
	}
	if c.RefreshTokenSecret == "" {
		return errors.New("REFRESH_TOKEN_SECRET environment variable is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	switch c.AvatarStorage {
	case StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when AVATAR_STORAGE=s3")
		}
	default:
		return fmt.Errorf("unknown AVATAR_STORAGE %q", c.AvatarStorage)
	}
	return nil
}
