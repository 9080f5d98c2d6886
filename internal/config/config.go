package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Definition sources.
const (
	SourceFile     = "file"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	DataDir          string        `mapstructure:"DATA_DIR"`
	DefinitionSource string        `mapstructure:"DEFINITION_SOURCE"`
	S3Bucket         string        `mapstructure:"S3_BUCKET"`
	S3Prefix         string        `mapstructure:"S3_PREFIX"`
	AWSRegion        string        `mapstructure:"AWS_REGION"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	RedisTTL         time.Duration `mapstructure:"REDIS_TTL"`
	CacheSize        int           `mapstructure:"CACHE_SIZE"`
	PolicyFile       string        `mapstructure:"POLICY_FILE"`
	DescriptionLimit int           `mapstructure:"DESCRIPTION_LIMIT"`
	AdminJWTSecret   string        `mapstructure:"ADMIN_JWT_SECRET"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

var keys = []string{
	"PORT", "ENV", "DATA_DIR", "DEFINITION_SOURCE", "S3_BUCKET", "S3_PREFIX", "AWS_REGION",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL", "REDIS_TTL", "CACHE_SIZE",
	"POLICY_FILE", "DESCRIPTION_LIMIT", "ADMIN_JWT_SECRET", "CORS_ORIGINS", "REQUEST_TIMEOUT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("DEFINITION_SOURCE", SourceFile)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("REDIS_TTL", "1h")
	v.SetDefault("CACHE_SIZE", 256)
	v.SetDefault("DESCRIPTION_LIMIT", 150)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}
	cfg.DefinitionSource = strings.ToLower(strings.TrimSpace(cfg.DefinitionSource))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks cross-field rules for the selected definition source.
func (c *Config) Validate() error {
	switch c.DefinitionSource {
	case SourceFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required when DEFINITION_SOURCE is %q", SourceFile)
		}
	case SourceS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when DEFINITION_SOURCE is %q", SourceS3)
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DEFINITION_SOURCE is %q", SourcePostgres)
		}
	default:
		return fmt.Errorf("DEFINITION_SOURCE must be %q, %q, or %q, got %q",
			SourceFile, SourceS3, SourcePostgres, c.DefinitionSource)
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("CACHE_SIZE must not be negative, got %d", c.CacheSize)
	}
	if c.DescriptionLimit <= 0 {
		return fmt.Errorf("DESCRIPTION_LIMIT must be positive, got %d", c.DescriptionLimit)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.IsProduction() && c.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required in production")
	}
	if c.AdminJWTSecret != "" && len(c.AdminJWTSecret) < 32 {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least 32 bytes, got %d", len(c.AdminJWTSecret))
	}
	return nil
}
