package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/evolutech/platform/internal/secrets"
)

// Prefix is prepended to every environment variable name.
const Prefix = "EVOLUTECH_"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database   DatabaseConfig  `envPrefix:"DB_"`
	Redis      RedisConfig     `envPrefix:"REDIS_"`
	JWT        JWTConfig       `envPrefix:"JWT_"`
	Server     ServerConfig    `envPrefix:"SERVER_"`
	Cache      CacheConfig     `envPrefix:"CACHE_"`
	Kafka      KafkaConfig     `envPrefix:"KAFKA_"`
	Vault      VaultConfig     `envPrefix:"VAULT_"`
	RateLimit  RateLimitConfig `envPrefix:"RATE_"`
	Log        LogConfig       `envPrefix:"LOG_"`
	Bootstrap  BootstrapConfig `envPrefix:"BOOTSTRAP_"`
	SelfHosted bool            `env:"SELF_HOSTED" envDefault:"false"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"evolutech"`
	Password string `env:"PASSWORD"` //nolint:gosec // G117: DB connection config
	DBName   string `env:"NAME" envDefault:"evolutech_dev"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
	MaxConns int    `env:"MAX_CONNS" envDefault:"25"`
	Migrate  bool   `env:"MIGRATE" envDefault:"true"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"` //nolint:gosec // G117: Redis connection config
	DB       int    `env:"DB" envDefault:"0"`
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string        `env:"SECRET"` //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
}

// CacheConfig controls the Redis page cache for record listings.
type CacheConfig struct {
	RecordsTTL time.Duration `env:"RECORDS_TTL" envDefault:"5m"`
}

// KafkaConfig enables audit export when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string `env:"BROKERS" envSeparator:","`
	AuditTopic string   `env:"AUDIT_TOPIC" envDefault:"evolutech.audit"`
}

// Enabled reports whether audit entries are exported.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// VaultConfig holds the key that seals payment gateway credentials.
type VaultConfig struct {
	Key string `env:"KEY"` //nolint:gosec // G117: encryption key config
}

// RateLimitConfig holds token-bucket settings.
type RateLimitConfig struct {
	CompanyRPS   float64 `env:"COMPANY_RPS" envDefault:"20"`
	CompanyBurst int     `env:"COMPANY_BURST" envDefault:"40"`
	AuthRPS      float64 `env:"AUTH_RPS" envDefault:"1"`
	AuthBurst    int     `env:"AUTH_BURST" envDefault:"5"`
}

// LogConfig selects zerolog level and output format ("json" or "text").
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// BootstrapConfig optionally seeds a platform super admin on startup.
type BootstrapConfig struct {
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"` //nolint:gosec // G117: bootstrap credentials
	AdminName     string `env:"ADMIN_NAME" envDefault:"Evolutech Admin"`
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory if one exists.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password, vault key) must be set explicitly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: Prefix})
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New(Prefix + "JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New(Prefix + "JWT_SECRET must be at least 32 characters")
	}

	if _, err := secrets.ParseKey(c.Vault.Key); err != nil {
		return errors.New(Prefix + "VAULT_KEY must be 32 bytes, hex or base64 encoded")
	}

	if c.Database.SSLMode == "disable" && !c.SelfHosted {
		log.Warn().Msg(Prefix + "DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf(Prefix+"DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf(Prefix+"DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf(Prefix+"JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf(Prefix+"JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf(Prefix+"SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf(Prefix+"SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf(Prefix+"SERVER_SHUTDOWN_TIMEOUT must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Cache.RecordsTTL <= 0 {
		return fmt.Errorf(Prefix+"CACHE_RECORDS_TTL must be positive, got %s", c.Cache.RecordsTTL)
	}
	if c.RateLimit.CompanyRPS <= 0 || c.RateLimit.CompanyBurst < 1 {
		return errors.New(Prefix + "RATE_COMPANY_RPS and RATE_COMPANY_BURST must be positive")
	}
	if c.RateLimit.AuthRPS <= 0 || c.RateLimit.AuthBurst < 1 {
		return errors.New(Prefix + "RATE_AUTH_RPS and RATE_AUTH_BURST must be positive")
	}
	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		return errors.New(Prefix + "BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
