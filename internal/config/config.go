package config

import (
	"errors"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const devJWTSecret = "dev-secret-change-in-production"

// ErrInsecureSecret is returned when production runs with the development JWT secret.
var ErrInsecureSecret = errors.New("JWT_SECRET must be set in production environment")

type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	Env            string        `envconfig:"ENV" default:"development"`
	DatabaseDriver string        `envconfig:"DATABASE_DRIVER" default:"mysql"`
	DatabaseDSN    string        `envconfig:"DATABASE_DSN" default:"root:password@tcp(127.0.0.1:3306)/library?parseTime=true"`
	AutoMigrate    bool          `envconfig:"AUTO_MIGRATE" default:"false"`
	DBRetries      int           `envconfig:"DB_RETRY_ATTEMPTS" default:"5"`
	DBRetryDelay   time.Duration `envconfig:"DB_RETRY_BASE_DELAY" default:"10ms"`
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	JWTExpiry      time.Duration `envconfig:"JWT_EXPIRY" default:"30m"`
	AuthRateRPS    float64       `envconfig:"AUTH_RATE_LIMIT_RPS" default:"5"`
	AuthRateBurst  int           `envconfig:"AUTH_RATE_LIMIT_BURST" default:"10"`
	CORSOrigins    []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads an optional .env file and then decodes the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	if cfg.IsProduction() && cfg.JWTSecret == devJWTSecret {
		return Config{}, ErrInsecureSecret
	}

	return cfg, nil
}
