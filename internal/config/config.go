package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"fabricquote/internal/calculator"
)

type Config struct {
	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	HTTPRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`

	Database    Database    `envPrefix:"DB_"`
	Redis       Redis       `envPrefix:"REDIS_"`
	Cache       Cache       `envPrefix:"CACHE_"`
	Calculation Calculation `envPrefix:"CALC_"`
}

type Database struct {
	Driver          string        `env:"DRIVER" envDefault:"postgres"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME" envDefault:"fabricquote"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	Path            string        `env:"PATH" envDefault:"fabricquote.db"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"2m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"2m"`
}

type Redis struct {
	Addr           string        `env:"ADDR" envDefault:"localhost:6379"`
	Password       string        `env:"PASSWORD"`
	DB             int           `env:"DB" envDefault:"0"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"30s"`
}

type Cache struct {
	Backend    string        `env:"BACKEND" envDefault:"redis"`
	TTL        time.Duration `env:"TTL" envDefault:"24h"`
	KeyVersion string        `env:"KEY_VERSION" envDefault:"v1"`

	// PruneInterval is how often serve deletes expired rows from the SQL cache.
	PruneInterval time.Duration `env:"PRUNE_INTERVAL" envDefault:"1h"`
}

// Calculation holds the defaults a calculation falls back on.
type Calculation struct {
	DefaultFullness     float64 `env:"DEFAULT_FULLNESS" envDefault:"2.5"`
	DefaultWastePercent float64 `env:"DEFAULT_WASTE_PERCENT" envDefault:"10"`
	LaborHourlyRate     float64 `env:"LABOR_HOURLY_RATE" envDefault:"25"`
	DefaultFabricWidth  float64 `env:"DEFAULT_FABRIC_WIDTH" envDefault:"137"`
}

func (c Calculation) Settings() calculator.Settings {
	return calculator.Settings{
		DefaultFullness:     c.DefaultFullness,
		DefaultWastePercent: c.DefaultWastePercent,
		DefaultFabricWidth:  c.DefaultFabricWidth,
		HourlyRate:          c.LaborHourlyRate,
	}
}

// Load reads the environment, after applying a .env file from the working directory if one
// exists. Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver))
	}
	switch c.Cache.Backend {
	case "redis", "sql", "none":
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be redis, sql or none, got %q", c.Cache.Backend))
	}
	if c.Cache.Backend == "sql" && c.Cache.PruneInterval <= 0 {
		errs = append(errs, errors.New("CACHE_PRUNE_INTERVAL must be positive"))
	}
	if c.Calculation.DefaultFullness <= 0 {
		errs = append(errs, errors.New("CALC_DEFAULT_FULLNESS must be positive"))
	}
	if c.Calculation.DefaultFabricWidth <= 0 {
		errs = append(errs, errors.New("CALC_DEFAULT_FABRIC_WIDTH must be positive"))
	}
	if c.Calculation.DefaultWastePercent < 0 {
		errs = append(errs, errors.New("CALC_DEFAULT_WASTE_PERCENT must not be negative"))
	}
	return errors.Join(errs...)
}
