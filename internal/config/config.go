// Package config loads labsim settings from the environment, then lets
// command-line flags override them.
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Config holds labsim configuration.
type Config struct {
	Port         int      `env:"LABSIM_PORT" envDefault:"8080"`
	DBDriver     string   `env:"LABSIM_DB_DRIVER" envDefault:"sqlite"`
	DBDSN        string   `env:"LABSIM_DB_DSN" envDefault:"data/labsim.db"`
	Seed         int64    `env:"LABSIM_SEED"` // 0 = crypto/random.org entropy
	AdminKey     string   `env:"LABSIM_ADMIN_KEY"`
	RandomOrgKey string   `env:"RANDOM_ORG_API_KEY"`
	RecipesPath  string   `env:"LABSIM_RECIPES"` // Empty = built-in table
	Pace         float64  `env:"LABSIM_PACE" envDefault:"1"`
	CORSOrigins  []string `env:"LABSIM_CORS_ORIGINS" envSeparator:","`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP API port")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "Database driver (sqlite or pgx)")
	fs.StringVar(&cfg.DBDSN, "db", cfg.DBDSN, "Database file path or connection string")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Deterministic random seed (0 for live entropy)")
	fs.StringVar(&cfg.RecipesPath, "recipes", cfg.RecipesPath, "Recipe table JSON file")
	fs.Float64Var(&cfg.Pace, "pace", cfg.Pace, "Process speed multiplier (1 = real time)")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that env and flag parsing cannot.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.Pace <= 0 {
		return errors.New("pace must be positive")
	}
	return nil
}
