// Package config loads service configuration from defaults, an optional
// config file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Driver names accepted in DBConfig.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type HTTPConfig struct {
	Port      int     `mapstructure:"port"`
	RateLimit float64 `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst int     `mapstructure:"rate_burst"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	Path   string `mapstructure:"path"`   // SQLite file
	URL    string `mapstructure:"url"`    // PostgreSQL connection string
	Reset  bool   `mapstructure:"reset"`  // drop and recreate the schema on startup
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type EnrollmentConfig struct {
	// LegacyAssignCount makes the enrollment endpoint count every member of
	// a group, not only active ones, when checking capacity.
	LegacyAssignCount bool `mapstructure:"legacy_assign_count"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Config is the complete service configuration.
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	DB         DBConfig         `mapstructure:"db"`
	Log        LogConfig        `mapstructure:"log"`
	Enrollment EnrollmentConfig `mapstructure:"enrollment"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

var defaults = map[string]any{
	"http.port":                      8080,
	"http.rate_limit":                0,
	"http.rate_burst":                20,
	"db.driver":                      DriverSQLite,
	"db.path":                        "./data/escola.db",
	"db.url":                         "",
	"db.reset":                       false,
	"log.level":                      "info",
	"log.format":                     "text",
	"enrollment.legacy_assign_count": false,
	"cors.allowed_origins":           []string{"*"},
}

// envBindings maps each config key to the environment variables that can
// set it, preferred name first.
var envBindings = map[string][]string{
	"http.port":                      {"PORT"},
	"http.rate_limit":                {"HTTP_RATE_LIMIT"},
	"http.rate_burst":                {"HTTP_RATE_BURST"},
	"db.driver":                      {"DB_DRIVER"},
	"db.path":                        {"DB_PATH"},
	"db.url":                         {"DATABASE_URL"},
	"db.reset":                       {"DB_RESET"},
	"log.level":                      {"LOG_LEVEL"},
	"log.format":                     {"LOG_FORMAT"},
	"enrollment.legacy_assign_count": {"ENROLLMENT_LEGACY_ASSIGN_COUNT"},
	"cors.allowed_origins":           {"CORS_ALLOWED_ORIGINS"},
}

// Load reads the config file at filePath if it exists, then applies
// environment overrides. An empty filePath skips the file.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that viper cannot.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("config: db.path is required for sqlite")
		}
	case DriverPostgres:
		if c.DB.URL == "" {
			return errors.New("config: db.url is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown db.driver %q", c.DB.Driver)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid http.port %d", c.HTTP.Port)
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("config: http.rate_limit must not be negative")
	}
	return nil
}

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		// Prepend the config key to the start of the arguments
		inputs := slices.Insert(slices.Clone(envs), 0, key)
		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}
	return nil
}

// splitList accepts comma separated values from the environment, where
// viper yields a single string element.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
