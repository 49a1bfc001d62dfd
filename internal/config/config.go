// Package config handles resolving configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
	"golang.org/x/crypto/bcrypt"
)

// Log levels accepted by [Config.LogLevel].
const (
	LogLevelDebug = "DEBUG"
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
)

// EnvPrefix prefixes every environment variable that overrides a config field.
const EnvPrefix = "TURNSTILE_"

// DefaultPasswordCost is the bcrypt work factor used unless configured
// otherwise.
const DefaultPasswordCost = 10

// Config is the application configuration.
type Config struct {
	// LogLevel is the minimum level emitted by the logger.
	LogLevel string `yaml:"log_level"`
	// WebAddress is the listen address of the web server.
	WebAddress string `yaml:"web_address"`
	// DBFilepath is the location of the SQLite database, or ":memory:".
	DBFilepath string `yaml:"db_filepath"`
	// PasswordCost is the bcrypt work factor applied to every new hash.
	PasswordCost int `yaml:"password_cost"`
	// CookieSecure marks the session cookie as HTTPS only.
	CookieSecure bool `yaml:"cookie_secure"`
	// DevMode enables request logging, source locations in logs and demo
	// account seeding.
	DevMode bool `yaml:"dev_mode"`
	// DevSeedUsers is the number of demo accounts created in dev mode.
	DevSeedUsers int `yaml:"dev_seed_users"`
}

// Default returns a version of the config with all default values populated.
func Default() *Config {
	return &Config{
		LogLevel:     LogLevelInfo,
		WebAddress:   "localhost:3000",
		DBFilepath:   filepath.Join(xdg.DataHome, "turnstile", "db.sqlite"),
		PasswordCost: DefaultPasswordCost,
		CookieSecure: false,
		DevMode:      false,
		DevSeedUsers: 3, //nolint:mnd // a handful of demo accounts
	}
}

// Load loads a YAML configuration file from a path, merges it with defaults,
// applies environment overrides and validates it for completeness.
func Load(path string) (*Config, error) {
	bytes, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err = yaml.Unmarshal(bytes, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
	}
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	lookup, err := envLookup(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	if err = cfg.override(lookup); err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the config for completeness.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
		validation.Field(&c.WebAddress, validation.Required),
		validation.Field(&c.DBFilepath, validation.Required),
		validation.Field(&c.PasswordCost,
			validation.Required,
			validation.Min(bcrypt.MinCost),
			validation.Max(bcrypt.MaxCost),
		),
		validation.Field(&c.DevSeedUsers, validation.Min(0)),
	)
}

type lookupFunc func(key string) (string, bool)

// envLookup resolves variables from the process environment first, then from
// the dotenv file at path if it exists.
func envLookup(path string) (lookupFunc, error) {
	file, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		file = map[string]string{}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if val, ok := os.LookupEnv(key); ok {
			return val, true
		}
		val, ok := file[key]
		return val, ok
	}, nil
}

func (c *Config) override(lookup lookupFunc) error {
	if val, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = strings.ToUpper(val)
	}
	if val, ok := lookup(EnvPrefix + "WEB_ADDRESS"); ok {
		c.WebAddress = val
	}
	if val, ok := lookup(EnvPrefix + "DB_FILEPATH"); ok {
		c.DBFilepath = val
	}
	if val, ok := lookup(EnvPrefix + "PASSWORD_COST"); ok {
		cost, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %sPASSWORD_COST %q: %w", EnvPrefix, val, err)
		}
		c.PasswordCost = cost
	}
	if val, ok := lookup(EnvPrefix + "COOKIE_SECURE"); ok {
		secure, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %sCOOKIE_SECURE %q: %w", EnvPrefix, val, err)
		}
		c.CookieSecure = secure
	}
	if val, ok := lookup(EnvPrefix + "DEV_MODE"); ok {
		dev, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %sDEV_MODE %q: %w", EnvPrefix, val, err)
		}
		c.DevMode = dev
	}
	return nil
}
