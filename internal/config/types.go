// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	// DriverSQLite stores the catalog in a SQLite file.
	DriverSQLite DatabaseDriver = "sqlite"
	// DriverPostgres stores the catalog in PostgreSQL.
	DriverPostgres DatabaseDriver = "postgres"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	// DefaultCacheKey is the cache key GetCached memoizes the catalog under.
	DefaultCacheKey = "modcat"
	// DefaultCacheLifetime is how long the memoized catalog stays fresh.
	DefaultCacheLifetime = 60 * time.Second
	// DefaultModulesPath is the directory modules are installed into.
	DefaultModulesPath = "modules"
	// DefaultAssetsPath is the directory published module assets live in.
	DefaultAssetsPath = "public/modules"
)

var (
	// ErrInvalidDatabaseDriver is returned when a DatabaseDriver value is not recognized.
	ErrInvalidDatabaseDriver = errors.New("invalid database driver")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLifetime is returned when a cache lifetime cannot be parsed or is negative.
	ErrInvalidLifetime = errors.New("invalid cache lifetime")
	// ErrInvalidCacheConfig is the sentinel error wrapped by InvalidCacheConfigError.
	ErrInvalidCacheConfig = errors.New("invalid cache config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// DatabaseDriver selects the entity store backend.
	DatabaseDriver string

	// LogLevel is the minimum level the CLI logs at.
	LogLevel string

	// InvalidDatabaseDriverError is returned when a DatabaseDriver value is not recognized.
	// It wraps ErrInvalidDatabaseDriver for errors.Is() compatibility.
	InvalidDatabaseDriverError struct {
		Value DatabaseDriver
	}

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidCacheConfigError aggregates cache field errors.
	InvalidCacheConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError aggregates every field error of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the application configuration.
	Config struct {
		Modules  ModulesConfig  `json:"modules" mapstructure:"modules"`
		Database DatabaseConfig `json:"database" mapstructure:"database"`
		Log      LogConfig      `json:"log" mapstructure:"log"`

		// v answers key lookups, env overrides included.
		v *viper.Viper
		// path is the file the configuration was loaded from, empty for defaults.
		path string
	}

	// ModulesConfig is the modules.* namespace.
	ModulesConfig struct {
		Cache CacheConfig `json:"cache" mapstructure:"cache"`
		Paths PathsConfig `json:"paths" mapstructure:"paths"`
	}

	// CacheConfig controls memoization of the full catalog.
	CacheConfig struct {
		Enabled bool   `json:"enabled" mapstructure:"enabled"`
		Key     string `json:"key" mapstructure:"key"`
		// Lifetime is decoded separately: numbers are seconds, strings are Go durations.
		Lifetime time.Duration `json:"lifetime" mapstructure:"-"`
	}

	// PathsConfig locates module directories and published assets.
	PathsConfig struct {
		Modules string `json:"modules" mapstructure:"modules"`
		Assets  string `json:"assets" mapstructure:"assets"`
	}

	// DatabaseConfig selects and locates the entity store.
	DatabaseConfig struct {
		Driver DatabaseDriver `json:"driver" mapstructure:"driver"`
		DSN    string         `json:"dsn" mapstructure:"dsn"`
	}

	// LogConfig configures CLI logging.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Modules: ModulesConfig{
			Cache: CacheConfig{
				Enabled:  true,
				Key:      DefaultCacheKey,
				Lifetime: DefaultCacheLifetime,
			},
			Paths: PathsConfig{
				Modules: DefaultModulesPath,
				Assets:  DefaultAssetsPath,
			},
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "", // resolved to <config dir>/modcat.db on load
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
	}
}

// FromMap builds a Config from nested values over the defaults, without
// reading any file or environment variable.
func FromMap(values map[string]any) (*Config, error) {
	v := newViper(DefaultConfig())
	if err := v.MergeConfigMap(values); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	return decode(v, "")
}

// Get returns the value at the dotted key, or def when unset.
func (c *Config) Get(key string, def any) any {
	if c.v == nil || !c.v.IsSet(key) {
		return def
	}
	return c.v.Get(key)
}

// Path returns the file the configuration was loaded from. It is empty when
// only defaults and environment variables were used.
func (c *Config) Path() string {
	return c.path
}

// ParseLifetime converts a configured cache lifetime to a duration.
// Integers and digit-only strings are seconds; other strings are Go durations ("90s", "5m").
func ParseLifetime(value any) (time.Duration, error) {
	var d time.Duration
	switch x := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		d = x
	case string:
		s := strings.TrimSpace(x)
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			d = time.Duration(secs) * time.Second
			break
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidLifetime, x)
		}
		d = parsed
	default:
		secs, err := cast.ToInt64E(value)
		if err != nil {
			return 0, fmt.Errorf("%w: %v (%T)", ErrInvalidLifetime, value, value)
		}
		d = time.Duration(secs) * time.Second
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidLifetime, d)
	}
	return d, nil
}

// String returns the driver name.
func (d DatabaseDriver) String() string { return string(d) }

// IsValid returns whether the driver is supported, and the validation errors if not.
func (d DatabaseDriver) IsValid() (bool, []error) {
	switch d {
	case DriverSQLite, DriverPostgres:
		return true, nil
	default:
		return false, []error{&InvalidDatabaseDriverError{Value: d}}
	}
}

// Error implements the error interface for InvalidDatabaseDriverError.
func (e *InvalidDatabaseDriverError) Error() string {
	return fmt.Sprintf("invalid database driver %q (valid: sqlite, postgres)", e.Value)
}

// Unwrap returns ErrInvalidDatabaseDriver for errors.Is() compatibility.
func (e *InvalidDatabaseDriverError) Unwrap() error { return ErrInvalidDatabaseDriver }

// String returns the level name.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the level is recognized, and the validation errors if not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid checks the cache key and lifetime.
func (c CacheConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Key) == "" {
		errs = append(errs, errors.New("modules.cache.key must not be empty"))
	}
	if c.Lifetime < 0 {
		errs = append(errs, fmt.Errorf("%w: %s is negative", ErrInvalidLifetime, c.Lifetime))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidCacheConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCacheConfigError.
func (e *InvalidCacheConfigError) Error() string {
	return fmt.Sprintf("invalid cache config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidCacheConfig for errors.Is() compatibility.
func (e *InvalidCacheConfigError) Unwrap() error { return ErrInvalidCacheConfig }

// IsValid delegates to every validated field.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Modules.Cache.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Database.Driver.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
