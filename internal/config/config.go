// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/invowk/modcat/internal/issue"
	"github.com/invowk/modcat/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "modcat"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides: MODCAT_DATABASE_DSN sets database.dsn.
	EnvPrefix = "MODCAT"
	// DatabaseFileName is the default SQLite file inside the config directory.
	DatabaseFileName = "modcat.db"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the modcat configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// newViper returns a Viper instance seeded with defaults.
func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetDefault("modules.cache.enabled", defaults.Modules.Cache.Enabled)
	v.SetDefault("modules.cache.key", defaults.Modules.Cache.Key)
	v.SetDefault("modules.cache.lifetime", int(defaults.Modules.Cache.Lifetime/time.Second))
	v.SetDefault("modules.paths.modules", defaults.Modules.Paths.Modules)
	v.SetDefault("modules.paths.assets", defaults.Modules.Paths.Assets)
	v.SetDefault("database.driver", string(defaults.Database.Driver))
	v.SetDefault("database.dsn", defaults.Database.DSN)
	v.SetDefault("log.level", string(defaults.Log.Level))
	return v
}

// decode unmarshals v into a validated Config.
func decode(v *viper.Viper, path string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	lifetime, err := ParseLifetime(v.Get("modules.cache.lifetime"))
	if err != nil {
		return nil, err
	}
	cfg.Modules.Cache.Lifetime = lifetime
	cfg.v = v
	cfg.path = path

	if valid, errs := cfg.IsValid(); !valid {
		return nil, errs[0]
	}
	return &cfg, nil
}

// loadWithOptions performs option-driven config loading. Precedence, lowest
// first: defaults, config file, MODCAT_* environment variables.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper(DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return nil, err
	}

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'modcat config show' to see the default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		for _, candidate := range []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		} {
			if fileExists(candidate) {
				resolvedPath = candidate
				break
			}
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	cfg, err := decode(v, resolvedPath)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check MODCAT_* environment variables for typos").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	if cfg.Database.DSN == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.DSN = filepath.Join(cfgDir, DatabaseFileName)
	}

	return cfg, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates the file at path against #Config and merges it into v.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config.cue into dir unless one exists.
// It returns the file path and whether the file was created.
func CreateDefaultConfig(dir string) (string, bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, true, nil
}

// GenerateCUE renders cfg in the config.cue format.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// modcat configuration file\n")
	sb.WriteString("// Environment variables (MODCAT_DATABASE_DSN, MODCAT_MODULES_CACHE_LIFETIME, ...) override these values.\n\n")

	sb.WriteString("modules: {\n")
	sb.WriteString("\tcache: {\n")
	fmt.Fprintf(&sb, "\t\tenabled:  %v\n", cfg.Modules.Cache.Enabled)
	fmt.Fprintf(&sb, "\t\tkey:      %q\n", cfg.Modules.Cache.Key)
	if lifetime := cfg.Modules.Cache.Lifetime; lifetime%time.Second == 0 {
		fmt.Fprintf(&sb, "\t\tlifetime: %d\n", int64(lifetime/time.Second))
	} else {
		fmt.Fprintf(&sb, "\t\tlifetime: %q\n", lifetime.String())
	}
	sb.WriteString("\t}\n")
	sb.WriteString("\tpaths: {\n")
	fmt.Fprintf(&sb, "\t\tmodules: %q\n", cfg.Modules.Paths.Modules)
	fmt.Fprintf(&sb, "\t\tassets:  %q\n", cfg.Modules.Paths.Assets)
	sb.WriteString("\t}\n")
	sb.WriteString("}\n")

	sb.WriteString("\ndatabase: {\n")
	fmt.Fprintf(&sb, "\tdriver: %q\n", cfg.Database.Driver)
	if cfg.Database.DSN != "" {
		fmt.Fprintf(&sb, "\tdsn:    %q\n", cfg.Database.DSN)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	return sb.String()
}
