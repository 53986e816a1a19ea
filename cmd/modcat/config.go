// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/invowk/modcat/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `modcat config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modcat configuration",
		Long: `Manage modcat configuration.

Configuration is stored in:
  - Linux: ~/.config/modcat/config.cue
  - macOS: ~/Library/Application Support/modcat/config.cue
  - Windows: %APPDATA%\modcat\config.cue

MODCAT_* environment variables override file values, for example
MODCAT_DATABASE_DSN or MODCAT_MODULES_CACHE_LIFETIME.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, showConfig(cmd, app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, initConfig(cmd))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), configFilePath(cfgDir))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)

	if cfg.Path() != "" {
		fmt.Fprintf(out, "%s %s\n", keyStyle.Render("Config file"), cfg.Path())
	} else {
		fmt.Fprintf(out, "%s %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	rows := []struct {
		key   string
		value any
	}{
		{"modules.cache.enabled", cfg.Modules.Cache.Enabled},
		{"modules.cache.key", cfg.Modules.Cache.Key},
		{"modules.cache.lifetime", cfg.Modules.Cache.Lifetime},
		{"modules.paths.modules", cfg.Modules.Paths.Modules},
		{"modules.paths.assets", cfg.Modules.Paths.Assets},
		{"database.driver", cfg.Database.Driver},
		{"database.dsn", cfg.Database.DSN},
		{"log.level", cfg.Log.Level},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%s = %s\n", CmdStyle.Render(row.key), SuccessStyle.Render(fmt.Sprint(row.value)))
	}
	return nil
}

func initConfig(cmd *cobra.Command) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	path, created, err := config.CreateDefaultConfig(cfgDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !created {
		fmt.Fprintf(out, "%s Config file already exists at %s\n", warningIcon, path)
		return nil
	}
	fmt.Fprintf(out, "%s Created default config at %s\n", successIcon, path)
	return nil
}

func configFilePath(cfgDir string) string {
	return filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
}
