// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for modcat.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the modcat command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modcat",
		Short: "Catalog and lifecycle manager for application modules",
		Long: TitleStyle.Render("modcat") + SubtitleStyle.Render(" - Catalog and lifecycle manager for application modules") + `

modcat keeps a catalog of installed modules in a database, tracks which of
them are enabled, resolves their requirements by alias and runs their
register and boot hooks in order.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Describe a module with a module.json, module.cue or module.toml file
  2. Install it with: modcat install ./modules/Shop
  3. Enable it with: modcat enable Shop

` + SubtitleStyle.Render("Examples:") + `
  modcat sync                   Install new modules from the modules path
  modcat list                   List every module
  modcat list --ordered asc     List enabled modules in boot order
  modcat requires Shop          Show what Shop requires
  modcat lifecycle              Register and boot enabled modules
  modcat serve --port 2222      Serve the catalog read-only over SSH
  modcat config show            Show current configuration`,
		SilenceUsage: true,
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $HOME/.config/modcat/config.cue)")

	rootCmd.AddCommand(
		newListCommand(app),
		newShowCommand(app),
		newCountCommand(app),
		newRequiresCommand(app),
		newEnableCommand(app),
		newDisableCommand(app),
		newDeleteCommand(app),
		newInstallCommand(app),
		newSyncCommand(app),
		newLifecycleCommand(app),
		newServeCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the modcat CLI and exits the process with the resulting status.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// fang overrides rootCmd.Version, so the version goes through fang.WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}
