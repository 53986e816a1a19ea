// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInstallCommand(app *App) *cobra.Command {
	var enable bool

	cmd := &cobra.Command{
		Use:   "install <path>",
		Short: "Add a module directory to the catalog",
		Long: `Add a module directory to the catalog.

The directory must contain a module.json, module.cue or module.toml document
with at least a name. The module is stored enabled only if its metadata sets
active (or is_active), or when --enable is given.`,
		Example: `  modcat install ./modules/Shop
  modcat install ./modules/Blog --enable`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, runInstall(cmd, app, args[0], enable))
		},
	}

	cmd.Flags().BoolVar(&enable, "enable", false, "enable the module after installing it")

	return cmd
}

func runInstall(cmd *cobra.Command, app *App, path string, enable bool) error {
	ctx := cmd.Context()

	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	m, err := s.repo.Install(ctx, dir)
	if err != nil {
		return err
	}
	if enable && m.Disabled() {
		if err := m.Enable(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Installed %s from %s (%s)\n",
		successIcon,
		CmdStyle.Render(m.Name()),
		VerboseStyle.Render(m.Path()),
		statusLabel(m.Enabled()),
	)
	return nil
}
