// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnableCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, setEnabled(cmd, app, args[0], true))
		},
	}
}

func newDisableCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, setEnabled(cmd, app, args[0], false))
		},
	}
}

func setEnabled(cmd *cobra.Command, app *App, name string, enabled bool) error {
	ctx := cmd.Context()

	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if enabled {
		err = s.repo.Enable(ctx, name)
	} else {
		err = s.repo.Disable(ctx, name)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Module %s %s\n", successIcon, CmdStyle.Render(name), statusLabel(enabled))
	return nil
}

func newDeleteCommand(app *App) *cobra.Command {
	var keepFiles bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a module from the catalog",
		Long: `Delete a module from the catalog.

The module record is removed from the database and the module directory is
removed from disk. Use --keep-files to leave the directory in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, runDelete(cmd, app, args[0], keepFiles))
		},
	}

	cmd.Flags().BoolVar(&keepFiles, "keep-files", false, "keep the module directory on disk")

	return cmd
}

func runDelete(cmd *cobra.Command, app *App, name string, keepFiles bool) error {
	ctx := cmd.Context()

	s, err := app.open(ctx, withKeepFiles(keepFiles))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	deleted, err := s.repo.Delete(ctx, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !deleted {
		fmt.Fprintf(out, "%s Module %s was already removed\n", warningIcon, CmdStyle.Render(name))
		return nil
	}
	fmt.Fprintf(out, "%s Module %s deleted\n", successIcon, CmdStyle.Render(name))
	return nil
}
