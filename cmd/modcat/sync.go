// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/invowk/modcat/internal/discovery"
	"github.com/invowk/modcat/internal/repository"
	"github.com/invowk/modcat/internal/watch"

	"github.com/spf13/cobra"
)

type syncOptions struct {
	recursive bool
	watch     bool
	debounce  time.Duration
	ignore    []string
}

func newSyncCommand(app *App) *cobra.Command {
	opts := syncOptions{}

	cmd := &cobra.Command{
		Use:   "sync [dir]",
		Short: "Install every module directory that is not in the catalog yet",
		Long: `Install every module directory that is not in the catalog yet.

sync looks for module.json, module.cue and module.toml files in the direct
children of dir (default: modules.paths.modules) and installs each module
whose name is not stored. Stored modules are left untouched. With --watch,
sync keeps running and installs modules as their metadata files appear.`,
		Example: `  modcat sync
  modcat sync ./vendor-modules --recursive
  modcat sync --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			return app.fail(cmd, runSync(cmd, app, root, opts))
		},
	}

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "search every depth below dir")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "keep watching dir and install new modules")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "quiet period before a watched change is synced")
	cmd.Flags().StringSliceVar(&opts.ignore, "ignore", nil, "glob patterns, relative to dir, to skip")

	return cmd
}

func runSync(cmd *cobra.Command, app *App, root string, opts syncOptions) error {
	ctx := cmd.Context()

	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	discoveryOpts := []discovery.Option{
		discovery.WithRecursive(opts.recursive),
		discovery.WithIgnore(opts.ignore...),
	}

	out := cmd.OutOrStdout()
	report, err := s.repo.Sync(ctx, root, discoveryOpts...)
	if err != nil {
		return err
	}
	printSyncReport(out, report, app.verbose)

	if !opts.watch {
		return nil
	}

	pattern := discovery.MetadataPattern(opts.recursive)
	w, err := watch.New(watch.Config{
		Root:     report.Root,
		Patterns: []string{pattern},
		Ignore:   opts.ignore,
		Debounce: opts.debounce,
		Logger:   s.logger.WithPrefix("watch"),
		OnChange: func(ctx context.Context, changed []string) error {
			s.logger.Debug("metadata changed", "files", changed)
			next, err := s.repo.Sync(ctx, report.Root, discoveryOpts...)
			if err != nil {
				return err
			}
			printSyncReport(out, next, app.verbose)
			return nil
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Watching %s for module metadata (%s)\n",
		warningIcon, CmdStyle.Render(report.Root), VerboseStyle.Render(pattern))
	return w.Run(ctx)
}

// printSyncReport lists installed and failed modules. Skipped directories and
// diagnostics are shown only in verbose mode.
func printSyncReport(w io.Writer, report *repository.SyncReport, verbose bool) {
	for _, m := range report.Installed {
		fmt.Fprintf(w, "%s Installed %s from %s (%s)\n",
			successIcon, CmdStyle.Render(m.Name()), VerboseStyle.Render(m.Path()), statusLabel(m.Enabled()))
	}
	for _, f := range report.Failed {
		fmt.Fprintf(w, "%s %s: %v\n", errorIcon, f.Dir, f.Err)
	}
	if verbose {
		for _, dir := range report.Skipped {
			fmt.Fprintf(w, "%s %s already in the catalog\n", warningIcon, VerboseStyle.Render(dir))
		}
		for _, d := range report.Diagnostics {
			fmt.Fprintf(w, "%s %s: %s\n", warningIcon, VerboseStyle.Render(d.Dir), d.Message)
		}
	}

	fmt.Fprintf(w, "%d installed, %d already present, %d failed\n",
		len(report.Installed), len(report.Skipped), len(report.Failed))
}
