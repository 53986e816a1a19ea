// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/invowk/modcat/internal/repository"
	"github.com/invowk/modcat/internal/store"
	"github.com/invowk/modcat/pkg/module"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

type listOptions struct {
	enabled  bool
	disabled bool
	ordered  string
	cached   bool
	json     bool
}

// summaryKeys are shown first by `show`, in this order.
var summaryKeys = []string{module.AttrAlias, module.AttrActive, module.AttrOrder, "path", module.AttrRequires, module.AttrProviders, module.AttrAliases}

func newListCommand(app *App) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List modules in the catalog",
		Long: `List modules in the catalog.

By default every module is listed in storage order. --ordered lists only
enabled modules, sorted by their order attribute, which is the order the
lifecycle runs them in.`,
		Example: `  modcat list
  modcat list --enabled
  modcat list --ordered desc
  modcat list --cached --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, runList(cmd, app, opts))
		},
	}

	cmd.Flags().BoolVar(&opts.enabled, "enabled", false, "list enabled modules only")
	cmd.Flags().BoolVar(&opts.disabled, "disabled", false, "list disabled modules only")
	cmd.Flags().StringVar(&opts.ordered, "ordered", "", "list enabled modules by order (asc or desc)")
	cmd.Flags().BoolVar(&opts.cached, "cached", false, "read through the catalog cache")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print modules as JSON")
	cmd.MarkFlagsMutuallyExclusive("enabled", "disabled", "ordered", "cached")

	return cmd
}

func runList(cmd *cobra.Command, app *App, opts listOptions) error {
	ctx := cmd.Context()

	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	snapshots, err := listSnapshots(ctx, s.repo, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, snapshots)
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(out, SubtitleStyle.Render("No modules found"))
		return nil
	}
	fmt.Fprintln(out, moduleTable(snapshots))
	return nil
}

func listSnapshots(ctx context.Context, repo *repository.Repository, opts listOptions) ([]module.Snapshot, error) {
	var (
		modules []*module.Module
		err     error
	)

	switch {
	case opts.cached:
		return repo.GetCached(ctx)
	case opts.ordered != "":
		dir, dirErr := store.ParseDirection(opts.ordered)
		if dirErr != nil {
			return nil, dirErr
		}
		modules, err = repo.GetOrdered(ctx, dir)
	case opts.enabled:
		modules, err = repo.AllEnabled(ctx)
	case opts.disabled:
		modules, err = repo.AllDisabled(ctx)
	default:
		modules, err = repo.All(ctx)
	}
	if err != nil {
		return nil, err
	}

	return module.NewCollection(modules...).ToArray()
}

func moduleTable(snapshots []module.Snapshot) *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtitleStyle).
		Headers("NAME", "ALIAS", "STATUS", "ORDER", "PATH").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, s := range snapshots {
		t.Row(
			CmdStyle.Render(s.Name),
			s.Alias,
			statusLabel(s.Enabled),
			strconv.Itoa(cast.ToInt(s.Attributes[module.AttrOrder])),
			VerboseStyle.Render(s.Path),
		)
	}
	return t
}

func statusLabel(enabled bool) string {
	if enabled {
		return SuccessStyle.Render("enabled")
	}
	return WarningStyle.Render("disabled")
}

func newShowCommand(app *App) *cobra.Command {
	var byAlias, asJSON bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the attributes of a module",
		Example: `  modcat show Shop
  modcat show --alias shop`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, runShow(cmd, app, args[0], byAlias, asJSON))
		},
	}

	cmd.Flags().BoolVar(&byAlias, "alias", false, "look the module up by alias instead of name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the module as JSON")

	return cmd
}

func runShow(cmd *cobra.Command, app *App, key string, byAlias, asJSON bool) error {
	ctx := cmd.Context()

	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var m *module.Module
	if byAlias {
		m, err = s.repo.FindByAlias(ctx, key)
		if err == nil && m == nil {
			err = &module.NotFoundError{Name: key}
		}
	} else {
		m, err = s.repo.FindOrFail(ctx, key)
	}
	if err != nil {
		return err
	}

	snapshot, err := m.Snapshot()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, snapshot)
	}

	fmt.Fprintf(out, "%s %s\n\n", TitleStyle.Render(snapshot.Name), statusLabel(snapshot.Enabled))

	attrs := maps.Clone(snapshot.Attributes)
	delete(attrs, module.AttrName)
	for _, k := range summaryKeys {
		if v, ok := attrs[k]; ok {
			fmt.Fprintf(out, "%s %s\n", keyStyle.Render(k), formatValue(v))
			delete(attrs, k)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		fmt.Fprintf(out, "%s %s\n", keyStyle.Render(k), formatValue(attrs[k]))
	}
	return nil
}

// formatValue renders an attribute value on one line.
func formatValue(v any) string {
	switch x := v.(type) {
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(x, ", ")
	case map[string]any:
		parts := make([]string, 0, len(x))
		for _, k := range slices.Sorted(maps.Keys(x)) {
			parts = append(parts, k+"="+formatValue(x[k]))
		}
		return strings.Join(parts, ", ")
	default:
		return cast.ToString(v)
	}
}

func newCountCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of modules in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := app.open(ctx)
			if err != nil {
				return app.fail(cmd, err)
			}
			defer func() { _ = s.Close() }()

			n, err := s.repo.Count(ctx)
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
