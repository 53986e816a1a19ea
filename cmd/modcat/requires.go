// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRequiresCommand(app *App) *cobra.Command {
	var transitive bool

	cmd := &cobra.Command{
		Use:   "requires <name>",
		Short: "Show the modules a module requires",
		Long: `Show the modules a module requires.

Requirements are aliases. Each one is resolved to the module carrying that
alias; aliases no module carries are reported as missing. With --transitive
the requirements of requirements are followed too and the result is printed
in the order the modules have to boot in.`,
		Example: `  modcat requires Shop
  modcat requires Shop --transitive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if transitive {
				return app.fail(cmd, runRequiresTransitive(cmd, app, args[0]))
			}
			return app.fail(cmd, runRequires(cmd, app, args[0]))
		},
	}

	cmd.Flags().BoolVar(&transitive, "transitive", false, "follow requirements transitively")

	return cmd
}

func runRequires(cmd *cobra.Command, app *App, name string) error {
	ctx := cmd.Context()

	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	m, err := s.repo.FindOrFail(ctx, name)
	if err != nil {
		return err
	}
	aliases, err := m.Requires()
	if err != nil {
		return err
	}
	requirements, err := s.repo.FindRequirements(ctx, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(aliases) == 0 {
		fmt.Fprintf(out, "%s requires nothing\n", CmdStyle.Render(m.Name()))
		return nil
	}

	fmt.Fprintln(out, TitleStyle.Render(m.Name()+" requires"))
	for i, req := range requirements {
		if req == nil {
			fmt.Fprintf(out, "  %s %s %s\n", errorIcon, aliases[i], ErrorStyle.Render("(missing)"))
			continue
		}
		fmt.Fprintf(out, "  %s %s -> %s %s\n", successIcon, aliases[i], CmdStyle.Render(req.Name()), statusLabel(req.Enabled()))
	}
	return nil
}

func runRequiresTransitive(cmd *cobra.Command, app *App, name string) error {
	ctx := cmd.Context()

	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	graph, err := s.repo.ResolveRequirementGraph(ctx, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, TitleStyle.Render("Boot order for "+graph.Root))
	for i, n := range graph.Order {
		fmt.Fprintf(out, "  %d. %s\n", i+1, CmdStyle.Render(n))
	}

	if len(graph.Missing) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, WarningStyle.Render("Missing requirements"))
		for _, miss := range graph.Missing {
			fmt.Fprintf(out, "  %s %s (required by %s)\n", errorIcon, miss.Alias, miss.Module)
		}
	}
	return nil
}
