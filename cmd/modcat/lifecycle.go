// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/invowk/modcat/internal/host"
	"github.com/invowk/modcat/internal/issue"

	"github.com/spf13/cobra"
)

const (
	phaseRegister = "register"
	phaseBoot     = "boot"
	phaseAll      = "all"
)

func newLifecycleCommand(app *App) *cobra.Command {
	var phase string

	cmd := &cobra.Command{
		Use:   "lifecycle",
		Short: "Run the register and boot hooks of enabled modules",
		Long: `Run the register and boot hooks of enabled modules.

Enabled modules are visited in ascending order: every module registers
first, then every module boots. The calls each module makes into the host
are printed in the order they happened. The first failing hook stops the run.`,
		Example: `  modcat lifecycle
  modcat lifecycle --phase register`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, runLifecycle(cmd, app, phase))
		},
	}

	cmd.Flags().StringVar(&phase, "phase", phaseAll, "phase to run (register, boot or all)")

	return cmd
}

func runLifecycle(cmd *cobra.Command, app *App, phase string) error {
	if phase != phaseRegister && phase != phaseBoot && phase != phaseAll {
		return fmt.Errorf("invalid phase %q (expected register, boot or all)", phase)
	}

	ctx := cmd.Context()

	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var runErr error
	if phase != phaseBoot {
		runErr = s.repo.Register(ctx)
	}
	if runErr == nil && phase != phaseRegister {
		runErr = s.repo.Boot(ctx)
	}

	out := cmd.OutOrStdout()
	calls := s.host.Calls()
	if len(calls) == 0 && runErr == nil {
		fmt.Fprintln(out, SubtitleStyle.Render("No enabled modules"))
		return nil
	}

	fmt.Fprintln(out, TitleStyle.Render("Lifecycle"))
	for _, c := range calls {
		fmt.Fprintf(out, "  %s %-9s %s\n", CmdStyle.Render(c.Module), c.Kind, callDetail(c))
	}

	if runErr != nil {
		return issue.NewErrorContext().
			WithOperation("run module lifecycle").
			WithResource(phase).
			WithSuggestion("Disable the failing module with 'modcat disable <name>' to continue without it").
			WithIssue(issue.LifecycleFailedId).
			Wrap(runErr).
			BuildError()
	}
	return nil
}

func callDetail(c host.Call) string {
	if c.Kind == host.CallEvent {
		return SuccessStyle.Render(c.Detail)
	}
	return VerboseStyle.Render(c.Detail)
}
