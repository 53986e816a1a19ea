// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/invowk/modcat/internal/dag"
	"github.com/invowk/modcat/internal/issue"
	"github.com/invowk/modcat/internal/repository"
	"github.com/invowk/modcat/pkg/modmeta"
	"github.com/invowk/modcat/pkg/module"

	"github.com/spf13/cobra"
)

// fail renders the hints for err and wraps it in an ExitError carrying the
// matching exit code. The error message itself is printed by fang.
func (a *App) fail(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	cmd.SilenceUsage = true

	code, guide := classifyError(err)
	renderHints(cmd.ErrOrStderr(), err, guide, a.verbose)
	return &ExitError{Code: code, Err: err}
}

// classifyError maps err to an exit code and the guide that explains it.
func classifyError(err error) (int, issue.Id) {
	var ae *issue.ActionableError
	switch {
	case errors.Is(err, module.ErrModuleNotFound):
		return ExitNotFound, issue.ModuleNotFoundId
	case errors.Is(err, modmeta.ErrMetadataNotFound):
		return ExitFailure, issue.MetadataNotFoundId
	case errors.Is(err, module.ErrInvalidAttribute):
		return ExitFailure, issue.MetadataInvalidId
	case errors.Is(err, repository.ErrDuplicateModule):
		return ExitFailure, issue.DuplicateModuleId
	case errors.Is(err, dag.ErrCycle):
		return ExitFailure, issue.RequirementCycleId
	case errors.Is(err, fs.ErrPermission):
		return ExitFailure, issue.PermissionDeniedId
	case errors.As(err, &ae) && ae.Guide != 0:
		return ExitFailure, ae.Guide
	default:
		return ExitFailure, 0
	}
}

// renderHints writes the suggestions of an ActionableError and, in verbose
// mode, its cause chain and the Markdown guide for the issue.
func renderHints(w io.Writer, err error, guide issue.Id, verbose bool) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		// Format starts with the error message, which fang already prints.
		if rest := strings.TrimSpace(strings.TrimPrefix(ae.Format(verbose), ae.Error())); rest != "" {
			fmt.Fprintln(w, SubtitleStyle.Render(rest))
		}
	}

	if !verbose || guide == 0 {
		return
	}

	if entry := issue.Get(guide); entry != nil {
		rendered, renderErr := entry.Render("dark")
		if renderErr != nil {
			fmt.Fprintln(w, WarningStyle.Render("failed to render guide: ")+renderErr.Error())
			return
		}
		fmt.Fprint(w, rendered)
	}
}
