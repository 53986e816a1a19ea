// SPDX-License-Identifier: MPL-2.0

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/invowk/modcat/internal/discovery"
	"github.com/invowk/modcat/pkg/module"

	"github.com/spf13/afero"
)

type (
	// SyncFailure is a module directory that could not be installed.
	SyncFailure struct {
		Dir string
		Err error
	}

	// SyncReport is the outcome of Sync.
	SyncReport struct {
		Root string
		// Installed are the modules stored by this run.
		Installed []*module.Module
		// Skipped are directories whose module name is already stored.
		Skipped []string
		Failed  []SyncFailure
		// Diagnostics are the non-fatal discovery findings.
		Diagnostics []discovery.Diagnostic
	}

	forgetter interface {
		Forget(dir string)
	}
)

// Sync installs every module directory below root that is not stored yet.
// An empty root means the configured modules path. Directories whose
// metadata cannot be read or stored are reported in Failed and do not stop
// the run.
func (r *Repository) Sync(ctx context.Context, root string, opts ...discovery.Option) (*SyncReport, error) {
	if root == "" {
		root = r.GetPath()
	}

	fsys := r.fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	found, err := discovery.Discover(fsys, root, opts...)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Root: found.Root, Diagnostics: found.Diagnostics}
	for _, c := range found.Candidates {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("sync canceled: %w", err)
		}

		// Metadata may have changed since the last read.
		if f, ok := r.reader.(forgetter); ok {
			f.Forget(c.Dir)
		}

		m, err := r.Install(ctx, c.Dir)
		switch {
		case errors.Is(err, ErrDuplicateModule):
			report.Skipped = append(report.Skipped, c.Dir)
		case err != nil:
			report.Failed = append(report.Failed, SyncFailure{Dir: c.Dir, Err: err})
			r.logger.Warn("module not installed", "dir", c.Dir, "error", err)
		default:
			report.Installed = append(report.Installed, m)
		}
	}

	r.logger.Debug("sync finished", "root", report.Root,
		"installed", len(report.Installed), "skipped", len(report.Skipped), "failed", len(report.Failed))
	return report, nil
}
