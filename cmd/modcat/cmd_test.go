// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/invowk/modcat/internal/config"
	"github.com/invowk/modcat/internal/dag"
	"github.com/invowk/modcat/internal/issue"
	"github.com/invowk/modcat/internal/repository"
	"github.com/invowk/modcat/internal/store"
	"github.com/invowk/modcat/pkg/modmeta"
	"github.com/invowk/modcat/pkg/module"

	"github.com/spf13/afero"
)

type (
	// fixedConfig is a config.Provider returning one configuration.
	fixedConfig struct {
		cfg *config.Config
	}

	cliFixture struct {
		app *App
		fs  afero.Fs
	}
)

func (p fixedConfig) Load(ctx context.Context, _ config.LoadOptions) (*config.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.cfg, nil
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	cfg, err := config.FromMap(map[string]any{
		"database": map[string]any{
			"driver": "sqlite",
			"dsn":    filepath.Join(t.TempDir(), "modcat.db"),
		},
	})
	if err != nil {
		t.Fatalf("config.FromMap() error = %v", err)
	}

	memFs := afero.NewMemMapFs()
	return &cliFixture{
		app: NewApp(Dependencies{Config: fixedConfig{cfg: cfg}, Fs: memFs}),
		fs:  memFs,
	}
}

func (f *cliFixture) writeModule(t *testing.T, name, doc string) string {
	t.Helper()

	dir := filepath.Join("/modules", name)
	if err := afero.WriteFile(f.fs, filepath.Join(dir, "module.json"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand(f.app)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func (f *cliFixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, errOut, err := f.run(t, args...)
	if err != nil {
		t.Fatalf("modcat %s: %v\nstderr: %s", strings.Join(args, " "), err, errOut)
	}
	return out
}

// installScenario installs blog (order 2), shop (order 1) and the disabled legacy module.
func (f *cliFixture) installScenario(t *testing.T) {
	t.Helper()

	for _, m := range []struct{ name, doc string }{
		{"blog", `{"name": "blog", "alias": "blog", "order": 2, "active": true, "requires": ["shop"]}`},
		{"shop", `{"name": "shop", "alias": "shop", "order": 1, "active": true, "providers": ["ShopProvider"], "aliases": {"Cart": "shop.cart"}}`},
		{"legacy", `{"name": "legacy", "alias": "old", "order": 5, "requires": ["shop", "gone"]}`},
	} {
		f.mustRun(t, "install", f.writeModule(t, m.name, m.doc))
	}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error %v is not an ExitError", err)
	}
	return exitErr.Code
}

func TestCLI_InstallAndList(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.installScenario(t)

	out := f.mustRun(t, "list")
	for _, name := range []string{"blog", "shop", "legacy"} {
		if !strings.Contains(out, name) {
			t.Errorf("list output missing %s:\n%s", name, out)
		}
	}

	var snapshots []module.Snapshot
	if err := json.Unmarshal([]byte(f.mustRun(t, "list", "--ordered", "asc", "--json")), &snapshots); err != nil {
		t.Fatalf("list --json output is not JSON: %v", err)
	}
	if len(snapshots) != 2 || snapshots[0].Name != "shop" || snapshots[1].Name != "blog" {
		t.Errorf("ordered snapshots = %+v, want shop then blog", snapshots)
	}

	if got := strings.TrimSpace(f.mustRun(t, "count")); got != "3" {
		t.Errorf("count = %q, want 3", got)
	}

	out = f.mustRun(t, "list", "--disabled")
	if !strings.Contains(out, "legacy") || strings.Contains(out, "blog") {
		t.Errorf("list --disabled = %s", out)
	}
}

func TestCLI_InstallDuplicate(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	dir := f.writeModule(t, "shop", `{"name": "shop"}`)
	f.mustRun(t, "install", dir)

	_, _, err := f.run(t, "install", dir)
	if !errors.Is(err, repository.ErrDuplicateModule) {
		t.Fatalf("second install error = %v, want ErrDuplicateModule", err)
	}
	if code := exitCode(t, err); code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
}

func TestCLI_ShowMissingExitsNotFound(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.installScenario(t)

	for _, args := range [][]string{
		{"show", "missing"},
		{"show", "--alias", "missing"},
		{"enable", "missing"},
		{"delete", "missing"},
		{"requires", "missing"},
	} {
		_, _, err := f.run(t, args...)
		if !errors.Is(err, module.ErrModuleNotFound) {
			t.Errorf("modcat %v error = %v, want ErrModuleNotFound", args, err)
			continue
		}
		if code := exitCode(t, err); code != ExitNotFound {
			t.Errorf("modcat %v exit code = %d, want %d", args, code, ExitNotFound)
		}
	}
}

func TestCLI_Show(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.installScenario(t)

	out := f.mustRun(t, "show", "--alias", "old")
	for _, want := range []string{"legacy", "disabled", "shop, gone"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_EnableDisable(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.installScenario(t)

	f.mustRun(t, "enable", "legacy")
	f.mustRun(t, "disable", "blog")

	var snapshots []module.Snapshot
	if err := json.Unmarshal([]byte(f.mustRun(t, "list", "--enabled", "--json")), &snapshots); err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(snapshots))
	for i, s := range snapshots {
		names[i] = s.Name
	}
	if got := strings.Join(names, ","); got != "shop,legacy" {
		t.Errorf("enabled = %s, want shop,legacy", got)
	}
}

func TestCLI_Requires(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.installScenario(t)

	out := f.mustRun(t, "requires", "legacy")
	if !strings.Contains(out, "shop -> shop") || !strings.Contains(out, "gone (missing)") {
		t.Errorf("requires legacy output:\n%s", out)
	}

	out = f.mustRun(t, "requires", "blog", "--transitive")
	if !strings.Contains(out, "1. shop") || !strings.Contains(out, "2. blog") {
		t.Errorf("requires --transitive output:\n%s", out)
	}
}

func TestCLI_RequiresCycle(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.mustRun(t, "install", f.writeModule(t, "a", `{"name": "a", "alias": "a", "requires": ["b"]}`))
	f.mustRun(t, "install", f.writeModule(t, "b", `{"name": "b", "alias": "b", "requires": ["a"]}`))

	_, _, err := f.run(t, "requires", "a", "--transitive")
	if !errors.Is(err, dag.ErrCycle) {
		t.Fatalf("error = %v, want ErrCycle", err)
	}
}

func TestCLI_Lifecycle(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.installScenario(t)

	out := f.mustRun(t, "lifecycle")
	order := []string{"Cart=shop.cart", "ShopProvider", "register", "boot"}
	last := -1
	for _, want := range order {
		i := strings.Index(out, want)
		if i <= last {
			t.Fatalf("%q out of order in lifecycle output:\n%s", want, out)
		}
		last = i
	}
	if strings.Contains(out, "legacy") {
		t.Errorf("disabled module in lifecycle output:\n%s", out)
	}

	if _, _, err := f.run(t, "lifecycle", "--phase", "teardown"); err == nil {
		t.Error("unknown phase should fail")
	}
}

func TestCLI_Delete(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.installScenario(t)

	f.mustRun(t, "delete", "legacy")
	if exists, _ := afero.DirExists(f.fs, "/modules/legacy"); exists {
		t.Error("delete should remove the module directory")
	}

	f.mustRun(t, "delete", "--keep-files", "blog")
	if exists, _ := afero.DirExists(f.fs, "/modules/blog"); !exists {
		t.Error("delete --keep-files should keep the module directory")
	}

	if got := strings.TrimSpace(f.mustRun(t, "count")); got != "1" {
		t.Errorf("count after deletes = %s, want 1", got)
	}
}

func TestCLI_ListInvalidDirection(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	_, _, err := f.run(t, "list", "--ordered", "sideways")
	if !errors.Is(err, store.ErrInvalidDirection) {
		t.Fatalf("error = %v, want ErrInvalidDirection", err)
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantGuide issue.Id
	}{
		{"not found", &module.NotFoundError{Name: "shop"}, ExitNotFound, issue.ModuleNotFoundId},
		{"wrapped not found", fmt.Errorf("boot: %w", &module.NotFoundError{Name: "shop"}), ExitNotFound, issue.ModuleNotFoundId},
		{"metadata missing", fmt.Errorf("%w in /m", modmeta.ErrMetadataNotFound), ExitFailure, issue.MetadataNotFoundId},
		{"invalid attribute", &module.InvalidAttributeError{Module: "shop", Key: "order"}, ExitFailure, issue.MetadataInvalidId},
		{"duplicate", repository.ErrDuplicateModule, ExitFailure, issue.DuplicateModuleId},
		{"cycle", &dag.CycleError{Cycle: []string{"a", "b", "a"}}, ExitFailure, issue.RequirementCycleId},
		{"permission", fs.ErrPermission, ExitFailure, issue.PermissionDeniedId},
		{
			"actionable guide",
			issue.NewErrorContext().WithOperation("load configuration").WithIssue(issue.ConfigLoadFailedId).BuildError(),
			ExitFailure, issue.ConfigLoadFailedId,
		},
		{"plain", errors.New("boom"), ExitFailure, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, guide := classifyError(tt.err)
			if code != tt.wantCode || guide != tt.wantGuide {
				t.Errorf("classifyError() = %d, %d; want %d, %d", code, guide, tt.wantCode, tt.wantGuide)
			}
		})
	}
}

func TestRenderHints(t *testing.T) {
	t.Parallel()

	err := issue.NewErrorContext().
		WithOperation("open module database").
		WithSuggestion("Check database.dsn").
		Wrap(errors.New("unable to open")).
		BuildError()

	var buf bytes.Buffer
	renderHints(&buf, err, 0, false)
	if !strings.Contains(buf.String(), "Check database.dsn") {
		t.Errorf("hints missing suggestion:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Error chain") {
		t.Errorf("non-verbose hints should not include the error chain:\n%s", buf.String())
	}
}
