// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"
)

func TestCLI_Sync(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.writeModule(t, "shop", `{"name": "shop", "order": 1, "active": true}`)
	f.writeModule(t, "blog", `{"name": "blog", "order": 2, "requires": ["shop"]}`)
	f.writeModule(t, "broken", `{"alias": "nameless"}`)

	out := f.mustRun(t, "sync", "/modules")
	for _, want := range []string{"Installed shop", "Installed blog", "broken", "2 installed, 0 already present, 1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("sync output missing %q:\n%s", want, out)
		}
	}

	out = f.mustRun(t, "sync", "/modules", "--verbose")
	if !strings.Contains(out, "0 installed, 2 already present, 1 failed") {
		t.Errorf("second sync output:\n%s", out)
	}
	if !strings.Contains(out, "already in the catalog") {
		t.Errorf("verbose sync should list skipped directories:\n%s", out)
	}

	if got := strings.TrimSpace(f.mustRun(t, "count")); got != "2" {
		t.Errorf("count = %q, want 2", got)
	}
}

func TestCLI_SyncMissingDirectory(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	out := f.mustRun(t, "sync", "/nowhere", "--verbose")
	if !strings.Contains(out, "does not exist") || !strings.Contains(out, "0 installed") {
		t.Errorf("sync output:\n%s", out)
	}
}

func TestCLI_SyncInvalidIgnore(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	if _, _, err := f.run(t, "sync", "/modules", "--ignore", "[bad"); err == nil {
		t.Error("sync with a malformed ignore pattern should fail")
	}
}
