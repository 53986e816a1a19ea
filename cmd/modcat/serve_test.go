// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/invowk/modcat/internal/config"
	"github.com/invowk/modcat/internal/store"

	"gorm.io/gorm"
)

func TestCatalogHandler(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.installScenario(t)
	handle := f.app.catalogHandler()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"count", []string{"count"}, 0, "3", ""},
		{"show by alias", []string{"show", "--alias", "old"}, 0, "legacy", ""},
		{"show", []string{"show", "shop"}, 0, "ShopProvider", ""},
		{"requires", []string{"requires", "blog"}, 0, "shop", ""},
		{"list", []string{"list", "--ordered", "asc"}, 0, "blog", ""},
		{"version", []string{"version"}, 0, "modcat", ""},
		{"not found", []string{"show", "missing"}, ExitNotFound, "", "missing"},
		{"mutation refused", []string{"delete", "blog"}, ExitFailure, "", "unknown command"},
		{"install refused", []string{"install", "/modules/blog"}, ExitFailure, "", "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := handle(t.Context(), tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d\nstderr: %s", code, tt.wantCode, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}

	if got := strings.TrimSpace(f.mustRun(t, "count")); got != "3" {
		t.Errorf("catalog changed through the read-only handler: count = %s", got)
	}
}

func TestCatalogHandlerSharesCache(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	f.installScenario(t)

	var reads atomic.Int32
	open := f.app.OpenStore
	f.app.OpenStore = func(ctx context.Context, cfg *config.Config) (*store.GormStore, error) {
		st, err := open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		err = st.DB().Callback().Query().After("gorm:query").Register("modcat:count_reads", func(db *gorm.DB) {
			if db.Statement.Table == store.TableName {
				reads.Add(1)
			}
		})
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	}
	handle := f.app.catalogHandler()

	for i := range 2 {
		var stdout, stderr bytes.Buffer
		if code := handle(t.Context(), []string{"list", "--cached"}, &stdout, &stderr); code != 0 {
			t.Fatalf("session %d: exit code = %d\nstderr: %s", i, code, stderr.String())
		}
		if !strings.Contains(stdout.String(), "legacy") {
			t.Errorf("session %d: stdout = %q, want the full catalog", i, stdout.String())
		}
	}

	if got := reads.Load(); got != 1 {
		t.Errorf("store reads across two cached sessions = %d, want 1", got)
	}
}

func TestServeRejectsInvalidPort(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	_, _, err := f.run(t, "serve", "--port", "70000")
	if err == nil {
		t.Fatal("serve with an out-of-range port should fail")
	}
	if !strings.Contains(err.Error(), "invalid listen port") {
		t.Errorf("error = %v, want an invalid listen port error", err)
	}
}
