// SPDX-License-Identifier: MPL-2.0

package host

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/modcat/pkg/module"

	"github.com/charmbracelet/log"
)

func newModule(name string, attrs map[string]any, h module.Host) *module.Module {
	return module.NewPersisted(1, name, "/modules/"+name, attrs, module.WithHost(h))
}

func TestHost_RecordsRegisterInOrder(t *testing.T) {
	t.Parallel()

	h := New()
	m := newModule("shop", map[string]any{
		"providers": []any{"ShopProvider", "CartProvider"},
		"aliases":   map[string]any{"Money": "shop.money", "Cart": "shop.cart"},
	}, h)

	if err := m.Register(t.Context()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	want := []Call{
		{Module: "shop", Kind: CallAlias, Detail: "Cart=shop.cart"},
		{Module: "shop", Kind: CallAlias, Detail: "Money=shop.money"},
		{Module: "shop", Kind: CallProviders, Detail: "ShopProvider,CartProvider"},
		{Module: "shop", Kind: CallEvent, Detail: "register"},
	}
	if got := h.Calls(); !slices.Equal(got, want) {
		t.Errorf("Calls() = %v, want %v", got, want)
	}
}

func TestHost_Events(t *testing.T) {
	t.Parallel()

	h := New()
	for _, name := range []string{"shop", "blog"} {
		if err := newModule(name, nil, h).Boot(t.Context()); err != nil {
			t.Fatal(err)
		}
	}

	if got := h.Events(); !slices.Equal(got, []string{"shop:boot", "blog:boot"}) {
		t.Errorf("Events() = %v", got)
	}

	h.Reset()
	if len(h.Calls()) != 0 {
		t.Error("Reset() should drop recorded calls")
	}
}

func TestHost_WithFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	h := New(WithFailure("blog", module.EventBoot, boom))

	if err := newModule("shop", nil, h).Boot(t.Context()); err != nil {
		t.Fatalf("shop Boot() error = %v", err)
	}
	err := newModule("blog", nil, h).Boot(t.Context())
	if !errors.Is(err, boom) {
		t.Fatalf("blog Boot() error = %v, want boom", err)
	}
	if !strings.Contains(err.Error(), "blog") {
		t.Errorf("error should name the module, got %v", err)
	}
}

func TestHost_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	h := New()
	if err := newModule("shop", nil, h).Boot(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Boot() error = %v, want context.Canceled", err)
	}
	if len(h.Calls()) != 0 {
		t.Error("canceled Fire should not be recorded")
	}
}

func TestHost_Logs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := New(WithLogger(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})))

	m := newModule("shop", map[string]any{"providers": []any{"ShopProvider"}}, h)
	if err := m.Register(t.Context()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"register providers", "ShopProvider", "module event", "register"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
