// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/invowk/modcat/internal/cache"
	"github.com/invowk/modcat/internal/dag"
	"github.com/invowk/modcat/internal/discovery"
	"github.com/invowk/modcat/internal/repository"
	"github.com/invowk/modcat/internal/store"
	"github.com/invowk/modcat/pkg/modmeta"

	"github.com/spf13/afero"
)

const (
	catalogSize = 50

	sampleJSON = `{
	"name": "Shop",
	"alias": "shop",
	"description": "Storefront and checkout",
	"order": 3,
	"active": true,
	"requires": ["cart", "payments"],
	"providers": ["ShopProvider", "RouteProvider"],
	"aliases": {"Cart": "shop.Cart"},
	"files": ["helpers.go"],
	"keywords": ["shop", "checkout"]
}`

	sampleCUE = `name:        "Shop"
alias:       "shop"
description: "Storefront and checkout"
order:       3
active:      true
requires: ["cart", "payments"]
providers: ["ShopProvider", "RouteProvider"]
aliases: Cart: "shop.Cart"
files: ["helpers.go"]
keywords: ["shop", "checkout"]
`

	sampleTOML = `name = "Shop"
alias = "shop"
description = "Storefront and checkout"
order = 3
active = true
requires = ["cart", "payments"]
providers = ["ShopProvider", "RouteProvider"]
files = ["helpers.go"]
keywords = ["shop", "checkout"]

[aliases]
Cart = "shop.Cart"
`
)

// BenchmarkMetadataParsing benchmarks schema validation and decoding per format.
// This exercises the hot path in pkg/modmeta and pkg/cueutil.
func BenchmarkMetadataParsing(b *testing.B) {
	for _, bc := range []struct {
		format modmeta.Format
		data   string
	}{
		{modmeta.FormatJSON, sampleJSON},
		{modmeta.FormatCUE, sampleCUE},
		{modmeta.FormatTOML, sampleTOML},
	} {
		b.Run(string(bc.format), func(b *testing.B) {
			data := []byte(bc.data)
			for b.Loop() {
				if _, err := modmeta.Parse(data, bc.format, bc.format.FileName()); err != nil {
					b.Fatalf("Parse failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkDiscovery benchmarks scanning a modules directory.
func BenchmarkDiscovery(b *testing.B) {
	fsys := afero.NewMemMapFs()
	for i := range catalogSize {
		path := fmt.Sprintf("/modules/Mod%03d/module.json", i)
		if err := afero.WriteFile(fsys, path, []byte(fmt.Sprintf(`{"name": "Mod%03d"}`, i)), 0o644); err != nil {
			b.Fatalf("write %s: %v", path, err)
		}
	}

	for b.Loop() {
		res, err := discovery.Discover(fsys, "/modules")
		if err != nil {
			b.Fatalf("Discover failed: %v", err)
		}
		if len(res.Candidates) != catalogSize {
			b.Fatalf("found %d modules, want %d", len(res.Candidates), catalogSize)
		}
	}
}

// newCatalog stores catalogSize modules in a chain: each requires the previous one.
func newCatalog(b *testing.B) *repository.Repository {
	b.Helper()

	st, err := store.Open(store.DriverSQLite, filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatalf("open store: %v", err)
	}
	b.Cleanup(func() { _ = st.Close() })
	if err := st.Migrate(b.Context()); err != nil {
		b.Fatalf("migrate: %v", err)
	}

	for i := range catalogSize {
		attrs := map[string]any{"providers": []any{"Provider"}}
		if i > 0 {
			attrs["requires"] = []any{fmt.Sprintf("mod%03d", i-1)}
		}
		rec := &store.Record{
			Name:     fmt.Sprintf("Mod%03d", i),
			Alias:    fmt.Sprintf("mod%03d", i),
			Path:     fmt.Sprintf("/modules/Mod%03d", i),
			IsActive: i%5 != 0,
			Order:    catalogSize - i,
		}
		if err := rec.SetAttributes(attrs); err != nil {
			b.Fatalf("attributes: %v", err)
		}
		if err := st.Create(b.Context(), rec); err != nil {
			b.Fatalf("create %s: %v", rec.Name, err)
		}
	}

	return repository.New(st, cache.NewMemory(), nil)
}

// BenchmarkRepositoryViews benchmarks the store-backed views.
func BenchmarkRepositoryViews(b *testing.B) {
	repo := newCatalog(b)
	ctx := b.Context()

	b.Run("All", func(b *testing.B) {
		for b.Loop() {
			if _, err := repo.All(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("GetOrdered", func(b *testing.B) {
		for b.Loop() {
			if _, err := repo.GetOrdered(ctx, store.Asc); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("Scan", func(b *testing.B) {
		for b.Loop() {
			if _, err := repo.Scan(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("GetCached", func(b *testing.B) {
		for b.Loop() {
			if _, err := repo.GetCached(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkRequirementGraph benchmarks resolving the deepest module of the chain.
func BenchmarkRequirementGraph(b *testing.B) {
	repo := newCatalog(b)
	last := fmt.Sprintf("Mod%03d", catalogSize-1)

	for b.Loop() {
		g, err := repo.ResolveRequirementGraph(b.Context(), last)
		if err != nil {
			b.Fatalf("ResolveRequirementGraph failed: %v", err)
		}
		if len(g.Order) != catalogSize {
			b.Fatalf("boot order has %d modules, want %d", len(g.Order), catalogSize)
		}
	}
}

// BenchmarkTopologicalSort benchmarks ordering a wide requirement graph.
func BenchmarkTopologicalSort(b *testing.B) {
	for b.Loop() {
		g := dag.New()
		for i := range 500 {
			g.AddEdge(fmt.Sprintf("base%d", i%10), fmt.Sprintf("mod%d", i))
		}
		if _, err := g.TopologicalSort(); err != nil {
			b.Fatal(err)
		}
	}
}
