// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestTopologicalSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edges [][2]string
		nodes []string
		want  []string
	}{
		{name: "empty"},
		{name: "single", nodes: []string{"shop"}, want: []string{"shop"}},
		{
			name:  "chain",
			edges: [][2]string{{"user", "cart"}, {"cart", "shop"}},
			want:  []string{"user", "cart", "shop"},
		},
		{
			name:  "diamond",
			edges: [][2]string{{"core", "cart"}, {"core", "user"}, {"cart", "shop"}, {"user", "shop"}},
			want:  []string{"core", "cart", "user", "shop"},
		},
		{
			name:  "duplicate edges",
			edges: [][2]string{{"cart", "shop"}, {"cart", "shop"}},
			want:  []string{"cart", "shop"},
		},
		{
			name:  "disconnected keeps insertion order",
			nodes: []string{"blog", "legacy"},
			edges: [][2]string{{"cart", "shop"}},
			want:  []string{"blog", "legacy", "cart", "shop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New()
			for _, n := range tt.nodes {
				g.AddNode(n)
			}
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}

			order, err := g.TopologicalSort()
			if err != nil {
				t.Fatalf("TopologicalSort() error = %v", err)
			}
			if !slices.Equal(order, tt.want) {
				t.Errorf("TopologicalSort() = %v, want %v", order, tt.want)
			}
		})
	}
}

func TestTopologicalSort_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		nodes     []string
		edges     [][2]string
		wantCycle []string
	}{
		{name: "self", edges: [][2]string{{"shop", "shop"}}, wantCycle: []string{"shop", "shop"}},
		{name: "pair", edges: [][2]string{{"shop", "cart"}, {"cart", "shop"}}, wantCycle: []string{"shop", "cart", "shop"}},
		{
			name:      "triangle",
			edges:     [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
			wantCycle: []string{"a", "b", "c", "a"},
		},
		{
			name:      "downstream modules are not part of the loop",
			edges:     [][2]string{{"shop", "cart"}, {"cart", "shop"}, {"cart", "blog"}},
			wantCycle: []string{"shop", "cart", "shop"},
		},
		{
			name:      "walk starts outside the loop",
			nodes:     []string{"blog"},
			edges:     [][2]string{{"cart", "blog"}, {"user", "cart"}, {"cart", "user"}},
			wantCycle: []string{"cart", "user", "cart"},
		},
		{
			name:      "ordered modules are not reported",
			edges:     [][2]string{{"core", "cart"}, {"cart", "shop"}, {"shop", "cart"}},
			wantCycle: []string{"cart", "shop", "cart"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New()
			for _, n := range tt.nodes {
				g.AddNode(n)
			}
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}

			_, err := g.TopologicalSort()
			if !errors.Is(err, ErrCycle) {
				t.Fatalf("TopologicalSort() error = %v, want ErrCycle", err)
			}
			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("error %v is not a *CycleError", err)
			}
			if !slices.Equal(cycleErr.Cycle, tt.wantCycle) {
				t.Errorf("cycle = %v, want %v", cycleErr.Cycle, tt.wantCycle)
			}
		})
	}
}

func TestGraph_Nodes(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddEdge("cart", "shop")
	g.AddNode("cart")

	if !g.HasNode("shop") || g.HasNode("blog") {
		t.Error("HasNode() mismatch")
	}
	nodes := g.Nodes()
	if !slices.Equal(nodes, []string{"cart", "shop"}) {
		t.Errorf("Nodes() = %v", nodes)
	}
	nodes[0] = "mutated"
	if g.Nodes()[0] != "cart" {
		t.Error("Nodes() must return a copy")
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()

	err := &CycleError{Cycle: []string{"shop", "cart", "shop"}}
	if got := err.Error(); got != "requirement cycle detected: shop -> cart -> shop" {
		t.Errorf("Error() = %q", got)
	}
}
