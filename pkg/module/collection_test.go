// SPDX-License-Identifier: MPL-2.0

package module

import (
	"slices"
	"testing"
)

func persisted(name string, order int) *Module {
	return NewPersisted(1, name, "/modules/"+name, map[string]any{"order": order, "is_active": true})
}

func TestCollection(t *testing.T) {
	t.Parallel()

	c := NewCollection(persisted("blog", 2), persisted("shop", 1))
	c.Push(persisted("legacy", 5))

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if got := c.Names(); !slices.Equal(got, []string{"blog", "shop", "legacy"}) {
		t.Errorf("Names() = %v", got)
	}
	if m, ok := c.Find("shop"); !ok || m.Name() != "shop" {
		t.Error("Find(shop) failed")
	}
	if _, ok := c.Find("cart"); ok {
		t.Error("Find(cart) should be absent")
	}

	sorted := SortBy(c, func(m *Module) int {
		o, _ := m.Order()
		return o
	})
	if got := sorted.Names(); !slices.Equal(got, []string{"shop", "blog", "legacy"}) {
		t.Errorf("SortBy() = %v", got)
	}
	if got := c.Names(); !slices.Equal(got, []string{"blog", "shop", "legacy"}) {
		t.Errorf("SortBy must not reorder the receiver, got %v", got)
	}

	small := c.Filter(func(m *Module) bool {
		o, _ := m.Order()
		return o < 5
	})
	if got := small.Names(); !slices.Equal(got, []string{"blog", "shop"}) {
		t.Errorf("Filter() = %v", got)
	}

	arr, err := c.ToArray()
	if err != nil {
		t.Fatal(err)
	}
	if len(arr) != 3 || arr[0].Name != "blog" || arr[0].Path != "/modules/blog" {
		t.Errorf("ToArray() = %+v", arr)
	}
}

func TestCollection_PushKeepsDuplicates(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	c.Push(persisted("shop", 1))
	c.Push(persisted("shop", 2))
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestSortBy_Stable(t *testing.T) {
	t.Parallel()

	c := NewCollection(persisted("a", 1), persisted("b", 1), persisted("c", 0))
	sorted := SortBy(c, func(m *Module) int {
		o, _ := m.Order()
		return o
	})
	if got := sorted.Names(); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("SortBy() = %v, want [c a b]", got)
	}
}
