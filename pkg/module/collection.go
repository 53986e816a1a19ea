// SPDX-License-Identifier: MPL-2.0

package module

import (
	"cmp"
	"slices"
)

// Collection is an insertion-ordered list of modules.
// Push does not deduplicate; callers keep names unique.
type Collection struct {
	items []*Module
}

// NewCollection creates a Collection holding modules in the given order.
func NewCollection(modules ...*Module) *Collection {
	return &Collection{items: slices.Clone(modules)}
}

// Push appends m.
func (c *Collection) Push(m *Module) {
	c.items = append(c.items, m)
}

// Len returns the number of modules.
func (c *Collection) Len() int {
	return len(c.items)
}

// Modules returns the modules in order. The slice is a copy.
func (c *Collection) Modules() []*Module {
	return slices.Clone(c.items)
}

// Names returns the module names in order.
func (c *Collection) Names() []string {
	names := make([]string, len(c.items))
	for i, m := range c.items {
		names[i] = m.Name()
	}
	return names
}

// Find returns the first module named name.
func (c *Collection) Find(name string) (*Module, bool) {
	for _, m := range c.items {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// Filter returns a new Collection with the modules keep accepts.
func (c *Collection) Filter(keep func(*Module) bool) *Collection {
	out := &Collection{}
	for _, m := range c.items {
		if keep(m) {
			out.items = append(out.items, m)
		}
	}
	return out
}

// SortBy returns a new Collection stably sorted by key. Equal keys keep their order.
func SortBy[K cmp.Ordered](c *Collection, key func(*Module) K) *Collection {
	items := slices.Clone(c.items)
	slices.SortStableFunc(items, func(a, b *Module) int {
		return cmp.Compare(key(a), key(b))
	})
	return &Collection{items: items}
}

// ToArray materializes the collection as plain snapshots.
func (c *Collection) ToArray() ([]Snapshot, error) {
	out := make([]Snapshot, 0, len(c.items))
	for _, m := range c.items {
		s, err := m.Snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
