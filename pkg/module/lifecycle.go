// SPDX-License-Identifier: MPL-2.0

package module

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

const (
	// EventRegister is fired once a module's providers and aliases are registered.
	EventRegister Event = "register"
	// EventBoot is fired when a module boots.
	EventBoot Event = "boot"
)

type (
	// Event names a lifecycle phase.
	Event string

	// Host is the hosting environment that lifecycle hooks delegate into.
	// The module only decides what to hand it and in which order.
	Host interface {
		RegisterProviders(ctx context.Context, m *Module, providers []string) error
		RegisterAlias(ctx context.Context, m *Module, alias, target string) error
		Fire(ctx context.Context, m *Module, event Event) error
	}

	// Bootable is the lifecycle capability the repository dispatches to.
	Bootable interface {
		Register(ctx context.Context) error
		Boot(ctx context.Context) error
	}

	// NopHost accepts every lifecycle call and does nothing.
	NopHost struct{}
)

var _ Bootable = (*Module)(nil)

// RegisterProviders implements Host.
func (NopHost) RegisterProviders(context.Context, *Module, []string) error { return nil }

// RegisterAlias implements Host.
func (NopHost) RegisterAlias(context.Context, *Module, string, string) error { return nil }

// Fire implements Host.
func (NopHost) Fire(context.Context, *Module, Event) error { return nil }

// Register binds the module's class aliases (sorted by alias), then its
// providers in declaration order, then fires EventRegister.
func (m *Module) Register(ctx context.Context) error {
	host := m.lifecycleHost()

	aliases, err := m.StringMap(AttrAliases)
	if err != nil {
		return err
	}
	for _, alias := range slices.Sorted(maps.Keys(aliases)) {
		if err := host.RegisterAlias(ctx, m, alias, aliases[alias]); err != nil {
			return fmt.Errorf("module [%s]: register alias %s: %w", m.name, alias, err)
		}
	}

	providers, err := m.Strings(AttrProviders)
	if err != nil {
		return err
	}
	if len(providers) > 0 {
		if err := host.RegisterProviders(ctx, m, providers); err != nil {
			return fmt.Errorf("module [%s]: register providers: %w", m.name, err)
		}
	}

	if err := host.Fire(ctx, m, EventRegister); err != nil {
		return fmt.Errorf("module [%s]: %s: %w", m.name, EventRegister, err)
	}
	return nil
}

// Boot fires EventBoot for the module.
func (m *Module) Boot(ctx context.Context) error {
	if err := m.lifecycleHost().Fire(ctx, m, EventBoot); err != nil {
		return fmt.Errorf("module [%s]: %s: %w", m.name, EventBoot, err)
	}
	return nil
}

func (m *Module) lifecycleHost() Host {
	if m.host == nil {
		return NopHost{}
	}
	return m.host
}
