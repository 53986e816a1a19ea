// SPDX-License-Identifier: MPL-2.0

// Package host provides the lifecycle host modcat runs module hooks against.
//
// modcat does not load module code. Its host logs each registration and event
// and keeps an ordered record of them, so `modcat lifecycle` can show what a
// hosting application would receive.
package host

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/invowk/modcat/pkg/module"

	"github.com/charmbracelet/log"
)

const (
	// CallProviders is a RegisterProviders call.
	CallProviders CallKind = "providers"
	// CallAlias is a RegisterAlias call.
	CallAlias CallKind = "alias"
	// CallEvent is a Fire call.
	CallEvent CallKind = "event"
)

type (
	// CallKind identifies the host method a Call was made through.
	CallKind string

	// Call is one recorded lifecycle interaction.
	Call struct {
		Module string
		Kind   CallKind
		// Detail is the provider list, "alias=target" or the event name.
		Detail string
	}

	// Option configures a Host.
	Option func(*Host)

	// Host is a module.Host that logs and records every call.
	Host struct {
		mu       sync.Mutex
		calls    []Call
		logger   *log.Logger
		failures map[string]error
	}
)

var _ module.Host = (*Host)(nil)

// WithLogger sets the logger calls are reported to.
func WithLogger(l *log.Logger) Option {
	return func(h *Host) { h.logger = l }
}

// WithFailure makes the host return err when event fires for the named module.
func WithFailure(name string, event module.Event, err error) Option {
	return func(h *Host) { h.failures[failureKey(name, event)] = err }
}

// New creates a Host.
func New(opts ...Option) *Host {
	h := &Host{failures: make(map[string]error)}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = log.New(io.Discard)
	}
	return h
}

// RegisterProviders implements module.Host.
func (h *Host) RegisterProviders(_ context.Context, m *module.Module, providers []string) error {
	h.logger.Debug("register providers", "module", m.Name(), "providers", providers)
	h.record(Call{Module: m.Name(), Kind: CallProviders, Detail: strings.Join(providers, ",")})
	return nil
}

// RegisterAlias implements module.Host.
func (h *Host) RegisterAlias(_ context.Context, m *module.Module, alias, target string) error {
	h.logger.Debug("register alias", "module", m.Name(), "alias", alias, "target", target)
	h.record(Call{Module: m.Name(), Kind: CallAlias, Detail: alias + "=" + target})
	return nil
}

// Fire implements module.Host.
func (h *Host) Fire(ctx context.Context, m *module.Module, event module.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.logger.Info("module event", "module", m.Name(), "event", event)
	h.record(Call{Module: m.Name(), Kind: CallEvent, Detail: string(event)})

	if err, ok := h.failures[failureKey(m.Name(), event)]; ok {
		return err
	}
	return nil
}

// Calls returns the recorded calls in order.
func (h *Host) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// Events returns "module:event" for every recorded Fire call, in order.
func (h *Host) Events() []string {
	var events []string
	for _, c := range h.Calls() {
		if c.Kind == CallEvent {
			events = append(events, fmt.Sprintf("%s:%s", c.Module, c.Detail))
		}
	}
	return events
}

// Reset drops the recorded calls.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
}

func (h *Host) record(c Call) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, c)
}

func failureKey(name string, event module.Event) string {
	return name + "\x00" + string(event)
}
