// Package capabilitytest provides an in-memory capability.Host for module
// tests.
package capabilitytest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/manifest"
)

// Event is one call to Host.Emit.
type Event struct {
	Name    string
	Payload any
}

// Host records handlers and events. It does not check permissions.
type Host struct {
	app *manifest.Context

	mu       sync.Mutex
	handlers map[string]capability.Handler
	events   []Event
}

// NewHost returns a Host serving the given runtime context.
func NewHost(app *manifest.Context) *Host {
	return &Host{app: app, handlers: make(map[string]capability.Handler)}
}

func (h *Host) Handle(command string, fn capability.Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[command] = fn
}

func (h *Host) Emit(event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, Event{Name: event, Payload: payload})
}

func (h *Host) App() *manifest.Context {
	return h.app
}

// Commands returns the installed commands, sorted.
func (h *Host) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.handlers))
	for cmd := range h.handlers {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// Events returns a copy of the emitted events.
func (h *Host) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

// Invoke calls an installed handler directly.
func (h *Host) Invoke(ctx context.Context, command string, args map[string]any) (any, error) {
	h.mu.Lock()
	fn, ok := h.handlers[command]
	h.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("command '%s' not installed", command)
	}
	if args == nil {
		args = map[string]any{}
	}
	return fn(ctx, args)
}
