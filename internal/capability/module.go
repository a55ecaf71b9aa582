package capability

import (
	"context"

	"github.com/vk/deskshell/internal/manifest"
)

// Handler serves one command invoked by the application content. Args is
// the decoded JSON object sent with the invocation; the returned value is
// encoded back to the caller.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Host is the surface a module sees while it is being set up.
type Host interface {
	// Handle installs a handler for a command.
	Handle(command string, h Handler)
	// Emit pushes an event to the application content.
	Emit(event string, payload any)
	// App returns the runtime context the process was launched with.
	App() *manifest.Context
}

// Module is the interface every capability module implements.
type Module interface {
	// Name is the registration key, unique within a Set.
	Name() string
	// Setup installs the module's commands. It runs once, before the host
	// starts accepting invocations; ctx stays valid for the whole run.
	Setup(ctx context.Context, h Host) error
}

// Registration is a module as recorded in a Set.
type Registration struct {
	Key    string
	Module Module
}
