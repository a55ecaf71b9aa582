package capability

import (
	"fmt"
	"log/slog"
)

// Set is the finalized, ordered collection of registrations. It has no
// mutators.
type Set struct {
	settings Settings
	regs     []Registration
}

// Settings returns the host settings the set was built with.
func (s *Set) Settings() Settings {
	return s.settings
}

// Len returns the number of registrations.
func (s *Set) Len() int {
	return len(s.regs)
}

// Keys returns the registration keys in order.
func (s *Set) Keys() []string {
	keys := make([]string, len(s.regs))
	for i, r := range s.regs {
		keys[i] = r.Key
	}
	return keys
}

// Registrations returns a copy of the registrations in order.
func (s *Set) Registrations() []Registration {
	out := make([]Registration, len(s.regs))
	copy(out, s.regs)
	return out
}

// Has reports whether a module with the given key is registered.
func (s *Set) Has(key string) bool {
	for _, r := range s.regs {
		if r.Key == key {
			return true
		}
	}
	return false
}

// Builder accumulates registrations in order. It is single-use: Build
// seals it.
type Builder struct {
	settings Settings
	regs     []Registration
	built    bool
	logger   *slog.Logger
}

// NewBuilder returns a builder seeded with the given host settings.
func NewBuilder(settings Settings) *Builder {
	return &Builder{settings: settings, logger: slog.Default()}
}

// WithLogger sets the logger registrations are reported to.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Register appends a module. A nil module, an empty key, a duplicate key
// or a call after Build is a programming error and panics.
func (b *Builder) Register(m Module) {
	if b.built {
		panic("capability: Register called after Build")
	}
	if m == nil {
		panic("capability: cannot register a nil module")
	}
	key := m.Name()
	if key == "" {
		panic(fmt.Sprintf("capability: module %T has an empty name", m))
	}
	for _, r := range b.regs {
		if r.Key == key {
			panic(fmt.Sprintf("capability: module '%s' already registered", key))
		}
	}
	b.logger.Debug("Registering capability module.", "key", key, "position", len(b.regs))
	b.regs = append(b.regs, Registration{Key: key, Module: m})
}

// Build seals the builder and returns the set. It can be called once.
func (b *Builder) Build() *Set {
	if b.built {
		panic("capability: Build called twice")
	}
	b.built = true

	regs := make([]Registration, len(b.regs))
	copy(regs, b.regs)
	b.regs = nil
	return &Set{settings: b.settings, regs: regs}
}
