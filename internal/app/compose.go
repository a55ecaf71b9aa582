package app

import (
	"context"

	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/ctxlog"
	"github.com/vk/deskshell/internal/platform"
)

// Entry is a capability module's parameterless initialiser.
type Entry func() capability.Module

// Catalog names the initialiser of every module the shell can compose.
type Catalog struct {
	Dialog     Entry
	Filesystem Entry
	Opener     Entry
	// Updater is only called on desktop targets. It is nil in mobile builds.
	Updater Entry
}

// Compose builds the composition set: dialog, filesystem and opener,
// always and in that order, then the updater when family is Desktop. On
// any other family the updater entry is never called. Registrations are
// logged through the logger carried by ctx.
func Compose(ctx context.Context, family platform.Family, catalog Catalog) *capability.Set {
	b := capability.NewBuilder(capability.DefaultSettings()).WithLogger(ctxlog.FromContext(ctx))

	b.Register(mustInit("dialog", catalog.Dialog))
	b.Register(mustInit("filesystem", catalog.Filesystem))
	b.Register(mustInit("opener", catalog.Opener))

	if family == platform.Desktop {
		b.Register(mustInit("updater", catalog.Updater))
	}

	return b.Build()
}

func mustInit(slot string, entry Entry) capability.Module {
	if entry == nil {
		panic("app: catalog has no entry for " + slot)
	}
	return entry()
}
