package app

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/vk/deskshell/internal/ctxlog"
	"github.com/vk/deskshell/internal/host"
	"github.com/vk/deskshell/internal/manifest"
	"github.com/vk/deskshell/internal/platform"
)

// Manifest is the embedded source the runtime context is generated from.
type Manifest struct {
	Name string
	Data []byte
}

// App encapsulates one bootstrap of the shell.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	runtime  host.Runtime
	manifest Manifest

	catalog Catalog
	family  platform.Family
	env     manifest.Environment

	state atomic.Int32
}

// Option customises an App before it runs.
type Option func(*App)

// WithCatalog replaces the default module catalog.
func WithCatalog(c Catalog) Option {
	return func(a *App) { a.catalog = c }
}

// WithFamily overrides the platform family the set is composed for.
func WithFamily(f platform.Family) Option {
	return func(a *App) { a.family = f }
}

// WithEnvironment sets the values the manifest is evaluated against. The
// default, manifest.BuildEnvironment, resolves no user directories.
func WithEnvironment(env manifest.Environment) Option {
	return func(a *App) { a.env = env }
}

// NewApp is the constructor for the shell. It does no work beyond wiring;
// composition happens in Run.
func NewApp(outW io.Writer, cfg *Config, rt host.Runtime, m Manifest, opts ...Option) *App {
	a := &App{
		outW:     outW,
		logger:   NewLogger(cfg.LogLevel, cfg.LogFormat, outW),
		config:   cfg,
		runtime:  rt,
		manifest: m,
		catalog:  DefaultCatalog(),
		family:   platform.Current(),
		env:      manifest.BuildEnvironment(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger.Debug("Logger configured successfully.")
	return a
}

// State returns the current bootstrap phase.
func (a *App) State() State {
	return State(a.state.Load())
}

// Run composes the module set, generates the runtime context and hands
// both to the runtime. It blocks for as long as the runtime runs. A
// runtime that fails to start is reported as *StartupError. Run is
// one-shot: a second call panics.
func (a *App) Run(ctx context.Context) error {
	if !a.state.CompareAndSwap(int32(StateUnstarted), int32(StateComposing)) {
		panic("app: Run called more than once")
	}
	ctx = ctxlog.WithLogger(ctx, a.logger)

	set := Compose(ctx, a.family, a.catalog)
	a.logger.Debug("Capability modules composed.", "family", a.family, "modules", set.Keys())

	rc := manifest.MustGenerate(a.manifest.Data, a.manifest.Name, a.env)
	a.logger.Debug("Runtime context generated.", "identifier", rc.Identifier, "version", rc.Version)

	a.state.Store(int32(StateLaunching))
	returned := make(chan struct{})
	defer close(returned)
	if r, ok := a.runtime.(interface{ Ready() <-chan struct{} }); ok {
		go a.markRunning(r.Ready(), returned)
	}

	a.logger.Info("🚀 Launching host runtime", "app", rc.Name, "version", rc.Version)
	err := a.runtime.Run(ctx, set, rc)
	if err != nil {
		a.state.Store(int32(StateFailed))
		return &StartupError{App: rc.Name, Err: err}
	}

	a.state.Store(int32(StateExited))
	a.logger.Info("🏁 Host runtime exited.")
	return nil
}

func (a *App) markRunning(ready, returned <-chan struct{}) {
	select {
	case <-ready:
		a.state.CompareAndSwap(int32(StateLaunching), int32(StateRunning))
	case <-returned:
	}
}
