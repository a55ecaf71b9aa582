package app

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/manifest"
	"github.com/vk/deskshell/internal/platform"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

var testManifest = Manifest{
	Name: "app.hcl",
	Data: []byte(`
name       = "testapp"
identifier = "dev.example.testapp"
version    = "0.3.0"
permissions = ["dialog:default"]
`),
}

var testEnv = manifest.Environment{
	Family: platform.Desktop,
	GOOS:   "linux",
	GOARCH: "amd64",
}

type stubModule string

func (m stubModule) Name() string                                 { return string(m) }
func (m stubModule) Setup(context.Context, capability.Host) error { return nil }

// countingCatalog records how often each entry was called.
type countingCatalog struct {
	dialog, filesystem, opener, updater atomic.Int32
}

func (c *countingCatalog) catalog() Catalog {
	return Catalog{
		Dialog:     func() capability.Module { c.dialog.Add(1); return stubModule("dialog") },
		Filesystem: func() capability.Module { c.filesystem.Add(1); return stubModule("filesystem") },
		Opener:     func() capability.Module { c.opener.Add(1); return stubModule("opener") },
		Updater:    func() capability.Module { c.updater.Add(1); return stubModule("updater") },
	}
}

// stubRuntime is a host.Runtime whose outcome is fixed by the test.
type stubRuntime struct {
	err   error
	block bool

	calls atomic.Int32
	mu    sync.Mutex
	keys  []string
	rc    *manifest.Context
	ready chan struct{}
}

func newStubRuntime(err error, block bool) *stubRuntime {
	return &stubRuntime{err: err, block: block, ready: make(chan struct{})}
}

func (r *stubRuntime) Ready() <-chan struct{} { return r.ready }

func (r *stubRuntime) Run(ctx context.Context, set *capability.Set, rc *manifest.Context) error {
	r.calls.Add(1)
	r.mu.Lock()
	r.keys = set.Keys()
	r.rc = rc
	r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	close(r.ready)
	if r.block {
		<-ctx.Done()
	}
	return nil
}

func (r *stubRuntime) seenKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys
}

func newTestApp(t *testing.T, rt *stubRuntime, opts ...Option) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	cfg := &Config{Listen: "127.0.0.1:0", LogLevel: "debug", LogFormat: "text"}
	opts = append([]Option{WithEnvironment(testEnv)}, opts...)
	return NewApp(logBuffer, cfg, rt, testManifest, opts...), logBuffer
}
