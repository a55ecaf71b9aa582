package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/manifest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testContext(perms ...string) *manifest.Context {
	return &manifest.Context{
		Name:        "test",
		Identifier:  "dev.example.test",
		Version:     "1.0.0",
		Permissions: perms,
	}
}

func echo(tag string) capability.Handler {
	return func(_ context.Context, args map[string]any) (any, error) {
		return map[string]any{"from": tag, "args": args}, nil
	}
}

func TestRouter_LaterRegistrationOverrides(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := NewRouter(testContext("dialog:default"), capability.DefaultSettings(), discardLogger())
	r.Scope("first").Handle("dialog.message", echo("first"))
	r.Scope("second").Handle("dialog.message", echo("second"))

	// --- Act ---
	out, err := r.Invoke(context.Background(), "dialog.message", nil)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "second", out.(map[string]any)["from"])
	owner, ok := r.Owner("dialog.message")
	require.True(t, ok)
	assert.Equal(t, "second", owner)
}

func TestRouter_UnknownCommandSuggestsClosest(t *testing.T) {
	t.Parallel()

	r := NewRouter(testContext("fs:default"), capability.DefaultSettings(), discardLogger())
	r.Scope("filesystem").Handle("fs.read_dir", echo("fs"))
	r.Scope("filesystem").Handle("fs.remove", echo("fs"))

	_, err := r.Invoke(context.Background(), "fs.read_dri", nil)

	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), "did you mean 'fs.read_dir'?")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.invocations.WithLabelValues("unknown", outcomeUnknown)))
}

func TestRouter_UnknownCommandWithoutNearMatch(t *testing.T) {
	t.Parallel()

	r := NewRouter(testContext(), capability.DefaultSettings(), discardLogger())
	r.Scope("filesystem").Handle("fs.read_dir", echo("fs"))

	_, err := r.Invoke(context.Background(), "updater.check", nil)

	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestRouter_PermissionsAreEnforced(t *testing.T) {
	t.Parallel()

	r := NewRouter(testContext("fs:allow-read-dir"), capability.DefaultSettings(), discardLogger())
	r.Scope("filesystem").Handle("fs.read_dir", echo("fs"))
	r.Scope("filesystem").Handle("fs.remove", echo("fs"))

	_, err := r.Invoke(context.Background(), "fs.read_dir", nil)
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), "fs.remove", nil)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.invocations.WithLabelValues("fs.remove", outcomeForbidden)))
}

func TestRouter_HandlerErrorsAndPanics(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := NewRouter(testContext("x:default"), capability.DefaultSettings(), discardLogger())
	r.Scope("x").Handle("x.fail", func(context.Context, map[string]any) (any, error) { return nil, boom })
	r.Scope("x").Handle("x.panic", func(context.Context, map[string]any) (any, error) { panic("bad module") })

	_, err := r.Invoke(context.Background(), "x.fail", nil)
	require.ErrorIs(t, err, boom)

	_, err = r.Invoke(context.Background(), "x.panic", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panicked: bad module")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.invocations.WithLabelValues("x.panic", outcomePanic)))
}

func TestRouter_InvokeTimeout(t *testing.T) {
	t.Parallel()

	settings := capability.DefaultSettings()
	settings.InvokeTimeout = 20 * time.Millisecond
	r := NewRouter(testContext("x:default"), settings, discardLogger())
	r.Scope("x").Handle("x.wait", func(ctx context.Context, _ map[string]any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := r.Invoke(context.Background(), "x.wait", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRouter_NilArgsBecomeEmptyMap(t *testing.T) {
	t.Parallel()

	r := NewRouter(testContext("x:default"), capability.DefaultSettings(), discardLogger())
	r.Scope("x").Handle("x.args", func(_ context.Context, args map[string]any) (any, error) {
		return args != nil, nil
	})

	out, err := r.Invoke(context.Background(), "x.args", nil)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestRouter_NilHandlerPanics(t *testing.T) {
	t.Parallel()
	r := NewRouter(testContext(), capability.DefaultSettings(), discardLogger())
	assert.Panics(t, func() { r.Scope("x").Handle("x.nil", nil) })
}

func TestRouter_Emit(t *testing.T) {
	t.Parallel()

	r := NewRouter(testContext(), capability.DefaultSettings(), discardLogger())
	h := r.Scope("updater")

	// Without content attached the event is dropped silently.
	h.Emit("updater://update-available", "1.0.1")

	var mu sync.Mutex
	var got []string
	r.SetEmitter(func(event string, payload any) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, event+"="+payload.(string))
	})
	h.Emit("updater://update-available", "1.0.2")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"updater://update-available=1.0.2"}, got)
	assert.Equal(t, "dev.example.test", h.App().Identifier)
}

func TestRouter_CommandsSorted(t *testing.T) {
	t.Parallel()

	r := NewRouter(testContext(), capability.DefaultSettings(), discardLogger())
	r.Scope("b").Handle("b.two", echo("b"))
	r.Scope("a").Handle("a.one", echo("a"))

	assert.Equal(t, []string{"a.one", "b.two"}, r.Commands())
}
