package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/deskshell/internal/platform"
)

func TestRun_SuccessBlocksUntilRuntimeReturns(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	rt := newStubRuntime(nil, true)
	a, _ := newTestApp(t, rt, WithCatalog((&countingCatalog{}).catalog()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// --- Act / Assert ---
	select {
	case err := <-done:
		t.Fatalf("Run returned while the runtime was running: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
	require.Eventually(t, func() bool { return a.State() == StateRunning }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the runtime stopped")
	}
	assert.Equal(t, StateExited, a.State())
	assert.Equal(t, int32(1), rt.calls.Load())
}

func TestRun_FailureIsStartupError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	cause := errors.New("no window system available")
	rt := newStubRuntime(cause, false)
	a, logs := newTestApp(t, rt, WithCatalog((&countingCatalog{}).catalog()))

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	var startupErr *StartupError
	require.ErrorAs(t, err, &startupErr)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "testapp", startupErr.App)
	assert.Equal(t, "error while running testapp: no window system available", err.Error())
	assert.Equal(t, StateFailed, a.State())
	assert.Equal(t, int32(1), rt.calls.Load())
	assert.Contains(t, logs.String(), "Launching host runtime")
}

func TestRun_HandsComposedSetAndContextToRuntime(t *testing.T) {
	t.Parallel()

	for _, family := range []platform.Family{platform.Desktop, platform.Mobile} {
		t.Run(family.String(), func(t *testing.T) {
			t.Parallel()

			counts := &countingCatalog{}
			rt := newStubRuntime(nil, false)
			a, _ := newTestApp(t, rt, WithCatalog(counts.catalog()), WithFamily(family))

			require.NoError(t, a.Run(context.Background()))

			want := []string{"dialog", "filesystem", "opener"}
			if family == platform.Desktop {
				want = append(want, "updater")
			}
			assert.Equal(t, want, rt.seenKeys())
			require.NotNil(t, rt.rc)
			assert.Equal(t, "dev.example.testapp", rt.rc.Identifier)
		})
	}
}

func TestRun_IsOneShot(t *testing.T) {
	t.Parallel()

	rt := newStubRuntime(errors.New("fail"), false)
	a, _ := newTestApp(t, rt, WithCatalog((&countingCatalog{}).catalog()))

	require.Error(t, a.Run(context.Background()))
	assert.PanicsWithValue(t, "app: Run called more than once", func() {
		_ = a.Run(context.Background())
	})
	assert.Equal(t, int32(1), rt.calls.Load(), "the runtime is never invoked twice")
}

func TestRun_InvalidEmbeddedManifestPanicsBeforeLaunch(t *testing.T) {
	t.Parallel()

	rt := newStubRuntime(nil, false)
	cfg := &Config{Listen: "127.0.0.1:0"}
	a := NewApp(&SafeBuffer{}, cfg, rt, Manifest{Name: "broken.hcl", Data: []byte("name = ")},
		WithEnvironment(testEnv), WithCatalog((&countingCatalog{}).catalog()))

	assert.Panics(t, func() { _ = a.Run(context.Background()) })
	assert.Equal(t, int32(0), rt.calls.Load())
	assert.Equal(t, StateComposing, a.State())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unstarted", StateUnstarted.String())
	assert.Equal(t, "composing", StateComposing.String())
	assert.Equal(t, "launching", StateLaunching.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "exited", StateExited.String())
	assert.Equal(t, "state(42)", State(42).String())
}
