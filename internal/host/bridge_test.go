package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/deskshell/internal/capability"
)

type fakeModule struct {
	name     string
	setupErr error
	setups   *atomic.Int32
	commands []string
}

func (m *fakeModule) Name() string { return m.name }

func (m *fakeModule) Setup(_ context.Context, h capability.Host) error {
	if m.setups != nil {
		m.setups.Add(1)
	}
	if m.setupErr != nil {
		return m.setupErr
	}
	for _, cmd := range m.commands {
		h.Handle(cmd, echo(m.name))
	}
	return nil
}

func buildSet(mods ...capability.Module) *capability.Set {
	b := capability.NewBuilder(capability.DefaultSettings())
	for _, m := range mods {
		b.Register(m)
	}
	return b.Build()
}

func TestBridge_SetupFailureIsStartupFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var later atomic.Int32
	set := buildSet(
		&fakeModule{name: "dialog", setupErr: errors.New("no display")},
		&fakeModule{name: "filesystem", setups: &later},
	)
	bridge := NewBridge("127.0.0.1:0", discardLogger())

	// --- Act ---
	err := bridge.Run(context.Background(), set, testContext())

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set up module 'dialog': no display")
	assert.Equal(t, int32(0), later.Load(), "modules after a failed one are not set up")
	select {
	case <-bridge.Ready():
		t.Fatal("bridge must not report ready after a startup failure")
	default:
	}
}

func TestBridge_BindFailureIsStartupFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	bridge := NewBridge(busy.Addr().String(), discardLogger())

	// --- Act ---
	err = bridge.Run(context.Background(), buildSet(), testContext())

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind bridge")
}

func TestBridge_RunsUntilCancelled(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var setups atomic.Int32
	set := buildSet(
		&fakeModule{name: "dialog", setups: &setups, commands: []string{"dialog.message"}},
		&fakeModule{name: "opener", setups: &setups, commands: []string{"opener.open_url"}},
	)
	bridge := NewBridge("127.0.0.1:0", discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx, set, testContext("dialog:default")) }()

	// --- Act ---
	select {
	case <-bridge.Ready():
	case err := <-done:
		t.Fatalf("bridge exited before becoming ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not become ready")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/health", bridge.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	metrics, err := http.Get(fmt.Sprintf("http://%s/metrics", bridge.Addr()))
	require.NoError(t, err)
	metrics.Body.Close()

	// --- Assert ---
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
	assert.Equal(t, int32(2), setups.Load())

	select {
	case err := <-done:
		t.Fatalf("bridge returned while running: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("bridge did not stop after cancellation")
	}
}
