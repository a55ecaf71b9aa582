// Package bridgeclient talks to a running host bridge the way application
// content does: over socket.io, one acknowledged invoke event per command.
package bridgeclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/vk/deskshell/internal/ctxlog"
	"github.com/vk/deskshell/internal/host"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ErrCommandFailed wraps the error text the bridge returned for a command.
var ErrCommandFailed = errors.New("command failed")

// Client is a connected bridge client.
type Client struct {
	io *socket.Socket
}

// Dial connects to the bridge at rawURL, e.g. "http://127.0.0.1:1430". It
// waits for the connection until ctx is done.
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported bridge URL scheme '%s'", u.Scheme)
	}

	opts := socket.DefaultOptions()
	opts.SetPath("/socket.io/")
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(fmt.Sprintf("%s://%s", u.Scheme, u.Host), opts)
	io := manager.Socket("/", opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to bridge.", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &Client{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	}
}

// Invoke runs command on the bridge and returns its decoded result. A
// command that fails on the bridge returns an error wrapping
// ErrCommandFailed.
func (c *Client) Invoke(ctx context.Context, command string, args map[string]any) (any, error) {
	payload := map[string]any{"id": uuid.NewString(), "command": command}
	if args != nil {
		payload["args"] = args
	}

	timeout := 30 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	type reply struct {
		args []any
		err  error
	}
	done := make(chan reply, 1)
	c.io.Timeout(timeout).EmitWithAck(host.InvokeEvent, payload)(func(args []any, err error) {
		done <- reply{args: args, err: err}
	})

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, fmt.Errorf("no acknowledgement for '%s': %w", command, r.err)
	}
	if len(r.args) == 0 {
		return nil, fmt.Errorf("empty acknowledgement for '%s'", command)
	}

	resp, err := host.ParseResponse(r.args[0])
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s", ErrCommandFailed, resp.Error)
	}
	return resp.Result, nil
}

// On calls fn with the payload of every event the bridge broadcasts under
// name.
func (c *Client) On(name string, fn func(payload any)) {
	c.io.On(types.EventName(name), func(args ...any) {
		var payload any
		if len(args) > 0 {
			payload = args[0]
		}
		fn(payload)
	})
}

// Close disconnects from the bridge.
func (c *Client) Close() {
	c.io.Disconnect()
}
