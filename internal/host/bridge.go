package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/ctxlog"
	"github.com/vk/deskshell/internal/manifest"
	"github.com/zishang520/socket.io/v2/socket"
)

const (
	shutdownTimeout = 5 * time.Second
	// quitDelay leaves time for the app.quit acknowledgement to be flushed.
	quitDelay = 100 * time.Millisecond
)

// Bridge is the Runtime that serves the application content over socket.io.
type Bridge struct {
	addr   string
	logger *slog.Logger

	ready chan struct{}
	once  sync.Once
	bound net.Addr
}

// NewBridge returns a bridge that will listen on addr.
// A nil logger means the logger carried by the Run context is used.
func NewBridge(addr string, logger *slog.Logger) *Bridge {
	return &Bridge{
		addr:   addr,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the bridge is accepting connections.
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// Addr returns the bound address. It is only valid after Ready is closed.
func (b *Bridge) Addr() net.Addr {
	return b.bound
}

// Run installs every module in order, starts serving and blocks until ctx
// is cancelled or the content invokes app.quit.
func (b *Bridge) Run(ctx context.Context, set *capability.Set, rc *manifest.Context) error {
	logger := b.logger
	if logger == nil {
		logger = ctxlog.FromContext(ctx)
	}
	logger = logger.With("app", rc.Identifier)
	ctx = ctxlog.WithLogger(ctx, logger)
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	router := NewRouter(rc, set.Settings(), logger)
	b.installBuiltins(router, set, rc, quit)

	for _, reg := range set.Registrations() {
		mctx := ctxlog.With(ctx, "module", reg.Key)
		if err := reg.Module.Setup(mctx, router.Scope(reg.Key)); err != nil {
			return fmt.Errorf("failed to set up module '%s': %w", reg.Key, err)
		}
		logger.Debug("Module set up.", "module", reg.Key)
	}
	logger.Info("Capability modules installed.", "modules", set.Keys(), "commands", len(router.Commands()))

	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return fmt.Errorf("failed to bind bridge on %s: %w", b.addr, err)
	}

	io := socket.NewServer(nil, nil)
	router.SetEmitter(func(event string, payload any) {
		io.Emit(event, payload)
	})
	limiter := newConnLimiter(set.Settings().InvokeRate, set.Settings().InvokeBurst)
	io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		b.onConnection(ctx, router, limiter, client)
	})

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", io.ServeHandler(nil))
	mux.HandleFunc("/health", healthHandler(logger))
	mux.Handle("/metrics", router.metrics.handler())

	srv := &http.Server{Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	b.bound = ln.Addr()
	b.once.Do(func() { close(b.ready) })
	logger.Info("🪟 Host bridge listening", "address", fmt.Sprintf("http://%s", ln.Addr()), "window", rc.WindowTitle())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Host bridge stopping.", "reason", context.Cause(ctx))
	case err := <-serveErr:
		runErr = fmt.Errorf("bridge server failed: %w", err)
	}

	b.shutdown(srv, io, logger)
	return runErr
}

func (b *Bridge) installBuiltins(router *Router, set *capability.Set, rc *manifest.Context, quit context.CancelFunc) {
	h := router.Scope("app")
	h.Handle("app.info", func(context.Context, map[string]any) (any, error) {
		return map[string]any{
			"name":       rc.Name,
			"identifier": rc.Identifier,
			"version":    rc.Version,
			"modules":    set.Keys(),
			"commands":   router.Commands(),
		}, nil
	})
	h.Handle("app.quit", func(ctx context.Context, _ map[string]any) (any, error) {
		ctxlog.FromContext(ctx).Info("Quit requested by content.")
		time.AfterFunc(quitDelay, quit)
		return true, nil
	})
}

func (b *Bridge) onConnection(ctx context.Context, router *Router, limiter *connLimiter, client *socket.Socket) {
	connID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("conn", connID)
	ctx = ctxlog.WithLogger(ctx, logger)

	limiter.add(connID)
	router.metrics.connections.Inc()
	logger.Debug("Content connected.")

	client.On(InvokeEvent, func(args ...any) {
		if len(args) == 0 {
			return
		}
		ack, ok := args[len(args)-1].(socket.Ack)
		if !ok {
			logger.Warn("Ignoring invoke without acknowledgement.")
			return
		}
		var payload any
		if len(args) > 1 {
			payload = args[0]
		}
		go func() {
			resp := serve(ctx, router, limiter, connID, payload)
			ack([]any{resp.toWire()}, nil)
		}()
	})

	client.On("disconnect", func(...any) {
		limiter.forget(connID)
		router.metrics.connections.Dec()
		logger.Debug("Content disconnected.")
	})
}

// serve turns one raw invoke payload into a Response.
func serve(ctx context.Context, router *Router, limiter *connLimiter, connID string, payload any) Response {
	req, err := ParseRequest(payload)
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if !limiter.allow(connID) {
		router.metrics.invocations.WithLabelValues(req.Command, outcomeRateLimited).Inc()
		return Response{ID: req.ID, Error: ErrRateLimited.Error()}
	}

	logger := ctxlog.FromContext(ctx).With("invocation", req.ID, "command", req.Command)
	result, err := router.Invoke(ctxlog.WithLogger(ctx, logger), req.Command, req.Args)
	if err != nil {
		logger.Debug("Invocation failed.", "error", err)
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, OK: true, Result: result}
}

func (b *Bridge) shutdown(srv *http.Server, io *socket.Server, logger *slog.Logger) {
	io.Close(nil)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Host bridge shutdown failed", "error", err)
		return
	}
	logger.Debug("Host bridge shut down gracefully.")
}
