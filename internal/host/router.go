package host

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/manifest"
)

// maxSuggestionDistance bounds how different a known command may be from
// an unknown one to be offered as a suggestion.
const maxSuggestionDistance = 3

type route struct {
	owner   string
	handler capability.Handler
}

// Router is the command table modules install into.
type Router struct {
	app      *manifest.Context
	settings capability.Settings
	logger   *slog.Logger
	metrics  *metrics

	mu     sync.RWMutex
	routes map[string]route
	emit   func(event string, payload any)
}

// NewRouter returns an empty router for the given runtime context.
func NewRouter(app *manifest.Context, settings capability.Settings, logger *slog.Logger) *Router {
	return &Router{
		app:      app,
		settings: settings,
		logger:   logger,
		metrics:  newMetrics(),
		routes:   make(map[string]route),
	}
}

// Scope returns the Host a single module is set up against. Commands it
// installs are recorded as owned by key.
func (r *Router) Scope(key string) capability.Host {
	return &scopedHost{router: r, owner: key}
}

// SetEmitter attaches the function events are pushed through.
func (r *Router) SetEmitter(fn func(event string, payload any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit = fn
}

// Commands returns every installed command, sorted.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.routes))
	for cmd := range r.routes {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// Owner returns the module that installed a command.
func (r *Router) Owner(command string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.routes[command]
	return rt.owner, ok
}

func (r *Router) handle(owner, command string, h capability.Handler) {
	if h == nil {
		panic(fmt.Sprintf("host: module '%s' installed a nil handler for '%s'", owner, command))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.routes[command]; ok {
		r.logger.Debug("Command overridden by later module.", "command", command, "previous_owner", prev.owner, "owner", owner)
	}
	r.routes[command] = route{owner: owner, handler: h}
}

func (r *Router) publish(event string, payload any) {
	r.mu.RLock()
	emit := r.emit
	r.mu.RUnlock()

	if emit == nil {
		r.logger.Debug("Dropping event, no content attached.", "event", event)
		return
	}
	emit(event, payload)
}

// Invoke runs a command. The handler gets a context bounded by the
// settings' invoke timeout. A panicking handler is reported as an error.
func (r *Router) Invoke(ctx context.Context, command string, args map[string]any) (result any, err error) {
	r.mu.RLock()
	rt, ok := r.routes[command]
	r.mu.RUnlock()

	if !ok {
		r.metrics.invocations.WithLabelValues("unknown", outcomeUnknown).Inc()
		return nil, fmt.Errorf("%w: '%s'%s", ErrUnknownCommand, command, r.suggest(command))
	}
	if !r.app.Allows(command) {
		r.metrics.invocations.WithLabelValues(command, outcomeForbidden).Inc()
		return nil, fmt.Errorf("%w: '%s' is not granted by the app permissions", ErrForbidden, command)
	}

	if r.settings.InvokeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.settings.InvokeTimeout)
		defer cancel()
	}
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	defer func() {
		r.metrics.duration.WithLabelValues(command).Observe(time.Since(start).Seconds())
		if p := recover(); p != nil {
			r.logger.Error("Command handler panicked.", "command", command, "owner", rt.owner, "panic", p)
			r.metrics.invocations.WithLabelValues(command, outcomePanic).Inc()
			result, err = nil, fmt.Errorf("command '%s' failed: handler panicked: %v", command, p)
		}
	}()

	result, err = rt.handler(ctx, args)
	if err != nil {
		r.metrics.invocations.WithLabelValues(command, outcomeError).Inc()
		return nil, fmt.Errorf("command '%s' failed: %w", command, err)
	}
	r.metrics.invocations.WithLabelValues(command, outcomeOK).Inc()
	return result, nil
}

func (r *Router) suggest(command string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best, bestDist := "", maxSuggestionDistance+1
	for known := range r.routes {
		d := levenshtein.ComputeDistance(command, known)
		if d < bestDist || (d == bestDist && known < best) {
			best, bestDist = known, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf("; did you mean '%s'?", best)
}

// scopedHost implements capability.Host for one module.
type scopedHost struct {
	router *Router
	owner  string
}

func (h *scopedHost) Handle(command string, fn capability.Handler) {
	h.router.handle(h.owner, command, fn)
}

func (h *scopedHost) Emit(event string, payload any) {
	h.router.publish(event, payload)
}

func (h *scopedHost) App() *manifest.Context {
	return h.router.app
}
