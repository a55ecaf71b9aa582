// Package updater checks remote endpoints for a newer release of the
// application. Downloading and installing the release is left to the
// content.
package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/ctxlog"
	"github.com/vk/deskshell/internal/manifest"
	"github.com/vk/deskshell/internal/platform"
)

// EventUpdateAvailable is emitted when a scheduled check finds a release.
const EventUpdateAvailable = "updater://update-available"

const defaultTimeout = 30 * time.Second

// ErrNotConfigured is returned by updater.check when the manifest has no
// updater block.
var ErrNotConfigured = errors.New("updater is not configured")

// Module implements capability.Module for update checks.
type Module struct {
	client *http.Client
	target string
}

// Init returns the updater for the running platform.
func Init() capability.Module {
	return New(&http.Client{}, platform.CurrentTarget())
}

// New returns an updater that fetches with client and looks up release
// artifacts for target.
func New(client *http.Client, target string) *Module {
	return &Module{client: client, target: target}
}

// Name implements capability.Module.
func (m *Module) Name() string { return "updater" }

// Setup implements capability.Module. An invalid timeout or schedule in
// the manifest fails setup.
func (m *Module) Setup(ctx context.Context, h capability.Host) error {
	app := h.App()
	cfg := app.Updater

	if cfg == nil {
		h.Handle("updater.check", func(context.Context, map[string]any) (any, error) {
			return nil, ErrNotConfigured
		})
		return nil
	}

	timeout := defaultTimeout
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid updater timeout '%s'", cfg.Timeout)
		}
		timeout = d
	}

	c := &checker{
		client:    m.client,
		target:    m.target,
		current:   app.Version,
		endpoints: cfg.Endpoints,
		timeout:   timeout,
	}

	h.Handle("updater.check", func(ctx context.Context, _ map[string]any) (any, error) {
		return c.check(ctx)
	})

	if cfg.Schedule != "" {
		return schedule(ctx, h, c, cfg)
	}
	return nil
}

func schedule(ctx context.Context, h capability.Host, c *checker, cfg *manifest.Updater) error {
	logger := ctxlog.FromContext(ctx)

	cr := cron.New()
	_, err := cr.AddFunc(cfg.Schedule, func() {
		res, err := c.check(ctx)
		if err != nil {
			logger.Warn("Scheduled update check failed.", "error", err)
			return
		}
		if res.Available {
			logger.Info("Update available.", "version", res.Version)
			h.Emit(EventUpdateAvailable, res)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid updater schedule '%s': %w", cfg.Schedule, err)
	}

	cr.Start()
	logger.Debug("Scheduled update checks.", "schedule", cfg.Schedule)
	go func() {
		<-ctx.Done()
		<-cr.Stop().Done()
	}()
	return nil
}

func expandEndpoint(endpoint, target, current string) string {
	return strings.NewReplacer(
		"{{target}}", target,
		"{{current_version}}", current,
	).Replace(endpoint)
}
