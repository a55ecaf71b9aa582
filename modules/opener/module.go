// Package opener opens URLs and files with the desktop's default handler.
package opener

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/ctxlog"
)

// allowedSchemes are the URL schemes content may hand to the system.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
}

// Launcher starts the system handler for a target.
type Launcher func(ctx context.Context, target string) error

// Module implements capability.Module for opening URLs and paths.
type Module struct {
	launch Launcher
}

// Init returns the opener module backed by the platform's open command.
func Init() capability.Module {
	return &Module{launch: systemLauncher(runtime.GOOS)}
}

// New returns an opener that launches through fn. Used where the system
// handler must not be spawned.
func New(fn Launcher) *Module {
	return &Module{launch: fn}
}

// Name implements capability.Module.
func (m *Module) Name() string { return "opener" }

// Setup implements capability.Module.
func (m *Module) Setup(_ context.Context, h capability.Host) error {
	h.Handle("opener.open_url", m.openURL)
	h.Handle("opener.open_path", m.openPath)
	return nil
}

func (m *Module) openURL(ctx context.Context, args map[string]any) (any, error) {
	raw, err := capability.String(args, "url")
	if err != nil {
		return nil, err
	}
	if err := checkURL(raw); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Opening URL.", "url", raw)
	if err := m.launch(ctx, raw); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", raw, err)
	}
	return true, nil
}

func (m *Module) openPath(ctx context.Context, args map[string]any) (any, error) {
	p, err := capability.String(args, "path")
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(p); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Opening path.", "path", p)
	if err := m.launch(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	return true, nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", capability.ErrInvalidArgument, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if !allowedSchemes[scheme] {
		return fmt.Errorf("%w: scheme '%s' is not allowed", capability.ErrInvalidArgument, u.Scheme)
	}
	if (scheme == "http" || scheme == "https") && u.Host == "" {
		return fmt.Errorf("%w: url has no host", capability.ErrInvalidArgument)
	}
	return nil
}

// command returns the program and arguments that open target on goos.
func command(goos, target string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos":
		return "xdg-open", []string{target}, nil
	default:
		return "", nil, fmt.Errorf("opening targets is not supported on %s", goos)
	}
}

func systemLauncher(goos string) Launcher {
	return func(ctx context.Context, target string) error {
		name, args, err := command(goos, target)
		if err != nil {
			return err
		}
		// The handler outlives the request, so it is not bound to ctx.
		cmd := exec.Command(name, args...)
		if err := cmd.Start(); err != nil {
			return err
		}
		go func() {
			if err := cmd.Wait(); err != nil {
				ctxlog.FromContext(ctx).Warn("Open handler exited with error.", "program", name, "error", err)
			}
		}()
		return nil
	}
}
