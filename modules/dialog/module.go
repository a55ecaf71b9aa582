// Package dialog shows native message boxes and file pickers on behalf of
// the application content.
package dialog

import (
	"context"
	"fmt"
	"runtime"

	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/ctxlog"
)

// Module implements capability.Module for native dialogs.
type Module struct {
	presenter Presenter
}

// Init returns the dialog module backed by the platform presenter.
func Init() capability.Module {
	return &Module{presenter: NewScriptPresenter(runtime.GOOS, execRunner)}
}

// New returns a dialog module using p.
func New(p Presenter) *Module {
	return &Module{presenter: p}
}

// Name implements capability.Module.
func (m *Module) Name() string { return "dialog" }

// Setup implements capability.Module.
func (m *Module) Setup(_ context.Context, h capability.Host) error {
	defaultTitle := h.App().WindowTitle()

	h.Handle("dialog.message", func(ctx context.Context, args map[string]any) (any, error) {
		req, err := messageRequest(args, defaultTitle)
		if err != nil {
			return nil, err
		}
		ctxlog.FromContext(ctx).Debug("Showing message dialog.", "level", req.Level)
		if err := m.presenter.Message(ctx, req); err != nil {
			return nil, err
		}
		return true, nil
	})

	h.Handle("dialog.confirm", func(ctx context.Context, args map[string]any) (any, error) {
		req, err := messageRequest(args, defaultTitle)
		if err != nil {
			return nil, err
		}
		return m.presenter.Confirm(ctx, req)
	})

	h.Handle("dialog.open", func(ctx context.Context, args map[string]any) (any, error) {
		req, err := fileRequest(args, defaultTitle)
		if err != nil {
			return nil, err
		}
		paths, err := m.presenter.Open(ctx, req)
		if err != nil || len(paths) == 0 {
			return nil, err
		}
		if !req.Multiple {
			return paths[0], nil
		}
		return paths, nil
	})

	h.Handle("dialog.save", func(ctx context.Context, args map[string]any) (any, error) {
		req, err := fileRequest(args, defaultTitle)
		if err != nil {
			return nil, err
		}
		p, err := m.presenter.Save(ctx, req)
		if err != nil || p == "" {
			return nil, err
		}
		return p, nil
	})
	return nil
}

func messageRequest(args map[string]any, defaultTitle string) (MessageRequest, error) {
	msg, err := capability.String(args, "message")
	if err != nil {
		return MessageRequest{}, err
	}
	title, err := capability.OptionalString(args, "title", defaultTitle)
	if err != nil {
		return MessageRequest{}, err
	}
	level, err := capability.OptionalString(args, "kind", LevelInfo)
	if err != nil {
		return MessageRequest{}, err
	}
	switch level {
	case LevelInfo, LevelWarning, LevelError:
	default:
		return MessageRequest{}, fmt.Errorf("%w: kind must be info, warning or error", capability.ErrInvalidArgument)
	}
	return MessageRequest{Title: title, Message: msg, Level: level}, nil
}

func fileRequest(args map[string]any, defaultTitle string) (FileRequest, error) {
	var req FileRequest
	var err error
	if req.Title, err = capability.OptionalString(args, "title", defaultTitle); err != nil {
		return req, err
	}
	if req.DefaultPath, err = capability.OptionalString(args, "default_path", ""); err != nil {
		return req, err
	}
	if req.Directory, err = capability.OptionalBool(args, "directory", false); err != nil {
		return req, err
	}
	if req.Multiple, err = capability.OptionalBool(args, "multiple", false); err != nil {
		return req, err
	}
	return req, nil
}
