// Package filesystem grants the application content file access below a
// single scope directory. Every path is resolved through an os.Root, so a
// path that escapes the scope fails the same way a missing file does.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/ctxlog"
	"github.com/vk/deskshell/internal/fsutil"
)

const maxReadSize = 16 << 20

// Module implements capability.Module for filesystem access.
type Module struct {
	root *os.Root
}

// Init returns the filesystem module.
func Init() capability.Module {
	return &Module{}
}

// Name implements capability.Module.
func (m *Module) Name() string { return "filesystem" }

// Entry describes one directory entry returned by fs.read_dir.
type Entry struct {
	Name   string `json:"name"`
	IsDir  bool   `json:"is_dir"`
	IsFile bool   `json:"is_file"`
	Size   int64  `json:"size"`
}

// Setup opens the scope directory and installs the fs.* commands. The
// root is closed when ctx ends.
func (m *Module) Setup(ctx context.Context, h capability.Host) error {
	scope, err := scopeDir(h)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(scope, 0o700); err != nil {
		return fmt.Errorf("failed to create scope directory %s: %w", scope, err)
	}
	root, err := os.OpenRoot(scope)
	if err != nil {
		return fmt.Errorf("failed to open scope directory %s: %w", scope, err)
	}
	m.root = root
	ctxlog.FromContext(ctx).Debug("Filesystem scope opened.", "scope", scope)

	go func() {
		<-ctx.Done()
		root.Close()
	}()

	h.Handle("fs.read_text_file", m.readTextFile)
	h.Handle("fs.write_text_file", m.writeTextFile)
	h.Handle("fs.read_dir", m.readDir)
	h.Handle("fs.exists", m.exists)
	h.Handle("fs.mkdir", m.mkdir)
	h.Handle("fs.remove", m.remove)
	h.Handle("fs.find", m.find)
	return nil
}

func scopeDir(h capability.Host) (string, error) {
	app := h.App()
	if app.Filesystem != nil && app.Filesystem.Scope != "" {
		return filepath.Clean(app.Filesystem.Scope), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no filesystem scope configured and no user config directory: %w", err)
	}
	return filepath.Join(base, app.Identifier), nil
}

// relPath normalises a content-supplied path to the slash form os.Root
// and fs.FS expect.
func relPath(args map[string]any) (string, error) {
	p, err := capability.String(args, "path")
	if err != nil {
		return "", err
	}
	p = path.Clean(strings.TrimPrefix(filepath.ToSlash(p), "/"))
	return p, nil
}

func (m *Module) readTextFile(_ context.Context, args map[string]any) (any, error) {
	p, err := relPath(args)
	if err != nil {
		return nil, err
	}
	f, err := m.root.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxReadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxReadSize {
		return nil, fmt.Errorf("file %s exceeds %d bytes", p, maxReadSize)
	}
	return string(data), nil
}

func (m *Module) writeTextFile(ctx context.Context, args map[string]any) (any, error) {
	p, err := relPath(args)
	if err != nil {
		return nil, err
	}
	contents, err := capability.String(args, "contents")
	if err != nil {
		return nil, err
	}
	appendMode, err := capability.OptionalBool(args, "append", false)
	if err != nil {
		return nil, err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := m.root.OpenFile(p, flags, 0o600)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(f, contents); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("File written.", "path", p, "bytes", len(contents), "append", appendMode)
	return true, nil
}

func (m *Module) readDir(_ context.Context, args map[string]any) (any, error) {
	p, err := capability.OptionalString(args, "path", ".")
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(m.root.FS(), path.Clean(strings.TrimPrefix(filepath.ToSlash(p), "/")))
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		entry := Entry{Name: e.Name(), IsDir: e.IsDir(), IsFile: e.Type().IsRegular()}
		if info, err := e.Info(); err == nil && entry.IsFile {
			entry.Size = info.Size()
		}
		out = append(out, entry)
	}
	return out, nil
}

func (m *Module) exists(_ context.Context, args map[string]any) (any, error) {
	p, err := relPath(args)
	if err != nil {
		return nil, err
	}
	_, err = m.root.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return nil, err
	}
}

func (m *Module) mkdir(_ context.Context, args map[string]any) (any, error) {
	p, err := relPath(args)
	if err != nil {
		return nil, err
	}
	recursive, err := capability.OptionalBool(args, "recursive", false)
	if err != nil {
		return nil, err
	}

	if !recursive {
		if err := m.root.Mkdir(p, 0o700); err != nil {
			return nil, err
		}
		return true, nil
	}

	current := ""
	for _, part := range strings.Split(p, "/") {
		current = path.Join(current, part)
		if err := m.root.Mkdir(current, 0o700); err != nil && !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
	}
	return true, nil
}

func (m *Module) remove(_ context.Context, args map[string]any) (any, error) {
	p, err := relPath(args)
	if err != nil {
		return nil, err
	}
	if p == "." {
		return nil, fmt.Errorf("%w: refusing to remove the scope root", capability.ErrInvalidArgument)
	}
	if err := m.root.Remove(p); err != nil {
		return nil, err
	}
	return true, nil
}

func (m *Module) find(_ context.Context, args map[string]any) (any, error) {
	dir, err := capability.OptionalString(args, "path", ".")
	if err != nil {
		return nil, err
	}
	ext, err := capability.OptionalString(args, "extension", "")
	if err != nil {
		return nil, err
	}
	limit, err := capability.OptionalInt(args, "limit", 1000)
	if err != nil {
		return nil, err
	}

	files, err := fsutil.FindFilesByExtension(m.root.FS(), strings.TrimPrefix(filepath.ToSlash(dir), "/"), ext, limit)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}
