// Command deskshell composes the capability modules for the current
// platform and runs the host bridge until it is interrupted.
package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/deskshell/internal/app"
	"github.com/vk/deskshell/internal/cli"
	"github.com/vk/deskshell/internal/host"
	"github.com/vk/deskshell/internal/manifest"
)

//go:embed app.hcl
var manifestSource []byte

func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:], nil)
	stop()

	exitOnError(os.Stderr, err, os.Exit)
}

// run parses the flags and runs the shell. A nil rt selects the socket.io
// host bridge. User directories for the manifest are resolved here, and a
// panic during startup is returned as an error.
func run(ctx context.Context, outW io.Writer, args []string, rt host.Runtime) (err error) {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	if rt == nil {
		rt = host.NewBridge(cfg.Listen, nil)
	}
	shell := app.NewApp(outW, cfg, rt, app.Manifest{Name: "app.hcl", Data: manifestSource},
		app.WithEnvironment(manifest.DefaultEnvironment()))
	return shell.Run(ctx)
}

// exitOnError is the only place the process terminates with a failure.
func exitOnError(errW io.Writer, err error, exit func(int)) {
	if err == nil {
		return
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(errW, exitErr.Message)
		exit(exitErr.Code)
		return
	}
	fmt.Fprintf(errW, "fatal: %v\n", err)
	exit(1)
}
