// Command deskctl invokes a command on a running deskshell bridge and
// prints the result as JSON.
//
//	deskctl [--url http://127.0.0.1:1430] [--timeout 10s] <command> [json-args]
//	deskctl --watch updater://update-available
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/vk/deskshell/internal/bridgeclient"
	"github.com/vk/deskshell/internal/cli"
	"github.com/vk/deskshell/internal/ctxlog"
)

type options struct {
	url     string
	timeout time.Duration
	watch   string
	command string
	args    map[string]any
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()

	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "deskctl: %v\n", err)
		os.Exit(1)
	}
}

func parse(args []string, errW io.Writer) (*options, error) {
	fs := flag.NewFlagSet("deskctl", flag.ContinueOnError)
	fs.SetOutput(errW)

	opts := &options{}
	fs.StringVar(&opts.url, "url", "http://"+cli.DefaultListen, "Bridge URL.")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Time allowed for connecting and for the command.")
	fs.StringVar(&opts.watch, "watch", "", "Print every event broadcast under this name until interrupted.")

	if err := fs.Parse(args); err != nil {
		return nil, &cli.ExitError{Code: 2, Message: err.Error()}
	}

	if opts.watch != "" {
		return opts, nil
	}
	switch fs.NArg() {
	case 1, 2:
	default:
		return nil, &cli.ExitError{Code: 2, Message: "usage: deskctl [options] <command> [json-args]"}
	}
	opts.command = fs.Arg(0)
	if fs.NArg() == 2 {
		if err := json.Unmarshal([]byte(fs.Arg(1)), &opts.args); err != nil {
			return nil, &cli.ExitError{Code: 2, Message: fmt.Sprintf("arguments must be a JSON object: %v", err)}
		}
	}
	return opts, nil
}

func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	opts, err := parse(args, errW)
	if err != nil {
		return err
	}
	ctx = ctxlog.WithLogger(ctx, slog.Default())

	dialCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	client, err := bridgeclient.Dial(dialCtx, opts.url)
	if err != nil {
		return err
	}
	defer client.Close()

	enc := json.NewEncoder(outW)
	enc.SetIndent("", "  ")

	if opts.watch != "" {
		events := make(chan any, 16)
		client.On(opts.watch, func(payload any) { events <- payload })
		for {
			select {
			case <-ctx.Done():
				return nil
			case p := <-events:
				if err := enc.Encode(p); err != nil {
					return err
				}
			}
		}
	}

	callCtx, cancelCall := context.WithTimeout(ctx, opts.timeout)
	defer cancelCall()
	result, err := client.Invoke(callCtx, opts.command, opts.args)
	if err != nil {
		return err
	}
	return enc.Encode(result)
}
