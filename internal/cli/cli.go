package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
	"github.com/vk/deskshell/internal/app"
)

// DefaultListen is the bridge address used when neither a flag nor
// DESKSHELL_LISTEN sets one.
const DefaultListen = "127.0.0.1:1430"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// defaults returns flag defaults layered over DESKSHELL_* environment
// variables.
func defaults() *viper.Viper {
	v := viper.New()
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("log_format", "text")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("DESKSHELL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	env := defaults()

	flagSet := flag.NewFlagSet("deskshell", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
deskshell - Desktop application shell.

Usage:
  deskshell [options]

Environment:
  DESKSHELL_LISTEN, DESKSHELL_LOG_LEVEL, DESKSHELL_LOG_FORMAT
    Defaults for the matching options.

Options:
`)
		flagSet.PrintDefaults()
	}

	listenFlag := flagSet.String("listen", env.GetString("listen"), "Address the host bridge listens on.")
	logFormatFlag := flagSet.String("log-format", env.GetString("log_format"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", env.GetString("log_level"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument: %s", flagSet.Arg(0))}
	}
	slog.Debug("Arguments parsed successfully.")

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Listen:    *listenFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
