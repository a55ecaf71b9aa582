package host

import "errors"

var (
	// ErrUnknownCommand is returned when no module installed the command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrForbidden is returned when the manifest's permissions do not
	// grant the command.
	ErrForbidden = errors.New("command not allowed")
	// ErrRateLimited is returned when a connection exceeds its invocation budget.
	ErrRateLimited = errors.New("invocation rate exceeded")
	// ErrBadRequest is returned for invocations that do not decode.
	ErrBadRequest = errors.New("malformed invocation")
)
