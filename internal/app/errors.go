package app

import "fmt"

// StartupError reports that the host runtime could not start. It is the
// only runtime error class the bootstrap produces; the caller is expected
// to terminate the process.
type StartupError struct {
	App string
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("error while running %s: %v", e.App, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
