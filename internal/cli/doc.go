// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. Flag
// defaults come from DESKSHELL_* environment variables.
package cli
