// Package app composes the capability modules into a set and launches the
// host runtime with it. It owns the bootstrap sequence and nothing else:
// what each module does, and how the runtime serves content, live in their
// own packages.
package app
