// Package platform classifies the build target. The classification is
// derived from runtime.GOOS, which the compiler fixes per binary, so the
// answer never changes during a process lifetime.
package platform
