// Package manifest generates the runtime context from the application's
// static HCL manifest.
//
// The manifest is compiled into the binary, so a manifest that does not
// decode is a build defect rather than a runtime condition. Callers on the
// startup path use MustGenerate; tools that validate manifest files use
// Generate and report the diagnostics.
package manifest
