// Package capability defines the unit of composition for the host process.
//
// A Module is an independently developed capability (file dialogs,
// filesystem access, URL opening, updates). Modules are collected in
// order by a Builder into an immutable Set, which is handed to the host
// runtime exactly once. The runtime calls each module's Setup in
// registration order, so a later module can deliberately replace a
// command an earlier one installed.
package capability
