package manifest

import "strings"

// Context is the runtime context handed to the host runtime alongside the
// composition set. Modules read it; nothing mutates it after generation.
type Context struct {
	Name        string      `hcl:"name"`
	Identifier  string      `hcl:"identifier"`
	Version     string      `hcl:"version"`
	Permissions []string    `hcl:"permissions,optional"`
	Window      *Window     `hcl:"window,block"`
	Filesystem  *Filesystem `hcl:"filesystem,block"`
	Updater     *Updater    `hcl:"updater,block"`
}

// Window describes the main window the content is rendered in.
type Window struct {
	Title  string `hcl:"title,optional"`
	Width  int    `hcl:"width,optional"`
	Height int    `hcl:"height,optional"`
}

// Filesystem holds the directory the filesystem capability is rooted at.
type Filesystem struct {
	Scope string `hcl:"scope"`
}

// Updater configures where update manifests are fetched from.
type Updater struct {
	Endpoints []string `hcl:"endpoints"`
	Schedule  string   `hcl:"schedule,optional"`
	Timeout   string   `hcl:"timeout,optional"`
}

// Allows reports whether the permissions list grants a command. Commands
// are "<namespace>.<operation>". "<namespace>:default" grants every
// operation of the namespace and "<namespace>:allow-<operation>" grants a
// single one, with underscores in the operation written as hyphens.
// Commands in the "app" namespace are always allowed.
func (c *Context) Allows(command string) bool {
	ns, op, ok := strings.Cut(command, ".")
	if !ok || ns == "" || op == "" {
		return false
	}
	if ns == "app" {
		return true
	}

	single := ns + ":allow-" + strings.ReplaceAll(op, "_", "-")
	for _, p := range c.Permissions {
		if p == ns+":default" || p == single {
			return true
		}
	}
	return false
}

// WindowTitle returns the configured title, falling back to the app name.
func (c *Context) WindowTitle() string {
	if c.Window != nil && c.Window.Title != "" {
		return c.Window.Title
	}
	return c.Name
}
