package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/deskshell/internal/platform"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/mod/semver"
)

// Environment supplies the values the manifest can reference through the
// "platform" and "path" variables.
type Environment struct {
	Family    platform.Family
	GOOS      string
	GOARCH    string
	ConfigDir string
	DataDir   string
	HomeDir   string
}

// BuildEnvironment describes the running binary only. It reads no
// environment variables; every "path" variable is unresolved.
func BuildEnvironment() Environment {
	return Environment{
		Family: platform.Current(),
		GOOS:   runtime.GOOS,
		GOARCH: runtime.GOARCH,
	}
}

// DefaultEnvironment describes the running binary and the current user.
// It reads HOME and the XDG variables. Directories that cannot be
// resolved are left empty.
func DefaultEnvironment() Environment {
	home, _ := os.UserHomeDir()
	config, _ := os.UserConfigDir()

	return Environment{
		Family:    platform.Current(),
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		ConfigDir: config,
		DataDir:   dataDir(runtime.GOOS, home, config),
		HomeDir:   home,
	}
}

func dataDir(goos, home, config string) string {
	switch goos {
	case "darwin", "windows", "ios", "android":
		return config
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg
	}
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".local", "share")
}

func (e Environment) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"platform": cty.ObjectVal(map[string]cty.Value{
				"family": cty.StringVal(e.Family.String()),
				"os":     cty.StringVal(e.GOOS),
				"arch":   cty.StringVal(e.GOARCH),
				"target": cty.StringVal(platform.Target(e.GOOS, e.GOARCH)),
			}),
			"path": cty.ObjectVal(map[string]cty.Value{
				"config": dirValue(e.ConfigDir),
				"data":   dirValue(e.DataDir),
				"home":   dirValue(e.HomeDir),
			}),
		},
	}
}

// dirValue maps an unresolved directory to null, so a manifest that
// interpolates it fails to decode instead of yielding a path below "/".
func dirValue(dir string) cty.Value {
	if dir == "" {
		return cty.NullVal(cty.String)
	}
	return cty.StringVal(dir)
}

// Generate decodes an HCL manifest into a Context.
func Generate(src []byte, filename string, env Environment) (*Context, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}

	var c Context
	diags = gohcl.DecodeBody(file.Body, env.evalContext(), &c)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", filename, diags)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", filename, err)
	}
	return &c, nil
}

// MustGenerate is Generate for manifests embedded at build time. It panics
// when the manifest does not decode.
func MustGenerate(src []byte, filename string, env Environment) *Context {
	c, err := Generate(src, filename, env)
	if err != nil {
		panic(fmt.Errorf("failed to generate runtime context: %w", err))
	}
	return c
}

func (c *Context) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if c.Identifier == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	if !semver.IsValid("v" + c.Version) {
		return fmt.Errorf("version %q is not a semantic version", c.Version)
	}
	if c.Updater != nil && len(c.Updater.Endpoints) == 0 {
		return fmt.Errorf("updater block declares no endpoints")
	}
	return nil
}
