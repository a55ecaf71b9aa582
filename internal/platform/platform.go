package platform

import (
	"fmt"
	"runtime"
)

// Family groups targets by the capabilities their host runtime supports.
type Family int

const (
	// Desktop covers every target that is not a mobile OS.
	Desktop Family = iota
	// Mobile covers android and ios.
	Mobile
)

// String implements fmt.Stringer.
func (f Family) String() string {
	switch f {
	case Desktop:
		return "desktop"
	case Mobile:
		return "mobile"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Classify maps a GOOS value to its family.
func Classify(goos string) Family {
	switch goos {
	case "android", "ios":
		return Mobile
	default:
		return Desktop
	}
}

// current is evaluated once at package initialisation.
var current = Classify(runtime.GOOS)

// Current returns the family of the running binary.
func Current() Family {
	return current
}

// Target returns the "<os>-<arch>" key used by update manifests, for
// example "linux-x86_64" or "darwin-aarch64".
func Target(goos, goarch string) string {
	var arch string
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	case "arm":
		arch = "armv7"
	default:
		arch = goarch
	}
	return goos + "-" + arch
}

// CurrentTarget returns Target for the running binary.
func CurrentTarget() string {
	return Target(runtime.GOOS, runtime.GOARCH)
}
