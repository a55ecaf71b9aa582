package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := map[string]Family{
		"linux":   Desktop,
		"darwin":  Desktop,
		"windows": Desktop,
		"freebsd": Desktop,
		"android": Mobile,
		"ios":     Mobile,
	}
	for goos, want := range cases {
		assert.Equal(t, want, Classify(goos), "goos=%s", goos)
	}
}

func TestCurrentMatchesRuntime(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Classify(runtime.GOOS), Current())
	// Repeated reads never change.
	assert.Equal(t, Current(), Current())
}

func TestTarget(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "linux-x86_64", Target("linux", "amd64"))
	assert.Equal(t, "darwin-aarch64", Target("darwin", "arm64"))
	assert.Equal(t, "windows-i686", Target("windows", "386"))
	assert.Equal(t, "linux-armv7", Target("linux", "arm"))
	assert.Equal(t, "linux-riscv64", Target("linux", "riscv64"))
}

func TestFamilyString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "desktop", Desktop.String())
	assert.Equal(t, "mobile", Mobile.String())
	assert.Equal(t, "family(7)", Family(7).String())
}
