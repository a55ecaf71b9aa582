//go:build !android && !ios

package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/deskshell/internal/platform"
)

func TestDefaultCatalog_ComposesRealModules(t *testing.T) {
	t.Parallel()

	set := Compose(context.Background(), platform.Desktop, DefaultCatalog())
	assert.Equal(t, []string{"dialog", "filesystem", "opener", "updater"}, set.Keys())
}
