package host

import (
	"context"

	"github.com/vk/deskshell/internal/capability"
	"github.com/vk/deskshell/internal/manifest"
)

// Runtime is a blocking host runtime. Run takes ownership of set and rc
// and does not return while the application is running. A nil return
// means the session ended normally.
type Runtime interface {
	Run(ctx context.Context, set *capability.Set, rc *manifest.Context) error
}
