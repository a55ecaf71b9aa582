//go:build android || ios

package app

import (
	"github.com/vk/deskshell/modules/dialog"
	"github.com/vk/deskshell/modules/filesystem"
	"github.com/vk/deskshell/modules/opener"
)

// DefaultCatalog is the definitive list of modules compiled into a mobile
// binary. The updater is not linked in.
func DefaultCatalog() Catalog {
	return Catalog{
		Dialog:     dialog.Init,
		Filesystem: filesystem.Init,
		Opener:     opener.Init,
	}
}
