//go:build !android && !ios

package app

import (
	"github.com/vk/deskshell/modules/dialog"
	"github.com/vk/deskshell/modules/filesystem"
	"github.com/vk/deskshell/modules/opener"
	"github.com/vk/deskshell/modules/updater"
)

// DefaultCatalog is the definitive list of modules compiled into a
// desktop binary.
func DefaultCatalog() Catalog {
	return Catalog{
		Dialog:     dialog.Init,
		Filesystem: filesystem.Init,
		Opener:     opener.Init,
		Updater:    updater.Init,
	}
}
