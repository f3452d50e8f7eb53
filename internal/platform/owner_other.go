//go:build !unix

package platform

import "io/fs"

// FileOwner always returns 0, 0 on platforms without a UID/GID concept.
func FileOwner(info fs.FileInfo) (uid, gid uint32) {
	return 0, 0
}
