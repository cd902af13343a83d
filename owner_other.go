//go:build !unix

package ar

import "io/fs"

// fileOwner returns zero UID/GID on non-Unix systems.
func fileOwner(info fs.FileInfo) (uid, gid uint32) {
	return 0, 0
}
