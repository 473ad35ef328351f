//go:build tinygo

package sysfs

import (
	"io/fs"

	experimentalsys "github.com/smeltlabs/smelt/experimental/sys"
	"github.com/smeltlabs/smelt/sys"
)

// inoFromFileInfo uses stat to get the inode information of the file.
func inoFromFileInfo(dirPath string, info fs.FileInfo) (ino sys.Inode, errno experimentalsys.Errno) {
	return 0, 0
}
