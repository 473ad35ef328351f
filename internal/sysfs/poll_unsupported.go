//go:build !linux && !darwin && !windows

package sysfs

import (
	"github.com/smeltlabs/smelt/experimental/sys"
	"github.com/smeltlabs/smelt/internal/fsapi"
)

// poll implements `Poll` as documented on fsapi.File via a file descriptor.
func poll(fd uintptr, flag fsapi.Pflag, timeoutMillis int32) (ready bool, errno sys.Errno) {
	return false, sys.ENOSYS
}
