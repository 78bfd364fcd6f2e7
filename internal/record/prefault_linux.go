//go:build linux

package record

import "golang.org/x/sys/unix"

// MADV_POPULATE_READ was added in Linux 5.14.
// On older kernels, madvise returns EINVAL which we ignore.
const madvPopulateRead = 22

// prefaultRegion asks the kernel to fault in every page of a mapping
// before it is read.
// On older kernels, madvise returns EINVAL which is silently ignored.
func prefaultRegion(data []byte) {
	if len(data) == 0 {
		return
	}
	// Best-effort: ignore all errors (EINVAL on old kernels, or other failures)
	_ = unix.Madvise(data, madvPopulateRead)
}
