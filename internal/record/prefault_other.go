//go:build !linux

package record

// prefaultRegion is a no-op on non-Linux platforms.
// MADV_POPULATE_READ is Linux 5.14+ specific.
func prefaultRegion(data []byte) {
	// No-op: no efficient prefaulting available on this platform
}
