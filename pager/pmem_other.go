//go:build !unix

package pager

// allocPmem falls back to a plain Go slice on platforms without mmap, same
// shape as a wakeup_windows.go stub relative to its unix implementations.
func allocPmem(nframes, pageSize int) (pmem []byte, release func() error, err error) {
	return make([]byte, nframes*pageSize), func() error { return nil }, nil
}
