//go:build unix

package pager

import "golang.org/x/sys/unix"

// allocPmem reserves nframes*pageSize bytes of anonymous, zero-filled
// physical memory via mmap on unix, the same primitive a real userfaultfd-
// backed host would hand the pager. The returned release func must be
// called exactly once.
func allocPmem(nframes, pageSize int) (pmem []byte, release func() error, err error) {
	size := nframes * pageSize
	if size == 0 {
		return nil, func() error { return nil }, nil
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return b, func() error { return unix.Munmap(b) }, nil
}
