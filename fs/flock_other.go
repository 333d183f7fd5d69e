//go:build !unix

package fs

import "os"

// flockExclusive is a no-op on platforms without an advisory-lock syscall;
// only the in-process ErrBusy check in Open/Format applies there.
func flockExclusive(f *os.File) error { return nil }

func flockRelease(f *os.File) error { return nil }
