//go:build unix

package fs

import (
	"os"

	"golang.org/x/sys/unix"
)

// flockExclusive takes a non-blocking advisory exclusive lock on f's
// descriptor, so two separate processes opening the same image race safely
// instead of silently corrupting it. It returns ErrBusy if another holder
// already has the lock.
func flockExclusive(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if err == unix.EWOULDBLOCK {
			return ErrBusy
		}
		return err
	}
	return nil
}

func flockRelease(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
