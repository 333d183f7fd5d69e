package fs

import "errors"

var (
	// ErrBadMagic is returned by Open/Close when the superblock's magic
	// number doesn't match Magic.
	ErrBadMagic = errors.New("fs: bad superblock magic")

	// ErrBusy is returned by Open/Format when this process already has a
	// filesystem open, or when another process holds the advisory lock on
	// the image file.
	ErrBusy = errors.New("fs: filesystem busy")

	// ErrNoSpace is returned when free blocks are insufficient to satisfy a
	// request, or when Format's target file is smaller than MinBlockCount
	// blocks.
	ErrNoSpace = errors.New("fs: no space")

	// ErrNotFound is returned when path resolution fails to find an object.
	ErrNotFound = errors.New("fs: not found")

	// ErrNotEmpty is returned by Rmdir when the directory has entries.
	ErrNotEmpty = errors.New("fs: directory not empty")

	// ErrNotDirectory is returned when a non-terminal path component, or an
	// operation requiring a directory, names a regular file instead.
	ErrNotDirectory = errors.New("fs: not a directory")

	// ErrIsDirectory is returned when a file-only operation names a
	// directory instead.
	ErrIsDirectory = errors.New("fs: is a directory")

	// ErrInvalidArgument is returned for Format calls with an undersized
	// block size.
	ErrInvalidArgument = errors.New("fs: invalid argument")

	// ErrExists is returned by Mkdir when an entry already exists at the
	// target path.
	ErrExists = errors.New("fs: already exists")
)
