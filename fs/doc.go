// Package fs implements a small on-disk filesystem over a flat image file:
// a superblock, named files and directories built from chains of
// fixed-size inode blocks, and a free-block list threaded through the
// image itself.
//
// The original design's C structs for the superblock, nodeinfo, inode, and
// free-list page become fixed-size byte layouts here, marshaled with
// encoding/binary and read/written with positioned I/O
// (os.File.ReadAt/WriteAt) so concurrent accesses never race on a shared
// file offset.
package fs
