package fs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Magic identifies a formatted filesystem image.
const Magic uint32 = 0xdcc605f5

// Block numbers fixed by format.
const (
	SuperblockBlock   uint32 = 0
	RootNodeInfoBlock uint32 = 1
	RootInodeBlock    uint32 = 2
)

// Inode modes.
const (
	ModeDirectory   uint32 = 0
	ModeRegularHead uint32 = 1
	ModeChild       uint32 = 2
)

// MinBlockSize is the smallest block size Format accepts: large enough to
// hold a superblock header, a nodeinfo header plus a usable name, and an
// inode header plus at least one link or a few payload bytes.
const MinBlockSize = 64

// MinBlockCount is the smallest image Format accepts: superblock, root
// nodeinfo, root inode, and at least a handful of free blocks.
const MinBlockCount = 8

// superblockHeaderSize is the persisted portion of block 0.
const superblockHeaderSize = 4 + 4 + 4 + 4 + 4 + 4 // magic,blockSize,totalBlocks,freeBlocks,rootInode,freeList

// nodeInfoHeaderSize is the persisted, fixed portion of a nodeinfo block;
// the rest of the block is the name field, its capacity derived from the
// filesystem's block size.
const nodeInfoHeaderSize = 8 + 4 + 4 // size, reserved[2]

// inodeHeaderSize is the persisted, fixed portion of an inode block; the
// rest of the block is the payload (directory links or file data), its
// capacity derived from the filesystem's block size, never hard-coded.
const inodeHeaderSize = 4 + 4 + 4 + 4 + 4 // mode,parent,meta,next,reserved

// onDiskSuperblock is the persisted layout of block 0.
type onDiskSuperblock struct {
	Magic       uint32
	BlockSize   uint32
	TotalBlocks uint32
	FreeBlocks  uint32
	RootInode   uint32
	FreeList    uint32
}

func marshalSuperblock(sb onDiskSuperblock, blockSize int) []byte {
	buf := make([]byte, blockSize)
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, sb)
	copy(buf, b.Bytes())
	return buf
}

func unmarshalSuperblock(buf []byte) (onDiskSuperblock, error) {
	var sb onDiskSuperblock
	if len(buf) < superblockHeaderSize {
		return sb, fmt.Errorf("fs: superblock block too short")
	}
	r := bytes.NewReader(buf[:superblockHeaderSize])
	if err := binary.Read(r, binary.LittleEndian, &sb); err != nil {
		return sb, err
	}
	return sb, nil
}

// nodeInfo is one named object's metadata block.
type nodeInfo struct {
	Size     uint64 // bytes for files, entry count for directories
	Reserved [2]uint32
	Name     string
}

func marshalNodeInfo(n nodeInfo, blockSize int) ([]byte, error) {
	nameCap := blockSize - nodeInfoHeaderSize
	if len(n.Name)+1 > nameCap {
		return nil, fmt.Errorf("fs: name %q exceeds %d-byte capacity for block size %d", n.Name, nameCap-1, blockSize)
	}
	buf := make([]byte, blockSize)
	binary.LittleEndian.PutUint64(buf[0:8], n.Size)
	binary.LittleEndian.PutUint32(buf[8:12], n.Reserved[0])
	binary.LittleEndian.PutUint32(buf[12:16], n.Reserved[1])
	copy(buf[nodeInfoHeaderSize:], n.Name)
	// buf is already zero-initialized, providing the null terminator.
	return buf, nil
}

func unmarshalNodeInfo(buf []byte) (nodeInfo, error) {
	var n nodeInfo
	if len(buf) < nodeInfoHeaderSize {
		return n, fmt.Errorf("fs: nodeinfo block too short")
	}
	n.Size = binary.LittleEndian.Uint64(buf[0:8])
	n.Reserved[0] = binary.LittleEndian.Uint32(buf[8:12])
	n.Reserved[1] = binary.LittleEndian.Uint32(buf[12:16])
	name := buf[nodeInfoHeaderSize:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	n.Name = string(name)
	return n, nil
}

// inode is one block of an object's chain: mode/parent/meta/next plus a
// payload whose interpretation depends on mode (directory link entries, or
// raw file data).
type inode struct {
	Mode    uint32
	Parent  uint32 // for children: the chain's head inode block
	Meta    uint32 // nodeinfo block, meaningful on the head inode only
	Next    uint32 // next inode in this object's chain, 0 = end
	Payload []byte // length == blockSize - inodeHeaderSize
}

func newInode(blockSize int) inode {
	return inode{Payload: make([]byte, blockSize-inodeHeaderSize)}
}

func marshalInode(in inode, blockSize int) []byte {
	buf := make([]byte, blockSize)
	binary.LittleEndian.PutUint32(buf[0:4], in.Mode)
	binary.LittleEndian.PutUint32(buf[4:8], in.Parent)
	binary.LittleEndian.PutUint32(buf[8:12], in.Meta)
	binary.LittleEndian.PutUint32(buf[12:16], in.Next)
	copy(buf[inodeHeaderSize:], in.Payload)
	return buf
}

func unmarshalInode(buf []byte) (inode, error) {
	var in inode
	if len(buf) < inodeHeaderSize {
		return in, fmt.Errorf("fs: inode block too short")
	}
	in.Mode = binary.LittleEndian.Uint32(buf[0:4])
	in.Parent = binary.LittleEndian.Uint32(buf[4:8])
	in.Meta = binary.LittleEndian.Uint32(buf[8:12])
	in.Next = binary.LittleEndian.Uint32(buf[12:16])
	in.Payload = append([]byte(nil), buf[inodeHeaderSize:]...)
	return in, nil
}

// linkCapacity is the number of directory link entries that fit in one
// inode's payload for the given block size.
func linkCapacity(blockSize int) int {
	return (blockSize - inodeHeaderSize) / 4
}

func (in *inode) link(i int) uint32 {
	return binary.LittleEndian.Uint32(in.Payload[i*4:])
}

func (in *inode) setLink(i int, v uint32) {
	binary.LittleEndian.PutUint32(in.Payload[i*4:], v)
}

// freepage is a block on the superblock's free list.
type freepage struct {
	Next uint32
}

func marshalFreepage(f freepage, blockSize int) []byte {
	buf := make([]byte, blockSize)
	binary.LittleEndian.PutUint32(buf[0:4], f.Next)
	return buf
}

func unmarshalFreepage(buf []byte) (freepage, error) {
	var f freepage
	if len(buf) < 4 {
		return f, fmt.Errorf("fs: freepage block too short")
	}
	f.Next = binary.LittleEndian.Uint32(buf[0:4])
	return f, nil
}
