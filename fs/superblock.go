package fs

import (
	"fmt"
	"os"
	"sync"

	"github.com/oscores/oscore/internal/telemetry"
)

// processOpen mirrors the original design's single global "is a filesystem
// open" flag: exactly one Superblock may be open in this process at a time.
// Per-object state (blocks, free list, the file descriptor) lives on the
// owned Superblock handle; only this one boolean gate remains process-wide,
// preserved deliberately rather than encapsulated, since its scope really is
// the process, not any particular handle.
var processOpen struct {
	mu   sync.Mutex
	open bool
}

// Superblock is a handle to an open filesystem image.
type Superblock struct {
	mu sync.Mutex

	f         *os.File
	blockSize int
	logger    *telemetry.Logger

	totalBlocks int
	freeBlocks  int
	rootInode   uint32
	freeList    uint32

	closed bool
}

// Format initializes a new filesystem image in the file at path, which must
// already exist and hold at least MinBlockCount blocks of the configured
// block size. It returns the freshly formatted filesystem, already open.
func Format(path string, opts ...Option) (*Superblock, error) {
	cfg := newConfig(opts)
	if cfg.blockSize < MinBlockSize {
		return nil, fmt.Errorf("%w: block size %d below minimum %d", ErrInvalidArgument, cfg.blockSize, MinBlockSize)
	}

	processOpen.mu.Lock()
	if processOpen.open {
		processOpen.mu.Unlock()
		return nil, ErrBusy
	}
	processOpen.mu.Unlock()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = flockRelease(f)
		_ = f.Close()
		return nil, err
	}
	totalBlocks := int(info.Size() / int64(cfg.blockSize))
	if totalBlocks < MinBlockCount {
		_ = flockRelease(f)
		_ = f.Close()
		return nil, ErrNoSpace
	}

	sb := &Superblock{
		f:           f,
		blockSize:   cfg.blockSize,
		logger:      cfg.logger,
		totalBlocks: totalBlocks,
		rootInode:   RootInodeBlock,
	}

	freeCount := totalBlocks - 3
	if freeCount > 0 {
		sb.freeList = 3
	}
	sb.freeBlocks = freeCount

	if err := sb.persist(); err != nil {
		_ = flockRelease(f)
		_ = f.Close()
		return nil, err
	}

	rootInfo := nodeInfo{Size: 0, Name: "/"}
	if err := sb.writeNodeInfo(RootNodeInfoBlock, rootInfo); err != nil {
		_ = flockRelease(f)
		_ = f.Close()
		return nil, err
	}

	root := newInode(cfg.blockSize)
	root.Mode = ModeDirectory
	root.Parent = RootInodeBlock
	root.Meta = RootNodeInfoBlock
	root.Next = 0
	if err := sb.writeInode(RootInodeBlock, root); err != nil {
		_ = flockRelease(f)
		_ = f.Close()
		return nil, err
	}

	for b := 3; b < totalBlocks; b++ {
		next := uint32(0)
		if b+1 < totalBlocks {
			next = uint32(b + 1)
		}
		if err := sb.writeFreepage(uint32(b), freepage{Next: next}); err != nil {
			_ = flockRelease(f)
			_ = f.Close()
			return nil, err
		}
	}

	processOpen.mu.Lock()
	processOpen.open = true
	processOpen.mu.Unlock()

	sb.logger.Info().Int("blockSize", cfg.blockSize).Int("totalBlocks", totalBlocks).Log("formatted filesystem")
	return sb, nil
}

// Open opens an existing filesystem image, verifying its magic number.
func Open(path string, opts ...Option) (*Superblock, error) {
	cfg := newConfig(opts)

	processOpen.mu.Lock()
	if processOpen.open {
		processOpen.mu.Unlock()
		return nil, ErrBusy
	}
	processOpen.mu.Unlock()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	hdr := make([]byte, superblockHeaderSize)
	if _, err := f.ReadAt(hdr, 0); err != nil {
		_ = flockRelease(f)
		_ = f.Close()
		return nil, err
	}
	on, err := unmarshalSuperblock(hdr)
	if err != nil {
		_ = flockRelease(f)
		_ = f.Close()
		return nil, err
	}
	if on.Magic != Magic {
		_ = flockRelease(f)
		_ = f.Close()
		return nil, ErrBadMagic
	}

	sb := &Superblock{
		f:           f,
		blockSize:   int(on.BlockSize),
		logger:      cfg.logger,
		totalBlocks: int(on.TotalBlocks),
		freeBlocks:  int(on.FreeBlocks),
		rootInode:   on.RootInode,
		freeList:    on.FreeList,
	}

	processOpen.mu.Lock()
	processOpen.open = true
	processOpen.mu.Unlock()

	return sb, nil
}

// Close validates the superblock's magic one last time, releases the
// advisory lock, and closes the underlying file.
func (sb *Superblock) Close() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.closed {
		return nil
	}

	hdr := make([]byte, superblockHeaderSize)
	if _, err := sb.f.ReadAt(hdr, 0); err != nil {
		return err
	}
	on, err := unmarshalSuperblock(hdr)
	if err != nil {
		return err
	}
	if on.Magic != Magic {
		return ErrBadMagic
	}

	err = flockRelease(sb.f)
	if cerr := sb.f.Close(); err == nil {
		err = cerr
	}
	sb.closed = true

	processOpen.mu.Lock()
	processOpen.open = false
	processOpen.mu.Unlock()

	return err
}

// GetBlock pops the head of the free list and persists the updated
// superblock. It returns ErrNoSpace if the list is empty.
func (sb *Superblock) GetBlock() (uint32, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.getBlockLocked()
}

// getBlockLocked is GetBlock's body, for callers that already hold sb.mu.
func (sb *Superblock) getBlockLocked() (uint32, error) {
	if sb.freeList == 0 {
		return 0, ErrNoSpace
	}
	head := sb.freeList
	fp, err := sb.readFreepage(head)
	if err != nil {
		return 0, err
	}
	sb.freeList = fp.Next
	sb.freeBlocks--
	if err := sb.persist(); err != nil {
		return 0, err
	}
	return head, nil
}

// PutBlock pushes b onto the head of the free list and persists the updated
// superblock.
func (sb *Superblock) PutBlock(b uint32) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.putBlockLocked(b)
}

// putBlockLocked is PutBlock's body, for callers that already hold sb.mu.
func (sb *Superblock) putBlockLocked(b uint32) error {
	if err := sb.writeFreepage(b, freepage{Next: sb.freeList}); err != nil {
		return err
	}
	sb.freeList = b
	sb.freeBlocks++
	return sb.persist()
}

// FreeBlocks reports the current free-block count.
func (sb *Superblock) FreeBlocks() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.freeBlocks
}

// persist re-writes block 0. Callers must hold sb.mu.
func (sb *Superblock) persist() error {
	on := onDiskSuperblock{
		Magic:       Magic,
		BlockSize:   uint32(sb.blockSize),
		TotalBlocks: uint32(sb.totalBlocks),
		FreeBlocks:  uint32(sb.freeBlocks),
		RootInode:   sb.rootInode,
		FreeList:    sb.freeList,
	}
	_, err := sb.f.WriteAt(marshalSuperblock(on, sb.blockSize), 0)
	return err
}

func (sb *Superblock) blockOffset(b uint32) int64 {
	return int64(b) * int64(sb.blockSize)
}

func (sb *Superblock) readRaw(b uint32) ([]byte, error) {
	buf := make([]byte, sb.blockSize)
	if _, err := sb.f.ReadAt(buf, sb.blockOffset(b)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (sb *Superblock) writeRaw(b uint32, buf []byte) error {
	_, err := sb.f.WriteAt(buf, sb.blockOffset(b))
	return err
}

func (sb *Superblock) readNodeInfo(b uint32) (nodeInfo, error) {
	buf, err := sb.readRaw(b)
	if err != nil {
		return nodeInfo{}, err
	}
	return unmarshalNodeInfo(buf)
}

func (sb *Superblock) writeNodeInfo(b uint32, n nodeInfo) error {
	buf, err := marshalNodeInfo(n, sb.blockSize)
	if err != nil {
		return err
	}
	return sb.writeRaw(b, buf)
}

func (sb *Superblock) readInode(b uint32) (inode, error) {
	buf, err := sb.readRaw(b)
	if err != nil {
		return inode{}, err
	}
	return unmarshalInode(buf)
}

func (sb *Superblock) writeInode(b uint32, in inode) error {
	return sb.writeRaw(b, marshalInode(in, sb.blockSize))
}

func (sb *Superblock) readFreepage(b uint32) (freepage, error) {
	buf, err := sb.readRaw(b)
	if err != nil {
		return freepage{}, err
	}
	return unmarshalFreepage(buf)
}

func (sb *Superblock) writeFreepage(b uint32, fp freepage) error {
	return sb.writeRaw(b, marshalFreepage(fp, sb.blockSize))
}
