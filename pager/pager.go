package pager

import (
	"fmt"
	"sync"
)

// UVMBaseAddr is the first virtual address of a process's managed range, the
// Go-native name for the original design's UVM_BASEADDR.
const UVMBaseAddr uint64 = 0x10000000

// page is one process's descriptor for a single logical page.
type page struct {
	vaddr    uint64
	resident bool
	frame    int // valid iff resident
	block    int // permanently assigned at Extend
	dirty    bool
}

// frameEntry describes one physical frame slot.
type frameEntry struct {
	pid      int // -1 when free
	page     *page
	accessed bool
}

const invalidPID = -1

func (f *frameEntry) free() bool { return f.pid == invalidPID }

// blockEntry describes one backing-store slot.
type blockEntry struct {
	inUse bool
	page  *page
}

// pageTable is one pid's ordered page descriptors.
type pageTable struct {
	pages []*page
}

// Pager services page faults for a fixed-size frame pool backed by a
// fixed-size block pool, evicting with second-chance when frames run out.
// A single mutex serializes every entry point, matching the original
// design's single global lock.
type Pager struct {
	mu sync.Mutex

	cfg config

	pmem    []byte
	release func() error

	frames []frameEntry
	blocks []blockEntry
	cursor int

	tables map[int]*pageTable

	faults    int
	evictions int
}

// New constructs a Pager with nframes physical frames and nblocks backing
// blocks. WithMMU is required.
func New(nframes, nblocks int, opts ...Option) (*Pager, error) {
	if nframes <= 0 {
		return nil, fmt.Errorf("pager: nframes must be positive, got %d", nframes)
	}
	if nblocks <= 0 {
		return nil, fmt.Errorf("pager: nblocks must be positive, got %d", nblocks)
	}
	cfg := newConfig(opts)
	if cfg.mmu == nil {
		return nil, fmt.Errorf("pager: WithMMU is required")
	}

	p := &Pager{
		cfg:    cfg,
		frames: make([]frameEntry, nframes),
		blocks: make([]blockEntry, nblocks),
		tables: make(map[int]*pageTable),
	}
	for i := range p.frames {
		p.frames[i].pid = invalidPID
	}

	if cfg.pmem != nil {
		if len(cfg.pmem) != nframes*cfg.pageSize {
			return nil, fmt.Errorf("pager: WithPhysMem length %d != nframes*pageSize %d", len(cfg.pmem), nframes*cfg.pageSize)
		}
		p.pmem = cfg.pmem
		p.release = func() error { return nil }
	} else {
		pmem, release, err := allocPmem(nframes, cfg.pageSize)
		if err != nil {
			return nil, fmt.Errorf("pager: allocating physical memory: %w", err)
		}
		p.pmem = pmem
		p.release = release
	}

	return p, nil
}

// Close releases the physical memory region. It does not touch any frame or
// block state; callers should Destroy every pid first.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.release == nil {
		return nil
	}
	err := p.release()
	p.release = nil
	return err
}

func (p *Pager) frameBytes(f int) []byte {
	off := f * p.cfg.pageSize
	return p.pmem[off : off+p.cfg.pageSize]
}

// Create registers a new, empty page table for pid.
func (p *Pager) Create(pid int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tables[pid]; ok {
		return fmt.Errorf("%w: %d", ErrPIDExists, pid)
	}
	p.tables[pid] = &pageTable{}
	return nil
}

// Extend allocates exactly one backing block for pid and appends a page
// descriptor at the next logical address in its range, without making it
// resident. It returns ErrNoBlocks if no free block exists.
func (p *Pager) Extend(pid int) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tables[pid]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPID, pid)
	}

	block := -1
	for i := range p.blocks {
		if p.blocks[i].page == nil {
			block = i
			break
		}
	}
	if block == -1 {
		p.cfg.logger.Info().Int("pid", pid).Log("extend failed: no free blocks")
		return 0, ErrNoBlocks
	}

	pg := &page{
		vaddr: UVMBaseAddr + uint64(len(t.pages))*uint64(p.cfg.pageSize),
		block: block,
	}
	t.pages = append(t.pages, pg)
	p.blocks[block].page = pg
	return pg.vaddr, nil
}

// Destroy releases every frame and block held by pid. It never calls any
// MMU primitive, matching the original design exactly: the host is assumed
// to tear down its own mappings separately (e.g. as part of destroying the
// whole address space).
func (p *Pager) Destroy(pid int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tables[pid]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPID, pid)
	}
	for _, pg := range t.pages {
		if pg.resident {
			p.frames[pg.frame] = frameEntry{pid: invalidPID}
		}
		p.blocks[pg.block] = blockEntry{}
	}
	delete(p.tables, pid)
	return nil
}

func (p *Pager) lookup(pid int, vaddr uint64) (*page, error) {
	t, ok := p.tables[pid]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPID, pid)
	}
	aligned := vaddr - (vaddr-UVMBaseAddr)%uint64(p.cfg.pageSize)
	for _, pg := range t.pages {
		if pg.vaddr == aligned {
			return pg, nil
		}
	}
	return nil, fmt.Errorf("%w: pid %d addr %#x", ErrInvalidRange, pid, vaddr)
}
