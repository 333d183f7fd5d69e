package pager

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeMMU is a minimal in-memory stand-in for a host MMU: it tracks which
// pid/vaddr maps to which frame and protection, and backs DiskRead/DiskWrite
// with a plain byte-slice-per-block disk.
type fakeMMU struct {
	pageSize int
	mappings map[int]map[uint64]fakeMapping
	disk     [][]byte
}

type fakeMapping struct {
	frame int
	prot  Prot
}

func newFakeMMU(pageSize, nblocks int) *fakeMMU {
	disk := make([][]byte, nblocks)
	for i := range disk {
		disk[i] = make([]byte, pageSize)
	}
	return &fakeMMU{
		pageSize: pageSize,
		mappings: make(map[int]map[uint64]fakeMapping),
		disk:     disk,
	}
}

func (m *fakeMMU) Resident(pid int, vaddr uint64, frame int, prot Prot) error {
	if m.mappings[pid] == nil {
		m.mappings[pid] = make(map[uint64]fakeMapping)
	}
	m.mappings[pid][vaddr] = fakeMapping{frame: frame, prot: prot}
	return nil
}

func (m *fakeMMU) Nonresident(pid int, vaddr uint64) error {
	delete(m.mappings[pid], vaddr)
	return nil
}

func (m *fakeMMU) Chprot(pid int, vaddr uint64, prot Prot) error {
	if mp, ok := m.mappings[pid][vaddr]; ok {
		mp.prot = prot
		m.mappings[pid][vaddr] = mp
	}
	return nil
}

func (m *fakeMMU) DiskRead(block int, dst []byte) error {
	copy(dst, m.disk[block])
	return nil
}

func (m *fakeMMU) DiskWrite(block int, src []byte) error {
	copy(m.disk[block], src)
	return nil
}

func (m *fakeMMU) ZeroFill(dst []byte) error {
	for i := range dst {
		dst[i] = 0
	}
	return nil
}

func newTestPager(t *testing.T, nframes, nblocks int) (*Pager, *fakeMMU) {
	t.Helper()
	mmu := newFakeMMU(defaultPageSize, nblocks)
	p, err := New(nframes, nblocks, WithMMU(mmu))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Close()) })
	return p, mmu
}

func TestExtendReturnsZeroedPageOnFirstAccess(t *testing.T) {
	p, _ := newTestPager(t, 2, 2)
	require.NoError(t, p.Create(1))

	addr, err := p.Extend(1)
	require.NoError(t, err)

	require.NoError(t, p.Fault(1, addr))

	pg, err := p.lookup(1, addr)
	require.NoError(t, err)
	require.True(t, pg.resident)
	require.True(t, allZero(p.frameBytes(pg.frame)))
}

func TestExtendExhaustsBlocks(t *testing.T) {
	p, _ := newTestPager(t, 4, 2)
	require.NoError(t, p.Create(1))

	_, err := p.Extend(1)
	require.NoError(t, err)
	_, err = p.Extend(1)
	require.NoError(t, err)

	_, err = p.Extend(1)
	require.ErrorIs(t, err, ErrNoBlocks)
}

// TestClockEviction reproduces the canonical scenario: nframes=3, nblocks=5;
// pid 1 extends P0..P4 and touches P0,P1,P2 (filling all three frames), then
// touches P3. The clock cursor starts at 0, clears the accessed bits of
// frames 0, 1, and 2 in turn, wraps, and picks frame 0 as victim.
func TestClockEviction(t *testing.T) {
	p, mmu := newTestPager(t, 3, 5)
	require.NoError(t, p.Create(1))

	addrs := make([]uint64, 5)
	for i := range addrs {
		a, err := p.Extend(1)
		require.NoError(t, err)
		addrs[i] = a
	}

	// Touch P0, dirtying it via a second (hit) access so the scenario's
	// "dirty-flagged if written" clause has a concrete write to observe.
	require.NoError(t, p.Fault(1, addrs[0]))
	require.NoError(t, p.Fault(1, addrs[0]))
	require.NoError(t, p.Fault(1, addrs[1]))
	require.NoError(t, p.Fault(1, addrs[2]))

	for i := 0; i < 3; i++ {
		require.True(t, p.frames[i].accessed, "frame %d should be accessed before eviction", i)
	}

	require.NoError(t, p.Fault(1, addrs[3]))

	p0, err := p.lookup(1, addrs[0])
	require.NoError(t, err)
	require.False(t, p0.resident, "P0 should have been evicted")

	p3, err := p.lookup(1, addrs[3])
	require.NoError(t, err)
	require.True(t, p3.resident)
	require.Equal(t, 0, p3.frame, "P3 should now occupy frame 0")

	require.True(t, mmu.disk[p0.block] != nil)
	require.True(t, p.blocks[p0.block].inUse, "P0's block should be marked in-use on disk since P0 was dirtied")

	stats := p.Stats()
	require.Equal(t, 1, stats.Evictions)
}

func TestSyslogRejectsOutOfRange(t *testing.T) {
	p, _ := newTestPager(t, 2, 2)
	require.NoError(t, p.Create(1))
	addr, err := p.Extend(1)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = p.Syslog(&buf, 1, addr-1, 1)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestSyslogFaultsInAndPrintsHex(t *testing.T) {
	p, mmu := newTestPager(t, 2, 2)
	require.NoError(t, p.Create(1))
	addr, err := p.Extend(1)
	require.NoError(t, err)

	// Fault it in and write recognizable bytes directly into the pager's
	// physical memory for that frame before reading via Syslog.
	require.NoError(t, p.Fault(1, addr))
	pg, err := p.lookup(1, addr)
	require.NoError(t, err)
	frame := p.frameBytes(pg.frame)
	frame[defaultPageSize-2] = 0xde
	frame[defaultPageSize-1] = 0xad
	_ = mmu

	var buf bytes.Buffer
	require.NoError(t, p.Syslog(&buf, 1, addr+uint64(defaultPageSize-2), 2))
	require.Equal(t, "dead\n", buf.String())
}

func TestDestroyFreesFramesAndBlocks(t *testing.T) {
	p, _ := newTestPager(t, 2, 2)
	require.NoError(t, p.Create(1))
	addr, err := p.Extend(1)
	require.NoError(t, err)
	require.NoError(t, p.Fault(1, addr))

	require.NoError(t, p.Destroy(1))

	stats := p.Stats()
	require.Equal(t, 2, stats.FreeFrames)
	require.Equal(t, 2, stats.FreeBlocks)

	_, err = p.Extend(1)
	require.ErrorIs(t, err, ErrUnknownPID)
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
