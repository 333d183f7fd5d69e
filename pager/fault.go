package pager

import (
	"fmt"
	"io"
)

// Fault services a page fault for addr, which must lie within a page
// previously returned by Extend for pid. addr is aligned down to a page
// boundary before lookup, matching the original design's fault-alignment
// rule.
func (p *Pager) Fault(pid int, addr uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.faultLocked(pid, addr)
	return err
}

// faultLocked performs fault servicing with p.mu already held, returning the
// now-resident page so callers (Syslog) can read through it without
// re-resolving.
func (p *Pager) faultLocked(pid int, addr uint64) (*page, error) {
	pg, err := p.lookup(pid, addr)
	if err != nil {
		return nil, err
	}

	if pg.resident {
		if err := p.cfg.mmu.Chprot(pid, pg.vaddr, ProtReadWrite); err != nil {
			return nil, fmt.Errorf("pager: chprot on hit: %w", err)
		}
		p.frames[pg.frame].accessed = true
		pg.dirty = true
		p.cfg.logger.Debug().Int("pid", pid).Uint64("vaddr", pg.vaddr).Log("page fault hit")
		return pg, nil
	}

	frame, wasFree := p.pickVictimFrame()
	if !wasFree {
		if err := p.swap(frame); err != nil {
			return nil, fmt.Errorf("pager: swap: %w", err)
		}
		p.evictions++
	}

	dst := p.frameBytes(frame)
	if p.blocks[pg.block].inUse {
		if err := p.cfg.mmu.DiskRead(pg.block, dst); err != nil {
			return nil, fmt.Errorf("pager: disk read: %w", err)
		}
	} else {
		if err := p.cfg.mmu.ZeroFill(dst); err != nil {
			return nil, fmt.Errorf("pager: zero fill: %w", err)
		}
	}

	if err := p.cfg.mmu.Resident(pid, pg.vaddr, frame, ProtRead); err != nil {
		return nil, fmt.Errorf("pager: install resident mapping: %w", err)
	}

	pg.dirty = false
	pg.resident = true
	pg.frame = frame
	p.frames[frame] = frameEntry{pid: pid, page: pg, accessed: true}
	p.faults++

	p.cfg.logger.Debug().
		Int("pid", pid).
		Uint64("vaddr", pg.vaddr).
		Int("frame", frame).
		Bool("wasFree", wasFree).
		Log("page fault miss")

	return pg, nil
}

// pickVictimFrame returns the frame to use for a new mapping: the
// lowest-indexed free frame if one exists, otherwise the result of a
// second-chance sweep. wasFree reports which case applied.
func (p *Pager) pickVictimFrame() (frame int, wasFree bool) {
	for i := range p.frames {
		if p.frames[i].free() {
			return i, true
		}
	}
	return p.clockSweep(), false
}

// clockSweep runs the second-chance algorithm: starting from the cursor,
// clear accessed bits until one is found already clear, then choose that
// frame. Guaranteed to terminate within 2*len(frames) steps since every bit
// cleared in the first pass stays clear until re-accessed.
func (p *Pager) clockSweep() int {
	n := len(p.frames)
	for steps := 0; steps < 2*n; steps++ {
		c := p.cursor
		p.cursor = (p.cursor + 1) % n
		if !p.frames[c].accessed {
			return c
		}
		p.frames[c].accessed = false
	}
	// Unreachable given the invariant above; last-resort fallback keeps the
	// pager from panicking if that invariant is ever violated.
	return (p.cursor - 1 + n) % n
}

// swap evicts the page currently occupying frame f, the Go-native rendering
// of the original design's swap routine, including the frame-0 full-cycle
// protection revocation that reconstructs per-access information the MMU
// does not track.
func (p *Pager) swap(f int) error {
	victim := p.frames[f]
	if victim.page == nil {
		return fmt.Errorf("pager: swap target frame %d has no page", f)
	}

	if f == 0 {
		for i := range p.frames {
			if p.frames[i].free() {
				continue
			}
			if err := p.cfg.mmu.Chprot(p.frames[i].pid, p.frames[i].page.vaddr, ProtNone); err != nil {
				return fmt.Errorf("full-cycle chprot revoke on frame %d: %w", i, err)
			}
		}
	}

	if err := p.cfg.mmu.Nonresident(victim.pid, victim.page.vaddr); err != nil {
		return fmt.Errorf("nonresident: %w", err)
	}
	victim.page.resident = false

	if victim.page.dirty {
		p.blocks[victim.page.block].inUse = true
		if err := p.cfg.mmu.DiskWrite(victim.page.block, p.frameBytes(f)); err != nil {
			return fmt.Errorf("disk write: %w", err)
		}
	}

	p.cfg.logger.Debug().Int("frame", f).Int("victimPID", victim.pid).Log("evicted frame")
	return nil
}

// Syslog verifies every page covering [addr, addr+length) belongs to pid,
// faulting in anything non-resident via the same policy as Fault, then
// writes the bytes as lowercase hex followed by a newline to w. It returns
// ErrInvalidRange if any byte lies outside pages pid has allocated.
func (p *Pager) Syslog(w io.Writer, pid int, addr uint64, length int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if length == 0 {
		return nil
	}

	buf := make([]byte, 0, length)
	for off := 0; off < length; {
		a := addr + uint64(off)
		pg, err := p.faultLocked(pid, a)
		if err != nil {
			return err
		}
		pageOff := int(a - pg.vaddr)
		n := p.cfg.pageSize - pageOff
		if remain := length - off; n > remain {
			n = remain
		}
		buf = append(buf, p.frameBytes(pg.frame)[pageOff:pageOff+n]...)
		off += n
	}

	hex := make([]byte, len(buf)*2+1)
	const digits = "0123456789abcdef"
	for i, b := range buf {
		hex[i*2] = digits[b>>4]
		hex[i*2+1] = digits[b&0xf]
	}
	hex[len(hex)-1] = '\n'
	_, err := w.Write(hex)
	return err
}
