package pager

// Stats is a point-in-time snapshot of pager occupancy and activity.
type Stats struct {
	ResidentFrames int
	FreeFrames     int
	FreeBlocks     int
	Faults         int
	Evictions      int
}

// Stats reports current pager occupancy and cumulative activity counters.
// Safe to call concurrently with any other Pager method.
func (p *Pager) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var resident, free int
	for i := range p.frames {
		if p.frames[i].free() {
			free++
		} else {
			resident++
		}
	}

	var freeBlocks int
	for i := range p.blocks {
		if p.blocks[i].page == nil {
			freeBlocks++
		}
	}

	return Stats{
		ResidentFrames: resident,
		FreeFrames:     free,
		FreeBlocks:     freeBlocks,
		Faults:         p.faults,
		Evictions:      p.evictions,
	}
}
