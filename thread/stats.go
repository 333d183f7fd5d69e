package thread

// Stats is a point-in-time snapshot of scheduler queue occupancy.
type Stats struct {
	Ready    int
	Waiting  int
	Finished int
	Running  bool
}

// Stats reports the current queue occupancy. Safe to call concurrently with
// Run.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Ready:    len(s.ready),
		Waiting:  len(s.waiting),
		Finished: s.done,
		Running:  s.current != nil,
	}
}
