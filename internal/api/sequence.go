package api

import "sync"

// Sequencer issues monotonic tokens for view-level fetches so that a
// response arriving after a newer fetch was started can be discarded
// instead of overwriting fresher state. Typical use:
//
//	seq := s.Next()
//	result, err := client.UserExpenses(ctx, opts)
//	if !s.Latest(seq) {
//	    return // stale, a newer fetch owns the view now
//	}
type Sequencer struct {
	mu  sync.Mutex
	seq uint64
}

// Next starts a new fetch and returns its token. Any earlier token stops
// being latest.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Latest reports whether the given token still identifies the most recent
// fetch.
func (s *Sequencer) Latest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq == seq
}
