// Package counter provides process local monotonic sequences.
package counter

import "sync"

// Sequence hands out 0, 1, 2, ... and never repeats a value
type Sequence struct {
	next uint64
	mu   sync.Mutex
}

func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the current value and advances the sequence
func (s *Sequence) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.next
	s.next++
	return v
}

// Peek returns the value the next call to Next will return
func (s *Sequence) Peek() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
