package testutil

import (
	"fmt"
	"sync"
)

// Sequence hands out increasing numbers for unique test names.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// NewSequence creates a new sequence starting at 0.
//
// The first call to Next() returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next increments and returns the next number.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the current number without incrementing.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Name returns prefix followed by the next number, e.g. "store-3".
func (s *Sequence) Name(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, s.Next())
}

// Reset resets the sequence to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
