package models

import "sync/atomic"

// IDSequence hands out medicine identifiers. Each catalog (and each test) owns
// its own sequence; identifiers are never reused, even for discarded medicines.
type IDSequence struct {
	next atomic.Int64
}

// NewIDSequence returns a sequence whose first identifier is 1.
func NewIDSequence() *IDSequence {
	return NewIDSequenceFrom(1)
}

// NewIDSequenceFrom returns a sequence whose first identifier is start (minimum 1).
func NewIDSequenceFrom(start int64) *IDSequence {
	if start < 1 {
		start = 1
	}
	s := &IDSequence{}
	s.next.Store(start)
	return s
}

// Next returns the current identifier and advances the sequence.
func (s *IDSequence) Next() int64 {
	return s.next.Add(1) - 1
}

// Peek returns the identifier the next call to Next will hand out.
func (s *IDSequence) Peek() int64 {
	return s.next.Load()
}
