package entropy

import "sync"

// Script is a Source that replays fixed draws in order, wrapping around
// when exhausted. It forces specific outcomes in tests and demos.
type Script struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewScript returns a Source replaying values. Each value must be in [0, 1).
func NewScript(values ...float64) *Script {
	if len(values) == 0 {
		values = []float64{0}
	}
	return &Script{values: values}
}

// Float64 returns the next scripted value.
func (s *Script) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Intn scales the next scripted value to [0, n).
func (s *Script) Intn(n int) int {
	return intn(s.Float64(), n)
}

// Draws returns how many values have been consumed.
func (s *Script) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
