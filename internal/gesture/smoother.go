package gesture

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when a smoothing window size is less than 1.
var ErrInvalidWindow = errors.New("smoothing window must hold at least one sample")

// Smoother keeps the last N samples in a ring buffer and reports their mean.
// Before N samples have been pushed the mean covers only the samples held so far.
//
// A Smoother is not safe for concurrent use.
type Smoother struct {
	buf  []float64
	next int
	n    int
}

// NewSmoother creates a Smoother with a window of size n.
func NewSmoother(n int) (*Smoother, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, n)
	}
	return &Smoother{buf: make([]float64, n)}, nil
}

// Push adds a sample, evicting the oldest one when the window is full,
// and returns the mean of the samples now held.
func (s *Smoother) Push(sample float64) float64 {
	s.buf[s.next] = sample
	s.next = (s.next + 1) % len(s.buf)
	if s.n < len(s.buf) {
		s.n++
	}
	return s.Value()
}

// Value returns the mean of the held samples, or 0 when the window is empty.
func (s *Smoother) Value() float64 {
	if s.n == 0 {
		return 0
	}

	held := s.samples()
	lo, hi := held[0], held[0]
	var sum float64
	for _, v := range held {
		sum += v
		lo = min(lo, v)
		hi = max(hi, v)
	}
	// Rounding in the sum can push the mean a hair outside the samples.
	return max(lo, min(hi, sum/float64(s.n)))
}

// Len returns the number of samples currently held.
func (s *Smoother) Len() int { return s.n }

// Cap returns the window size.
func (s *Smoother) Cap() int { return len(s.buf) }

// Reset empties the window.
func (s *Smoother) Reset() {
	s.next = 0
	s.n = 0
	clear(s.buf)
}

// samples returns the held samples; order does not matter for the mean.
func (s *Smoother) samples() []float64 {
	if s.n < len(s.buf) {
		return s.buf[:s.n]
	}
	return s.buf
}
