package gesture

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateRange is returned when a mapping range has no usable width.
var ErrDegenerateRange = errors.New("degenerate range")

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp limits v to the range. Inverted ranges are clamped to their bounds as well.
func (r Range) Clamp(v float64) float64 {
	lo, hi := r.Min, r.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	return max(lo, min(hi, v))
}

func (r Range) finite() bool {
	return !math.IsNaN(r.Min) && !math.IsInf(r.Min, 0) && !math.IsNaN(r.Max) && !math.IsInf(r.Max, 0)
}

// Rescale clamps value to in, then maps it linearly onto out.
// The result always lies within out, whatever value is.
// in must have Min < Max; use NewRangeMapper to check ranges up front.
func Rescale(value float64, in, out Range) float64 {
	t := (in.Clamp(value) - in.Min) / (in.Max - in.Min)
	return out.Clamp(out.Min + t*(out.Max-out.Min))
}

// RangeMapper is a validated pair of input and output ranges.
type RangeMapper struct {
	in, out Range
}

// NewRangeMapper checks that both ranges have finite bounds, that in has
// Min < Max and that out has non-zero width.
func NewRangeMapper(in, out Range) (*RangeMapper, error) {
	if !in.finite() {
		return nil, fmt.Errorf("%w: input [%g, %g] is not finite", ErrDegenerateRange, in.Min, in.Max)
	}
	if !out.finite() {
		return nil, fmt.Errorf("%w: output [%g, %g] is not finite", ErrDegenerateRange, out.Min, out.Max)
	}
	if !(in.Min < in.Max) {
		return nil, fmt.Errorf("%w: input [%g, %g]", ErrDegenerateRange, in.Min, in.Max)
	}
	if out.Min == out.Max {
		return nil, fmt.Errorf("%w: output [%g, %g]", ErrDegenerateRange, out.Min, out.Max)
	}
	return &RangeMapper{in: in, out: out}, nil
}

// Map rescales value from the input range to the output range.
func (m *RangeMapper) Map(value float64) float64 {
	return Rescale(value, m.in, m.out)
}

// In returns the input range.
func (m *RangeMapper) In() Range { return m.in }

// Out returns the output range.
func (m *RangeMapper) Out() Range { return m.out }
