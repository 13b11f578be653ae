// Package gesture turns per-frame hand landmarks into control signals:
// a smoothed volume level driven by pinch distance and a finger count.
package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/handvolume/internal/detector"
)

// ErrInvalidLandmark is returned (or panicked with) when a landmark index is outside 0..20.
var ErrInvalidLandmark = errors.New("invalid landmark index")

// Distance returns the Euclidean distance between landmarks a and b in the
// image plane. Depth is ignored.
//
// The indices are fixed constants chosen by the caller, so an out-of-range
// index is a programming error and Distance panics.
func Distance(h detector.Hand, a, b int) float64 {
	if !validLandmark(a) {
		panic(fmt.Errorf("%w: %d", ErrInvalidLandmark, a))
	}
	if !validLandmark(b) {
		panic(fmt.Errorf("%w: %d", ErrInvalidLandmark, b))
	}

	p, q := h.Landmarks[a], h.Landmarks[b]
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func validLandmark(i int) bool {
	return i >= 0 && i < detector.NumLandmarks
}
