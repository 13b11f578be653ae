// Package detector provides the hand pose input contract and the detectors that produce it.
package detector

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedHand is returned when a detector produces a hand that violates the input contract.
var ErrMalformedHand = errors.New("malformed hand")

// Landmark is a single keypoint. X and Y are normalized to the frame size,
// Z is depth relative to the wrist.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Handedness tells whether a detected hand is a left or a right hand.
// The zero value is not a valid handedness.
type Handedness int

const (
	Left Handedness = iota + 1
	Right
)

// String returns "Left" or "Right".
func (h Handedness) String() string {
	switch h {
	case Left:
		return "Left"
	case Right:
		return "Right"
	default:
		return fmt.Sprintf("Handedness(%d)", int(h))
	}
}

// Valid reports whether h is Left or Right.
func (h Handedness) Valid() bool {
	return h == Left || h == Right
}

// Mirror returns the opposite hand.
func (h Handedness) Mirror() Handedness {
	switch h {
	case Left:
		return Right
	case Right:
		return Left
	default:
		return h
	}
}

// ParseHandedness parses a MediaPipe handedness label (case insensitive).
func ParseHandedness(s string) (Handedness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, fmt.Errorf("%w: unknown handedness %q", ErrMalformedHand, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (h Handedness) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: invalid handedness %d", ErrMalformedHand, int(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handedness) UnmarshalText(text []byte) error {
	parsed, err := ParseHandedness(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Hand is one detected hand: exactly NumLandmarks landmarks plus its handedness.
type Hand struct {
	Landmarks  [NumLandmarks]Landmark `json:"landmarks"`
	Handedness Handedness             `json:"handedness"`
	Score      float64                `json:"score"`
}

// NewHand builds a Hand from a detector's landmark list.
// It fails with ErrMalformedHand unless exactly NumLandmarks points are given.
func NewHand(points []Landmark, handedness Handedness, score float64) (Hand, error) {
	if len(points) != NumLandmarks {
		return Hand{}, fmt.Errorf("%w: got %d landmarks, want %d", ErrMalformedHand, len(points), NumLandmarks)
	}

	h := Hand{
		Handedness: handedness,
		Score:      score,
	}
	copy(h.Landmarks[:], points)

	if err := h.Validate(); err != nil {
		return Hand{}, err
	}
	return h, nil
}

// Validate checks the parts of the contract the type system cannot:
// a known handedness and finite coordinates.
func (h *Hand) Validate() error {
	if !h.Handedness.Valid() {
		return fmt.Errorf("%w: invalid handedness %d", ErrMalformedHand, int(h.Handedness))
	}
	for i, lm := range h.Landmarks {
		if !finite(lm.X) || !finite(lm.Y) || !finite(lm.Z) {
			return fmt.Errorf("%w: landmark %d is not finite", ErrMalformedHand, i)
		}
	}
	return nil
}

// Mirrored returns a copy of the hand reflected about x = 0.5 with the
// opposite handedness, which is how the same pose looks from the other hand.
func (h Hand) Mirrored() Hand {
	m := h
	m.Handedness = h.Handedness.Mirror()
	for i := range m.Landmarks {
		m.Landmarks[i].X = 1 - m.Landmarks[i].X
	}
	return m
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
