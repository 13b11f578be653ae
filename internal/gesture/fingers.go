package gesture

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/handvolume/internal/detector"
)

// Finger identifies one of the five fingers.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || f >= NumFingers {
		return fmt.Sprintf("Finger(%d)", int(f))
	}
	return fingerNames[f]
}

// FingerState records which fingers are extended in one frame.
type FingerState [NumFingers]bool

// Count returns the number of extended fingers, 0 to 5.
func (s FingerState) Count() int {
	n := 0
	for _, up := range s {
		if up {
			n++
		}
	}
	return n
}

// Extended reports whether finger f is extended.
func (s FingerState) Extended(f Finger) bool {
	return s[f]
}

// MarshalJSON encodes the state as {"thumb":true,"index":false,...}.
func (s FingerState) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, NumFingers)
	for f := Thumb; f < NumFingers; f++ {
		m[f.String()] = s[f]
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts the map form written by MarshalJSON. Unknown names are ignored.
func (s *FingerState) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = FingerState{}
	for f := Thumb; f < NumFingers; f++ {
		s[f] = m[f.String()]
	}
	return nil
}

// tip and pip landmarks for index through pinky.
var fingerJoints = [...]struct {
	finger   Finger
	tip, pip int
}{
	{Index, detector.IndexTip, detector.IndexPIP},
	{Middle, detector.MiddleTip, detector.MiddlePIP},
	{Ring, detector.RingTip, detector.RingPIP},
	{Pinky, detector.PinkyTip, detector.PinkyPIP},
}

// ClassifyFingers decides which fingers of h are extended.
//
// A finger is extended when its tip is above its PIP joint in the image
// (smaller y). The thumb moves sideways instead, so it is extended when its tip
// is farther out than the IP joint along x, which direction being outward
// depends on the hand.
func ClassifyFingers(h detector.Hand) FingerState {
	var s FingerState
	s[Thumb] = thumbExtended(h)
	for _, j := range fingerJoints {
		s[j.finger] = h.Landmarks[j.tip].Y < h.Landmarks[j.pip].Y
	}
	return s
}

func thumbExtended(h detector.Hand) bool {
	tip := h.Landmarks[detector.ThumbTip].X
	joint := h.Landmarks[detector.ThumbIP].X

	switch h.Handedness {
	case detector.Right:
		return tip > joint
	case detector.Left:
		return tip < joint
	default:
		panic(fmt.Sprintf("gesture: unhandled handedness %v", h.Handedness))
	}
}
