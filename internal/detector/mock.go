package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests and camera-less runs to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []Hand
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands ...Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.hands) == 0 {
		return nil, nil
	}
	out := make([]Hand, len(m.hands))
	copy(out, m.hands)
	return out, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// OpenPalmHand returns a right hand with all five fingers extended
// and the thumb spread away from the palm.
func OpenPalmHand() Hand {
	h := Hand{Handedness: Right, Score: 0.95}

	h.Landmarks[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	h.Landmarks[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: 0.02}
	h.Landmarks[ThumbMCP] = Landmark{X: 0.62, Y: 0.70, Z: 0.03}
	h.Landmarks[ThumbIP] = Landmark{X: 0.68, Y: 0.65, Z: 0.03}
	h.Landmarks[ThumbTip] = Landmark{X: 0.73, Y: 0.60, Z: 0.03}

	h.Landmarks[IndexMCP] = Landmark{X: 0.55, Y: 0.68, Z: 0.0}
	h.Landmarks[IndexPIP] = Landmark{X: 0.57, Y: 0.55, Z: 0.0}
	h.Landmarks[IndexDIP] = Landmark{X: 0.58, Y: 0.45, Z: 0.0}
	h.Landmarks[IndexTip] = Landmark{X: 0.58, Y: 0.35, Z: 0.0}

	h.Landmarks[MiddleMCP] = Landmark{X: 0.50, Y: 0.66, Z: 0.0}
	h.Landmarks[MiddlePIP] = Landmark{X: 0.50, Y: 0.52, Z: 0.0}
	h.Landmarks[MiddleDIP] = Landmark{X: 0.50, Y: 0.40, Z: 0.0}
	h.Landmarks[MiddleTip] = Landmark{X: 0.50, Y: 0.28, Z: 0.0}

	h.Landmarks[RingMCP] = Landmark{X: 0.45, Y: 0.68, Z: 0.0}
	h.Landmarks[RingPIP] = Landmark{X: 0.43, Y: 0.55, Z: 0.0}
	h.Landmarks[RingDIP] = Landmark{X: 0.42, Y: 0.45, Z: 0.0}
	h.Landmarks[RingTip] = Landmark{X: 0.42, Y: 0.35, Z: 0.0}

	h.Landmarks[PinkyMCP] = Landmark{X: 0.40, Y: 0.70, Z: 0.0}
	h.Landmarks[PinkyPIP] = Landmark{X: 0.37, Y: 0.60, Z: 0.0}
	h.Landmarks[PinkyDIP] = Landmark{X: 0.35, Y: 0.50, Z: 0.0}
	h.Landmarks[PinkyTip] = Landmark{X: 0.34, Y: 0.42, Z: 0.0}

	return h
}

// FistHand returns a right hand with every finger curled and the thumb
// folded across the palm.
func FistHand() Hand {
	h := Hand{Handedness: Right, Score: 0.93}

	h.Landmarks[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	h.Landmarks[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: 0.0}
	h.Landmarks[ThumbMCP] = Landmark{X: 0.58, Y: 0.70, Z: -0.02}
	h.Landmarks[ThumbIP] = Landmark{X: 0.57, Y: 0.66, Z: -0.04}
	h.Landmarks[ThumbTip] = Landmark{X: 0.53, Y: 0.66, Z: -0.05}

	curl(&h, IndexMCP, 0.55)
	curl(&h, MiddleMCP, 0.50)
	curl(&h, RingMCP, 0.45)
	curl(&h, PinkyMCP, 0.40)

	return h
}

// ThumbsUpHand returns a right hand with only the thumb extended, pointing up.
func ThumbsUpHand() Hand {
	h := FistHand()

	h.Landmarks[ThumbMCP] = Landmark{X: 0.58, Y: 0.65, Z: 0.0}
	h.Landmarks[ThumbIP] = Landmark{X: 0.58, Y: 0.50, Z: 0.0}
	h.Landmarks[ThumbTip] = Landmark{X: 0.60, Y: 0.35, Z: 0.0}

	return h
}

// PeaceHand returns a right hand with index and middle fingers extended.
func PeaceHand() Hand {
	h := FistHand()
	open := OpenPalmHand()

	for _, i := range []int{IndexMCP, IndexPIP, IndexDIP, IndexTip, MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip} {
		h.Landmarks[i] = open.Landmarks[i]
	}
	return h
}

// PinchHand returns an open right hand whose thumb tip sits gap units to the
// right of the index tip at the same height, so the pinch distance is exactly gap.
func PinchHand(gap float64) Hand {
	h := OpenPalmHand()
	tip := h.Landmarks[IndexTip]
	h.Landmarks[ThumbTip] = Landmark{X: tip.X + gap, Y: tip.Y, Z: tip.Z}
	h.Landmarks[ThumbIP] = Landmark{X: tip.X + gap + 0.05, Y: tip.Y + 0.1, Z: tip.Z}
	return h
}

// curl places a finger's four joints so the tip ends below its PIP joint.
func curl(h *Hand, mcp int, x float64) {
	h.Landmarks[mcp] = Landmark{X: x, Y: 0.70, Z: -0.02}
	h.Landmarks[mcp+1] = Landmark{X: x, Y: 0.66, Z: -0.05}
	h.Landmarks[mcp+2] = Landmark{X: x - 0.02, Y: 0.68, Z: -0.04}
	h.Landmarks[mcp+3] = Landmark{X: x - 0.04, Y: 0.71, Z: -0.02}
}
