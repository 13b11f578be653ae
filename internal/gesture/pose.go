package gesture

import "github.com/ayusman/handvolume/internal/detector"

// Pose is a static hand shape recognised from a single frame.
type Pose string

const (
	PoseNone     Pose = "none"
	PoseUnknown  Pose = "unknown"
	PoseFist     Pose = "fist"
	PosePoint    Pose = "point"
	PosePeace    Pose = "peace"
	PoseRock     Pose = "rock"
	PoseThumbsUp Pose = "thumbs_up"
	PosePalm     Pose = "palm"
	PoseOK       Pose = "ok"
	PosePinch    Pose = "pinch"
	PoseOpenHand Pose = "open_hand"
)

const (
	pinchThreshold    = 0.05
	openHandThreshold = 0.15
	thumbRaiseMin     = 0.05
)

// ClassifyPose labels the hand from its finger state and the thumb-index gap.
// Rules are tried from most to least specific; the first match wins.
func ClassifyPose(h detector.Hand, fingers FingerState, pinch float64) Pose {
	index := fingers[Index]
	middle := fingers[Middle]
	ring := fingers[Ring]
	pinky := fingers[Pinky]
	curled := !index && !middle && !ring && !pinky

	switch {
	case curled && thumbRaised(h):
		return PoseThumbsUp
	case index && middle && !ring && !pinky:
		return PosePeace
	case index && pinky && !middle && !ring:
		return PoseRock
	case pinch < pinchThreshold && countTrue(middle, ring, pinky) >= 2:
		return PoseOK
	case index && !middle && !ring && !pinky:
		return PosePoint
	case fingers.Count() >= 4:
		return PosePalm
	case curled:
		return PoseFist
	case pinch < pinchThreshold:
		return PosePinch
	case pinch > openHandThreshold:
		return PoseOpenHand
	default:
		return PoseUnknown
	}
}

// thumbRaised reports whether the thumb points up clear of the knuckles.
func thumbRaised(h detector.Hand) bool {
	tip := h.Landmarks[detector.ThumbTip]
	ip := h.Landmarks[detector.ThumbIP]
	knuckle := h.Landmarks[detector.MiddleMCP]
	return tip.Y < ip.Y && tip.Y < knuckle.Y &&
		Distance(h, detector.ThumbTip, detector.ThumbIP) > thumbRaiseMin
}

func countTrue(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
