package gesture

import (
	"testing"

	"github.com/ayusman/handvolume/internal/detector"
)

func TestClassifyPose(t *testing.T) {
	rock := detector.FistHand()
	open := detector.OpenPalmHand()
	for _, i := range []int{detector.IndexMCP, detector.IndexPIP, detector.IndexDIP, detector.IndexTip,
		detector.PinkyMCP, detector.PinkyPIP, detector.PinkyDIP, detector.PinkyTip} {
		rock.Landmarks[i] = open.Landmarks[i]
	}

	point := detector.FistHand()
	for _, i := range []int{detector.IndexMCP, detector.IndexPIP, detector.IndexDIP, detector.IndexTip} {
		point.Landmarks[i] = open.Landmarks[i]
	}

	tests := []struct {
		name string
		hand detector.Hand
		want Pose
	}{
		{"open palm", detector.OpenPalmHand(), PosePalm},
		{"fist", detector.FistHand(), PoseFist},
		{"thumbs up", detector.ThumbsUpHand(), PoseThumbsUp},
		{"peace", detector.PeaceHand(), PosePeace},
		{"rock", rock, PoseRock},
		{"point", point, PosePoint},
		{"ok", detector.PinchHand(0.01), PoseOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, h := range []detector.Hand{tt.hand, tt.hand.Mirrored()} {
				fingers := ClassifyFingers(h)
				pinch := Distance(h, detector.ThumbTip, detector.IndexTip)
				if got := ClassifyPose(h, fingers, pinch); got != tt.want {
					t.Errorf("%s hand: expected %s, got %s", h.Handedness, tt.want, got)
				}
			}
		})
	}
}

func TestClassifyPose_DistanceFallbacks(t *testing.T) {
	// Thumb and middle only, which matches none of the shape rules.
	h := detector.OpenPalmHand()
	fingers := FingerState{Thumb: true, Middle: true}

	tests := []struct {
		pinch float64
		want  Pose
	}{
		{0.01, PosePinch},
		{0.1, PoseUnknown},
		{0.2, PoseOpenHand},
	}
	for _, tt := range tests {
		if got := ClassifyPose(h, fingers, tt.pinch); got != tt.want {
			t.Errorf("pinch %f: expected %s, got %s", tt.pinch, tt.want, got)
		}
	}
}
