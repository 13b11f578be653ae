package gesture

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/handvolume/internal/detector"
)

const epsilon = 1e-9

func TestDistance(t *testing.T) {
	t.Run("3-4-5 triangle", func(t *testing.T) {
		var h detector.Hand
		h.Landmarks[detector.ThumbTip] = detector.Landmark{X: 0.1, Y: 0.1}
		h.Landmarks[detector.IndexTip] = detector.Landmark{X: 0.4, Y: 0.5}

		got := Distance(h, detector.ThumbTip, detector.IndexTip)
		if math.Abs(got-0.5) > epsilon {
			t.Errorf("expected 0.5, got %f", got)
		}
	})

	t.Run("depth is ignored", func(t *testing.T) {
		var h detector.Hand
		h.Landmarks[detector.ThumbTip] = detector.Landmark{X: 0.2, Y: 0.2, Z: -0.9}
		h.Landmarks[detector.IndexTip] = detector.Landmark{X: 0.2, Y: 0.2, Z: 0.9}

		if got := Distance(h, detector.ThumbTip, detector.IndexTip); got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		h := detector.OpenPalmHand()
		a := Distance(h, detector.ThumbTip, detector.IndexTip)
		b := Distance(h, detector.IndexTip, detector.ThumbTip)
		if a != b {
			t.Errorf("expected symmetric distance, got %f and %f", a, b)
		}
	})

	for _, idx := range []int{-1, detector.NumLandmarks, 99} {
		t.Run("panics on bad index", func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrInvalidLandmark) {
					t.Errorf("index %d: expected ErrInvalidLandmark panic, got %v", idx, r)
				}
			}()
			Distance(detector.OpenPalmHand(), detector.ThumbTip, idx)
		})
	}
}
