package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/handvolume/internal/detector"
)

// ErrInvalidVolumeRange is returned when the volume bounds fall outside 0..100.
var ErrInvalidVolumeRange = errors.New("volume range must lie within 0..100")

// Config holds the controller's calibration.
type Config struct {
	// SmoothingWindow is the number of pinch distances averaged together.
	SmoothingWindow int

	// Distance is the pinch distance domain, in normalized image units.
	Distance Range

	// Volume is the output range, in percent.
	Volume Range

	// PinchFrom and PinchTo are the landmarks whose distance drives the volume.
	PinchFrom int
	PinchTo   int
}

// DefaultConfig returns the standard calibration: a window of 5, distances
// 0.02..0.3 mapped onto 0..100, measured from thumb tip to index tip.
func DefaultConfig() Config {
	return Config{
		SmoothingWindow: 5,
		Distance:        Range{Min: 0.02, Max: 0.3},
		Volume:          Range{Min: 0, Max: 100},
		PinchFrom:       detector.ThumbTip,
		PinchTo:         detector.IndexTip,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWindow, c.SmoothingWindow)
	}
	if _, err := NewRangeMapper(c.Distance, c.Volume); err != nil {
		return err
	}
	for _, v := range []float64{c.Volume.Min, c.Volume.Max} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: got [%g, %g]", ErrInvalidVolumeRange, c.Volume.Min, c.Volume.Max)
		}
	}
	if !validLandmark(c.PinchFrom) || !validLandmark(c.PinchTo) {
		return fmt.Errorf("%w: pinch landmarks %d, %d", ErrInvalidLandmark, c.PinchFrom, c.PinchTo)
	}
	if c.PinchFrom == c.PinchTo {
		return fmt.Errorf("%w: pinch landmarks must differ, both are %d", ErrInvalidLandmark, c.PinchFrom)
	}
	return nil
}

// Output is the result of processing one frame.
type Output struct {
	// Volume is the current level in percent. It is held when no hand is seen.
	Volume int `json:"volume"`

	// Fingers is the number of extended fingers, 0 when no hand is seen.
	Fingers     int         `json:"fingers"`
	FingerState FingerState `json:"fingerState"`
	HandPresent bool        `json:"handPresent"`

	// Distance is the raw pinch distance and Smoothed the windowed mean.
	Distance float64 `json:"distance"`
	Smoothed float64 `json:"smoothed"`

	Pose Pose `json:"pose"`
}

// Controller runs the per-frame pipeline: pinch distance, smoothing and
// range mapping for the volume, finger classification for the count.
// It holds the only smoothing window and is meant for a single frame loop.
type Controller struct {
	cfg      Config
	smoother *Smoother
	mapper   *RangeMapper
	volume   int
}

// NewController validates cfg and returns a Controller with an empty window.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gesture config: %w", err)
	}

	smoother, err := NewSmoother(cfg.SmoothingWindow)
	if err != nil {
		return nil, err
	}
	mapper, err := NewRangeMapper(cfg.Distance, cfg.Volume)
	if err != nil {
		return nil, err
	}

	return &Controller{
		cfg:      cfg,
		smoother: smoother,
		mapper:   mapper,
		volume:   initialVolume(cfg),
	}, nil
}

// Process handles one frame. A nil hand means nothing was detected: the last
// volume is kept, the finger count is 0, and the smoothing window is left as is.
//
// A hand that fails validation is rejected with detector.ErrMalformedHand and
// leaves the controller unchanged.
func (c *Controller) Process(hand *detector.Hand) (Output, error) {
	if hand == nil {
		return Output{Volume: c.volume, Pose: PoseNone}, nil
	}
	if err := hand.Validate(); err != nil {
		return Output{Volume: c.volume, Pose: PoseNone}, err
	}

	dist := Distance(*hand, c.cfg.PinchFrom, c.cfg.PinchTo)
	smoothed := c.smoother.Push(dist)
	c.volume = toLevel(c.mapper.Map(smoothed))

	fingers := ClassifyFingers(*hand)
	pinch := Distance(*hand, detector.ThumbTip, detector.IndexTip)

	return Output{
		Volume:      c.volume,
		Fingers:     fingers.Count(),
		FingerState: fingers,
		HandPresent: true,
		Distance:    dist,
		Smoothed:    smoothed,
		Pose:        ClassifyPose(*hand, fingers, pinch),
	}, nil
}

// Volume returns the level reported by the last Process call.
func (c *Controller) Volume() int {
	return c.volume
}

// Config returns the controller's calibration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Reset clears the smoothing window and returns the volume to its initial level.
func (c *Controller) Reset() {
	c.smoother.Reset()
	c.volume = initialVolume(c.cfg)
}

func initialVolume(cfg Config) int {
	return toLevel(math.Min(cfg.Volume.Min, cfg.Volume.Max))
}

// toLevel truncates a mapped value to a whole percentage within 0..100.
func toLevel(v float64) int {
	return max(0, min(100, int(v)))
}
