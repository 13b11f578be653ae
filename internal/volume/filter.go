package volume

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ChangeFilter forwards a level to its sink only when it moved by at least
// the threshold since the last forwarded level, or when it reaches 0 or 100.
// Repeated identical levels are never forwarded twice.
type ChangeFilter struct {
	sink      Sink
	threshold int
	log       zerolog.Logger

	mu   sync.Mutex
	last int
	sent bool
}

// NewChangeFilter wraps sink. A threshold below 1 forwards every change.
func NewChangeFilter(sink Sink, threshold int, log zerolog.Logger) *ChangeFilter {
	return &ChangeFilter{
		sink:      sink,
		threshold: max(1, threshold),
		log:       log.With().Str("sink", sink.Name()).Logger(),
	}
}

// Apply forwards level if it passes the filter. It reports whether the sink was called.
// A failed sink call does not update the last forwarded level, so the next frame retries.
func (f *ChangeFilter) Apply(ctx context.Context, level int) (bool, error) {
	level = Clamp(level)

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.shouldSend(level) {
		return false, nil
	}

	if err := f.sink.SetVolume(ctx, level); err != nil {
		return true, err
	}

	f.log.Debug().Int("from", f.last).Int("to", level).Msg("volume changed")
	f.last = level
	f.sent = true
	return true, nil
}

// Last returns the last level forwarded and whether any level has been forwarded.
func (f *ChangeFilter) Last() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.sent
}

// Reset forgets the last forwarded level.
func (f *ChangeFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = false
	f.last = 0
}

func (f *ChangeFilter) shouldSend(level int) bool {
	if !f.sent {
		return true
	}
	if level == f.last {
		return false
	}
	if level == 0 || level == 100 {
		return true
	}
	diff := level - f.last
	if diff < 0 {
		diff = -diff
	}
	return diff >= f.threshold
}
