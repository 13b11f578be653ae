package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Preview holds the most recent frame as JPEG for stream viewers.
// Frames are only encoded while at least one viewer is watching, so the
// frame loop pays nothing when the stream is unused.
type Preview struct {
	mu       sync.RWMutex
	jpeg     []byte
	seq      uint64
	watchers int
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Watch registers a viewer. The returned func unregisters it.
func (p *Preview) Watch() (release func()) {
	p.mu.Lock()
	p.watchers++
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.watchers--
			if p.watchers == 0 {
				p.jpeg = nil
			}
			p.mu.Unlock()
		})
	}
}

// Watching reports whether any viewer is registered.
func (p *Preview) Watching() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.watchers > 0
}

// Publish encodes frame as JPEG when someone is watching.
func (p *Preview) Publish(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() || !p.Watching() {
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	p.Set(data)
	return nil
}

// Set stores already encoded JPEG bytes.
func (p *Preview) Set(jpeg []byte) {
	p.mu.Lock()
	p.jpeg = jpeg
	p.seq++
	p.mu.Unlock()
}

// Latest returns the last frame and its sequence number. The sequence grows
// by one per published frame, so callers can skip frames they already sent.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq
}
