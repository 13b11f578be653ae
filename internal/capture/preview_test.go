package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestPreview_Watch(t *testing.T) {
	p := NewPreview()
	if p.Watching() {
		t.Fatal("new preview should have no watchers")
	}

	release := p.Watch()
	if !p.Watching() {
		t.Fatal("expected a watcher after Watch")
	}

	p.Set([]byte{0xff, 0xd8})
	data, seq := p.Latest()
	if len(data) != 2 || seq != 1 {
		t.Errorf("expected 2 bytes at seq 1, got %d bytes at seq %d", len(data), seq)
	}

	release()
	release()
	if p.Watching() {
		t.Error("release should unregister exactly once")
	}
	if data, _ := p.Latest(); data != nil {
		t.Error("frame should be dropped when the last watcher leaves")
	}
}

func TestPreview_PublishWithoutWatchers(t *testing.T) {
	p := NewPreview()
	if err := p.Publish(nil); err != nil {
		t.Fatalf("Publish(nil) error = %v", err)
	}
	if _, seq := p.Latest(); seq != 0 {
		t.Errorf("nothing should be published, seq = %d", seq)
	}
}

func TestPreview_PublishEncodes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	p := NewPreview()
	defer p.Watch()()

	if err := p.Publish(&frame); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	data, seq := p.Latest()
	if seq != 1 {
		t.Errorf("expected seq 1, got %d", seq)
	}
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Error("expected JPEG bytes")
	}
}
