package clock

import (
	"testing"
	"time"
)

func TestClockSingleWriter(t *testing.T) {
	var c Clock
	c.Set(31.5, true)
	f := c.NewFrame(2*time.Second, 7)
	if f.Time != 31.5 || !f.Playing || f.Tick != 7 || f.Wall != 2*time.Second {
		t.Fatalf("frame = %+v", f)
	}
	// A frame is a snapshot; later writes do not tear it.
	c.Set(40, true)
	if f.Time != 31.5 {
		t.Fatalf("frame time changed to %v", f.Time)
	}
}

func TestClockClampsAndResets(t *testing.T) {
	var c Clock
	c.Set(-1, false)
	if c.Now() != 0 {
		t.Fatalf("negative position not clamped: %v", c.Now())
	}
	c.Set(100, true)
	c.Reset()
	if c.Now() != 0 || c.Playing() {
		t.Fatalf("reset left %v playing=%v", c.Now(), c.Playing())
	}
}
