package clock

import (
	"time"

	"github.com/cbegin/avsync-go/internal/analysis"
)

// Clock is the authoritative playback time in seconds. The main loop is the
// only writer and sets it once per tick before any driver runs; drivers only
// see the value through Frame.
type Clock struct {
	now     float64
	playing bool
}

// Set records the position read from the audio source for this tick.
// While paused the caller passes the frozen position.
func (c *Clock) Set(seconds float64, playing bool) {
	if seconds < 0 {
		seconds = 0
	}
	c.now = seconds
	c.playing = playing
}

func (c *Clock) Now() float64  { return c.now }
func (c *Clock) Playing() bool { return c.playing }

// Reset rewinds to 0 for replay.
func (c *Clock) Reset() {
	c.now = 0
	c.playing = false
}

// Frame is the read-only context handed to every driver for one tick. All
// outputs of a driver in one tick derive from the same Time.
type Frame struct {
	Time    float64
	Wall    time.Duration
	Tick    uint64
	Playing bool
	Mobile  bool

	// Scale is the global performance scale in (0,1].
	Scale      float64
	LowQuality bool

	Levels  analysis.Levels
	Spectra analysis.Spectra
}

// Kick reports the kick edge for this tick.
func (f *Frame) Kick() bool { return f.Levels.Kick }

// NewFrame samples the clock into a Frame.
func (c *Clock) NewFrame(wall time.Duration, tick uint64) Frame {
	return Frame{
		Time:    c.now,
		Wall:    wall,
		Tick:    tick,
		Playing: c.playing,
		Scale:   1,
	}
}
