package schedule

import (
	"math"
	"time"

	"github.com/cbegin/avsync-go/internal/clock"
)

const minScale = 0.01

// SkipInterval maps a performance scale to the number of ticks between two
// full updates: max(1, round(1/scale)). Out-of-range scales are clamped.
func SkipInterval(scale float64) int {
	if math.IsNaN(scale) || scale > 1 {
		scale = 1
	}
	if scale < minScale {
		scale = minScale
	}
	n := int(math.Round(1 / scale))
	if n < 1 {
		return 1
	}
	return n
}

// FPSCap admits at most FPS updates per second of wall-clock time.
type FPSCap struct {
	FPS float64

	last   time.Duration
	primed bool
}

// Allow reports whether enough wall time has passed since the last admitted
// update and records now when it has.
func (c *FPSCap) Allow(now time.Duration) bool {
	if c.FPS <= 0 {
		return true
	}
	interval := time.Duration(float64(time.Second) / c.FPS)
	if c.primed && now-c.last < interval {
		return false
	}
	c.last = now
	c.primed = true
	return true
}

func (c *FPSCap) Reset() { c.primed = false }

// Gate decides per tick whether a driver does its full work. Three stages
// apply in order and multiply: the scale skip interval, a fixed divisor over
// the ticks that passed the skip, and a wall-clock cap that only applies in
// low quality mode (or always, with AlwaysCap).
type Gate struct {
	// Multiplier scales the global performance scale for this driver.
	// Zero means 1.
	Multiplier float64
	Divisor    int
	Cap        FPSCap
	AlwaysCap  bool

	ticks  uint64
	passed uint64
}

// Allow advances the gate by one tick.
func (g *Gate) Allow(f *clock.Frame) bool {
	tick := g.ticks
	g.ticks++

	scale := f.Scale
	if g.Multiplier > 0 {
		scale *= g.Multiplier
	}
	if tick%uint64(SkipInterval(scale)) != 0 {
		return false
	}

	stage := g.passed
	g.passed++
	if g.Divisor > 1 && stage%uint64(g.Divisor) != 0 {
		return false
	}

	if g.Cap.FPS > 0 && (f.LowQuality || g.AlwaysCap) {
		return g.Cap.Allow(f.Wall)
	}
	return true
}

func (g *Gate) Reset() {
	g.ticks = 0
	g.passed = 0
	g.Cap.Reset()
}
