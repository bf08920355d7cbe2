package schedule

import (
	"testing"
	"time"

	"github.com/cbegin/avsync-go/internal/clock"
)

type countingDriver struct {
	updates  int
	resets   int
	resyncAt float64
	lastTime float64
	order    *[]string
	name     string
}

func (d *countingDriver) Update(f *clock.Frame) {
	d.updates++
	d.lastTime = f.Time
	if d.order != nil {
		*d.order = append(*d.order, d.name)
	}
}
func (d *countingDriver) Reset()           { d.resets++ }
func (d *countingDriver) Resync(t float64) { d.resyncAt = t }

func frameAt(tick int, scale float64) *clock.Frame {
	return &clock.Frame{
		Time:  float64(tick) / 60,
		Wall:  time.Duration(tick) * time.Second / 60,
		Tick:  uint64(tick),
		Scale: scale,
	}
}

func TestSkipInterval(t *testing.T) {
	cases := []struct {
		scale float64
		want  int
	}{
		{1, 1},
		{0.77, 1},
		{0.5, 2},
		{0.4, 3},
		{0.33, 3},
		{0.25, 4},
		{2, 1},
		{0, 100},
		{-1, 100},
	}
	for _, tc := range cases {
		if got := SkipInterval(tc.scale); got != tc.want {
			t.Errorf("SkipInterval(%v) = %d, want %d", tc.scale, got, tc.want)
		}
	}
}

func TestGateStagesMultiply(t *testing.T) {
	cases := []struct {
		name  string
		gate  Gate
		scale float64
		ticks int
		want  int
	}{
		{"every tick", Gate{}, 1, 60, 60},
		{"scale half", Gate{}, 0.5, 60, 30},
		{"divisor six", Gate{Divisor: 6}, 1, 60, 10},
		{"scale half and divisor six", Gate{Divisor: 6}, 0.5, 60, 5},
		{"multiplier half", Gate{Multiplier: 0.5}, 1, 60, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := tc.gate
			n := 0
			for i := 0; i < tc.ticks; i++ {
				if g.Allow(frameAt(i, tc.scale)) {
					n++
				}
			}
			if n != tc.want {
				t.Fatalf("full updates = %d, want %d", n, tc.want)
			}
		})
	}
}

func TestGateWallClockCapOnlyInLowQuality(t *testing.T) {
	g := Gate{Cap: FPSCap{FPS: 30}}
	n := 0
	for i := 0; i < 60; i++ {
		f := frameAt(i, 1)
		if g.Allow(f) {
			n++
		}
	}
	if n != 60 {
		t.Fatalf("cap applied outside low quality: %d", n)
	}

	g.Reset()
	n = 0
	for i := 0; i < 120; i++ {
		// 120 Hz display for one second.
		f := &clock.Frame{Wall: time.Duration(i) * time.Second / 120, Scale: 1, LowQuality: true}
		if g.Allow(f) {
			n++
		}
	}
	if n < 29 || n > 31 {
		t.Fatalf("30 fps cap admitted %d updates in one second", n)
	}
}

func TestSchedulerOrderAndStop(t *testing.T) {
	var order []string
	a := &countingDriver{name: "a", order: &order}
	b := &countingDriver{name: "b", order: &order}
	s := New()
	s.Register("a", a, Gate{})
	s.Register("b", b, Gate{Divisor: 2})

	for i := 0; i < 4; i++ {
		s.Tick(frameAt(i, 1))
	}
	want := []string{"a", "b", "a", "a", "b", "a"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if s.Runs("b") != 2 {
		t.Fatalf("Runs(b) = %d", s.Runs("b"))
	}

	s.Stop()
	if ran := s.Tick(frameAt(4, 1)); ran != 0 || a.updates != 4 {
		t.Fatalf("stopped scheduler ran %d drivers", ran)
	}
}

func TestSkippedTicksStillSeeLatestClock(t *testing.T) {
	d := &countingDriver{}
	s := New()
	s.Register("slow", d, Gate{})
	for i := 0; i < 7; i++ {
		s.Tick(frameAt(i, 1.0/3))
	}
	// Full updates at ticks 0, 3 and 6; the last one reads tick 6's time.
	if d.updates != 3 || d.lastTime != 6.0/60 {
		t.Fatalf("updates=%d lastTime=%v", d.updates, d.lastTime)
	}
}

func TestSchedulerResetAndResync(t *testing.T) {
	d := &countingDriver{}
	s := New()
	s.Register("d", d, Gate{Divisor: 3})
	s.Tick(frameAt(0, 1))
	s.Tick(frameAt(1, 1))
	s.Reset()
	if d.resets != 1 || s.Runs("d") != 0 {
		t.Fatalf("reset not fanned out: resets=%d runs=%d", d.resets, s.Runs("d"))
	}
	// The gate restarts too, so the first tick after reset runs.
	s.Tick(frameAt(2, 1))
	if d.updates != 2 {
		t.Fatalf("updates after reset = %d, want 2", d.updates)
	}
	s.Resync(95.8)
	if d.resyncAt != 95.8 {
		t.Fatalf("resync at %v", d.resyncAt)
	}
}

func TestAdaptiveScale(t *testing.T) {
	a := NewAdaptiveScale(1)
	for i := 0; i < 10; i++ {
		a.Observe(40 * time.Millisecond)
	}
	if got := a.Scale(); got != 0.75 {
		t.Fatalf("slow frames: scale = %v, want 0.75", got)
	}
	for i := 0; i < 200; i++ {
		a.Observe(40 * time.Millisecond)
	}
	if got := a.Scale(); got != 0.33 {
		t.Fatalf("scale floor = %v, want 0.33", got)
	}
	for i := 0; i < 10; i++ {
		a.Observe(5 * time.Millisecond)
	}
	if got := a.Scale(); got <= 0.33 {
		t.Fatalf("fast frames did not recover: %v", got)
	}
	for i := 0; i < 10000; i++ {
		a.Observe(5 * time.Millisecond)
	}
	if got := a.Scale(); got != 1 {
		t.Fatalf("scale ceiling = %v, want 1", got)
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	d := Debouncer{Delay: DefaultResizeDelay}
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	d.Trigger(ms(0))
	d.Trigger(ms(100))
	d.Trigger(ms(200))
	if d.Due(ms(300)) {
		t.Fatalf("fired before the last trigger settled")
	}
	if !d.Due(ms(450)) {
		t.Fatalf("did not fire after settle")
	}
	if d.Due(ms(900)) {
		t.Fatalf("fired twice for one burst")
	}
}
