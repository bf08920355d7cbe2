package drivers

import (
	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/easing"
	"github.com/cbegin/avsync-go/internal/lfo"
	"github.com/cbegin/avsync-go/internal/surface"
	"github.com/cbegin/avsync-go/internal/timeline"
)

type OrbitConfig struct {
	SpinTimes     []float64 `yaml:"spin_times"`
	SpinDuration  float64   `yaml:"spin_duration"`
	BlendDuration float64   `yaml:"blend_duration"`
	Cooldown      float64   `yaml:"cooldown"`
	SpinDegrees   float64   `yaml:"spin_degrees"`

	Yaw      lfo.LFO `yaml:"yaw"`
	Pitch    lfo.LFO `yaml:"pitch"`
	Distance lfo.LFO `yaml:"distance"`
}

func DefaultOrbitConfig() OrbitConfig {
	return OrbitConfig{
		SpinTimes:     []float64{30.89, 126.9},
		SpinDuration:  1.0,
		BlendDuration: 0.5,
		Cooldown:      1.0,
		SpinDegrees:   360,
		Yaw:           lfo.LFO{Depth: 20, Rate: 0.3},
		Pitch:         lfo.LFO{Offset: 75, Depth: 15, Rate: 0.2},
		Distance:      lfo.LFO{Offset: 105, Depth: 20, Rate: 0.25},
	}
}

type OrbitState int

const (
	OrbitNormal OrbitState = iota
	OrbitSpinning
	OrbitBlending
)

func (s OrbitState) String() string {
	switch s {
	case OrbitSpinning:
		return "spinning"
	case OrbitBlending:
		return "blending"
	default:
		return "normal"
	}
}

// OrbitRuntime is the orbit driver's phase-exit state. It only changes on a
// state transition or an accepted manual trigger.
type OrbitRuntime struct {
	State OrbitState
	// SpinStart is when the current or last spin began.
	SpinStart float64
	// BaseYaw accumulates the yaw left behind by finished spins.
	BaseYaw float64
	// Origin is the clock time the oscillation restarts from (last exit).
	Origin float64
	// Exit values are captured at the instant a spin ends; the blend starts
	// from them.
	ExitYaw   float64
	ExitPitch float64
	ExitDist  float64
	// NormalSince is when the state machine last entered NORMAL. Scheduled
	// spins that started before it are skipped.
	NormalSince float64
	Next        int
	Manual      timeline.Trigger
}

// Orbit drives the model camera through NORMAL, SPINNING and BLENDING.
// Yaw, pitch and distance all derive from one oscillation time per tick.
type Orbit struct {
	cfg    OrbitConfig
	sink   surface.Surface
	window timeline.Window
	rt     OrbitRuntime
	last   surface.Orbit
}

// NewOrbit builds the driver. end is the playback end; manual spins are
// rejected outside (0, end).
func NewOrbit(cfg OrbitConfig, end float64, sink surface.Surface) *Orbit {
	o := &Orbit{cfg: cfg, sink: sink, window: timeline.Window{Start: 0, End: end}}
	o.Reset()
	return o
}

func (o *Orbit) Reset() {
	o.rt = OrbitRuntime{
		Manual: timeline.Trigger{Active: o.cfg.SpinDuration + o.cfg.BlendDuration, Cooldown: o.cfg.Cooldown},
	}
	o.last = o.pose(0)
}

// Resync drops any spin in progress and restarts the oscillation as if the
// clock had always been at t. Scheduled spins already begun are skipped.
func (o *Orbit) Resync(t float64) {
	o.Reset()
	o.rt.NormalSince = t
	o.last = o.pose(t)
}

// Runtime returns a copy of the phase-exit state.
func (o *Orbit) Runtime() OrbitRuntime { return o.rt }

// Pose returns the last computed orbit.
func (o *Orbit) Pose() surface.Orbit { return o.last }

// Trigger starts a manual spin at t. It is rejected while a spin or blend
// is running, within the cooldown, when not playing, or outside playback.
func (o *Orbit) Trigger(t float64, playing bool) bool {
	if !playing {
		return false
	}
	o.advance(t)
	if o.rt.State != OrbitNormal || !o.rt.Manual.Ready(t, o.window) {
		return false
	}
	o.rt.Manual.Fire(t, o.window)
	o.enterSpin(t)
	return true
}

func (o *Orbit) Update(f *clock.Frame) {
	o.advance(f.Time)
	o.last = o.pose(f.Time)
	o.sink.SetOrbit(ElemModel, o.last)
}

func (o *Orbit) enterSpin(at float64) {
	o.rt.State = OrbitSpinning
	o.rt.SpinStart = at
}

// advance applies every transition up to t. Boundaries are evaluated at
// their exact instants, not at the tick that noticed them.
func (o *Orbit) advance(t float64) {
	spins := o.cfg.SpinTimes
	for {
		switch o.rt.State {
		case OrbitNormal:
			for o.rt.Next < len(spins) && spins[o.rt.Next] < o.rt.NormalSince {
				o.rt.Next++
			}
			if o.rt.Next < len(spins) && t >= spins[o.rt.Next] {
				o.enterSpin(spins[o.rt.Next])
				o.rt.Next++
				continue
			}
			return
		case OrbitSpinning:
			end := o.rt.SpinStart + o.cfg.SpinDuration
			if t < end {
				return
			}
			exit := o.pose(end)
			o.rt.ExitYaw = exit.Yaw
			o.rt.ExitPitch = exit.Pitch
			o.rt.ExitDist = exit.Distance
			o.rt.BaseYaw = exit.Yaw
			o.rt.Origin = end
			o.rt.State = OrbitBlending
		case OrbitBlending:
			end := o.rt.Origin + o.cfg.BlendDuration
			if t < end {
				return
			}
			o.rt.State = OrbitNormal
			o.rt.NormalSince = end
		}
	}
}

// pose evaluates the current state at t without changing it.
func (o *Orbit) pose(t float64) surface.Orbit {
	tau := t - o.rt.Origin
	yaw := o.cfg.Yaw.At(tau)
	pitch := o.cfg.Pitch.At(tau)
	dist := o.cfg.Distance.At(tau)
	switch o.rt.State {
	case OrbitSpinning:
		p := 1.0
		if o.cfg.SpinDuration > 0 {
			p = (t - o.rt.SpinStart) / o.cfg.SpinDuration
		}
		return surface.Orbit{
			Yaw:      o.rt.BaseYaw + yaw + o.cfg.SpinDegrees*easing.CubicOut.Apply(p),
			Pitch:    pitch,
			Distance: dist,
		}
	case OrbitBlending:
		h := timeline.Handoff{Start: o.rt.Origin, Duration: o.cfg.BlendDuration, Ease: easing.Smoothstep}
		h.From = o.rt.ExitYaw
		y := h.Value(t, o.rt.BaseYaw+yaw)
		h.From = o.rt.ExitPitch
		pt := h.Value(t, pitch)
		h.From = o.rt.ExitDist
		d := h.Value(t, dist)
		return surface.Orbit{Yaw: y, Pitch: pt, Distance: d}
	default:
		return surface.Orbit{Yaw: o.rt.BaseYaw + yaw, Pitch: pitch, Distance: dist}
	}
}
