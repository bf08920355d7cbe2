package drivers

import (
	"fmt"
	"math"

	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/easing"
	"github.com/cbegin/avsync-go/internal/surface"
	"github.com/cbegin/avsync-go/internal/timeline"
)

type StarLayerConfig struct {
	Name        string  `yaml:"name"`
	Count       int     `yaml:"count"`
	MobileCount int     `yaml:"mobile_count"`
	Speed       float64 `yaml:"speed"`
	Size        float64 `yaml:"size"`
	Opacity     float64 `yaml:"opacity"`
	Blur        float64 `yaml:"blur"`
	Scale       float64 `yaml:"scale"`
}

type StarsConfig struct {
	Width  float64           `yaml:"width"`
	Height float64           `yaml:"height"`
	Layers []StarLayerConfig `yaml:"layers"`

	DropStart      float64 `yaml:"drop_start"`
	Breakdown      float64 `yaml:"breakdown"`
	DecelDuration  float64 `yaml:"decel_duration"`
	RiseStart      float64 `yaml:"rise_start"`
	InvertBack     float64 `yaml:"invert_back"`
	DropMultiplier float64 `yaml:"drop_multiplier"`
	// ReferenceHz converts elapsed clock time to per-frame steps.
	ReferenceHz float64 `yaml:"reference_hz"`
	TrailLength float64 `yaml:"trail_length"`
	// AnimationKill stops simulating once the field has faded out.
	AnimationKill float64 `yaml:"animation_kill"`

	PulseThreshold float64 `yaml:"pulse_threshold"`
	PulseChance    float64 `yaml:"pulse_chance"`
	PulseKill      float64 `yaml:"pulse_kill"`

	BlinkCount     int     `yaml:"blink_count"`
	HyperCount     int     `yaml:"hyper_count"`
	HyperSpeed     float64 `yaml:"hyper_speed"`
	ReverseStart   float64 `yaml:"reverse_start"`
	ReverseEnd     float64 `yaml:"reverse_end"`
	ReverseOpacity float64 `yaml:"reverse_opacity"`

	ChromaFirst  timeline.Window `yaml:"chroma_first"`
	ChromaSecond timeline.Window `yaml:"chroma_second"`
	ChromaMax    float64         `yaml:"chroma_max"`
	ChromaScale  float64         `yaml:"chroma_scale"`

	Seed uint64 `yaml:"seed"`
}

func DefaultStarsConfig() StarsConfig {
	return StarsConfig{
		Width:  1920,
		Height: 1080,
		Layers: []StarLayerConfig{
			{Name: "far", Count: 50, MobileCount: 35, Speed: 0.0125, Size: 0.5, Opacity: 0.3, Blur: 0, Scale: 0.7},
			{Name: "mid", Count: 35, MobileCount: 25, Speed: 0.0215, Size: 0.75, Opacity: 0.5, Blur: 2, Scale: 0.85},
			{Name: "close", Count: 20, MobileCount: 10, Speed: 0.0313, Size: 1, Opacity: 0.8, Blur: 0, Scale: 1},
		},
		DropStart:      31.85,
		Breakdown:      95.8,
		DecelDuration:  2,
		RiseStart:      127.78,
		InvertBack:     160,
		DropMultiplier: 150,
		ReferenceHz:    60,
		TrailLength:    8,
		AnimationKill:  227,
		PulseThreshold: 0.25,
		PulseChance:    0.000375,
		PulseKill:      206,
		BlinkCount:     80,
		HyperCount:     40,
		HyperSpeed:     0.015,
		ReverseStart:   63.76,
		ReverseEnd:     127,
		ReverseOpacity: 0.85,
		ChromaFirst:    timeline.Window{Start: 64, End: 95.8},
		ChromaSecond:   timeline.Window{Start: 160, End: 240},
		ChromaMax:      3,
		ChromaScale:    0.6,
		Seed:           0x5eed,
	}
}

// Velocity phase kinds.
const (
	StarsNormal timeline.Kind = "normal"
	StarsDrop   timeline.Kind = "drop"
	StarsDecel  timeline.Kind = "decel"
	StarsRise   timeline.Kind = "rise"
)

// VelocityTable builds the phase table that selects the star velocity rule.
func (c StarsConfig) VelocityTable() (timeline.Table, error) {
	return timeline.NewTable(
		timeline.Phase{Start: c.DropStart, End: c.Breakdown, Kind: StarsDrop},
		timeline.Phase{Start: c.Breakdown, End: c.Breakdown + c.DecelDuration, Kind: StarsDecel},
		timeline.Phase{Start: c.RiseStart, End: c.InvertBack, Kind: StarsRise},
		timeline.Phase{Start: c.InvertBack, End: math.Inf(1), Kind: StarsDrop},
	)
}

// Star is one particle of a drifting layer, in canvas pixels.
type Star struct {
	X, Y           float64
	BaseVX, BaseVY float64
	VX, VY         float64
	Pulse          float64
	PulseDecay     float64
	// DecelFrom is the vertical velocity captured when deceleration began.
	DecelFrom float64
}

type starLayer struct {
	cfg   StarLayerConfig
	stars []Star
	buf   []surface.Sprite
}

type blinkStar struct {
	x, y, vx, vy  float64
	size, opacity float64
	speed, phase  float64
}

type depthStar struct{ x, y, z float64 }

// Stars simulates the three drifting layers plus the blinking, hyperspace
// and reverse layers, and animates the canvas they share.
type Stars struct {
	cfg    StarsConfig
	mobile bool
	sink   surface.Surface
	table  timeline.Table

	opacity  timeline.Track
	blur     timeline.Track
	zoom     timeline.Track
	rotation timeline.Track
	wrapBlur timeline.Track
	chroma   timeline.Track
	blinkOp  timeline.Track
	hyperOp  timeline.Track

	rng     *Rand
	layers  []starLayer
	blink   []blinkStar
	hyper   []depthStar
	reverse []depthStar
	buf     []surface.Sprite

	tiltX, tiltY float64

	primed   bool
	lastTime float64
	prevKind timeline.Kind
}

func NewStars(cfg StarsConfig, mobile bool, lib timeline.Library, sink surface.Surface) (*Stars, error) {
	table, err := cfg.VelocityTable()
	if err != nil {
		return nil, fmt.Errorf("stars: velocity table: %w", err)
	}
	s := &Stars{
		cfg:      cfg,
		mobile:   mobile,
		sink:     sink,
		table:    table,
		opacity:  lib.GetOr(TrackStarsOpacity, 1),
		blur:     lib.Get(TrackStarsBlur),
		zoom:     lib.GetOr(TrackStarsZoom, 1),
		rotation: lib.Get(TrackStarsRotation),
		wrapBlur: lib.Get(TrackStarsWrapBlur),
		chroma:   lib.GetOr(TrackChromaFade, 1),
		blinkOp:  lib.GetOr(TrackBlinkOpacity, 1),
		hyperOp:  lib.Get(TrackHyperOpacity),
	}
	s.Reset()
	return s, nil
}

// Reset reseeds the generator and rebuilds every layer, so a replay draws
// the same field as the first run.
func (s *Stars) Reset() {
	s.rng = NewRand(s.cfg.Seed)
	w, h := s.cfg.Width, s.cfg.Height

	s.layers = s.layers[:0]
	for _, lc := range s.cfg.Layers {
		n := lc.Count
		if s.mobile {
			n = lc.MobileCount
		}
		l := starLayer{cfg: lc, stars: make([]Star, n)}
		for i := range l.stars {
			st := &l.stars[i]
			st.X = s.rng.Range(0, w)
			st.Y = s.rng.Range(0, h)
			st.BaseVX = s.rng.Range(-0.5, 0.5) * lc.Speed
			st.BaseVY = s.rng.Range(-0.5, 0.5) * lc.Speed
			st.VX, st.VY = st.BaseVX, st.BaseVY
			st.PulseDecay = 0.05 + s.rng.Float64()*0.05
		}
		s.layers = append(s.layers, l)
	}

	s.blink = make([]blinkStar, s.cfg.BlinkCount)
	for i := range s.blink {
		s.blink[i] = blinkStar{
			x:       s.rng.Range(0, w),
			y:       s.rng.Range(0, h),
			vx:      s.rng.Range(-0.005, 0.005),
			vy:      s.rng.Range(-0.005, 0.005),
			size:    s.rng.Range(0.5, 2),
			opacity: s.rng.Range(0.4, 1),
			speed:   s.rng.Range(1, 3),
			phase:   s.rng.Range(0, 2*math.Pi),
		}
	}
	s.hyper = s.depthField(s.cfg.HyperCount)
	s.reverse = s.depthField(s.cfg.HyperCount)

	s.primed = false
	s.lastTime = 0
	s.prevKind = ""
}

func (s *Stars) depthField(n int) []depthStar {
	out := make([]depthStar, n)
	for i := range out {
		out[i] = depthStar{
			x: s.rng.Range(-1, 1) * s.cfg.Width,
			y: s.rng.Range(-1, 1) * s.cfg.Height,
			z: s.rng.Range(0.1, 1),
		}
	}
	return out
}

// Resync keeps the field but restarts elapsed-time accounting at t. A seek
// into the deceleration window captures the current velocities.
func (s *Stars) Resync(t float64) {
	s.lastTime = t
	s.primed = true
	s.prevKind = ""
}

// SetTilt offsets the drawn positions by a device-tilt parallax, scaled by
// each layer's depth.
func (s *Stars) SetTilt(x, y float64) { s.tiltX, s.tiltY = x, y }

// Layer returns a copy of layer i's stars.
func (s *Stars) Layer(i int) []Star {
	if i < 0 || i >= len(s.layers) {
		return nil
	}
	return append([]Star(nil), s.layers[i].stars...)
}

// Velocity returns the rule in force at t and, for deceleration, the eased
// progress through it.
func (s *Stars) Velocity(t float64) (timeline.Kind, float64) {
	ph, p, ok := s.table.Locate(t)
	if !ok {
		return StarsNormal, 0
	}
	if ph.Kind == StarsDecel {
		return ph.Kind, easing.Smoothstep.Apply(p)
	}
	return ph.Kind, 0
}

// ChromaOffset is the chromatic aberration offset in pixels at t.
func (s *Stars) ChromaOffset(t float64) float64 {
	var cycles float64
	var w timeline.Window
	switch {
	case t >= s.cfg.ChromaFirst.Start && t < s.cfg.ChromaFirst.End:
		w, cycles = s.cfg.ChromaFirst, 4
	case t >= s.cfg.ChromaSecond.Start && t < s.cfg.ChromaSecond.End:
		w, cycles = s.cfg.ChromaSecond, 2
	default:
		return 0
	}
	p := (t - w.Start) / (w.End - w.Start)
	return math.Sin(p*cycles*math.Pi) * s.cfg.ChromaMax * s.cfg.ChromaScale * s.chroma.Value(t)
}

func (s *Stars) Update(f *clock.Frame) {
	t := f.Time
	s.writeCanvas(t)
	if t >= s.cfg.AnimationKill {
		return
	}

	steps := 0.0
	if s.primed && t > s.lastTime {
		steps = (t - s.lastTime) * s.cfg.ReferenceHz
	}
	s.primed = true
	s.lastTime = t

	kind, ease := s.Velocity(t)
	entering := kind == StarsDecel && s.prevKind != StarsDecel
	s.prevKind = kind

	pulsing := !s.mobile && t < s.cfg.PulseKill
	inst := f.Levels.Instruments
	active := kind != StarsNormal
	w, h := s.cfg.Width, s.cfg.Height

	for li := range s.layers {
		l := &s.layers[li]
		fast := -l.cfg.Speed * s.cfg.DropMultiplier
		depth := 1.0
		if last := s.cfg.Layers[len(s.cfg.Layers)-1].Speed; last > 0 {
			depth = l.cfg.Speed / last
		}
		l.buf = l.buf[:0]
		for i := range l.stars {
			st := &l.stars[i]
			if entering {
				st.DecelFrom = st.VY
			}
			st.VX = st.BaseVX
			switch kind {
			case StarsDrop:
				st.VY = fast
			case StarsRise:
				st.VY = -fast
			case StarsDecel:
				st.VY = easing.Lerp(st.DecelFrom, st.BaseVY, ease)
			default:
				st.VY = st.BaseVY
			}

			if !pulsing {
				st.Pulse = 0
			} else {
				if inst > s.cfg.PulseThreshold && s.rng.Float64() < s.cfg.PulseChance {
					st.Pulse = 1
				}
				if st.Pulse > 0 {
					st.Pulse = math.Max(0, st.Pulse-st.PulseDecay)
				}
			}

			st.X = wrap(st.X+st.VX*steps, w)
			st.Y = wrap(st.Y+st.VY*steps, h)

			sp := surface.Sprite{
				X:       wrap(st.X+s.tiltX*depth, w),
				Y:       wrap(st.Y+s.tiltY*depth, h),
				Size:    l.cfg.Size * l.cfg.Scale * (1 + st.Pulse*2.5),
				Opacity: l.cfg.Opacity + st.Pulse*(1-l.cfg.Opacity),
			}
			if active {
				sp.TrailX = -st.VX * s.cfg.TrailLength
				sp.TrailY = -st.VY * s.cfg.TrailLength
			}
			l.buf = append(l.buf, sp)
		}
		s.sink.DrawSprites(ElemStars+"/"+l.cfg.Name, l.buf)
	}

	s.drawBlink(t, steps)
	s.drawDepth(ElemHyper, s.hyper, -s.cfg.HyperSpeed*steps, s.hyperOp.Value(t))
	rev := 0.0
	if t >= s.cfg.ReverseStart && t < s.cfg.ReverseEnd {
		rev = s.cfg.ReverseOpacity
	}
	s.drawDepth(ElemReverse, s.reverse, s.cfg.HyperSpeed*steps, rev)
}

func (s *Stars) writeCanvas(t float64) {
	s.sink.SetStyle(ElemStars, surface.Opacity, s.opacity.Value(t))
	s.sink.SetStyle(ElemStars, surface.Blur, s.blur.Value(t)+s.wrapBlur.Value(t))
	s.sink.SetStyle(ElemStars, surface.Scale, s.zoom.Value(t))
	s.sink.SetStyle(ElemStars, surface.Rotate, s.rotation.Value(t))
	s.sink.SetStyle(ElemStars, surface.ChromaX, s.ChromaOffset(t))
	s.sink.SetStyle(ElemBlink, surface.Opacity, s.blinkOp.Value(t))
}

func (s *Stars) drawBlink(t, steps float64) {
	w, h := s.cfg.Width, s.cfg.Height
	s.buf = s.buf[:0]
	for i := range s.blink {
		b := &s.blink[i]
		b.x = wrap(b.x+b.vx*steps, w)
		b.y = wrap(b.y+b.vy*steps, h)
		s.buf = append(s.buf, surface.Sprite{
			X:       b.x,
			Y:       b.y,
			Size:    b.size,
			Opacity: b.opacity * (math.Sin(t*b.speed+b.phase)*0.5 + 0.5),
		})
	}
	s.sink.DrawSprites(ElemBlink, s.buf)
}

// drawDepth advances a perspective layer by dz and projects it. Stars that
// pass either depth limit respawn at the other one.
func (s *Stars) drawDepth(layer string, field []depthStar, dz, opacity float64) {
	const minZ, maxZ = 0.1, 1.0
	w, h := s.cfg.Width, s.cfg.Height
	s.buf = s.buf[:0]
	for i := range field {
		st := &field[i]
		st.z += dz
		if (dz < 0 && st.z <= minZ) || (dz > 0 && st.z >= maxZ) {
			st.z = maxZ
			if dz > 0 {
				st.z = minZ
			}
			st.x = s.rng.Range(-1, 1) * w
			st.y = s.rng.Range(-1, 1) * h
		}
		if opacity <= 0 {
			continue
		}
		x := w/2 + st.x*st.z
		y := h/2 + st.y*st.z
		if x < -10 || x > w+10 || y < -10 || y > h+10 {
			continue
		}
		s.buf = append(s.buf, surface.Sprite{
			X:       x,
			Y:       y,
			Size:    2.5 - (1-st.z)*2,
			Opacity: (0.3 + (1-st.z)*0.5) * opacity,
		})
	}
	s.sink.DrawSprites(layer, s.buf)
}
