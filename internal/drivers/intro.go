package drivers

import (
	"image/color"
	"math"

	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/surface"
	"github.com/cbegin/avsync-go/internal/timeline"
)

type IntroConfig struct {
	Count  int     `yaml:"count"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	// FPS caps redraws on the wall clock on every device.
	FPS         float64 `yaml:"fps"`
	ColorChance float64 `yaml:"color_chance"`
	CrossChance float64 `yaml:"cross_chance"`
	Blur        float64 `yaml:"blur"`
	Seed        uint64  `yaml:"seed"`
}

func DefaultIntroConfig() IntroConfig {
	return IntroConfig{
		Count:       120,
		Width:       1920,
		Height:      1080,
		FPS:         8,
		ColorChance: 0.6,
		CrossChance: 0.05,
		Blur:        0.5,
		Seed:        0x1e7a0,
	}
}

var introPalette = []color.RGBA{
	{255, 255, 255, 255},
	{255, 240, 200, 255},
	{255, 220, 200, 255},
	{240, 240, 255, 255},
	{255, 200, 240, 255},
	{220, 255, 240, 255},
	{255, 255, 200, 255},
}

type introStar struct {
	x, y, size, opacity float64
	speed, phase        float64
	color               color.RGBA
	cross               bool
	crossSpeed, spin    float64
}

// Intro is the twinkling star field laid over the opening. Its fade follows
// the playback clock; the twinkle follows wall time so it keeps moving
// before the music starts.
type Intro struct {
	cfg   IntroConfig
	sink  surface.Surface
	fade  timeline.Track
	stars []introStar
	buf   []surface.Sprite
}

func NewIntro(cfg IntroConfig, lib timeline.Library, sink surface.Surface) *Intro {
	in := &Intro{cfg: cfg, sink: sink, fade: lib.GetOr(TrackIntroOpacity, 0)}
	in.Reset()
	return in
}

func (in *Intro) Reset() {
	rng := NewRand(in.cfg.Seed)
	in.stars = make([]introStar, in.cfg.Count)
	for i := range in.stars {
		s := &in.stars[i]
		s.x = rng.Range(0, in.cfg.Width)
		s.y = rng.Range(0, in.cfg.Height)
		s.size = rng.Range(0.3, 1.5)
		s.opacity = rng.Range(0.3, 1)
		s.speed = rng.Range(1, 4)
		s.phase = rng.Range(0, 2*math.Pi)
		s.color = introPalette[int(rng.Float64()*float64(len(introPalette)))]
		if rng.Float64() >= in.cfg.ColorChance {
			s.color = introPalette[0]
		}
		s.cross = rng.Float64() < in.cfg.CrossChance
		s.crossSpeed = rng.Range(4, 12)
		s.spin = rng.Range(2, 6)
	}
}

func (in *Intro) Resync(float64) {}

func twinkle(x float64) float64 { return math.Sin(x)*0.5 + 0.5 }

func (in *Intro) Update(f *clock.Frame) {
	op := in.fade.Value(f.Time)
	in.sink.SetStyle(ElemIntro, surface.Opacity, op)
	in.sink.SetStyle(ElemIntro, surface.Blur, in.cfg.Blur)

	in.buf = in.buf[:0]
	if op > 0 {
		el := f.Wall.Seconds()
		for _, s := range in.stars {
			sp := surface.Sprite{X: s.x, Y: s.y, Size: s.size, Color: s.color}
			if s.cross {
				sp.Cross = true
				sp.Opacity = s.opacity * twinkle(el*s.crossSpeed)
				sp.Rotate = el * s.spin
			} else {
				sp.Opacity = s.opacity * twinkle(el*s.speed+s.phase)
			}
			in.buf = append(in.buf, sp)
		}
	}
	in.sink.DrawSprites(ElemIntro, in.buf)
}
