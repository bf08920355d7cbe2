package drivers

import (
	"math"

	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/surface"
	"github.com/cbegin/avsync-go/internal/timeline"
)

type ScreenConfig struct {
	InvertStart float64 `yaml:"invert_start"`
	InvertEnd   float64 `yaml:"invert_end"`

	ShakeWindows []timeline.Window `yaml:"shake_windows"`
	ShakeOn      float64           `yaml:"shake_on"`
	ShakeOff     float64           `yaml:"shake_off"`
	CenterAmp    float64           `yaml:"center_amp"`
	StarsAmp     float64           `yaml:"stars_amp"`
	Seed         uint64            `yaml:"seed"`
}

func DefaultScreenConfig() ScreenConfig {
	return ScreenConfig{
		InvertStart: 128,
		InvertEnd:   160.06,
		ShakeWindows: []timeline.Window{
			{Start: 31.5, End: 95},
			{Start: 127.03, End: 192},
		},
		ShakeOn:   1.5,
		ShakeOff:  0.5,
		CenterAmp: 4,
		StarsAmp:  1.5,
		Seed:      0x5ba4e,
	}
}

// Screen applies whole-screen filters: the colour invert of the breakdown,
// the drop shake and the intro triangle fades.
type Screen struct {
	cfg       ScreenConfig
	sink      surface.Surface
	triangles timeline.Track
	fade      timeline.Track
	suppress  bool
}

func NewScreen(cfg ScreenConfig, lib timeline.Library, sink surface.Surface) *Screen {
	return &Screen{
		cfg:       cfg,
		sink:      sink,
		triangles: lib.GetOr(TrackTriangles, 1),
		fade:      lib.GetOr(TrackTrianglesFade, 1),
	}
}

// SuppressShake turns the shake off while another effect owns the frame.
func (s *Screen) SuppressShake(v bool) { s.suppress = v }

func (s *Screen) Inverted(t float64) bool { return t >= s.cfg.InvertStart && t < s.cfg.InvertEnd }

// Shaking reports whether t falls in the on part of a shake cycle.
func (s *Screen) Shaking(t float64) bool {
	if s.suppress {
		return false
	}
	for _, w := range s.cfg.ShakeWindows {
		if t < w.Start || t >= w.End {
			continue
		}
		cycle := s.cfg.ShakeOn + s.cfg.ShakeOff
		if cycle <= 0 {
			return false
		}
		return math.Mod(t-w.Start, cycle) < s.cfg.ShakeOn
	}
	return false
}

// Shake returns the offsets for t scaled by amp. Offsets are a function of
// the seed and t only.
func (s *Screen) Shake(t, amp float64) (dx, dy float64) {
	if !s.Shaking(t) {
		return 0, 0
	}
	r := hashTime(s.cfg.Seed, t)
	return (r.Float64() - 0.5) * amp, (r.Float64() - 0.5) * amp
}

func (s *Screen) Update(f *clock.Frame) {
	t := f.Time
	inv, hue := 0.0, 0.0
	if s.Inverted(t) {
		inv, hue = 1, 180
	}
	s.sink.SetStyle(ElemScene, surface.Invert, inv)
	s.sink.SetStyle(ElemScene, surface.HueRotate, hue)

	cx, cy := s.Shake(t, s.cfg.CenterAmp)
	s.sink.SetStyle(ElemCenter, surface.TranslateX, cx)
	s.sink.SetStyle(ElemCenter, surface.TranslateY, cy)
	sx, sy := s.Shake(t, s.cfg.StarsAmp)
	s.sink.SetStyle(ElemStars, surface.TranslateX, sx)
	s.sink.SetStyle(ElemStars, surface.TranslateY, sy)

	s.sink.SetStyle(ElemTriangles, surface.Opacity, s.triangles.Value(t)*s.fade.Value(t))
}

func (s *Screen) Reset()         { s.suppress = false }
func (s *Screen) Resync(float64) {}
