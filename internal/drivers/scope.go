package drivers

import (
	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/surface"
	"github.com/cbegin/avsync-go/internal/timeline"
)

type ScopeConfig struct {
	Width        float64   `yaml:"width"`
	Height       float64   `yaml:"height"`
	Points       int       `yaml:"points"`
	MobilePoints int       `yaml:"mobile_points"`
	Amplitude    float64   `yaml:"amplitude"`
	Offsets      []float64 `yaml:"offsets"`
	Color        uint32    `yaml:"color"`

	VerticalStart float64 `yaml:"vertical_start"`
	VerticalEnd   float64 `yaml:"vertical_end"`
	TripleStart   float64 `yaml:"triple_start"`
	TripleEnd     float64 `yaml:"triple_end"`
}

func DefaultScopeConfig() ScopeConfig {
	return ScopeConfig{
		Width:         1920,
		Height:        1080,
		Points:        64,
		MobilePoints:  32,
		Amplitude:     200,
		Offsets:       []float64{0, -100, 100},
		Color:         0xffffff,
		VerticalStart: 127,
		VerticalEnd:   192,
		TripleStart:   128,
		TripleEnd:     192,
	}
}

// Scope draws the oscilloscope from time-domain bytes.
type Scope struct {
	cfg     ScopeConfig
	points  int
	sink    surface.Surface
	opacity timeline.Track
	lines   [][]surface.Point
}

func NewScope(cfg ScopeConfig, mobile bool, lib timeline.Library, sink surface.Surface) *Scope {
	n := cfg.Points
	if mobile && cfg.MobilePoints > 0 {
		n = cfg.MobilePoints
	}
	return &Scope{cfg: cfg, points: n, sink: sink, opacity: lib.Get(TrackScopeOpacity)}
}

func (s *Scope) Vertical(t float64) bool { return t >= s.cfg.VerticalStart && t < s.cfg.VerticalEnd }

// LineCount is the number of traces drawn at t.
func (s *Scope) LineCount(t float64) int {
	if t >= s.cfg.TripleStart && t < s.cfg.TripleEnd && len(s.cfg.Offsets) > 0 {
		return len(s.cfg.Offsets)
	}
	return 1
}

// Trace samples wave into the scope's point count. Empty input yields no
// points.
func (s *Scope) Trace(wave []byte, t, offset float64) []surface.Point {
	if len(wave) == 0 || s.points < 2 {
		return nil
	}
	vertical := s.Vertical(t)
	out := make([]surface.Point, s.points)
	for i := range out {
		v := (float64(wave[i*len(wave)/s.points]) - 128) / 128 * s.cfg.Amplitude
		u := float64(i) / float64(s.points-1)
		if vertical {
			out[i] = surface.Point{X: s.cfg.Width/2 + v + offset, Y: u * s.cfg.Height}
		} else {
			out[i] = surface.Point{X: u * s.cfg.Width, Y: s.cfg.Height/2 + v + offset}
		}
	}
	return out
}

func (s *Scope) Update(f *clock.Frame) {
	t := f.Time
	op := s.opacity.Value(t)
	s.sink.SetStyle(ElemScope, surface.Opacity, op)

	s.lines = s.lines[:0]
	if op > 0 && len(f.Spectra.Wave) > 0 {
		n := s.LineCount(t)
		for i := 0; i < n; i++ {
			off := 0.0
			if i < len(s.cfg.Offsets) {
				off = s.cfg.Offsets[i]
			}
			s.lines = append(s.lines, s.Trace(f.Spectra.Wave, t, off))
		}
	}
	s.sink.DrawLines(ElemScope, s.lines, Hex(s.cfg.Color))
}

func (s *Scope) Reset()         { s.lines = s.lines[:0] }
func (s *Scope) Resync(float64) {}
