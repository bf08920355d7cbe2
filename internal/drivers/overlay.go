package drivers

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/surface"
	"github.com/cbegin/avsync-go/internal/timeline"
)

type OverlayConfig struct {
	TitleScale float64 `yaml:"title_scale"`

	// Parallax breathing.
	PeakBins    int     `yaml:"peak_bins"`
	PeakDecay   float64 `yaml:"peak_decay"`
	ShiftGain   float64 `yaml:"shift_gain"`
	Jitter      float64 `yaml:"jitter"`
	SpringFPS   int     `yaml:"spring_fps"`
	SpringFreq  float64 `yaml:"spring_freq"`
	ParallaxEnd float64 `yaml:"parallax_end"`

	// Glitch chroma on the overlay images.
	GlitchWindows []timeline.Window `yaml:"glitch_windows"`
	GlitchGain    float64           `yaml:"glitch_gain"`
	GlitchBase    float64           `yaml:"glitch_base"`
	RedOpacity    float64           `yaml:"red_opacity"`
	BlueOpacity   float64           `yaml:"blue_opacity"`
	MirrorChance  float64           `yaml:"mirror_chance"`
	MirrorLength  float64           `yaml:"mirror_length"`
	MirrorKinds   int               `yaml:"mirror_kinds"`
	Seed          uint64            `yaml:"seed"`
}

func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{
		TitleScale:  0.7,
		PeakBins:    9,
		PeakDecay:   0.9,
		ShiftGain:   3.275 * 0.476,
		Jitter:      0.15,
		SpringFPS:   60,
		SpringFreq:  6,
		ParallaxEnd: 190,
		GlitchWindows: []timeline.Window{
			{Start: 31, End: 96},
			{Start: 127, End: 210},
		},
		GlitchGain:   2.73,
		GlitchBase:   1.55,
		RedOpacity:   0.26,
		BlueOpacity:  0.34,
		MirrorChance: 0.003,
		MirrorLength: 0.5,
		MirrorKinds:  3,
		Seed:         0x61e7c4,
	}
}

// maxSpringSteps bounds the catch-up after a long stall.
const maxSpringSteps = 240

// Elements moved by the parallax, in draw order.
var parallaxElems = []string{ElemText, ElemTitle, ElemBottom, ElemLeft, ElemRight, ElemFinal}

type parallaxElem struct {
	name       string
	gain       float64
	dirX, dirY float64
}

// Overlay fades the text and image overlays, breathes them with the drums
// and glitches them during the drops.
type Overlay struct {
	cfg   OverlayConfig
	sink  surface.Surface
	text  timeline.Track
	title timeline.Track
	final timeline.Track
	fade  timeline.Track

	spring harmonica.Spring
	fps    int
	elems  []parallaxElem
	rng    *Rand

	peak, pos, vel float64
	mirror         int
	mirrorUntil    float64

	// The spring runs at a fixed step rate; steps accumulate from clock
	// time so a gated overlay keeps pace with an ungated one.
	primed   bool
	lastTime float64
	acc      float64
}

func NewOverlay(cfg OverlayConfig, lib timeline.Library, sink surface.Surface) *Overlay {
	fps := cfg.SpringFPS
	if fps <= 0 {
		fps = 60
	}
	o := &Overlay{
		cfg:    cfg,
		sink:   sink,
		text:   lib.Get(TrackTextOpacity),
		title:  lib.GetOr(TrackTitleOpacity, 1),
		final:  lib.Get(TrackFinalOpacity),
		fade:   lib.GetOr(TrackGlitchFade, 1),
		spring: harmonica.NewSpring(harmonica.FPS(fps), cfg.SpringFreq, 1.0),
		fps:    fps,
	}
	o.Reset()
	return o
}

func (o *Overlay) Reset() {
	o.rng = NewRand(o.cfg.Seed)
	o.elems = o.elems[:0]
	for _, name := range parallaxElems {
		o.elems = append(o.elems, parallaxElem{
			name: name,
			gain: 1 + o.rng.Range(-o.cfg.Jitter, o.cfg.Jitter),
			dirX: o.rng.Sign(),
			dirY: o.rng.Sign(),
		})
	}
	o.peak, o.pos, o.vel = 0, 0, 0
	o.mirror, o.mirrorUntil = 0, 0
	o.primed, o.lastTime, o.acc = false, 0, 0
}

func (o *Overlay) Resync(t float64) {
	o.peak, o.pos, o.vel = 0, 0, 0
	o.mirror, o.mirrorUntil = 0, 0
	o.primed, o.lastTime, o.acc = true, t, 0
}

// springSteps converts the clock time since the last update into whole
// spring steps, carrying the remainder.
func (o *Overlay) springSteps(t float64) int {
	if !o.primed || t <= o.lastTime {
		o.primed = true
		o.lastTime = t
		return 0
	}
	o.acc += (t - o.lastTime) * float64(o.fps)
	o.lastTime = t
	n := math.Floor(o.acc + 1e-9)
	o.acc -= n
	if n > maxSpringSteps {
		n = maxSpringSteps
		o.acc = 0
	}
	return int(n)
}

// Shift is the current spring-smoothed parallax displacement.
func (o *Overlay) Shift() float64 { return o.pos }

// Mirror returns the active ghost-mirror variant, 0 when none.
func (o *Overlay) Mirror() int { return o.mirror }

func (o *Overlay) drumPeak(f *clock.Frame) float64 {
	bins := f.Spectra.Drums
	if len(bins) == 0 {
		return f.Levels.Drums
	}
	n := o.cfg.PeakBins
	if n <= 0 || n > len(bins) {
		n = len(bins)
	}
	sum := 0.0
	for _, b := range bins[:n] {
		sum += float64(b)
	}
	return sum / float64(n) / 255
}

func (o *Overlay) glitching(t float64) bool {
	for _, w := range o.cfg.GlitchWindows {
		if t >= w.Start && t < w.End {
			return true
		}
	}
	return false
}

func (o *Overlay) Update(f *clock.Frame) {
	t := f.Time
	o.sink.SetStyle(ElemText, surface.Opacity, o.text.Value(t))
	o.sink.SetStyle(ElemTitle, surface.Opacity, o.title.Value(t)*o.cfg.TitleScale)
	o.sink.SetStyle(ElemFinal, surface.Opacity, o.final.Value(t))

	steps := o.springSteps(t)
	target := 0.0
	if t < o.cfg.ParallaxEnd && f.Playing {
		lvl := o.drumPeak(f)
		o.peak *= math.Pow(o.cfg.PeakDecay, float64(steps))
		if lvl > o.peak {
			o.peak = lvl
		}
		target = o.peak * o.cfg.ShiftGain
	} else {
		o.peak = 0
	}
	for i := 0; i < steps; i++ {
		o.pos, o.vel = o.spring.Update(o.pos, o.vel, target)
	}
	for _, e := range o.elems {
		o.sink.SetStyle(e.name, surface.TranslateX, o.pos*e.gain*e.dirX)
		o.sink.SetStyle(e.name, surface.TranslateY, o.pos*e.gain*e.dirY)
	}

	o.updateGlitch(t)
}

func (o *Overlay) updateGlitch(t float64) {
	if !o.glitching(t) {
		o.mirror = 0
		o.sink.SetUniform("glitch", "offset", 0)
		o.sink.SetUniform("glitch", "mirror", 0)
		return
	}
	env := o.fade.Value(t)
	o.sink.SetUniform("glitch", "offset", (o.pos*o.cfg.GlitchGain+o.cfg.GlitchBase)*env)
	o.sink.SetUniform("glitch", "red", o.cfg.RedOpacity*env)
	o.sink.SetUniform("glitch", "blue", o.cfg.BlueOpacity*env)

	if o.mirror != 0 && t >= o.mirrorUntil {
		o.mirror = 0
	}
	if o.mirror == 0 && o.cfg.MirrorKinds > 0 && o.rng.Float64() < o.cfg.MirrorChance {
		o.mirror = 1 + int(o.rng.Float64()*float64(o.cfg.MirrorKinds))
		o.mirrorUntil = t + o.cfg.MirrorLength
	}
	o.sink.SetUniform("glitch", "mirror", float64(o.mirror))
}
