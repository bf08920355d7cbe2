// Package avsync drives an audio-reactive visual experience from a single
// playback clock. Each tick reads the audio position once, samples the stem
// spectra, extracts levels and runs the animation drivers into a surface.
package avsync

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/cbegin/avsync-go/internal/analysis"
	"github.com/cbegin/avsync-go/internal/audio"
	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/config"
	"github.com/cbegin/avsync-go/internal/drivers"
	"github.com/cbegin/avsync-go/internal/postfx"
	"github.com/cbegin/avsync-go/internal/schedule"
	"github.com/cbegin/avsync-go/internal/surface"
)

// Event carries lifecycle notifications from Watch().
type Event struct {
	Kind   int // one of the Event* constants
	Time   float64
	Detail string
}

const (
	EventStarted int = iota
	EventDegraded
	EventEnded
	EventSeeked
	EventReset
	EventSpin
	EventToggle
)

// PositionSource is the authoritative audio position. audio.StemSet and
// audio.ManualTrack satisfy it.
type PositionSource interface {
	Position() float64
	Playing() bool
}

// Driver names as registered with the scheduler.
const (
	DriverOrbit   = "orbit"
	DriverCamera  = "camera"
	DriverModel   = "model"
	DriverMesh    = "mesh"
	DriverKick    = "kick"
	DriverBloom   = "bloom"
	DriverStars   = "stars"
	DriverScreen  = "screen"
	DriverScope   = "scope"
	DriverOverlay = "overlay"
	DriverRing    = "ring"
	DriverDither  = "dither"
	DriverASCII   = "ascii"
	DriverIntro   = "intro"
)

type Option func(*options)

type options struct {
	cfg      *config.Config
	cfgPath  string
	mobile   bool
	logger   *log.Logger
	position PositionSource
	spectrum SpectrumSource
	async    bool
	seed     *uint64
	scale    float64
	layers   []postfx.Layer
}

// WithConfig replaces the default configuration.
func WithConfig(c config.Config) Option {
	return func(o *options) { o.cfg = &c }
}

// WithConfigFile loads a YAML configuration over the defaults.
func WithConfigFile(path string) Option {
	return func(o *options) { o.cfgPath = path }
}

func WithMobile(mobile bool) Option {
	return func(o *options) { o.mobile = mobile }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPositionSource sets the audio clock. Without one the experience runs a
// silent clock advanced by the wall time passed to Tick.
func WithPositionSource(p PositionSource) Option {
	return func(o *options) { o.position = p }
}

func WithSpectrumSource(s SpectrumSource) Option {
	return func(o *options) { o.spectrum = s }
}

// WithAsyncAnalysis moves level extraction to a background worker. Results
// then lag the clock by up to one tick.
func WithAsyncAnalysis(enabled bool) Option {
	return func(o *options) { o.async = enabled }
}

// WithSeed reseeds every random draw (star field, shake, glitch mirrors).
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// WithPerformanceScale overrides the configured scale in (0,1].
func WithPerformanceScale(scale float64) Option {
	return func(o *options) { o.scale = scale }
}

// WithPixelLayers adds read-back layers for the dither and ASCII modes.
func WithPixelLayers(layers ...postfx.Layer) Option {
	return func(o *options) { o.layers = append(o.layers, layers...) }
}

// Experience owns the clock, the analysis pipeline and the drivers.
type Experience struct {
	mu     sync.Mutex
	cfg    config.Config
	logger *log.Logger

	clock    clock.Clock
	sched    *schedule.Scheduler
	src      PositionSource
	silent   *audio.ManualTrack
	spectrum SpectrumSource
	ex       *analysis.Extractor
	worker   *analysis.Worker

	scale    float64
	adaptive *schedule.AdaptiveScale
	resize   schedule.Debouncer
	width    int
	height   int
	keywords *postfx.Keywords

	orbit  *drivers.Orbit
	stars  *drivers.Stars
	screen *drivers.Screen
	dither *postfx.Dither
	ascii  *postfx.ASCIIArt

	tick     uint64
	lastWall time.Duration
	primed   bool
	spectra  analysis.Spectra
	levels   analysis.Levels
	started  bool
	ended    bool

	eventCh   chan Event
	eventChMu sync.Mutex
}

// New builds an experience rendering into sink.
func New(sink surface.Surface, opts ...Option) (*Experience, error) {
	if sink == nil {
		return nil, errors.New("avsync: nil surface")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var cfg config.Config
	switch {
	case o.cfg != nil:
		cfg = *o.cfg
		cfg.Mobile = cfg.Mobile || o.mobile
	case o.cfgPath != "":
		c, err := config.Load(o.cfgPath, o.mobile)
		if err != nil {
			return nil, err
		}
		cfg = c
	default:
		cfg = config.Default(o.mobile)
	}
	if o.seed != nil {
		cfg.Stars.Seed = *o.seed
		cfg.Screen.Seed = *o.seed ^ 0x9e3779b97f4a7c15
		cfg.Overlay.Seed = *o.seed ^ 0xbf58476d1ce4e5b9
		cfg.Intro.Seed = *o.seed ^ 0x94d049bb133111eb
	}
	if o.scale != 0 {
		cfg.Performance.FPSScale = o.scale
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lib, err := cfg.Library()
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = log.New(os.Stderr, "avsync: ", log.LstdFlags)
	}

	e := &Experience{
		cfg:      cfg,
		logger:   logger,
		sched:    schedule.New(),
		src:      o.position,
		spectrum: o.spectrum,
		ex:       analysis.NewExtractor(cfg.Analysis),
		scale:    cfg.Performance.FPSScale,
		resize:   schedule.Debouncer{Delay: cfg.Performance.ResizeDelay},
		width:    int(cfg.Stars.Width),
		height:   int(cfg.Stars.Height),
		keywords: postfx.NewKeywords(cfg.PostFX.KeywordTimeout, postfx.KeywordDither, postfx.KeywordASCII),
	}
	if e.src == nil {
		e.silent = audio.NewManualTrack("clock", float64(cfg.Duration))
		e.src = e.silent
	}
	if o.async {
		e.worker = analysis.NewWorker(e.ex)
	}
	if cfg.Performance.Adaptive {
		e.adaptive = schedule.NewAdaptiveScale(e.scale)
	}

	stars, err := drivers.NewStars(cfg.Stars, cfg.Mobile, lib, sink)
	if err != nil {
		return nil, fmt.Errorf("avsync: %w", err)
	}
	e.stars = stars
	e.orbit = drivers.NewOrbit(cfg.Orbit, float64(cfg.Duration), sink)
	e.screen = drivers.NewScreen(cfg.Screen, lib, sink)
	ring := drivers.NewRing(cfg.Ring, sink)

	comp := &postfx.Compositor{Logger: logger}
	comp.Layers = append(comp.Layers, o.layers...)
	comp.Layers = append(comp.Layers, postfx.Layer{Source: ring})
	e.dither = postfx.NewDither(comp, cfg.PostFX.DitherLevels, cfg.PostFX.DitherFactor, sink)
	e.ascii = postfx.NewASCIIArt(comp, cfg.PostFX.ASCII, cfg.PostFX.ASCIIFactor, sink)
	e.dither.Reinit(e.width, e.height)
	e.ascii.Reinit(e.width, e.height)

	p := cfg.Performance
	gate := func(divisor int) schedule.Gate {
		return schedule.Gate{Divisor: divisor, Cap: schedule.FPSCap{FPS: p.LowQualityFPS}}
	}
	overlayDiv := 1
	if cfg.Mobile {
		overlayDiv = p.ParallaxInterval
	}
	e.sched.Register(DriverOrbit, e.orbit, gate(1))
	e.sched.Register(DriverCamera, drivers.NewCamera(cfg.Camera, lib, sink), gate(1))
	e.sched.Register(DriverModel, drivers.NewModel(lib, sink), gate(p.ModelDivisor))
	e.sched.Register(DriverMesh, drivers.NewMesh(cfg.Mesh, lib, sink), gate(p.ModelDivisor))
	e.sched.Register(DriverKick, drivers.NewKickFlash(cfg.Mesh, sink), gate(p.KickDivisor))
	e.sched.Register(DriverBloom, drivers.NewBloom(cfg.Mesh, sink), gate(p.BloomDivisor))
	e.sched.Register(DriverStars, e.stars, gate(1))
	e.sched.Register(DriverIntro, drivers.NewIntro(cfg.Intro, lib, sink), schedule.Gate{
		Cap:       schedule.FPSCap{FPS: cfg.Intro.FPS},
		AlwaysCap: true,
	})
	e.sched.Register(DriverScreen, e.screen, gate(1))
	e.sched.Register(DriverScope, drivers.NewScope(cfg.Scope, cfg.Mobile, lib, sink), gate(1))
	e.sched.Register(DriverOverlay, drivers.NewOverlay(cfg.Overlay, lib, sink), gate(overlayDiv))
	ringGate := gate(1)
	ringGate.Multiplier = 4
	e.sched.Register(DriverRing, ring, ringGate)
	e.sched.Register(DriverDither, e.dither, gate(p.PostFXDivisor))
	e.sched.Register(DriverASCII, e.ascii, gate(p.ASCIIDivisor))
	return e, nil
}

// Start begins playback of the silent clock. With an external position
// source the caller starts the audio itself.
func (e *Experience) Start() {
	if e.silent != nil {
		_ = e.silent.Play()
	}
}

// Tick runs one frame at wall-clock time wall and returns how many drivers
// did their full update.
func (e *Experience) Tick(wall time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched.Stopped() {
		return 0
	}

	var dt time.Duration
	if e.primed {
		dt = wall - e.lastWall
	}
	e.lastWall, e.primed = wall, true
	if e.silent != nil && dt > 0 {
		e.silent.Advance(dt.Seconds())
	}
	if e.adaptive != nil && dt > 0 {
		e.scale = e.adaptive.Observe(dt)
	}
	if e.resize.Due(wall) {
		e.dither.Reinit(e.width, e.height)
		e.ascii.Reinit(e.width, e.height)
	}

	e.clock.Set(e.src.Position(), e.src.Playing())
	f := e.clock.NewFrame(wall, e.tick)
	e.tick++
	f.Mobile = e.cfg.Mobile
	f.Scale = e.scale
	f.LowQuality = e.cfg.Performance.LowQuality

	if e.spectrum != nil {
		e.spectrum.Sample(f.Time, &e.spectra)
	} else {
		e.spectra = analysis.Spectra{}
	}
	f.Spectra = e.spectra
	f.Levels = e.analyse(&f)
	e.levels = f.Levels

	if f.Playing && !e.started {
		e.started = true
		e.sendEvent(Event{Kind: EventStarted, Time: f.Time})
		if d, ok := e.src.(interface{ Degraded() []string }); ok {
			for _, name := range d.Degraded() {
				e.sendEvent(Event{Kind: EventDegraded, Time: f.Time, Detail: name})
			}
		}
	}

	e.screen.SuppressShake(e.dither.Active())
	n := e.sched.Tick(&f)

	if !e.ended && f.Time >= float64(e.cfg.Duration) {
		e.ended = true
		e.sendEvent(Event{Kind: EventEnded, Time: f.Time})
	}
	return n
}

func (e *Experience) analyse(f *clock.Frame) analysis.Levels {
	req := analysis.Request{
		Main:        f.Spectra.Main,
		Drums:       f.Spectra.Drums,
		Instruments: f.Spectra.Instruments,
		Frame:       f.Tick,
		Time:        f.Time,
	}
	if e.worker == nil {
		return e.ex.Analyze(req)
	}
	e.worker.Submit(req)
	lv, _ := e.worker.Latest()
	return lv
}

// Time is the clock value of the last tick.
func (e *Experience) Time() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Now()
}

func (e *Experience) Mobile() bool { return e.cfg.Mobile }

// Levels returns the audio levels of the last tick.
func (e *Experience) Levels() analysis.Levels {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.levels
}

// Config returns the resolved configuration.
func (e *Experience) Config() config.Config { return e.cfg }

// SetPerformanceScale sets the global scale, clamped to (0,1]. With
// adaptive quality on, adaptation continues from the new value.
func (e *Experience) SetPerformanceScale(scale float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if scale > 1 {
		scale = 1
	}
	if scale <= 0 {
		scale = 0.01
	}
	e.scale = scale
	if e.adaptive != nil {
		e.adaptive = schedule.NewAdaptiveScale(scale)
	}
}

func (e *Experience) PerformanceScale() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scale
}

type seeker interface {
	Seek(seconds float64) error
}

// SkipTo jumps every stem to t and rebuilds the drivers' phase-exit state so
// the next tick renders as if playback had reached t normally.
func (e *Experience) SkipTo(t float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t < 0 {
		t = 0
	}
	if end := float64(e.cfg.Duration); t > end {
		t = end
	}
	if s, ok := e.src.(seeker); ok {
		if err := s.Seek(t); err != nil {
			return fmt.Errorf("avsync: skip to %v: %w", t, err)
		}
	}
	e.clock.Set(t, e.src.Playing())
	e.resetAnalysis()
	e.sched.Resync(t)
	e.ended = t >= float64(e.cfg.Duration)
	e.sendEvent(Event{Kind: EventSeeked, Time: t})
	return nil
}

// Replay rewinds to 0, resets every driver and restarts playback.
func (e *Experience) Replay() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	switch s := e.src.(type) {
	case interface{ Restart() error }:
		err = s.Restart()
	case seeker:
		err = s.Seek(0)
	}
	if e.silent != nil {
		_ = e.silent.Play()
	}
	e.clock.Reset()
	e.resetAnalysis()
	e.sched.Reset()
	e.tick = 0
	e.primed = false
	e.started, e.ended = false, false
	e.sendEvent(Event{Kind: EventReset})
	if err != nil {
		e.logger.Printf("replay: %v", err)
		return fmt.Errorf("avsync: replay: %w", err)
	}
	return nil
}

func (e *Experience) resetAnalysis() {
	if e.worker != nil {
		e.worker.Reset()
	} else {
		e.ex.Reset()
	}
	if r, ok := e.spectrum.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// TriggerSpin requests a manual camera spin at the current time. It reports
// whether the spin started.
func (e *Experience) TriggerSpin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.clock.Now()
	if !e.orbit.Trigger(t, e.clock.Playing()) {
		return false
	}
	e.sendEvent(Event{Kind: EventSpin, Time: t})
	return true
}

// Resize records a new surface size. Buffers are rebuilt once the size has
// been stable for the configured delay.
func (e *Experience) Resize(w, h int, wall time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.width, e.height = w, h
	e.resize.Trigger(wall)
}

// TypeKey feeds one typed character to the keyword toggles. It returns the
// toggled mode name, or "".
func (e *Experience) TypeKey(r rune, wall time.Duration) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	word, ok := e.keywords.Type(r, wall)
	if !ok {
		return ""
	}
	var on bool
	switch word {
	case postfx.KeywordDither:
		on = e.dither.Toggle()
	case postfx.KeywordASCII:
		on = e.ascii.Toggle()
	}
	e.logger.Printf("%s mode: %v", word, on)
	e.sendEvent(Event{Kind: EventToggle, Time: e.clock.Now(), Detail: word})
	return word
}

// DitherActive reports whether the retro mode is on.
func (e *Experience) DitherActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dither.Active()
}

// SetTilt feeds device tilt into the star parallax.
func (e *Experience) SetTilt(x, y float64) {
	e.mu.Lock()
	e.stars.SetTilt(x, y)
	e.mu.Unlock()
}

// Runs reports how many full updates the named driver has done.
func (e *Experience) Runs(driver string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Runs(driver)
}

// Stop halts every driver; later ticks do nothing. It is safe to call from
// any goroutine.
func (e *Experience) Stop() {
	e.sched.Stop()
	if e.worker != nil {
		e.worker.Close()
	}
}

func (e *Experience) sendEvent(ev Event) {
	e.eventChMu.Lock()
	ch := e.eventCh
	e.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Watch returns a channel that receives lifecycle events. The channel is
// buffered (cap 16) and events are dropped when it is full. Only the most
// recent Watch channel receives events.
func (e *Experience) Watch() <-chan Event {
	ch := make(chan Event, 16)
	e.eventChMu.Lock()
	e.eventCh = ch
	e.eventChMu.Unlock()
	return ch
}
