package avsync

import (
	"errors"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"github.com/cbegin/avsync-go/internal/analysis"
	"github.com/cbegin/avsync-go/internal/audio"
	"github.com/cbegin/avsync-go/internal/config"
	"github.com/cbegin/avsync-go/internal/drivers"
	"github.com/cbegin/avsync-go/internal/surface"
)

// fakeSpectrum returns fixed bins; loud fills every bin with 255.
type fakeSpectrum struct {
	loud  bool
	bins  []byte
	calls int
}

func (f *fakeSpectrum) Sample(t float64, dst *analysis.Spectra) {
	f.calls++
	if f.bins == nil {
		f.bins = make([]byte, 128)
	}
	v := byte(0)
	if f.loud {
		v = 255
	}
	for i := range f.bins {
		f.bins[i] = v
	}
	*dst = analysis.Spectra{Main: f.bins, Drums: f.bins, Instruments: f.bins}
}

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestExperience(t *testing.T, opts ...Option) (*Experience, *surface.Recorder, *audio.ManualTrack) {
	t.Helper()
	rec := surface.NewRecorder()
	track := audio.NewManualTrack("main", 240)
	base := []Option{WithPositionSource(track), WithLogger(quiet()), WithPerformanceScale(1)}
	e, err := New(rec, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Stop)
	if err := track.Play(); err != nil {
		t.Fatal(err)
	}
	return e, rec, track
}

func uniform(t *testing.T, rec *surface.Recorder, target, name string) float64 {
	t.Helper()
	v, ok := rec.Uniform(target, name)
	if !ok {
		t.Fatalf("uniform %s.%s never written", target, name)
	}
	return v
}

func style(t *testing.T, rec *surface.Recorder, elem string, p surface.Prop) float64 {
	t.Helper()
	v, ok := rec.Style(elem, p)
	if !ok {
		t.Fatalf("style %s %s never written", elem, p)
	}
	return v
}

func TestEndToEndScenario(t *testing.T) {
	spec := &fakeSpectrum{}
	e, rec, _ := newTestExperience(t, WithSpectrumSource(spec))
	initial := e.stars.Layer(0)

	wall := time.Duration(0)
	tick := func() {
		e.Tick(wall)
		wall += 16 * time.Millisecond
	}

	tick()
	if got := style(t, rec, drivers.ElemModel, surface.Opacity); got != 0 {
		t.Fatalf("t=0 model opacity = %v", got)
	}
	if got := uniform(t, rec, drivers.ElemModel, "modelScale"); math.Abs(got-0.01) > 1e-9 {
		t.Fatalf("t=0 model scale = %v", got)
	}
	if got := uniform(t, rec, drivers.ElemBloom, "strength"); got != 0 {
		t.Fatalf("t=0 bloom = %v", got)
	}
	if k, _ := e.stars.Velocity(0); k != drivers.StarsNormal {
		t.Fatalf("t=0 star rule = %v", k)
	}

	// First drop.
	if err := e.SkipTo(31.5); err != nil {
		t.Fatal(err)
	}
	spec.loud = true
	for i := 0; i < 12; i++ {
		tick()
	}
	if got := uniform(t, rec, drivers.ElemModel, "modelScale"); got < 1 {
		t.Fatalf("t=31.5 model scale = %v, want >= 1", got)
	}
	if got := uniform(t, rec, drivers.ElemBloom, "strength"); got <= 0 {
		t.Fatalf("loud bass bloom = %v, want > 0", got)
	}
	if lv := e.Levels(); lv.Bass <= 0.5 {
		t.Fatalf("bass = %v", lv.Bass)
	}

	// Breakdown: halfway through the two-second deceleration.
	if err := e.SkipTo(96.8); err != nil {
		t.Fatal(err)
	}
	tick()
	k, p := e.stars.Velocity(96.8)
	if k != drivers.StarsDecel || math.Abs(p-0.5) > 1e-9 {
		t.Fatalf("t=96.8 rule = %v progress %v", k, p)
	}

	spec.loud = false
	if err := e.Replay(); err != nil {
		t.Fatal(err)
	}
	after := e.stars.Layer(0)
	if len(after) != len(initial) || after[0] != initial[0] || after[len(after)-1] != initial[len(initial)-1] {
		t.Fatal("replay did not rebuild the same star field")
	}
	tick()
	if e.Time() != 0 {
		t.Fatalf("replay time = %v", e.Time())
	}
	if got := uniform(t, rec, drivers.ElemModel, "modelScale"); math.Abs(got-0.01) > 1e-9 {
		t.Fatalf("replay model scale = %v", got)
	}
	if got := uniform(t, rec, drivers.ElemBloom, "strength"); got != 0 {
		t.Fatalf("replay bloom = %v", got)
	}
	if got := style(t, rec, drivers.ElemModel, surface.Opacity); got != 0 {
		t.Fatalf("replay opacity = %v", got)
	}
	if rt := e.orbit.Runtime(); rt.State != drivers.OrbitNormal {
		t.Fatalf("replay orbit state = %v", rt.State)
	}
}

func TestSkipToClampsAndNotifies(t *testing.T) {
	e, _, track := newTestExperience(t)
	events := e.Watch()
	if err := e.SkipTo(-4); err != nil {
		t.Fatal(err)
	}
	if err := e.SkipTo(1000); err != nil {
		t.Fatal(err)
	}
	if track.Position() != 240 || e.Time() != 240 {
		t.Fatalf("position = %v time = %v", track.Position(), e.Time())
	}
	for _, want := range []float64{0, 240} {
		ev := <-events
		if ev.Kind != EventSeeked || ev.Time != want {
			t.Fatalf("event = %+v, want seeked at %v", ev, want)
		}
	}
}

type failingSeeker struct{ *audio.ManualTrack }

func (failingSeeker) Seek(float64) error { return errors.New("device gone") }

func TestSkipToSeekError(t *testing.T) {
	rec := surface.NewRecorder()
	e, err := New(rec, WithPositionSource(failingSeeker{audio.NewManualTrack("m", 0)}), WithLogger(quiet()))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SkipTo(10); err == nil {
		t.Fatal("seek error swallowed")
	}
}

func TestLifecycleEvents(t *testing.T) {
	rec := surface.NewRecorder()
	main := audio.NewManualTrack("main", 240)
	drums := audio.NewManualTrack("drums", 240)
	drums.PlayErr = errors.New("decode failed")
	set, err := audio.NewStemSet(main, []audio.Track{drums}, false, quiet())
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(rec, WithPositionSource(set), WithLogger(quiet()))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Stop()
	events := e.Watch()

	e.Tick(0)
	select {
	case ev := <-events:
		t.Fatalf("event before playback: %+v", ev)
	default:
	}

	if err := set.PlayAll(); err != nil {
		t.Fatal(err)
	}
	_ = set.Seek(10)
	e.Tick(time.Millisecond)
	if ev := <-events; ev.Kind != EventStarted {
		t.Fatalf("first event = %+v", ev)
	}
	if ev := <-events; ev.Kind != EventDegraded || ev.Detail != "drums" {
		t.Fatalf("second event = %+v", ev)
	}

	if !e.TriggerSpin() {
		t.Fatal("spin rejected while playing")
	}
	if ev := <-events; ev.Kind != EventSpin {
		t.Fatalf("spin event = %+v", ev)
	}
	if e.TriggerSpin() {
		t.Fatal("second spin accepted during the first")
	}

	_ = set.Seek(240)
	e.Tick(2 * time.Millisecond)
	if ev := <-events; ev.Kind != EventEnded {
		t.Fatalf("end event = %+v", ev)
	}
}

func TestTriggerSpinNeedsPlayback(t *testing.T) {
	e, _, track := newTestExperience(t)
	track.Pause()
	e.Tick(0)
	if e.TriggerSpin() {
		t.Fatal("spin accepted while paused")
	}
}

func TestStopHaltsTicks(t *testing.T) {
	e, rec, _ := newTestExperience(t, WithAsyncAnalysis(true))
	if n := e.Tick(0); n == 0 {
		t.Fatal("no driver ran")
	}
	e.Stop()
	before := rec.Writes["model.modelScale"]
	if n := e.Tick(time.Second); n != 0 {
		t.Fatalf("ran %d drivers after Stop", n)
	}
	if rec.Writes["model.modelScale"] != before {
		t.Fatal("surface written after Stop")
	}
}

func TestPerformanceScaleThrottles(t *testing.T) {
	e, _, _ := newTestExperience(t)
	e.SetPerformanceScale(0.5)
	for i := 0; i < 12; i++ {
		e.Tick(time.Duration(i) * 16 * time.Millisecond)
	}
	// skip 2, then model divisor 2: one full update in four ticks.
	if got := e.Runs(DriverModel); got != 3 {
		t.Fatalf("model runs = %d, want 3", got)
	}
	if got := e.Runs(DriverOrbit); got != 6 {
		t.Fatalf("orbit runs = %d, want 6", got)
	}
	// The ring runs at four times the global scale.
	if got := e.Runs(DriverRing); got != 12 {
		t.Fatalf("ring runs = %d, want 12", got)
	}
	e.SetPerformanceScale(7)
	if e.PerformanceScale() != 1 {
		t.Fatalf("scale = %v", e.PerformanceScale())
	}
}

func TestIntroCappedOnWallClock(t *testing.T) {
	e, rec, _ := newTestExperience(t)
	for i := 0; i < 60; i++ {
		e.Tick(time.Duration(i) * time.Second / 60)
	}
	// 8 fps from t=0: admitted at 0, 133, 266, ... 933 ms.
	if got := e.Runs(DriverIntro); got != 8 {
		t.Fatalf("intro runs in 1s = %d, want 8", got)
	}
	if got := e.Runs(DriverOrbit); got != 60 {
		t.Fatalf("orbit runs = %d, want 60", got)
	}
	if n := len(rec.Sprites[drivers.ElemIntro]); n != 120 {
		t.Fatalf("intro sprites = %d, want 120", n)
	}
}

func TestDitherKeywordSuppressesShake(t *testing.T) {
	e, rec, track := newTestExperience(t)
	_ = track.Seek(32)
	e.Tick(0)
	dx := style(t, rec, drivers.ElemCenter, surface.TranslateX)
	dy := style(t, rec, drivers.ElemCenter, surface.TranslateY)
	if dx == 0 && dy == 0 {
		t.Fatal("no shake at t=32")
	}

	var got string
	for i, r := range "classic" {
		got = e.TypeKey(r, time.Duration(i)*50*time.Millisecond)
	}
	if got != "classic" || !e.DitherActive() {
		t.Fatalf("keyword = %q active = %v", got, e.DitherActive())
	}
	// The dither gate admits one tick in six at full scale.
	for i := 1; i <= 6; i++ {
		e.Tick(time.Second + time.Duration(i)*16*time.Millisecond)
	}
	if dx, dy := style(t, rec, drivers.ElemCenter, surface.TranslateX), style(t, rec, drivers.ElemCenter, surface.TranslateY); dx != 0 || dy != 0 {
		t.Fatalf("shake %v,%v while dithering", dx, dy)
	}
	if rec.Images["dither"] == nil {
		t.Fatal("dither frame not presented")
	}
}

func TestResizeIsDebounced(t *testing.T) {
	e, rec, _ := newTestExperience(t)
	for i, r := range "classic" {
		e.TypeKey(r, time.Duration(i)*time.Millisecond)
	}
	e.Resize(640, 360, 0)
	e.Resize(320, 180, 100*time.Millisecond)
	e.Tick(200 * time.Millisecond)
	img := rec.Images["dither"]
	if img == nil {
		t.Fatal("dither frame not presented")
	}
	if img.Rect.Dx() != 1920 {
		t.Fatalf("resized before the delay: %v", img.Rect)
	}
	for i := 1; i <= 6; i++ {
		e.Tick(time.Duration(400+i) * time.Millisecond)
	}
	if img := rec.Images["dither"]; img.Rect.Dx() != 320 || img.Rect.Dy() != 180 {
		t.Fatalf("dither size = %v", img.Rect)
	}
}

func TestWithSeedChangesField(t *testing.T) {
	a, _, _ := newTestExperience(t, WithSeed(1))
	b, _, _ := newTestExperience(t, WithSeed(2))
	c, _, _ := newTestExperience(t, WithSeed(1))
	if a.stars.Layer(0)[0] == b.stars.Layer(0)[0] {
		t.Fatal("different seeds drew the same star")
	}
	if a.stars.Layer(0)[0] != c.stars.Layer(0)[0] {
		t.Fatal("same seed drew different stars")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	c := config.Default(false)
	c.Performance.FPSScale = 3
	if _, err := New(surface.NewRecorder(), WithConfig(c)); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
	if _, err := New(nil); err == nil {
		t.Fatal("nil surface accepted")
	}
}

func TestSilentClockAdvancesWithWallTime(t *testing.T) {
	e, err := New(surface.NewRecorder(), WithLogger(quiet()))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Stop()
	e.Start()
	e.Tick(0)
	e.Tick(1500 * time.Millisecond)
	if math.Abs(e.Time()-1.5) > 1e-9 {
		t.Fatalf("time = %v", e.Time())
	}
}
