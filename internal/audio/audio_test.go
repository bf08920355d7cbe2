package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"math"
	"testing"

	"github.com/cbegin/avsync-go/internal/analysis"
)

type constSource struct {
	v     float32
	frame int64
}

func (c *constSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = c.v
	}
}

func (c *constSource) SeekFrame(frame int64) { c.frame = frame }

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestStreamReaderMirrorsIntoTap(t *testing.T) {
	tap := analysis.NewTap(64)
	r := NewStreamReader(&constSource{v: 0.5}, tap)
	buf := make([]byte, 16*bytesPerFrame+3)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 16*bytesPerFrame {
		t.Fatalf("n = %d", n)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])); got != 0.5 {
		t.Fatalf("sample = %v", got)
	}
	snap := tap.Snapshot(nil, 8, 16)
	for i, v := range snap {
		if v != 0.5 {
			t.Fatalf("tap[%d] = %v", i, v)
		}
	}
}

func TestStreamReaderSeek(t *testing.T) {
	src := &constSource{}
	r := NewStreamReader(src, nil)
	pos, err := r.Seek(100*bytesPerFrame+5, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 100*bytesPerFrame || src.frame != 100 {
		t.Fatalf("pos = %d frame = %d", pos, src.frame)
	}
	if _, err := NewStreamReader(NewMetronome(44100, 120, 0), nil).Seek(0, io.SeekEnd); !errors.Is(err, errNotSeekable) {
		t.Fatalf("SeekEnd err = %v", err)
	}
}

type plainSource struct{}

func (plainSource) Process(dst []float32) {}

func TestStreamReaderNotSeekable(t *testing.T) {
	if _, err := NewStreamReader(plainSource{}, nil).Seek(0, io.SeekStart); !errors.Is(err, errNotSeekable) {
		t.Fatalf("err = %v", err)
	}
}

func TestTapReaderCarriesPartialFrames(t *testing.T) {
	var pcm bytes.Buffer
	for i := 0; i < 4; i++ {
		_ = binary.Write(&pcm, binary.LittleEndian, float32(1))
		_ = binary.Write(&pcm, binary.LittleEndian, float32(0))
	}
	tap := analysis.NewTap(16)
	tr := &tapReader{src: bytes.NewReader(pcm.Bytes()), tap: tap}
	// Odd read sizes split frames across calls.
	for _, n := range []int{5, 7, 20} {
		if _, err := tr.Read(make([]byte, n)); err != nil && err != io.EOF {
			t.Fatal(err)
		}
	}
	snap := tap.Snapshot(nil, 4, 4)
	for i, v := range snap {
		if v != 0.5 {
			t.Fatalf("tap[%d] = %v, want 0.5", i, v)
		}
	}
	if _, err := tr.Seek(2*bytesPerFrame, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if len(tr.carry) != 0 {
		t.Fatalf("carry kept after seek: %d bytes", len(tr.carry))
	}
}

func TestMetronomeFinishes(t *testing.T) {
	m := NewMetronome(1000, 120, 0.5)
	r := NewStreamReader(m, nil)
	buf := make([]byte, 250*bytesPerFrame)
	if _, err := r.Read(buf); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := r.Read(buf); err != io.EOF {
		t.Fatalf("second read err = %v, want EOF", err)
	}
	m.SeekFrame(0)
	if m.Finished() {
		t.Fatal("finished after rewind")
	}
}

func TestMetronomeKickIsLoudOnBeat(t *testing.T) {
	m := NewMetronome(8000, 120, 0)
	buf := make([]float32, 2*8000)
	m.Process(buf)
	peak := func(from, to int) float64 {
		var p float64
		for i := from; i < to; i++ {
			p = math.Max(p, math.Abs(float64(buf[2*i])))
		}
		return p
	}
	onBeat := peak(0, 400)
	// 0.4 s into a 0.5 s beat the kick has decayed and no hat is sounding.
	between := peak(3200, 3600)
	if onBeat < 0.3 || between > onBeat/5 {
		t.Fatalf("on-beat peak %v, between %v", onBeat, between)
	}
}

func TestManualTrack(t *testing.T) {
	m := NewManualTrack("main", 10)
	m.Advance(1)
	if m.Position() != 0 {
		t.Fatal("advanced while paused")
	}
	_ = m.Play()
	m.Advance(4)
	_ = m.Seek(9)
	m.Advance(5)
	if m.Position() != 10 || m.Playing() {
		t.Fatalf("pos = %v playing = %v", m.Position(), m.Playing())
	}
	_ = m.Seek(-3)
	if m.Position() != 0 {
		t.Fatalf("negative seek = %v", m.Position())
	}
}

func TestStemSetMainFailureRetriesOnce(t *testing.T) {
	main := NewManualTrack("main", 0)
	main.PlayErr = errors.New("autoplay blocked")
	drums := NewManualTrack("drums", 0)
	set, err := NewStemSet(main, []Track{drums}, false, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := set.PlayAll(); !errors.Is(err, ErrMainTrack) {
		t.Fatalf("PlayAll err = %v", err)
	}
	if drums.Playing() || set.Reactive() {
		t.Fatal("stems started without main")
	}

	ran, err := set.OnInteraction()
	if !ran || !errors.Is(err, ErrMainTrack) {
		t.Fatalf("first interaction ran=%v err=%v", ran, err)
	}
	main.PlayErr = nil
	if ran, _ := set.OnInteraction(); ran {
		t.Fatal("retried twice")
	}
	if main.Playing() {
		t.Fatal("second interaction started playback")
	}
}

func TestStemSetInteractionAfterFailureStarts(t *testing.T) {
	main := NewManualTrack("main", 0)
	main.PlayErr = errors.New("blocked")
	set, _ := NewStemSet(main, nil, false, quietLogger())
	_ = set.PlayAll()
	main.PlayErr = nil
	ran, err := set.OnInteraction()
	if !ran || err != nil || !set.Reactive() {
		t.Fatalf("ran=%v err=%v reactive=%v", ran, err, set.Reactive())
	}
}

func TestStemSetDegradedStem(t *testing.T) {
	main := NewManualTrack("main", 0)
	drums := NewManualTrack("drums", 0)
	drums.PlayErr = errors.New("decode")
	inst := NewManualTrack("instruments", 0)
	set, _ := NewStemSet(main, []Track{drums, inst}, false, quietLogger())
	var got []string
	set.OnDegraded = func(name string, err error) { got = append(got, name) }
	if err := set.PlayAll(); err != nil {
		t.Fatalf("stem failure surfaced: %v", err)
	}
	if !main.Playing() || !inst.Playing() {
		t.Fatal("healthy tracks not playing")
	}
	if len(got) != 1 || got[0] != "drums" || len(set.Degraded()) != 1 {
		t.Fatalf("degraded = %v / %v", got, set.Degraded())
	}
	if ran, _ := set.OnInteraction(); ran {
		t.Fatal("retry after main started")
	}
}

func TestStemSetSeekAndMainOnly(t *testing.T) {
	main := NewManualTrack("main", 0)
	drums := NewManualTrack("drums", 0)
	set, _ := NewStemSet(main, []Track{drums}, true, quietLogger())
	if err := set.PlayAll(); err != nil {
		t.Fatal(err)
	}
	if drums.Playing() {
		t.Fatal("stem started in main-only mode")
	}
	if err := set.Seek(95.8); err != nil {
		t.Fatal(err)
	}
	if main.Position() != 95.8 || drums.Position() != 95.8 || set.Position() != 95.8 {
		t.Fatalf("positions %v %v", main.Position(), drums.Position())
	}
	set.Pause()
	if set.Playing() {
		t.Fatal("still playing after Pause")
	}
	if err := set.Restart(); err != nil || set.Position() != 0 || !set.Playing() {
		t.Fatalf("restart err=%v pos=%v", err, set.Position())
	}
}

func TestNewStemSetNeedsMain(t *testing.T) {
	if _, err := NewStemSet(nil, nil, false, nil); !errors.Is(err, ErrNoTrack) {
		t.Fatalf("err = %v", err)
	}
}

func rms(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum / float64(len(v)))
}

func TestSplitterSeparatesBands(t *testing.T) {
	const sr = 22050
	tone := func(freq float64) []float32 {
		out := make([]float32, 2*4096)
		for i := 0; i < 4096; i++ {
			v := float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/sr))
			out[2*i], out[2*i+1] = v, v
		}
		return out
	}
	tests := []struct {
		name    string
		freq    float64
		lowWins bool
	}{
		{"kick", 60, true},
		{"hat", 6000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mix, low, high := analysis.NewTap(4096), analysis.NewTap(4096), analysis.NewTap(4096)
			s := NewSplitter(sr, SplitLowHz, SplitHighHz, mix, low, high)
			s.WriteStereo(tone(tt.freq))
			l := rms(low.Snapshot(nil, 2048, 4096))
			h := rms(high.Snapshot(nil, 2048, 4096))
			m := rms(mix.Snapshot(nil, 2048, 4096))
			if m < 0.3 {
				t.Fatalf("mix rms = %v", m)
			}
			if (l > h) != tt.lowWins {
				t.Fatalf("low=%v high=%v", l, h)
			}
		})
	}
}

func TestSplitterRebaseResetsState(t *testing.T) {
	mix := analysis.NewTap(64)
	s := NewSplitter(22050, SplitLowHz, SplitHighHz, mix, nil, nil)
	s.WriteStereo([]float32{1, 1, 1, 1})
	s.Rebase(1000)
	if s.lpL != 0 || s.hpR != 0 {
		t.Fatal("filter state survived rebase")
	}
	r := NewStreamReader(&constSource{v: 0.25}, s)
	if _, err := r.Read(make([]byte, 4*bytesPerFrame)); err != nil {
		t.Fatal(err)
	}
	if got := mix.Snapshot(nil, 4, 1004)[3]; got != 0.25 {
		t.Fatalf("mix sample = %v", got)
	}
}
