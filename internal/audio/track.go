package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/cbegin/avsync-go/internal/analysis"
)

var (
	// ErrMainTrack is returned when the authoritative track cannot start.
	ErrMainTrack = errors.New("audio: main track failed to start")
	// ErrFormat is returned for a stem whose extension is not wav or mp3.
	ErrFormat = errors.New("audio: unsupported format")

	// ErrNoTrack is returned when no main stem is configured.
	ErrNoTrack = errors.New("audio: no track")

	errNotSeekable = errors.New("audio: source is not seekable")
)

// Track is one playable stem. Position is the audible position in seconds.
type Track interface {
	Name() string
	Play() error
	Pause()
	Seek(seconds float64) error
	Position() float64
	Playing() bool
	Close() error
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// EbitenTrack plays a stream through the shared ebiten audio context and
// feeds a tap for analysis.
type EbitenTrack struct {
	name   string
	rate   int
	player *ebitaudio.Player
	tap    *analysis.Tap
}

func newEbitenTrack(name string, sampleRate int, r io.Reader, tap *analysis.Tap) (*EbitenTrack, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(r)
	if err != nil {
		return nil, fmt.Errorf("audio: %s: %w", name, err)
	}
	return &EbitenTrack{name: name, rate: sampleRate, player: pl, tap: tap}, nil
}

// Decode decodes a WAV or MP3 stem held in memory.
func Decode(name string, sampleRate int, data []byte, tap *analysis.Tap) (*EbitenTrack, error) {
	if _, err := sharedAudioContext(sampleRate); err != nil {
		return nil, err
	}
	var (
		stream io.ReadSeeker
		err    error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		stream, err = wav.DecodeF32(bytes.NewReader(data))
	case ".mp3":
		stream, err = mp3.DecodeF32(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("audio: decode %s: %w", name, err)
	}
	return newEbitenTrack(name, sampleRate, &tapReader{src: stream, tap: tap}, tap)
}

// NewSourceTrack plays a generated source. Tap returns nil for such a
// track; the caller owns the taps behind w.
func NewSourceTrack(name string, sampleRate int, src SampleSource, w TapWriter) (*EbitenTrack, error) {
	return newEbitenTrack(name, sampleRate, NewStreamReader(src, w), nil)
}

func (t *EbitenTrack) Name() string        { return t.name }
func (t *EbitenTrack) Tap() *analysis.Tap  { return t.tap }
func (t *EbitenTrack) Playing() bool       { return t.player.IsPlaying() }
func (t *EbitenTrack) Pause()              { t.player.Pause() }
func (t *EbitenTrack) SampleRate() int     { return t.rate }
func (t *EbitenTrack) SetVolume(v float64) { t.player.SetVolume(v) }

func (t *EbitenTrack) Play() error {
	t.player.Play()
	return nil
}

func (t *EbitenTrack) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	return t.player.SetPosition(time.Duration(seconds * float64(time.Second)))
}

// Position returns the current playback position (what the listener actually hears).
func (t *EbitenTrack) Position() float64 {
	return t.player.Position().Seconds()
}

// Frame is the audible position in sample frames, for tap snapshots.
func (t *EbitenTrack) Frame() int64 {
	return int64(t.player.Position().Seconds() * float64(t.rate))
}

func (t *EbitenTrack) Close() error {
	t.player.Pause()
	return t.player.Close()
}
