package avsync

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"time"

	"github.com/cbegin/avsync-go/internal/analysis"
	"github.com/cbegin/avsync-go/internal/audio"
	"github.com/cbegin/avsync-go/internal/config"
	"github.com/cbegin/avsync-go/internal/drivers"
	"github.com/cbegin/avsync-go/internal/surface"
)

// FrameRecord is one evaluated frame of an offline render.
type FrameRecord struct {
	Frame       int                `json:"frame"`
	Time        float64            `json:"t"`
	Bass        float64            `json:"bass"`
	Drums       float64            `json:"drums"`
	Instruments float64            `json:"instruments"`
	Kick        bool               `json:"kick,omitempty"`
	Spin        bool               `json:"spin,omitempty"`
	Orbit       surface.Orbit      `json:"orbit"`
	Camera      surface.Pose       `json:"camera"`
	Uniforms    map[string]float64 `json:"uniforms"`
	Styles      map[string]float64 `json:"styles"`
	Sprites     map[string]int     `json:"sprites,omitempty"`
}

// RenderOptions configures RenderTimeline.
type RenderOptions struct {
	FPS  float64
	From float64
	// To defaults to the configured duration.
	To float64
	// BPM drives a synthetic metronome through the analysis path; 0 renders
	// silence.
	BPM        float64
	SampleRate int
	Seed       uint64
	Mobile     bool
	// Spins lists times at which a manual spin is requested.
	Spins  []float64
	Config *config.Config
	Logger *log.Logger
}

// RenderTimeline evaluates the experience at a fixed frame rate without an
// audio device or window and hands every frame to emit. Rendering stops at
// the first emit error.
func RenderTimeline(opts RenderOptions, emit func(FrameRecord) error) error {
	if opts.FPS <= 0 {
		return errors.New("avsync: fps must be positive")
	}
	cfg := config.Default(opts.Mobile)
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = cfg.Audio.SampleRate
	}
	to := opts.To
	if to <= 0 || to > float64(cfg.Duration) {
		to = float64(cfg.Duration)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	track := audio.NewManualTrack("offline", float64(cfg.Duration))
	rec := surface.NewRecorder()
	o := []Option{
		WithConfig(cfg),
		WithMobile(opts.Mobile),
		WithPositionSource(track),
		WithSeed(opts.Seed),
		WithLogger(logger),
	}

	var synth *audio.StreamReader
	var rendered int64
	if opts.BPM > 0 {
		mix, low, high := analysis.NewTap(0), analysis.NewTap(0), analysis.NewTap(0)
		split := audio.NewSplitter(opts.SampleRate, audio.SplitLowHz, audio.SplitHighHz, mix, low, high)
		synth = audio.NewStreamReader(audio.NewMetronome(opts.SampleRate, opts.BPM, 0), split)
		o = append(o, WithSpectrumSource(NewTapSpectrum(cfg.Audio.FFTSize, opts.SampleRate, mix, low, high)))
	}
	exp, err := New(rec, o...)
	if err != nil {
		return err
	}
	defer exp.Stop()

	if err := track.Play(); err != nil {
		return err
	}
	if opts.From > 0 {
		if err := exp.SkipTo(opts.From); err != nil {
			return err
		}
		if synth != nil {
			rendered = int64(opts.From * float64(opts.SampleRate))
			if _, err := synth.Seek(rendered*8, io.SeekStart); err != nil {
				return err
			}
		}
	}

	var buf []byte
	spins := opts.Spins
	prev := opts.From - 1/opts.FPS
	for i := 0; ; i++ {
		t := opts.From + float64(i)/opts.FPS
		if t > to+1e-9 {
			return nil
		}
		_ = track.Seek(t)
		if synth != nil {
			target := int64(t * float64(opts.SampleRate))
			if n := int(target-rendered) * 8; n > 0 {
				if cap(buf) < n {
					buf = make([]byte, n)
				}
				if _, err := io.ReadFull(synth, buf[:n]); err != nil {
					return err
				}
				rendered = target
			}
		}

		exp.Tick(time.Duration(float64(i) / opts.FPS * float64(time.Second)))
		spun := false
		for len(spins) > 0 && spins[0] <= t {
			if spins[0] > prev {
				spun = exp.TriggerSpin() || spun
			}
			spins = spins[1:]
		}
		prev = t

		if err := emit(record(i, t, exp.Levels(), spun, rec)); err != nil {
			return err
		}
	}
}

func record(i int, t float64, lv analysis.Levels, spun bool, rec *surface.Recorder) FrameRecord {
	fr := FrameRecord{
		Frame:       i,
		Time:        t,
		Bass:        lv.Bass,
		Drums:       lv.Drums,
		Instruments: lv.Instruments,
		Kick:        lv.Kick,
		Spin:        spun,
		Orbit:       rec.Orbits[drivers.ElemModel],
		Camera:      rec.Poses[drivers.ElemCamera],
		Uniforms:    make(map[string]float64, len(rec.Uniforms)),
		Styles:      make(map[string]float64, len(rec.Styles)),
	}
	for k, v := range rec.Uniforms {
		fr.Uniforms[k] = v
	}
	for k, v := range rec.Styles {
		fr.Styles[k.Element+"."+k.Prop.String()] = v
	}
	for layer, s := range rec.Sprites {
		if fr.Sprites == nil {
			fr.Sprites = map[string]int{}
		}
		fr.Sprites[layer] = len(s)
	}
	return fr
}

// EncodeJSONL returns an emit func writing one JSON object per line to w.
func EncodeJSONL(w io.Writer) func(FrameRecord) error {
	enc := json.NewEncoder(w)
	return func(fr FrameRecord) error { return enc.Encode(fr) }
}
