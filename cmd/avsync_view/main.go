package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/cbegin/avsync-go"
	"github.com/cbegin/avsync-go/internal/analysis"
	"github.com/cbegin/avsync-go/internal/audio"
	"github.com/cbegin/avsync-go/internal/config"
)

const (
	windowW    = 1280
	windowH    = 720
	minWindowW = 320
	minWindowH = 180
)

func main() {
	var (
		cfgPath = flag.String("config", "", "YAML config file layered over the defaults")
		mobile  = flag.Bool("mobile", false, "use the reduced mobile profile")
		mainF   = flag.String("main", "", "main mix (overrides config)")
		drumsF  = flag.String("drums", "", "drum stem (overrides config)")
		instF   = flag.String("instruments", "", "instrument stem (overrides config)")
		bpm     = flag.Float64("bpm", 0, "play a synthetic metronome when the main mix cannot be loaded")
		seed    = flag.Uint64("seed", 0, "random seed (0 keeps the configured seeds)")
		scale   = flag.Float64("scale", 0, "performance scale in (0,1]; 0 keeps the configured value")
		async   = flag.Bool("async", false, "extract levels on a background worker")
	)
	flag.Parse()
	logger := log.New(os.Stderr, "avsync: ", log.LstdFlags)

	cfg := config.Default(*mobile)
	if *cfgPath != "" {
		c, err := config.Load(*cfgPath, *mobile)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c
	}
	for _, o := range []struct {
		flag string
		dst  *string
	}{{*mainF, &cfg.Audio.Main}, {*drumsF, &cfg.Audio.Drums}, {*instF, &cfg.Audio.Instruments}} {
		if o.flag != "" {
			*o.dst = o.flag
		}
	}

	set, spec, err := openAudio(cfg, *bpm, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer set.Close()

	g := newGame(cfg, set)
	opts := []avsync.Option{
		avsync.WithConfig(cfg),
		avsync.WithLogger(logger),
		avsync.WithPositionSource(set),
		avsync.WithSpectrumSource(spec),
		avsync.WithAsyncAnalysis(*async),
		avsync.WithPerformanceScale(*scale),
		avsync.WithPixelLayers(g.pixelLayer()),
	}
	if *seed != 0 {
		opts = append(opts, avsync.WithSeed(*seed))
	}
	exp, err := avsync.New(g.rec, opts...)
	if err != nil {
		log.Fatal(err)
	}
	g.attach(exp)
	defer exp.Stop()

	if err := set.PlayAll(); err != nil {
		// Stays silent until the first click retries.
		g.setError("audio blocked: click to start")
	}

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("avsync")
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}

// openAudio loads the configured stems. When the main mix is missing and bpm
// is set, a metronome split into pseudo stems stands in for the music.
func openAudio(cfg config.Config, bpm float64, logger *log.Logger) (*audio.StemSet, avsync.SpectrumSource, error) {
	sr := cfg.Audio.SampleRate
	paths := audio.StemPaths{Main: cfg.Audio.Main, Drums: cfg.Audio.Drums, Instruments: cfg.Audio.Instruments}
	loaded, err := audio.Load(context.Background(), paths, sr, 0, func(name string, err error) {
		logger.Printf("stem %s unavailable: %v", name, err)
	})
	if err == nil {
		mainTrack, stems := loaded.Tracks()
		set, err := audio.NewStemSet(mainTrack, stems, cfg.Mobile, logger)
		if err != nil {
			return nil, nil, err
		}
		spec := avsync.NewTapSpectrum(cfg.Audio.FFTSize, sr,
			loaded.Main.Tap(), tapOf(loaded.Drums), tapOf(loaded.Instruments))
		return set, spec, nil
	}
	if bpm <= 0 {
		return nil, nil, err
	}
	logger.Printf("%v; using a %.0f bpm metronome", err, bpm)

	mix, low, high := analysis.NewTap(0), analysis.NewTap(0), analysis.NewTap(0)
	split := audio.NewSplitter(sr, audio.SplitLowHz, audio.SplitHighHz, mix, low, high)
	track, err := audio.NewSourceTrack("metronome", sr, audio.NewMetronome(sr, bpm, float64(cfg.Duration)), split)
	if err != nil {
		return nil, nil, err
	}
	set, err := audio.NewStemSet(track, nil, cfg.Mobile, logger)
	if err != nil {
		return nil, nil, err
	}
	return set, avsync.NewTapSpectrum(cfg.Audio.FFTSize, sr, mix, low, high), nil
}

func tapOf(t *audio.EbitenTrack) *analysis.Tap {
	if t == nil {
		return nil
	}
	return t.Tap()
}
