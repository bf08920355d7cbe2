package audio

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/avsync-go/internal/analysis"
)

// StemPaths names the three files of one piece. Empty paths are skipped.
type StemPaths struct {
	Main        string
	Drums       string
	Instruments string
}

// Loaded holds the decoded stems and their taps. Any field except Main may be
// nil.
type Loaded struct {
	Main, Drums, Instruments *EbitenTrack
}

// Tracks returns the non-nil tracks in role order.
func (l Loaded) Tracks() (main Track, stems []Track) {
	if l.Drums != nil {
		stems = append(stems, l.Drums)
	}
	if l.Instruments != nil {
		stems = append(stems, l.Instruments)
	}
	if l.Main == nil {
		return nil, stems
	}
	return l.Main, stems
}

// Load reads and decodes the stems concurrently. A failed main stem fails the
// load; a failed secondary stem is reported through degraded and left nil.
func Load(ctx context.Context, paths StemPaths, sampleRate, tapLen int, degraded func(name string, err error)) (Loaded, error) {
	if paths.Main == "" {
		return Loaded{}, fmt.Errorf("%w: no main stem", ErrNoTrack)
	}
	// Creating the context before the goroutines start avoids racing the
	// sync.Once with differing rates.
	if _, err := sharedAudioContext(sampleRate); err != nil {
		return Loaded{}, err
	}

	var out Loaded
	g, ctx := errgroup.WithContext(ctx)
	load := func(path string, dst **EbitenTrack, required bool) {
		if path == "" {
			return
		}
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err == nil {
				err = ctx.Err()
			}
			var tr *EbitenTrack
			if err == nil {
				tr, err = Decode(path, sampleRate, data, analysis.NewTap(tapLen))
			}
			if err != nil {
				if required {
					return fmt.Errorf("%w: %w", ErrMainTrack, err)
				}
				if degraded != nil {
					degraded(path, err)
				}
				return nil
			}
			*dst = tr
			return nil
		})
	}
	load(paths.Main, &out.Main, true)
	load(paths.Drums, &out.Drums, false)
	load(paths.Instruments, &out.Instruments, false)
	if err := g.Wait(); err != nil {
		out.close()
		return Loaded{}, err
	}
	return out, nil
}

func (l Loaded) close() {
	for _, t := range []*EbitenTrack{l.Main, l.Drums, l.Instruments} {
		if t != nil {
			_ = t.Close()
		}
	}
}
