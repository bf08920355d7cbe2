package main

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/avsync-go"
	"github.com/cbegin/avsync-go/internal/audio"
	"github.com/cbegin/avsync-go/internal/config"
	"github.com/cbegin/avsync-go/internal/postfx"
	"github.com/cbegin/avsync-go/internal/surface"
)

const seekStep = 5.0

var errNoFrame = errors.New("scene not drawn yet")

type game struct {
	cfg    config.Config
	exp    *avsync.Experience
	set    *audio.StemSet
	rec    *surface.Recorder
	events <-chan avsync.Event
	start  time.Time

	// scene is the offscreen frame the pixel modes read back.
	scene    *ebiten.Image
	readback *image.RGBA
	ringImg  *ebiten.Image
	fxImg    *ebiten.Image
	chars    []rune

	status    string
	statusErr bool
	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(cfg config.Config, set *audio.StemSet) *game {
	return &game{
		cfg:       cfg,
		set:       set,
		rec:       surface.NewRecorder(),
		start:     time.Now(),
		status:    "Ready",
		textCache: make(map[string]*ebiten.Image, 256),
	}
}

func (g *game) attach(exp *avsync.Experience) {
	g.exp = exp
	g.events = exp.Watch()
}

// sceneSource reads the last drawn scene back for the dither and ASCII modes.
type sceneSource struct{ g *game }

func (s sceneSource) Name() string { return "scene" }

func (s sceneSource) ReadPixels() (image.Image, error) {
	g := s.g
	if g.scene == nil {
		return nil, errNoFrame
	}
	b := g.scene.Bounds()
	if g.readback == nil || g.readback.Rect != b {
		g.readback = image.NewRGBA(b)
	}
	g.scene.ReadPixels(g.readback.Pix)
	return g.readback, nil
}

func (g *game) pixelLayer() postfx.Layer {
	return postfx.Layer{Source: sceneSource{g}}
}

func (g *game) wall() time.Duration { return time.Since(g.start) }

func (g *game) Update() error {
	wall := g.wall()
	if err := g.handleInput(wall); err != nil {
		return err
	}
	g.exp.Tick(wall)
	g.pollEvents()
	return nil
}

func (g *game) handleInput(wall time.Duration) error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		retried, err := g.set.OnInteraction()
		switch {
		case err != nil:
			g.setError(err.Error())
		case retried:
			g.setStatus("Playing")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && !g.exp.TriggerSpin() {
		g.setStatus("Spin unavailable")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyHome) {
		if err := g.exp.Replay(); err != nil {
			g.setError(err.Error())
		}
	}
	for _, k := range []struct {
		key ebiten.Key
		d   float64
	}{{ebiten.KeyArrowLeft, -seekStep}, {ebiten.KeyArrowRight, seekStep}} {
		if inpututil.IsKeyJustPressed(k.key) {
			if err := g.exp.SkipTo(g.exp.Time() + k.d); err != nil {
				g.setError(err.Error())
			}
		}
	}
	g.chars = ebiten.AppendInputChars(g.chars[:0])
	for _, r := range g.chars {
		if r == ' ' {
			continue
		}
		if mode := g.exp.TypeKey(r, wall); mode != "" {
			g.setStatus("Toggled " + mode)
		}
	}
	return nil
}

func (g *game) pollEvents() {
	for {
		select {
		case ev, ok := <-g.events:
			if !ok {
				return
			}
			switch ev.Kind {
			case avsync.EventEnded:
				g.setStatus("Playback ended (Home to replay)")
			case avsync.EventDegraded:
				g.setError("Degraded: " + ev.Detail)
			case avsync.EventSeeked:
				g.setStatus(fmt.Sprintf("Seeked to %.1fs", ev.Time))
			}
		default:
			return
		}
	}
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW != g.viewW || outsideH != g.viewH {
		g.viewW, g.viewH = outsideW, outsideH
		if g.exp != nil {
			g.exp.Resize(outsideW, outsideH, g.wall())
		}
	}
	return outsideW, outsideH
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}
