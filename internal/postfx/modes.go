package postfx

import (
	"image"
	"strings"
	"time"

	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/surface"
)

// Keyword toggles.
const (
	KeywordDither = "classic"
	KeywordASCII  = "ascii"
)

// Keywords watches typed characters for toggle words. The buffer is cleared
// when no key arrives for Timeout.
type Keywords struct {
	Words   []string
	Timeout time.Duration

	buf  []byte
	last time.Duration
	max  int
}

func NewKeywords(timeout time.Duration, words ...string) *Keywords {
	k := &Keywords{Words: words, Timeout: timeout}
	for _, w := range words {
		if len(w) > k.max {
			k.max = len(w)
		}
	}
	return k
}

// Type feeds one key typed at now and returns the word it completed, if any.
func (k *Keywords) Type(r rune, now time.Duration) (string, bool) {
	if k.Timeout > 0 && len(k.buf) > 0 && now-k.last > k.Timeout {
		k.buf = k.buf[:0]
	}
	k.last = now
	if r > 0x7f {
		return "", false
	}
	k.buf = append(k.buf, byte(r|0x20))
	if len(k.buf) > k.max {
		k.buf = k.buf[len(k.buf)-k.max:]
	}
	s := string(k.buf)
	for _, w := range k.Words {
		if strings.Contains(s, w) {
			k.buf = k.buf[:0]
			return w, true
		}
	}
	return "", false
}

// Dither is the retro mode: the composited frame is downsampled, posterized
// and shown pixelated at full size.
type Dither struct {
	Comp   *Compositor
	Factor float64
	Chain  *Chain

	sink   surface.Surface
	active bool
	w, h   int
	small  *image.RGBA
	frame  *image.RGBA
	out    *image.RGBA
	frames uint64
}

func NewDither(comp *Compositor, levels int, factor float64, sink surface.Surface) *Dither {
	return &Dither{
		Comp:   comp,
		Factor: factor,
		Chain:  NewChain(PosterizeEffect{Levels: levels}),
		sink:   sink,
	}
}

func (d *Dither) Active() bool { return d.active }

// Toggle flips the mode and returns the new state. Turning it on sizes the
// buffers for the last known surface size.
func (d *Dither) Toggle() bool {
	d.active = !d.active
	if d.active {
		d.alloc()
	} else {
		d.small, d.frame, d.out = nil, nil, nil
	}
	return d.active
}

// Reinit resizes for a new surface size. It only records the size while the
// mode is off.
func (d *Dither) Reinit(w, h int) {
	d.w, d.h = w, h
	if d.active {
		d.alloc()
	}
}

func (d *Dither) alloc() {
	if d.w <= 0 || d.h <= 0 {
		return
	}
	d.frame = ensure(d.frame, d.w, d.h)
}

// Frames counts processed frames.
func (d *Dither) Frames() uint64 { return d.frames }

func (d *Dither) Update(*clock.Frame) {
	if !d.active || d.frame == nil {
		return
	}
	_ = d.Comp.Compose(d.frame, 1)
	d.small = Downsample(d.small, d.frame, d.Factor)
	d.Chain.Apply(d.small)
	d.out = Upscale(d.out, d.small, d.w, d.h)
	d.frames++
	d.sink.Present("dither", d.out)
}

func (d *Dither) Reset()         { d.Chain.Reset() }
func (d *Dither) Resync(float64) {}

// ASCIIArt renders the composited frame as characters.
type ASCIIArt struct {
	Comp   *Compositor
	Map    ASCII
	Factor float64

	sink   surface.Surface
	active bool
	w, h   int
	frame  *image.RGBA
	glyphs []surface.Glyph
}

func NewASCIIArt(comp *Compositor, m ASCII, factor float64, sink surface.Surface) *ASCIIArt {
	return &ASCIIArt{Comp: comp, Map: m, Factor: factor, sink: sink}
}

func (a *ASCIIArt) Active() bool { return a.active }

func (a *ASCIIArt) Toggle() bool {
	a.active = !a.active
	if a.active {
		a.alloc()
	} else {
		a.frame = nil
		a.glyphs = a.glyphs[:0]
		a.sink.DrawGlyphs("ascii", nil)
	}
	return a.active
}

func (a *ASCIIArt) Reinit(w, h int) {
	a.w, a.h = w, h
	if a.active {
		a.alloc()
	}
}

func (a *ASCIIArt) alloc() {
	if a.w <= 0 || a.h <= 0 {
		return
	}
	f := a.Factor
	if f <= 0 || f > 1 {
		f = 1
	}
	a.frame = ensure(a.frame, int(float64(a.w)*f), int(float64(a.h)*f))
}

func (a *ASCIIArt) Update(*clock.Frame) {
	if !a.active || a.frame == nil {
		return
	}
	f := a.Factor
	if f <= 0 || f > 1 {
		f = 1
	}
	_ = a.Comp.Compose(a.frame, f)
	a.glyphs = a.Map.Glyphs(a.glyphs, a.frame, a.w, a.h)
	a.sink.DrawGlyphs("ascii", a.glyphs)
}

func (a *ASCIIArt) Reset()         {}
func (a *ASCIIArt) Resync(float64) {}
