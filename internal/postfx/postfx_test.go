package postfx

import (
	"errors"
	"image"
	"image/color"
	"io"
	"log"
	"math/rand"
	"testing"
	"time"

	"github.com/cbegin/avsync-go/internal/surface"
)

func noise(w, h int, seed int64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rand.New(rand.NewSource(seed)).Read(img.Pix)
	return img
}

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestPosterizeIdempotentAndKeepsAlpha(t *testing.T) {
	for _, levels := range []int{2, 3, 4, 6, 16} {
		img := noise(32, 32, int64(levels))
		alpha := make([]uint8, 0, 32*32)
		for i := 3; i < len(img.Pix); i += 4 {
			alpha = append(alpha, img.Pix[i])
		}
		Posterize(img, levels)
		once := append([]uint8(nil), img.Pix...)
		Posterize(img, levels)
		for i := range once {
			if once[i] != img.Pix[i] {
				t.Fatalf("levels=%d: byte %d changed on second pass: %d -> %d", levels, i, once[i], img.Pix[i])
			}
		}
		for i, a := range alpha {
			if img.Pix[i*4+3] != a {
				t.Fatalf("levels=%d: alpha %d changed", levels, i)
			}
		}
	}
}

func TestPosterizeRoundsToStep(t *testing.T) {
	tests := []struct {
		name   string
		levels int
		in     color.RGBA
		want   [4]uint8
	}{
		{"six levels", 6, color.RGBA{R: 20, G: 22, B: 255, A: 7}, [4]uint8{0, 42, 252, 7}},
		{"one level", 1, color.RGBA{R: 100, G: 160, B: 128, A: 9}, [4]uint8{0, 255, 255, 9}},
		{"zero clamps to one", 0, color.RGBA{R: 100, G: 160, B: 127, A: 9}, [4]uint8{0, 255, 0, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := fill(1, 1, tt.in)
			Posterize(img, tt.levels)
			got := [4]uint8(img.Pix[:4])
			if got != tt.want {
				t.Fatalf("pixel = %v, want %v", got, tt.want)
			}
			Posterize(img, tt.levels)
			if again := [4]uint8(img.Pix[:4]); again != got {
				t.Fatalf("second pass = %v, want %v", again, got)
			}
		})
	}
}

func TestBayer4Quantizes(t *testing.T) {
	img := noise(16, 16, 1)
	Bayer4(img, 4, 0.3)
	step := Step(4)
	for i, v := range img.Pix {
		if i%4 == 3 {
			continue
		}
		if int(v)%step != 0 && v != 255 {
			t.Fatalf("byte %d = %d not on a %d grid", i, v, step)
		}
	}
}

func TestBayer4SubImage(t *testing.T) {
	img := fill(8, 8, color.RGBA{100, 100, 100, 255})
	sub := img.SubImage(image.Rect(4, 4, 8, 8)).(*image.RGBA)
	Bayer4(sub, 2, 1)
	if img.Pix[0] != 100 {
		t.Fatal("Bayer4 wrote outside the sub-image")
	}
}

func TestASCIISkipsBlankCells(t *testing.T) {
	img := fill(24, 18, color.RGBA{A: 255})
	for y := 0; y < 18; y++ {
		for x := 12; x < 24; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	g := DefaultASCII().Glyphs(nil, img, 24, 18)
	if len(g) != 1 {
		t.Fatalf("glyphs = %+v", g)
	}
	if g[0].X != 12 || g[0].Char != '%' {
		t.Fatalf("glyph = %+v", g[0])
	}
}

func TestASCIIChar(t *testing.T) {
	a := DefaultASCII()
	cases := []struct {
		b    float64
		want byte
	}{{-1, ' '}, {0, ' '}, {0.5, '='}, {1, '@'}, {2, '@'}}
	for _, tc := range cases {
		if got := a.Char(tc.b); got != tc.want {
			t.Errorf("Char(%v) = %q, want %q", tc.b, got, tc.want)
		}
	}
}

func TestDownsampleUpscale(t *testing.T) {
	src := noise(100, 60, 3)
	small := Downsample(nil, src, 0.3)
	if small.Rect.Dx() != 30 || small.Rect.Dy() != 18 {
		t.Fatalf("small = %v", small.Rect)
	}
	again := Downsample(small, src, 0.3)
	if again != small {
		t.Fatal("matching buffer reallocated")
	}
	big := Upscale(nil, small, 100, 60)
	if big.Rect.Dx() != 100 || big.Rect.Dy() != 60 {
		t.Fatalf("big = %v", big.Rect)
	}
	if big.RGBAAt(0, 0) != small.RGBAAt(0, 0) {
		t.Fatal("nearest-neighbour upscale changed the corner pixel")
	}
}

type orderEffect struct {
	log *[]string
	id  string
}

func (o orderEffect) Apply(*image.RGBA) { *o.log = append(*o.log, o.id) }
func (o orderEffect) Reset()            { *o.log = append(*o.log, "reset-"+o.id) }

func TestChainOrder(t *testing.T) {
	var got []string
	c := NewChain(orderEffect{&got, "a"})
	c.Add(orderEffect{&got, "b"})
	c.Apply(nil)
	c.Reset()
	want := []string{"a", "b", "reset-a", "reset-b"}
	if len(got) != len(want) || c.Len() != 2 {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBrightnessEffect(t *testing.T) {
	img := fill(1, 1, color.RGBA{100, 200, 10, 50})
	BrightnessEffect{Factor: 1.5}.Apply(img)
	if p := img.Pix[:4]; p[0] != 150 || p[1] != 255 || p[2] != 15 || p[3] != 50 {
		t.Fatalf("pixel = %v", p)
	}
}

func quietCompositor(layers ...Layer) *Compositor {
	return &Compositor{Layers: layers, Logger: log.New(io.Discard, "", 0)}
}

func TestCompositorSkipsFailingLayer(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	c := quietCompositor(
		Layer{Source: ImageSource{ID: "canvas", Img: fill(4, 4, red)}},
		Layer{Source: ImageSource{ID: "webgl", Err: errors.New("context lost")}},
	)
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 3; i++ {
		err := c.Compose(dst, 1)
		if !errors.Is(err, ErrReadPixels) {
			t.Fatalf("err = %v", err)
		}
	}
	if dst.RGBAAt(2, 2) != red {
		t.Fatalf("healthy layer not drawn: %v", dst.RGBAAt(2, 2))
	}
	if c.Failures("webgl") != 3 || c.Failures("canvas") != 0 {
		t.Fatalf("failures = %d / %d", c.Failures("webgl"), c.Failures("canvas"))
	}
}

func TestCompositorPlacesScaledLayers(t *testing.T) {
	blue := color.RGBA{0, 0, 255, 255}
	c := quietCompositor(Layer{Source: ImageSource{ID: "ring", Img: fill(10, 10, blue)}, Rect: image.Rect(10, 10, 20, 20)})
	c.Background = color.RGBA{A: 255}
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if err := c.Compose(dst, 0.5); err != nil {
		t.Fatal(err)
	}
	if dst.RGBAAt(7, 7) != blue || dst.RGBAAt(2, 2) != (color.RGBA{A: 255}) {
		t.Fatalf("inside %v outside %v", dst.RGBAAt(7, 7), dst.RGBAAt(2, 2))
	}
}

func TestKeywords(t *testing.T) {
	k := NewKeywords(2*time.Second, KeywordDither, KeywordASCII)
	typeWord := func(w string, start time.Duration) (string, bool) {
		var got string
		var ok bool
		for i, r := range w {
			got, ok = k.Type(r, start+time.Duration(i)*100*time.Millisecond)
		}
		return got, ok
	}
	if w, ok := typeWord("xxCLASSIC", 0); !ok || w != KeywordDither {
		t.Fatalf("got %q %v", w, ok)
	}
	if w, ok := typeWord("asc", 10*time.Second); ok {
		t.Fatalf("partial word matched %q", w)
	}
	// The pause clears "asc", so "ii" alone does not complete the word.
	if _, ok := typeWord("ii", 20*time.Second); ok {
		t.Fatal("matched across timeout")
	}
	if w, ok := typeWord("ascii", 30*time.Second); !ok || w != KeywordASCII {
		t.Fatalf("got %q %v", w, ok)
	}
}

func TestDitherReinitWhileInactive(t *testing.T) {
	rec := surface.NewRecorder()
	comp := quietCompositor(Layer{Source: ImageSource{ID: "scene", Img: noise(40, 20, 9)}})
	d := NewDither(comp, 6, 0.3, rec)
	d.Reinit(40, 20)
	d.Update(nil)
	if d.frame != nil || d.Frames() != 0 || len(rec.Images) != 0 {
		t.Fatal("inactive dither allocated or presented")
	}
	if !d.Toggle() {
		t.Fatal("toggle did not activate")
	}
	d.Update(nil)
	img := rec.Images["dither"]
	if img == nil || img.Rect.Dx() != 40 || img.Rect.Dy() != 20 {
		t.Fatalf("presented %v", img)
	}
	step := Step(6)
	for i, v := range img.Pix {
		if i%4 != 3 && int(v)%step != 0 && v != 255 {
			t.Fatalf("byte %d = %d not posterized", i, v)
		}
	}
	d.Reinit(80, 40)
	d.Update(nil)
	if rec.Images["dither"].Rect.Dx() != 80 {
		t.Fatal("active reinit did not resize")
	}
	if d.Toggle() || d.frame != nil {
		t.Fatal("toggle off kept buffers")
	}
}

func TestASCIIArtToggle(t *testing.T) {
	rec := surface.NewRecorder()
	comp := quietCompositor(Layer{Source: ImageSource{ID: "scene", Img: fill(48, 36, color.RGBA{255, 255, 255, 255})}})
	a := NewASCIIArt(comp, DefaultASCII(), 0.5, rec)
	a.Reinit(48, 36)
	a.Toggle()
	a.Update(nil)
	if n := len(rec.Glyphs["ascii"]); n != 8 {
		t.Fatalf("glyphs = %d, want 8", n)
	}
	a.Toggle()
	if len(rec.Glyphs["ascii"]) != 0 {
		t.Fatal("glyphs kept after toggle off")
	}
}

func BenchmarkPosterize(b *testing.B) {
	img := noise(640, 360, 1)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Posterize(img, 6)
	}
}

func BenchmarkASCIIGlyphs(b *testing.B) {
	img := noise(960, 540, 2)
	a := DefaultASCII()
	var g []surface.Glyph
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		g = a.Glyphs(g, img, 1920, 1080)
	}
}
