package drivers

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/postfx"
	"github.com/cbegin/avsync-go/internal/surface"
)

type RingConfig struct {
	Size           int     `yaml:"size"`
	Bars           int     `yaml:"bars"`
	Inner          float64 `yaml:"inner"`
	Length         float64 `yaml:"length"`
	BarWidth       float64 `yaml:"bar_width"`
	Color          uint32  `yaml:"color"`
	DitherLevels   int     `yaml:"dither_levels"`
	DitherStrength float64 `yaml:"dither_strength"`
}

func DefaultRingConfig() RingConfig {
	return RingConfig{
		Size:           256,
		Bars:           64,
		Inner:          0.3,
		Length:         0.18,
		BarWidth:       0.6,
		Color:          0x8000ff,
		DitherLevels:   4,
		DitherStrength: 0.3,
	}
}

// Ring draws the circular bar visualizer around the centre model.
type Ring struct {
	cfg  RingConfig
	sink surface.Surface
	img  *image.RGBA
	z    *vector.Rasterizer
	src  *image.Uniform
}

func NewRing(cfg RingConfig, sink surface.Surface) *Ring {
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	return &Ring{
		cfg:  cfg,
		sink: sink,
		img:  image.NewRGBA(image.Rect(0, 0, cfg.Size, cfg.Size)),
		z:    vector.NewRasterizer(cfg.Size, cfg.Size),
		src:  image.NewUniform(Hex(cfg.Color)),
	}
}

// Heights returns the normalized bar heights sampled from frequency bytes.
func (r *Ring) Heights(bins []byte) []float64 {
	n := r.cfg.Bars
	if n <= 0 || len(bins) == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(bins[i*len(bins)/n]) / 255
	}
	return out
}

// Render draws the bars for bins into the ring image and returns it.
func (r *Ring) Render(bins []byte) *image.RGBA {
	draw.Draw(r.img, r.img.Rect, image.Transparent, image.Point{}, draw.Src)
	hs := r.Heights(bins)
	if len(hs) == 0 {
		return r.img
	}
	size := float64(r.cfg.Size)
	c := size / 2
	inner := r.cfg.Inner * size
	step := 2 * math.Pi / float64(len(hs))
	half := step * r.cfg.BarWidth / 2

	r.z.Reset(r.cfg.Size, r.cfg.Size)
	for i, h := range hs {
		if h <= 0 {
			continue
		}
		a := float64(i)*step - math.Pi/2
		outer := inner + h*r.cfg.Length*size
		pt := func(rad, ang float64) (float32, float32) {
			return float32(c + rad*math.Cos(ang)), float32(c + rad*math.Sin(ang))
		}
		r.z.MoveTo(pt(inner, a-half))
		r.z.LineTo(pt(outer, a-half))
		r.z.LineTo(pt(outer, a+half))
		r.z.LineTo(pt(inner, a+half))
		r.z.ClosePath()
	}
	r.z.Draw(r.img, r.img.Rect, r.src, image.Point{})
	postfx.Bayer4(r.img, r.cfg.DitherLevels, r.cfg.DitherStrength)
	return r.img
}

func (r *Ring) Update(f *clock.Frame) {
	r.sink.Present(ElemRing, r.Render(f.Spectra.Main))
}

// Name and ReadPixels let the ring feed the post-effect compositor.
func (r *Ring) Name() string                     { return ElemRing }
func (r *Ring) ReadPixels() (image.Image, error) { return r.img, nil }

func (r *Ring) Reset()         {}
func (r *Ring) Resync(float64) {}
