package postfx

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Downsample scales src by factor (0,1] with bilinear filtering into dst,
// reallocating dst when its size does not match.
func Downsample(dst *image.RGBA, src image.Image, factor float64) *image.RGBA {
	if factor <= 0 || factor > 1 {
		factor = 1
	}
	b := src.Bounds()
	w := int(math.Max(1, math.Round(float64(b.Dx())*factor)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*factor)))
	dst = ensure(dst, w, h)
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Upscale stretches src to w×h with nearest-neighbour sampling, which keeps
// the pixelated look of a downsampled frame.
func Upscale(dst *image.RGBA, src image.Image, w, h int) *image.RGBA {
	dst = ensure(dst, w, h)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func ensure(img *image.RGBA, w, h int) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if img == nil || img.Rect.Dx() != w || img.Rect.Dy() != h {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return img
}
