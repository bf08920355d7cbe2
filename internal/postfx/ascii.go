package postfx

import (
	"image"

	"github.com/cbegin/avsync-go/internal/surface"
)

// DefaultRamp runs from darkest to brightest.
const DefaultRamp = " .:-=+*#%@"

// ASCII maps cell brightness onto a character ramp.
type ASCII struct {
	Ramp   string
	CellW  int
	CellH  int
	Stride int
	// Boost divides the channel sum; 3 would be a plain mean.
	Boost float64
}

func DefaultASCII() ASCII {
	return ASCII{Ramp: DefaultRamp, CellW: 12, CellH: 18, Stride: 4, Boost: 3.2}
}

// Char returns the ramp character for brightness in [0,1].
func (a ASCII) Char(brightness float64) byte {
	if len(a.Ramp) == 0 {
		return ' '
	}
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 1 {
		brightness = 1
	}
	i := int(brightness * float64(len(a.Ramp)-1))
	return a.Ramp[i]
}

// Glyphs samples img cell by cell, every Stride pixels inside a cell, and
// returns one glyph per non-blank cell. Glyph coordinates are in a
// width×height output space, which may differ from the source size.
func (a ASCII) Glyphs(dst []surface.Glyph, img *image.RGBA, width, height int) []surface.Glyph {
	dst = dst[:0]
	b := img.Rect
	if b.Empty() || width <= 0 || height <= 0 || a.CellW <= 0 || a.CellH <= 0 {
		return dst
	}
	stride := a.Stride
	if stride <= 0 {
		stride = 1
	}
	boost := a.Boost
	if boost <= 0 {
		boost = 3
	}
	sx := float64(width) / float64(b.Dx())
	sy := float64(height) / float64(b.Dy())

	for y := 0; y < height; y += a.CellH {
		for x := 0; x < width; x += a.CellW {
			srcX := b.Min.X + int(float64(x)/sx)
			srcY := b.Min.Y + int(float64(y)/sy)
			sum, n := 0.0, 0
			for dy := 0; dy < a.CellH && srcY+dy < b.Max.Y; dy += stride {
				for dx := 0; dx < a.CellW && srcX+dx < b.Max.X; dx += stride {
					i := img.PixOffset(srcX+dx, srcY+dy)
					sum += (float64(img.Pix[i]) + float64(img.Pix[i+1]) + float64(img.Pix[i+2])) / boost
					n++
				}
			}
			if n == 0 {
				continue
			}
			br := sum / float64(n) / 255
			c := a.Char(br)
			if c == ' ' {
				continue
			}
			dst = append(dst, surface.Glyph{X: float64(x), Y: float64(y), Char: c, Brightness: br})
		}
	}
	return dst
}
