package postfx

import (
	"image"
	"math"
)

// Step returns the quantization step 256/levels, with levels clamped to
// [1,256].
func Step(levels int) int {
	if levels < 1 {
		levels = 1
	}
	if levels > 256 {
		levels = 256
	}
	return 256 / levels
}

func quantize(v float64, step int) uint8 {
	q := math.Round(v/float64(step)) * float64(step)
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q)
}

// Posterize rounds each RGB channel to the nearest multiple of the step,
// clamped to 255. Alpha is untouched. Posterize(Posterize(x)) == Posterize(x).
func Posterize(img *image.RGBA, levels int) {
	step := Step(levels)
	var lut [256]uint8
	for i := range lut {
		lut[i] = quantize(float64(i), step)
	}
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = lut[pix[i]]
		pix[i+1] = lut[pix[i+1]]
		pix[i+2] = lut[pix[i+2]]
	}
}

var bayer4 = [4][4]float64{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

// Bayer4 nudges each channel by the 4x4 Bayer threshold, scaled by strength
// times one quantization step, then quantizes to levels.
func Bayer4(img *image.RGBA, levels int, strength float64) {
	step := Step(levels)
	amp := strength * float64(step)
	b := img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := b.Min.X; x < b.Max.X; x++ {
			bias := ((bayer4[y&3][x&3]+0.5)/16 - 0.5) * amp
			i := (x - b.Min.X) * 4
			row[i] = quantize(float64(row[i])+bias, step)
			row[i+1] = quantize(float64(row[i+1])+bias, step)
			row[i+2] = quantize(float64(row[i+2])+bias, step)
		}
	}
}
