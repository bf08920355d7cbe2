// Package postfx holds the pixel post-effects: posterize, ordered dither,
// resampling and the brightness-to-character ramp, plus the drivers that
// run them over a composited frame.
package postfx

import "image"

// Effect processes an RGBA frame in place.
type Effect interface {
	Apply(img *image.RGBA)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effect
}

func NewChain(effects ...Effect) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Apply(img *image.RGBA) {
	for _, e := range c.effects {
		e.Apply(img)
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effect) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int { return len(c.effects) }

// PosterizeEffect quantizes every colour channel to Levels steps.
type PosterizeEffect struct{ Levels int }

func (p PosterizeEffect) Apply(img *image.RGBA) { Posterize(img, p.Levels) }
func (PosterizeEffect) Reset()                  {}

// DitherEffect applies a 4x4 Bayer ordered dither before quantizing.
type DitherEffect struct {
	Levels   int
	Strength float64
}

func (d DitherEffect) Apply(img *image.RGBA) { Bayer4(img, d.Levels, d.Strength) }
func (DitherEffect) Reset()                  {}

// BrightnessEffect scales RGB by Factor.
type BrightnessEffect struct{ Factor float64 }

func (b BrightnessEffect) Apply(img *image.RGBA) {
	if b.Factor == 1 {
		return
	}
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = scaleByte(pix[i], b.Factor)
		pix[i+1] = scaleByte(pix[i+1], b.Factor)
		pix[i+2] = scaleByte(pix[i+2], b.Factor)
	}
}

func (BrightnessEffect) Reset() {}

func scaleByte(v uint8, f float64) uint8 {
	x := float64(v) * f
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x + 0.5)
}
