package postfx

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"

	"golang.org/x/image/draw"
)

// ErrReadPixels wraps a source failure during composition.
var ErrReadPixels = errors.New("postfx: read pixels")

// Source is one layer that can be read back for post-processing.
type Source interface {
	Name() string
	// ReadPixels returns the layer's current frame. The image is only read
	// during the call.
	ReadPixels() (image.Image, error)
}

// Layer places a source in frame coordinates.
type Layer struct {
	Source Source
	Rect   image.Rectangle
}

// Compositor flattens layers into one frame. A layer whose read fails is
// skipped for that frame and logged; the rest still compose.
type Compositor struct {
	Layers     []Layer
	Background color.RGBA
	Logger     *log.Logger

	failures map[string]int
}

func (c *Compositor) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Compose draws every layer into dst, scaled by factor, and returns the
// first read error (wrapped in ErrReadPixels) if any occurred.
func (c *Compositor) Compose(dst *image.RGBA, factor float64) error {
	draw.Draw(dst, dst.Rect, image.NewUniform(c.Background), image.Point{}, draw.Src)
	var first error
	for _, l := range c.Layers {
		img, err := l.Source.ReadPixels()
		if err != nil {
			err = fmt.Errorf("%w: %s: %v", ErrReadPixels, l.Source.Name(), err)
			if first == nil {
				first = err
			}
			c.noteFailure(l.Source.Name(), err)
			continue
		}
		r := l.Rect
		if r.Empty() {
			r = img.Bounds()
		}
		dr := image.Rect(
			int(float64(r.Min.X)*factor), int(float64(r.Min.Y)*factor),
			int(float64(r.Max.X)*factor), int(float64(r.Max.Y)*factor),
		).Add(dst.Rect.Min)
		draw.ApproxBiLinear.Scale(dst, dr, img, img.Bounds(), draw.Over, nil)
	}
	return first
}

// noteFailure logs the first failure of a source and then every 100th, so a
// permanently broken layer does not flood the log.
func (c *Compositor) noteFailure(name string, err error) {
	if c.failures == nil {
		c.failures = map[string]int{}
	}
	n := c.failures[name]
	c.failures[name] = n + 1
	if n%100 == 0 {
		c.logger().Printf("postfx: skipping layer: %v (failures=%d)", err, n+1)
	}
}

// Failures returns how many reads of a source have failed.
func (c *Compositor) Failures(name string) int { return c.failures[name] }

// ImageSource adapts a fixed image, mostly for tests and offline renders.
type ImageSource struct {
	ID  string
	Img image.Image
	Err error
}

func (s ImageSource) Name() string { return s.ID }

func (s ImageSource) ReadPixels() (image.Image, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Img, nil
}
