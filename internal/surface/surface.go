package surface

import (
	"image"
	"image/color"
)

// Prop is a scalar style property of a composited element.
type Prop int

const (
	Opacity Prop = iota
	Brightness
	Blur
	Scale
	Rotate
	TranslateX
	TranslateY
	Invert
	HueRotate
	ChromaX
	ChromaY
	ChromaOpacity
	Visible
)

var propNames = [...]string{
	Opacity:       "opacity",
	Brightness:    "brightness",
	Blur:          "blur",
	Scale:         "scale",
	Rotate:        "rotate",
	TranslateX:    "translate-x",
	TranslateY:    "translate-y",
	Invert:        "invert",
	HueRotate:     "hue-rotate",
	ChromaX:       "chroma-x",
	ChromaY:       "chroma-y",
	ChromaOpacity: "chroma-opacity",
	Visible:       "visible",
}

func (p Prop) String() string {
	if p < 0 || int(p) >= len(propNames) {
		return "prop?"
	}
	return propNames[p]
}

// Orbit is a camera orbit around a model, angles in degrees.
type Orbit struct {
	Yaw      float64
	Pitch    float64
	Distance float64
}

type Vec3 struct{ X, Y, Z float64 }

// Pose places a free camera.
type Pose struct {
	Position Vec3
	LookAt   Vec3
}

type Point struct{ X, Y float64 }

// Sprite is one star or particle in canvas pixels. TrailX/TrailY is the
// streak vector drawn behind fast particles.
type Sprite struct {
	X, Y    float64
	Size    float64
	Opacity float64
	TrailX  float64
	TrailY  float64
	// Color tints the sprite; the zero value draws the layer's default.
	Color color.RGBA
	// Cross draws an eight-arm star of arm length 3*Size turned by Rotate
	// radians instead of a dot.
	Cross  bool
	Rotate float64
}

// Glyph is one character cell of a text overlay.
type Glyph struct {
	X, Y       float64
	Char       byte
	Brightness float64
}

// Surface is the write-only sink drivers render into. Implementations must
// tolerate any call at any time; the core never reads values back. Slices
// and images passed in are reused by the caller after the call returns.
type Surface interface {
	SetUniform(target, name string, v float64)
	SetColor(target, name string, c color.RGBA)
	SetOrbit(target string, o Orbit)
	SetPose(target string, p Pose)
	SetStyle(element string, p Prop, v float64)
	DrawSprites(layer string, s []Sprite)
	DrawLines(target string, lines [][]Point, c color.RGBA)
	Present(target string, img *image.RGBA)
	DrawGlyphs(target string, g []Glyph)
}

// Discard drops every write.
type Discard struct{}

func (Discard) SetUniform(string, string, float64)      {}
func (Discard) SetColor(string, string, color.RGBA)     {}
func (Discard) SetOrbit(string, Orbit)                  {}
func (Discard) SetPose(string, Pose)                    {}
func (Discard) SetStyle(string, Prop, float64)          {}
func (Discard) DrawSprites(string, []Sprite)            {}
func (Discard) DrawLines(string, [][]Point, color.RGBA) {}
func (Discard) Present(string, *image.RGBA)             {}
func (Discard) DrawGlyphs(string, []Glyph)              {}
