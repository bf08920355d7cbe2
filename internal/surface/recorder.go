package surface

import (
	"image"
	"image/color"
)

type StyleKey struct {
	Element string
	Prop    Prop
}

// Recorder keeps the latest value of every write. It backs headless tests
// and the offline renderer.
type Recorder struct {
	Uniforms map[string]float64
	Colors   map[string]color.RGBA
	Orbits   map[string]Orbit
	Poses    map[string]Pose
	Styles   map[StyleKey]float64
	Sprites  map[string][]Sprite
	Lines    map[string][][]Point
	Images   map[string]*image.RGBA
	Glyphs   map[string][]Glyph

	// Writes counts uniform writes per "target.name" key.
	Writes map[string]int
}

func NewRecorder() *Recorder {
	return &Recorder{
		Uniforms: map[string]float64{},
		Colors:   map[string]color.RGBA{},
		Orbits:   map[string]Orbit{},
		Poses:    map[string]Pose{},
		Styles:   map[StyleKey]float64{},
		Sprites:  map[string][]Sprite{},
		Lines:    map[string][][]Point{},
		Images:   map[string]*image.RGBA{},
		Glyphs:   map[string][]Glyph{},
		Writes:   map[string]int{},
	}
}

func key(target, name string) string { return target + "." + name }

func (r *Recorder) SetUniform(target, name string, v float64) {
	k := key(target, name)
	r.Uniforms[k] = v
	r.Writes[k]++
}

func (r *Recorder) SetColor(target, name string, c color.RGBA) { r.Colors[key(target, name)] = c }
func (r *Recorder) SetOrbit(target string, o Orbit)            { r.Orbits[target] = o }
func (r *Recorder) SetPose(target string, p Pose)              { r.Poses[target] = p }

func (r *Recorder) SetStyle(element string, p Prop, v float64) {
	r.Styles[StyleKey{element, p}] = v
}

func (r *Recorder) DrawSprites(layer string, s []Sprite) {
	r.Sprites[layer] = append(r.Sprites[layer][:0], s...)
}

func (r *Recorder) DrawLines(target string, lines [][]Point, _ color.RGBA) {
	cp := make([][]Point, len(lines))
	for i, l := range lines {
		cp[i] = append([]Point(nil), l...)
	}
	r.Lines[target] = cp
}

func (r *Recorder) Present(target string, img *image.RGBA) {
	if img == nil {
		delete(r.Images, target)
		return
	}
	cp := image.NewRGBA(img.Rect)
	copy(cp.Pix, img.Pix)
	r.Images[target] = cp
}

func (r *Recorder) DrawGlyphs(target string, g []Glyph) {
	r.Glyphs[target] = append(r.Glyphs[target][:0], g...)
}

// Uniform returns a recorded uniform and whether it was ever written.
func (r *Recorder) Uniform(target, name string) (float64, bool) {
	v, ok := r.Uniforms[key(target, name)]
	return v, ok
}

// Style returns a recorded style value and whether it was ever written.
func (r *Recorder) Style(element string, p Prop) (float64, bool) {
	v, ok := r.Styles[StyleKey{element, p}]
	return v, ok
}
