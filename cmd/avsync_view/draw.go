package main

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/colorm"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/cbegin/avsync-go/internal/drivers"
	"github.com/cbegin/avsync-go/internal/surface"
)

const (
	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	// modelRadius is the wireframe half-extent in orbit units.
	modelRadius = 30.0
)

var (
	bgColor      = color.RGBA{4, 4, 12, 255}
	starColor    = colornames.Ghostwhite
	meshColor    = colornames.Royalblue
	chromaRed    = colornames.Red
	chromaBlue   = colornames.Dodgerblue
	statusBg     = color.RGBA{24, 24, 32, 220}
	statusErrFg  = colornames.Salmon
	bevelLight   = colornames.White
	bevelDarker  = colornames.Dimgray
	defaultModel = colornames.White
)

var cubeVerts = [8][3]float64{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

var cubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

var octVerts = [6][3]float64{
	{1.6, 0, 0}, {-1.6, 0, 0}, {0, 1.6, 0}, {0, -1.6, 0}, {0, 0, 1.6}, {0, 0, -1.6},
}

var octEdges = [12][2]int{
	{0, 2}, {0, 3}, {0, 4}, {0, 5},
	{1, 2}, {1, 3}, {1, 4}, {1, 5},
	{2, 4}, {4, 3}, {3, 5}, {5, 2},
}

func (g *game) style(elem string, p surface.Prop, def float64) float64 {
	if v, ok := g.rec.Style(elem, p); ok {
		return v
	}
	return def
}

func (g *game) uniform(target, name string, def float64) float64 {
	if v, ok := g.rec.Uniform(target, name); ok {
		return v
	}
	return def
}

// canvas maps driver canvas pixels onto the window.
func (g *game) canvas() (sx, sy float64) {
	return float64(g.viewW) / g.cfg.Stars.Width, float64(g.viewH) / g.cfg.Stars.Height
}

func (g *game) Draw(screen *ebiten.Image) {
	w, h := g.viewW, g.viewH
	if w <= 0 || h <= 0 {
		return
	}
	if g.scene == nil || g.scene.Bounds().Dx() != w || g.scene.Bounds().Dy() != h {
		g.scene = ebiten.NewImage(w, h)
	}
	g.scene.Fill(bgColor)
	g.drawStars(g.scene)
	g.drawModel(g.scene)
	g.drawScope(g.scene)
	g.drawRing(g.scene)

	g.composite(screen)
	g.drawModes(screen)
	g.drawOverlay(screen)
	g.drawIntro(screen)
	g.drawStatus(screen)
}

func (g *game) drawStars(dst *ebiten.Image) {
	op := g.style(drivers.ElemStars, surface.Opacity, 1)
	if op <= 0 {
		return
	}
	sx, sy := g.canvas()
	zoom := g.style(drivers.ElemStars, surface.Scale, 1)
	tx := g.style(drivers.ElemStars, surface.TranslateX, 0)
	ty := g.style(drivers.ElemStars, surface.TranslateY, 0)
	rot := g.style(drivers.ElemStars, surface.Rotate, 0) * math.Pi / 180
	cx, cy := float64(g.viewW)/2, float64(g.viewH)/2
	sin, cos := math.Sincos(rot)
	place := func(x, y float64) (float32, float32) {
		x, y = (x+tx)*sx-cx, (y+ty)*sy-cy
		x, y = x*cos-y*sin, x*sin+y*cos
		return float32(cx + x*zoom), float32(cy + y*zoom)
	}

	for layer, sprites := range g.rec.Sprites {
		if layer == drivers.ElemIntro {
			continue
		}
		lop := op
		if layer == drivers.ElemBlink {
			lop *= g.style(drivers.ElemBlink, surface.Opacity, 1)
		}
		for _, sp := range sprites {
			a := lop * sp.Opacity
			if a <= 0 {
				continue
			}
			c := withAlpha(starColor, a)
			x, y := place(sp.X, sp.Y)
			if sp.TrailX != 0 || sp.TrailY != 0 {
				x2, y2 := place(sp.X+sp.TrailX, sp.Y+sp.TrailY)
				vector.StrokeLine(dst, x, y, x2, y2, float32(math.Max(1, sp.Size*zoom*0.5)), c, true)
			}
			s := float32(math.Max(1, sp.Size*zoom))
			vector.DrawFilledRect(dst, x-s/2, y-s/2, s, s, c, false)
		}
	}
}

// project rotates v by the orbit and maps it to window pixels.
func (g *game) project(v [3]float64, o surface.Orbit, scale float64) (float32, float32) {
	yaw, pitch := o.Yaw*math.Pi/180, o.Pitch*math.Pi/180
	x, y, z := v[0]*modelRadius*scale, v[1]*modelRadius*scale, v[2]*modelRadius*scale
	sy, cy := math.Sincos(yaw)
	x, z = x*cy+z*sy, -x*sy+z*cy
	sp, cp := math.Sincos(pitch)
	y, z = y*cp-z*sp, y*sp+z*cp

	dist := o.Distance
	if dist <= 0 {
		dist = 100
	}
	f := math.Min(float64(g.viewW), float64(g.viewH)) * 0.9
	persp := f / (dist + z)
	cx := float64(g.viewW)/2 + g.style(drivers.ElemCenter, surface.TranslateX, 0)
	cyy := float64(g.viewH)/2 + g.style(drivers.ElemCenter, surface.TranslateY, 0)
	return float32(cx + x*persp), float32(cyy - y*persp)
}

func (g *game) drawModel(dst *ebiten.Image) {
	o := g.rec.Orbits[drivers.ElemModel]
	scale := g.uniform(drivers.ElemModel, "modelScale", 1)
	width := float32(1 + 2*g.uniform(drivers.ElemBloom, "strength", 0))

	if mop := g.style(drivers.ElemMesh, surface.Opacity, 0); mop > 0 {
		c := withAlpha(meshColor, mop)
		for _, e := range octEdges {
			x0, y0 := g.project(octVerts[e[0]], o, scale)
			x1, y1 := g.project(octVerts[e[1]], o, scale)
			vector.StrokeLine(dst, x0, y0, x1, y1, 1, c, true)
		}
	}

	op := g.style(drivers.ElemModel, surface.Opacity, 0)
	if op <= 0 {
		return
	}
	base, ok := g.rec.Colors[drivers.ElemModel+".color"]
	if !ok {
		base = defaultModel
	}
	base = brighten(base, g.style(drivers.ElemModel, surface.Brightness, 1))
	c := withAlpha(base, op)
	chroma := float32(g.style(drivers.ElemModel, surface.ChromaX, 0))
	for _, e := range cubeEdges {
		x0, y0 := g.project(cubeVerts[e[0]], o, scale)
		x1, y1 := g.project(cubeVerts[e[1]], o, scale)
		if chroma != 0 {
			vector.StrokeLine(dst, x0-chroma, y0, x1-chroma, y1, width, withAlpha(chromaRed, op*0.6), true)
			vector.StrokeLine(dst, x0+chroma, y0, x1+chroma, y1, width, withAlpha(chromaBlue, op*0.6), true)
		}
		vector.StrokeLine(dst, x0, y0, x1, y1, width, c, true)
	}
}

func (g *game) drawScope(dst *ebiten.Image) {
	op := g.style(drivers.ElemScope, surface.Opacity, 0)
	lines := g.rec.Lines[drivers.ElemScope]
	if op <= 0 || len(lines) == 0 {
		return
	}
	sx := float64(g.viewW) / g.cfg.Scope.Width
	sy := float64(g.viewH) / g.cfg.Scope.Height
	c := withAlpha(drivers.Hex(g.cfg.Scope.Color), op)
	for _, l := range lines {
		for i := 1; i < len(l); i++ {
			vector.StrokeLine(dst,
				float32(l[i-1].X*sx), float32(l[i-1].Y*sy),
				float32(l[i].X*sx), float32(l[i].Y*sy), 2, c, true)
		}
	}
}

func (g *game) drawRing(dst *ebiten.Image) {
	img := g.rec.Images[drivers.ElemRing]
	if img == nil {
		return
	}
	g.ringImg = uploadRGBA(g.ringImg, img)
	size := math.Min(float64(g.viewW), float64(g.viewH)) * 0.6
	s := size / float64(img.Rect.Dx())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(s, s)
	op.GeoM.Translate((float64(g.viewW)-size)/2, (float64(g.viewH)-size)/2)
	op.ColorScale.ScaleAlpha(0.8)
	dst.DrawImage(g.ringImg, op)
}

// composite puts the scene on screen with the scene-wide invert, hue and roll
// styles and the glitch offset copies.
func (g *game) composite(screen *ebiten.Image) {
	var cm colorm.ColorM
	if g.style(drivers.ElemScene, surface.Invert, 0) >= 0.5 {
		cm.Scale(-1, -1, -1, 1)
		cm.Translate(1, 1, 1, 0)
	}
	if hue := g.style(drivers.ElemScene, surface.HueRotate, 0); hue != 0 {
		cm.RotateHue(hue * math.Pi / 180)
	}
	cx, cy := float64(g.viewW)/2, float64(g.viewH)/2
	geo := func(dx float64) ebiten.GeoM {
		var m ebiten.GeoM
		m.Translate(-cx, -cy)
		m.Rotate(g.style(drivers.ElemScene, surface.Rotate, 0) * math.Pi / 180)
		m.Translate(cx+dx, cy)
		return m
	}

	op := &colorm.DrawImageOptions{GeoM: geo(0)}
	colorm.DrawImage(screen, g.scene, cm, op)

	off := g.uniform("glitch", "offset", 0)
	if off == 0 {
		return
	}
	for _, ch := range []struct {
		dx   float64
		a    float64
		r, b float64
	}{
		{-off, g.uniform("glitch", "red", 0), 1, 0},
		{off, g.uniform("glitch", "blue", 0), 0, 1},
	} {
		if ch.a <= 0 {
			continue
		}
		tint := cm
		tint.Scale(ch.r, 0, ch.b, ch.a)
		o := &colorm.DrawImageOptions{GeoM: geo(ch.dx)}
		o.Blend = ebiten.BlendLighter
		colorm.DrawImage(screen, g.scene, tint, o)
	}
}

// drawModes replaces the frame with the dither output or the glyph grid when
// those modes are on.
func (g *game) drawModes(screen *ebiten.Image) {
	if g.exp.DitherActive() {
		if img := g.rec.Images["dither"]; img != nil {
			g.fxImg = uploadRGBA(g.fxImg, img)
			op := &ebiten.DrawImageOptions{Filter: ebiten.FilterNearest}
			b := img.Rect
			op.GeoM.Scale(float64(g.viewW)/float64(b.Dx()), float64(g.viewH)/float64(b.Dy()))
			screen.DrawImage(g.fxImg, op)
		}
	}
	glyphs := g.rec.Glyphs["ascii"]
	if len(glyphs) == 0 {
		return
	}
	screen.Fill(color.Black)
	for _, gl := range glyphs {
		img := g.text(string(gl.Char))
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(gl.X, gl.Y)
		op.ColorScale.Scale(0.4, 1, 0.5, 1)
		op.ColorScale.ScaleAlpha(float32(0.3 + 0.7*gl.Brightness))
		screen.DrawImage(img, op)
	}
}

func (g *game) drawOverlay(screen *ebiten.Image) {
	for _, o := range []struct {
		elem string
		msg  string
		y    int
	}{
		{drivers.ElemTitle, "AVSYNC", g.viewH/2 - lineH*3},
		{drivers.ElemText, "audio reactive", g.viewH/2 + lineH*2},
		{drivers.ElemFinal, "fin", g.viewH / 2},
	} {
		a := g.style(o.elem, surface.Opacity, 0)
		if a <= 0 {
			continue
		}
		x := (g.viewW-len(o.msg)*charW)/2 + int(g.style(o.elem, surface.TranslateX, 0))
		y := o.y + int(g.style(o.elem, surface.TranslateY, 0))
		g.drawText(screen, o.msg, x, y, a, color.White)
	}
}

// drawIntro lays the opening star field over everything, untouched by the
// star canvas transforms.
func (g *game) drawIntro(screen *ebiten.Image) {
	op := g.style(drivers.ElemIntro, surface.Opacity, 0)
	if op <= 0 {
		return
	}
	sx, sy := g.canvas()
	for _, sp := range g.rec.Sprites[drivers.ElemIntro] {
		a := op * sp.Opacity
		if a <= 0 {
			continue
		}
		base := sp.Color
		if base.A == 0 {
			base = starColor
		}
		c := withAlpha(base, a)
		x, y := float32(sp.X*sx), float32(sp.Y*sy)
		if !sp.Cross {
			vector.DrawFilledCircle(screen, x, y, float32(math.Max(0.5, sp.Size)), c, true)
			continue
		}
		arm := sp.Size * 3
		for k := 0; k < 4; k++ {
			s, co := math.Sincos(sp.Rotate + float64(k)*math.Pi/4)
			dx, dy := float32(co*arm), float32(s*arm)
			vector.StrokeLine(screen, x-dx, y-dy, x+dx, y+dy, 1.5, c, true)
		}
	}
}

func (g *game) drawStatus(screen *ebiten.Image) {
	rect := image.Rect(8, g.viewH-lineH-16, g.viewW-8, g.viewH-8)
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), statusBg)
	drawSunkenBorder(screen, rect)
	lv := g.exp.Levels()
	msg := fmt.Sprintf("%6.2fs  bass %.2f  drums %.2f  inst %.2f  %s",
		g.exp.Time(), lv.Bass, lv.Drums, lv.Instruments, g.status)
	fg := color.Color(color.White)
	if g.statusErr {
		fg = statusErrFg
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+4, 1, fg)
}

// drawSunkenBorder draws a sunken 3D bevel (shadow top/left, highlight bottom/right).
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelDarker)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
}

// text returns a cached unscaled debug-font image of msg.
func (g *game) text(msg string) *ebiten.Image {
	img := g.textCache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*7)
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 3000 {
			g.textCache = make(map[string]*ebiten.Image, 256)
		}
		g.textCache[msg] = img
	}
	return img
}

func (g *game) drawText(screen *ebiten.Image, msg string, x, y int, alpha float64, fg color.Color) {
	if msg == "" || alpha <= 0 {
		return
	}
	img := g.text(msg)
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, float32(alpha))
	screen.DrawImage(img, opS)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(fg)
	op.ColorScale.ScaleAlpha(float32(alpha))
	screen.DrawImage(img, op)
}

// uploadRGBA copies img into dst, reallocating dst when the size changed.
func uploadRGBA(dst *ebiten.Image, img *image.RGBA) *ebiten.Image {
	b := img.Rect
	if dst == nil || dst.Bounds().Dx() != b.Dx() || dst.Bounds().Dy() != b.Dy() {
		dst = ebiten.NewImage(b.Dx(), b.Dy())
	}
	dst.WritePixels(img.Pix)
	return dst
}

func withAlpha(c color.RGBA, a float64) color.RGBA {
	if a > 1 {
		a = 1
	}
	// Premultiplied, as ebiten expects.
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}

func brighten(c color.RGBA, f float64) color.RGBA {
	sc := func(v uint8) uint8 { return uint8(math.Min(255, float64(v)*f)) }
	return color.RGBA{sc(c.R), sc(c.G), sc(c.B), c.A}
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}
