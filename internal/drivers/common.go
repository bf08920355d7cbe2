// Package drivers holds the animation drivers. Each one reads the shared
// clock frame, evaluates its own phase tables and writes to a surface.
package drivers

import (
	"image/color"
	"math"
)

// Render targets and composited elements.
const (
	ElemModel     = "model"
	ElemMesh      = "mesh"
	ElemScene     = "scene"
	ElemCamera    = "camera"
	ElemBloom     = "bloom"
	ElemCenter    = "center"
	ElemStars     = "stars"
	ElemBlink     = "stars-blink"
	ElemHyper     = "stars-hyper"
	ElemReverse   = "stars-reverse"
	ElemIntro     = "stars-intro"
	ElemTriangles = "triangles"
	ElemScope     = "scope"
	ElemRing      = "ring"
	ElemText      = "text"
	ElemTitle     = "title"
	ElemFinal     = "final-image"
	ElemBottom    = "bottom-image"
	ElemLeft      = "left-image"
	ElemRight     = "right-image"
)

// Track names looked up in the timeline library.
const (
	TrackModelOpacity    = "model.opacity"
	TrackModelBrightness = "model.brightness"
	TrackModelBaseScale  = "model.base-scale"
	TrackModelZoom       = "model.zoom"
	TrackModelFinalZoom  = "model.final-zoom"
	TrackModelChroma     = "model.chroma"

	TrackCameraDistance = "camera.distance"
	TrackCameraZoomOut  = "camera.zoom-out"
	TrackCameraRoveIn   = "camera.rove-in"

	TrackMeshOpacity = "mesh.opacity"

	TrackStarsOpacity  = "stars.opacity"
	TrackStarsBlur     = "stars.blur"
	TrackStarsZoom     = "stars.zoom"
	TrackStarsRotation = "stars.rotation"
	TrackStarsWrapBlur = "stars.wrap-blur"
	TrackChromaFade    = "stars.chroma-fade"
	TrackBlinkOpacity  = "stars.blink-opacity"
	TrackHyperOpacity  = "stars.hyper-opacity"
	TrackIntroOpacity  = "stars.intro-opacity"

	TrackTriangles     = "screen.triangles"
	TrackTrianglesFade = "screen.triangles-fade"

	TrackScopeOpacity = "scope.opacity"

	TrackTextOpacity  = "overlay.text"
	TrackTitleOpacity = "overlay.title"
	TrackFinalOpacity = "overlay.final"
	TrackGlitchFade   = "overlay.glitch-fade"
)

// Rand is a small xorshift generator so every run with the same seed draws
// the same star field and shake offsets.
type Rand struct{ s uint64 }

func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{s: seed}
}

func (r *Rand) next() uint64 {
	x := r.s
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.s = x
	return x * 2685821657736338717
}

// Float64 returns a value in [0,1).
func (r *Rand) Float64() float64 { return float64(r.next()>>11) / (1 << 53) }

// Range returns a value in [lo,hi).
func (r *Rand) Range(lo, hi float64) float64 { return lo + (hi-lo)*r.Float64() }

// Sign returns +1 or -1.
func (r *Rand) Sign() float64 {
	if r.next()&1 == 0 {
		return -1
	}
	return 1
}

// hashTime derives a deterministic generator from a seed and a clock time.
func hashTime(seed uint64, t float64) *Rand {
	return NewRand(seed ^ uint64(t*10000))
}

// wrap maps v into [0, size).
func wrap(v, size float64) float64 {
	if size <= 0 {
		return 0
	}
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	if v >= size {
		v = 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// lerpColor blends a toward b by p in [0,1].
func lerpColor(a, b color.RGBA, p float64) color.RGBA {
	p = clamp(p, 0, 1)
	mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*p)) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}

// Hex converts 0xRRGGBB to an opaque colour.
func Hex(v uint32) color.RGBA {
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}
