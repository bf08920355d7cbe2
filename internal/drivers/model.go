package drivers

import (
	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/surface"
	"github.com/cbegin/avsync-go/internal/timeline"
)

// Model fades, brightens and zooms the centre model. Its output is a pure
// function of the clock; it keeps no runtime state.
type Model struct {
	sink       surface.Surface
	opacity    timeline.Track
	brightness timeline.Track
	baseScale  timeline.Track
	zoom       timeline.Track
	finalZoom  timeline.Track
	chroma     timeline.Track
}

func NewModel(lib timeline.Library, sink surface.Surface) *Model {
	return &Model{
		sink:       sink,
		opacity:    lib.GetOr(TrackModelOpacity, 1),
		brightness: lib.GetOr(TrackModelBrightness, 1),
		baseScale:  lib.GetOr(TrackModelBaseScale, 1),
		zoom:       lib.GetOr(TrackModelZoom, 1),
		finalZoom:  lib.GetOr(TrackModelFinalZoom, 1),
		chroma:     lib.Get(TrackModelChroma),
	}
}

// Scale is base scale times the mid-song zoom times the final zoom-out.
func (m *Model) Scale(t float64) float64 {
	return m.baseScale.Value(t) * m.zoom.Value(t) * m.finalZoom.Value(t)
}

func (m *Model) Opacity(t float64) float64 { return m.opacity.Value(t) }

func (m *Model) Update(f *clock.Frame) {
	t := f.Time
	m.sink.SetStyle(ElemModel, surface.Opacity, m.opacity.Value(t))
	m.sink.SetStyle(ElemModel, surface.Brightness, m.brightness.Value(t))
	m.sink.SetUniform(ElemModel, "modelScale", m.Scale(t))
	m.sink.SetStyle(ElemModel, surface.ChromaX, m.chroma.Value(t))
}

func (m *Model) Reset()         {}
func (m *Model) Resync(float64) {}
