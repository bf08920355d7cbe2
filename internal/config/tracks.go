package config

import (
	"fmt"
	"sort"

	"github.com/cbegin/avsync-go/internal/drivers"
	"github.com/cbegin/avsync-go/internal/easing"
	"github.com/cbegin/avsync-go/internal/timeline"
)

// SegmentSpec is the YAML form of a timeline segment. End may be omitted
// for an instant change at Start.
type SegmentSpec struct {
	Start Seconds     `yaml:"start"`
	End   Seconds     `yaml:"end,omitempty"`
	From  float64     `yaml:"from"`
	To    float64     `yaml:"to"`
	Ease  easing.Func `yaml:"ease,omitempty"`
}

// Tracks maps track names to their segments.
type Tracks map[string][]SegmentSpec

func seg(start, end, from, to float64, e easing.Func) SegmentSpec {
	return SegmentSpec{Start: Seconds(start), End: Seconds(end), From: from, To: to, Ease: e}
}

func snap(at, from, to float64) SegmentSpec {
	return SegmentSpec{Start: Seconds(at), End: Seconds(at), From: from, To: to}
}

// DefaultTracks is the shipped choreography.
func DefaultTracks() Tracks {
	lin := easing.Linear
	return Tracks{
		drivers.TrackModelOpacity:    {seg(0, 2.5, 0, 1, lin), seg(205, 215, 1, 0, lin)},
		drivers.TrackModelBrightness: {seg(0, 11.5, 0.1, 1, lin)},
		drivers.TrackModelBaseScale:  {seg(0, 31.5, 0.01, 1, easing.QuadInOut)},
		drivers.TrackModelZoom: {
			seg(25, 64, 1, 1.75, easing.CubicInOut),
			seg(64, 94, 1.75, 1, easing.CubicInOut),
		},
		drivers.TrackModelFinalZoom: {seg(195, 215, 1, 0, easing.CubicIn)},
		drivers.TrackModelChroma: {
			snap(31.85, 0, 5),
			seg(31.85, 95.8, 5, 10, lin),
			snap(95.8, 10, 0),
			seg(191.72, 215, 0, 20, easing.QuadIn),
		},

		drivers.TrackCameraDistance: {
			seg(0, 31.5, 1000, 450, easing.QuadInOut),
			seg(31.5, 33.5, 450, 90, easing.CubicOut),
			seg(95, 125, 90, 450, easing.QuadInOut),
			seg(127, 129, 450, 90, easing.CubicOut),
		},
		drivers.TrackCameraZoomOut: {seg(165, 215, 0, 300, lin)},
		drivers.TrackCameraRoveIn:  {seg(33.5, 37.5, 0, 1, easing.QuadInOut)},

		drivers.TrackMeshOpacity: {seg(13, 30, 0, 1, lin)},

		drivers.TrackStarsOpacity: {
			seg(123, 127, 1, 0, lin),
			snap(128.04, 0, 1),
			seg(214.5, 227, 1, 0, lin),
		},
		drivers.TrackStarsBlur: {seg(214.5, 227, 0, 20, lin)},
		drivers.TrackStarsZoom: {
			seg(0, 20, 2, 1, easing.QuadOut),
			seg(160, 162, 1, 5, easing.SqrtOut),
			seg(162, 240, 5, 7, lin),
		},
		drivers.TrackStarsRotation: {seg(160, 240, 0, 1440, lin)},
		drivers.TrackStarsWrapBlur: {seg(159, 160, 0, 6, lin), seg(160, 163, 6, 0, easing.QuadOut)},
		drivers.TrackChromaFade:    {seg(190, 206, 1, 0, lin)},
		drivers.TrackBlinkOpacity: {
			seg(12, 28, 1, 0, lin),
			seg(101, 111, 0, 1, lin),
			seg(125, 152, 1, 0, lin),
		},
		drivers.TrackHyperOpacity: {seg(15, 27, 0, 0.85, lin)},
		drivers.TrackIntroOpacity: {seg(0, 24, 1, 0, lin)},

		drivers.TrackTriangles: {seg(15.5, 27.4, 0.3, 1, lin)},
		drivers.TrackTrianglesFade: {
			seg(28.95, 30.12, 1, 0, lin),
			snap(31.96, 0, 1),
			seg(185, 215, 1, 0, lin),
		},

		drivers.TrackScopeOpacity: {seg(93, 127, 0, 1, lin), seg(190, 212, 1, 0, lin)},

		drivers.TrackTextOpacity:  {seg(8, 24, 0, 1, lin)},
		drivers.TrackTitleOpacity: {seg(47, 57, 1, 0, lin)},
		drivers.TrackFinalOpacity: {seg(213, 214.5, 0, 1, lin)},
		drivers.TrackGlitchFade:   {seg(190, 210, 1, 0, lin)},
	}
}

// Library compiles every track. The first invalid track is reported by name.
func (ts Tracks) Library() (timeline.Library, error) {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Strings(names)

	lib := make(timeline.Library, len(ts))
	for _, name := range names {
		specs := ts[name]
		segs := make([]timeline.Segment, len(specs))
		for i, s := range specs {
			end := s.End
			if end == 0 && s.Start > 0 {
				end = s.Start
			}
			segs[i] = timeline.Segment{
				Start: float64(s.Start),
				End:   float64(end),
				From:  s.From,
				To:    s.To,
				Ease:  s.Ease,
			}
		}
		tr, err := timeline.NewTrack(segs...)
		if err != nil {
			return nil, fmt.Errorf("track %q: %w", name, err)
		}
		lib[name] = tr
	}
	return lib, nil
}
