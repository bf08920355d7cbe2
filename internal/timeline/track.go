package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/cbegin/avsync-go/internal/easing"
)

// Segment eases a value from From to To across [Start, End]. A segment with
// Start == End is an instant change.
type Segment struct {
	Start float64
	End   float64
	From  float64
	To    float64
	Ease  easing.Func
}

func (s Segment) at(t float64) float64 {
	if s.End <= s.Start || t >= s.End {
		return s.To
	}
	return easing.Lerp(s.From, s.To, s.Ease.Apply((t-s.Start)/(s.End-s.Start)))
}

// Track is a piecewise eased parameter curve. Before the first segment it
// holds the first From value, between segments and after the last one it
// holds the preceding To value. The zero Track always evaluates to 0.
type Track struct {
	segs []Segment
}

func NewTrack(segs ...Segment) (Track, error) {
	ss := append([]Segment(nil), segs...)
	for _, s := range ss {
		if math.IsNaN(s.Start) || math.IsNaN(s.End) || s.End < s.Start {
			return Track{}, fmt.Errorf("%w: segment [%v, %v]", ErrInverted, s.Start, s.End)
		}
	}
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].Start < ss[j].Start })
	for i := 1; i < len(ss); i++ {
		if ss[i].Start < ss[i-1].End {
			return Track{}, fmt.Errorf("%w: segment [%v, %v] and [%v, %v]", ErrOverlap,
				ss[i-1].Start, ss[i-1].End, ss[i].Start, ss[i].End)
		}
	}
	return Track{segs: ss}, nil
}

// MustTrack is NewTrack for constant tables; it panics on invalid input.
func MustTrack(segs ...Segment) Track {
	tr, err := NewTrack(segs...)
	if err != nil {
		panic(err)
	}
	return tr
}

// Value evaluates the track at t.
func (tr Track) Value(t float64) float64 {
	if len(tr.segs) == 0 {
		return 0
	}
	i := sort.Search(len(tr.segs), func(i int) bool { return tr.segs[i].Start > t }) - 1
	if i < 0 {
		return tr.segs[0].From
	}
	return tr.segs[i].at(t)
}

func (tr Track) Empty() bool { return len(tr.segs) == 0 }
