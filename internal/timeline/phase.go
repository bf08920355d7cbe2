package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrInverted is returned for a phase or segment whose end precedes its start.
	ErrInverted = errors.New("timeline: end before start")
	// ErrOverlap is returned when two phases or segments share time.
	ErrOverlap = errors.New("timeline: overlapping ranges")
)

// Kind tags a phase. Drivers switch on it.
type Kind string

// Phase is a half-open time range [Start, End) in seconds. End may be +Inf.
type Phase struct {
	Start float64
	End   float64
	Kind  Kind
}

func (p Phase) contains(t float64) bool { return t >= p.Start && t < p.End }

// Progress returns linear progress of t through the phase in [0,1].
// Open-ended phases report 0.
func (p Phase) Progress(t float64) float64 {
	span := p.End - p.Start
	if math.IsInf(p.End, 1) || span <= 0 {
		return 0
	}
	v := (t - p.Start) / span
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Table is an ordered, non-overlapping set of phases. Tables are immutable
// after construction.
type Table struct {
	phases []Phase
}

// NewTable sorts phases by start time and rejects inverted or overlapping
// ranges. Touching ranges (one ends where the next begins) are allowed.
func NewTable(phases ...Phase) (Table, error) {
	ps := append([]Phase(nil), phases...)
	for _, p := range ps {
		if math.IsNaN(p.Start) || math.IsNaN(p.End) || p.End < p.Start {
			return Table{}, fmt.Errorf("%w: phase %q [%v, %v)", ErrInverted, p.Kind, p.Start, p.End)
		}
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Start < ps[j].Start })
	for i := 1; i < len(ps); i++ {
		if ps[i].Start < ps[i-1].End {
			return Table{}, fmt.Errorf("%w: %q [%v, %v) and %q [%v, %v)", ErrOverlap,
				ps[i-1].Kind, ps[i-1].Start, ps[i-1].End, ps[i].Kind, ps[i].Start, ps[i].End)
		}
	}
	return Table{phases: ps}, nil
}

// MustTable is NewTable for constant tables; it panics on invalid input.
func MustTable(phases ...Phase) Table {
	t, err := NewTable(phases...)
	if err != nil {
		panic(err)
	}
	return t
}

// Locate returns the phase active at t and the linear progress through it.
// ok is false when t falls outside every phase.
func (tb Table) Locate(t float64) (Phase, float64, bool) {
	i := sort.Search(len(tb.phases), func(i int) bool { return tb.phases[i].Start > t }) - 1
	if i < 0 {
		return Phase{}, 0, false
	}
	p := tb.phases[i]
	if !p.contains(t) {
		return Phase{}, 0, false
	}
	return p, p.Progress(t), true
}

// KindAt returns the kind of the phase active at t, or fallback.
func (tb Table) KindAt(t float64, fallback Kind) Kind {
	if p, _, ok := tb.Locate(t); ok {
		return p.Kind
	}
	return fallback
}
