package schedule

import "time"

// AdaptiveScale derives the global performance scale from measured frame
// times. Every Window frames it compares the average against the slow and
// fast thresholds and nudges the scale down or up within [Min, Max].
type AdaptiveScale struct {
	Window int
	Slow   time.Duration
	Fast   time.Duration
	Down   float64
	Up     float64
	Min    float64
	Max    float64

	scale float64
	sum   time.Duration
	n     int
}

func NewAdaptiveScale(initial float64) *AdaptiveScale {
	a := &AdaptiveScale{
		Window: 10,
		Slow:   28 * time.Millisecond,
		Fast:   12 * time.Millisecond,
		Down:   0.75,
		Up:     1.03,
		Min:    0.33,
		Max:    1,
	}
	a.scale = a.clamp(initial)
	return a
}

// Observe records one frame time and returns the current scale.
func (a *AdaptiveScale) Observe(frame time.Duration) float64 {
	a.sum += frame
	a.n++
	if a.n < a.Window {
		return a.scale
	}
	avg := a.sum / time.Duration(a.n)
	a.sum, a.n = 0, 0
	switch {
	case avg > a.Slow:
		a.scale = a.clamp(a.scale * a.Down)
	case avg < a.Fast:
		a.scale = a.clamp(a.scale * a.Up)
	}
	return a.scale
}

func (a *AdaptiveScale) Scale() float64 { return a.scale }

func (a *AdaptiveScale) clamp(v float64) float64 {
	if v < a.Min {
		return a.Min
	}
	if v > a.Max {
		return a.Max
	}
	return v
}
