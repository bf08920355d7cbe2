package lfo

import "math"

// Waveform shapes.
const (
	WaveSine     = 0
	WaveSaw      = 1
	WaveSquare   = 2
	WaveTriangle = 3
	WaveCosine   = 4
)

// LFO is a stateless low-frequency oscillator evaluated directly at a clock
// time, so every output derived from the same t stays in phase no matter how
// many ticks were skipped.
type LFO struct {
	Offset   float64 // centre value
	Depth    float64 // peak deviation from Offset
	Rate     float64 // angular rate in radians per second
	Waveform int
}

// At returns Offset + Depth*wave(Rate*t), with the wave in [-1, 1].
func (l LFO) At(t float64) float64 {
	if l.Depth == 0 {
		return l.Offset
	}
	return l.Offset + l.Depth*Shape(l.Waveform, l.Rate*t)
}

// Shape evaluates a unit waveform at a phase in radians.
func Shape(waveform int, phase float64) float64 {
	switch waveform {
	case WaveCosine:
		return math.Cos(phase)
	case WaveSaw, WaveSquare, WaveTriangle:
		p := math.Mod(phase/(2*math.Pi), 1)
		if p < 0 {
			p++
		}
		switch waveform {
		case WaveSaw:
			return 1 - 2*p
		case WaveSquare:
			if p < 0.5 {
				return 1
			}
			return -1
		default:
			if p < 0.5 {
				return 4*p - 1
			}
			return 3 - 4*p
		}
	default:
		return math.Sin(phase)
	}
}

// Cycle returns progress through a repeating cycle of the given period, in
// [0,1). A non-positive period yields 0.
func Cycle(t, period float64) float64 {
	if period <= 0 {
		return 0
	}
	p := math.Mod(t, period) / period
	if p < 0 {
		p++
	}
	return p
}

// Beats converts a beat count at bpm into seconds.
func Beats(n, bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return n * 60 / bpm
}
