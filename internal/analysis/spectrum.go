package analysis

import (
	"math"
	"math/cmplx"

	"github.com/maddyblue/go-dsp/fft"
)

// Analyser turns mono PCM windows into byte frequency snapshots, the same
// shape a browser AnalyserNode produces: Blackman window, magnitude
// spectrum, temporal smoothing, then decibels mapped from [MinDB, MaxDB]
// onto [0,255].
type Analyser struct {
	FFTSize   int
	Smoothing float64
	MinDB     float64
	MaxDB     float64

	window []float64
	buf    []float64
	prev   []float64
}

// NewAnalyser returns an analyser with fftSize rounded up to a power of two
// (minimum 32), smoothing 0.8 and a -100..-30 dB range.
func NewAnalyser(fftSize int) *Analyser {
	n := 32
	for n < fftSize {
		n <<= 1
	}
	a := &Analyser{
		FFTSize:   n,
		Smoothing: 0.8,
		MinDB:     -100,
		MaxDB:     -30,
		window:    make([]float64, n),
		buf:       make([]float64, n),
		prev:      make([]float64, n/2),
	}
	for i := range a.window {
		x := 2 * math.Pi * float64(i) / float64(n)
		a.window[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return a
}

// Bins is the number of frequency bins, FFTSize/2.
func (a *Analyser) Bins() int { return a.FFTSize / 2 }

// Frequency analyses the newest FFTSize samples (zero-padded when shorter)
// and writes Bins() bytes into dst, growing it if needed.
func (a *Analyser) Frequency(samples []float32, dst []byte) []byte {
	n := a.FFTSize
	if cap(dst) < n/2 {
		dst = make([]byte, n/2)
	}
	dst = dst[:n/2]
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	pad := n - len(samples)
	for i := range a.buf {
		v := 0.0
		if i >= pad {
			v = float64(samples[i-pad])
		}
		a.buf[i] = v * a.window[i]
	}
	spec := fft.FFTReal(a.buf)
	span := a.MaxDB - a.MinDB
	for k := 0; k < n/2; k++ {
		mag := cmplx.Abs(spec[k]) / float64(n)
		a.prev[k] = a.Smoothing*a.prev[k] + (1-a.Smoothing)*mag
		if a.prev[k] <= 0 || span <= 0 {
			dst[k] = 0
			continue
		}
		db := 20 * math.Log10(a.prev[k])
		dst[k] = toByte(255 * (db - a.MinDB) / span)
	}
	return dst
}

// Reset clears the temporal smoothing history.
func (a *Analyser) Reset() {
	for i := range a.prev {
		a.prev[i] = 0
	}
}

// TimeDomain maps samples in [-1,1] onto bytes centred at 128.
func TimeDomain(samples []float32, dst []byte) []byte {
	if cap(dst) < len(samples) {
		dst = make([]byte, len(samples))
	}
	dst = dst[:len(samples)]
	for i, s := range samples {
		dst[i] = toByte(128 * (1 + float64(s)))
	}
	return dst
}

func toByte(v float64) byte {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}
