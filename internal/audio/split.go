package audio

import (
	"math"

	"github.com/cbegin/avsync-go/internal/analysis"
)

// Crossover points used when a single mix stands in for the stems.
const (
	SplitLowHz  = 150.0
	SplitHighHz = 2000.0
)

// TapWriter receives interleaved stereo float32 frames from the read path.
// *analysis.Tap and *Splitter implement it.
type TapWriter interface {
	WriteStereo(samples []float32)
	Rebase(frames int64)
}

// Splitter fans one stereo mix out to three taps: the full mix, a low band
// standing in for the drum stem and a high band standing in for the
// instruments. It is used when only a single mix is available.
type Splitter struct {
	main, low, high *analysis.Tap

	lpAlpha float32
	hpAlpha float32
	lpL     float32
	lpR     float32
	hpL     float32
	hpR     float32

	lowBuf  []float32
	highBuf []float32
}

// NewSplitter builds one-pole crossovers at lowFreq and highFreq. Any tap may
// be nil.
func NewSplitter(sampleRate int, lowFreq, highFreq float64, main, low, high *analysis.Tap) *Splitter {
	dt := 1.0 / float64(sampleRate)
	alpha := func(freq float64) float32 {
		rc := 1.0 / (2.0 * math.Pi * freq)
		return float32(dt / (rc + dt))
	}
	return &Splitter{
		main:    main,
		low:     low,
		high:    high,
		lpAlpha: alpha(lowFreq),
		hpAlpha: alpha(highFreq),
	}
}

func (s *Splitter) WriteStereo(samples []float32) {
	if s.main != nil {
		s.main.WriteStereo(samples)
	}
	n := len(samples) &^ 1
	if cap(s.lowBuf) < n {
		s.lowBuf = make([]float32, n)
		s.highBuf = make([]float32, n)
	}
	low, high := s.lowBuf[:n], s.highBuf[:n]
	for i := 0; i < n; i += 2 {
		l, r := samples[i], samples[i+1]
		s.lpL += s.lpAlpha * (l - s.lpL)
		s.lpR += s.lpAlpha * (r - s.lpR)
		s.hpL += s.hpAlpha * (l - s.hpL)
		s.hpR += s.hpAlpha * (r - s.hpR)
		low[i], low[i+1] = s.lpL, s.lpR
		high[i], high[i+1] = l-s.hpL, r-s.hpR
	}
	if s.low != nil {
		s.low.WriteStereo(low)
	}
	if s.high != nil {
		s.high.WriteStereo(high)
	}
}

// Rebase realigns every tap and clears the filter state after a seek.
func (s *Splitter) Rebase(frames int64) {
	for _, t := range []*analysis.Tap{s.main, s.low, s.high} {
		if t != nil {
			t.Rebase(frames)
		}
	}
	s.Reset()
}

func (s *Splitter) Reset() {
	s.lpL, s.lpR = 0, 0
	s.hpL, s.hpR = 0, 0
}
