package avsync

import (
	"github.com/cbegin/avsync-go/internal/analysis"
)

// SpectrumSource fills the byte snapshots for the tick at playback time t.
// Slices in dst are owned by the source and may be reused on the next call;
// a stem that is unavailable leaves its slice empty.
type SpectrumSource interface {
	Sample(t float64, dst *analysis.Spectra)
}

// TapSpectrum analyses the three sample taps fed by the audio read path.
// Snapshots are aligned to the playback position, not to the decoder.
type TapSpectrum struct {
	SampleRate int

	main, drums, instr    *analysis.Tap
	mainA, drumsA, instrA *analysis.Analyser

	samples []float32
	out     analysis.Spectra
	wave    []float32
}

// NewTapSpectrum builds a source. Any tap may be nil.
func NewTapSpectrum(fftSize, sampleRate int, main, drums, instruments *analysis.Tap) *TapSpectrum {
	return &TapSpectrum{
		SampleRate: sampleRate,
		main:       main,
		drums:      drums,
		instr:      instruments,
		mainA:      analysis.NewAnalyser(fftSize),
		drumsA:     analysis.NewAnalyser(fftSize),
		instrA:     analysis.NewAnalyser(fftSize),
	}
}

func (s *TapSpectrum) Sample(t float64, dst *analysis.Spectra) {
	frame := int64(t * float64(s.SampleRate))
	s.out.Main = s.analyse(s.main, s.mainA, s.out.Main[:0], frame)
	s.out.Drums = s.analyse(s.drums, s.drumsA, s.out.Drums[:0], frame)
	s.out.Instruments = s.analyse(s.instr, s.instrA, s.out.Instruments[:0], frame)
	if s.main != nil {
		s.wave = s.main.Snapshot(s.wave, s.mainA.FFTSize, frame)
		s.out.Wave = analysis.TimeDomain(s.wave, s.out.Wave)
	} else {
		s.out.Wave = s.out.Wave[:0]
	}
	*dst = s.out
}

func (s *TapSpectrum) analyse(tap *analysis.Tap, a *analysis.Analyser, dst []byte, frame int64) []byte {
	if tap == nil {
		return dst[:0]
	}
	s.samples = tap.Snapshot(s.samples, a.FFTSize, frame)
	return a.Frequency(s.samples, dst)
}

// Reset clears the analysers' temporal smoothing, for replay and seeks.
func (s *TapSpectrum) Reset() {
	s.mainA.Reset()
	s.drumsA.Reset()
	s.instrA.Reset()
}
