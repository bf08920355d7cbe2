package audio

import (
	"math"
	"sync"
)

// Metronome is a synthetic stereo source: a pitched-down sine kick on every
// beat plus a quiet hi-hat-like noise burst on off-beats. It stands in for
// the real stems when none are available.
type Metronome struct {
	mu         sync.Mutex
	SampleRate int
	BPM        float64
	// Length is the total length in seconds; 0 plays forever.
	Length float64

	frame int64
	noise uint32
}

func NewMetronome(sampleRate int, bpm, length float64) *Metronome {
	return &Metronome{SampleRate: sampleRate, BPM: bpm, Length: length, noise: 0x1234567}
}

func (m *Metronome) Process(dst []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr := float64(m.SampleRate)
	beat := 60 / m.BPM
	for i := 0; i+1 < len(dst); i += 2 {
		t := float64(m.frame) / sr
		var v float64
		if m.Length <= 0 || t < m.Length {
			phase := math.Mod(t, beat)
			// kick: sine sweeping 120 Hz down to 45 Hz under a fast decay
			freq := 45 + 75*math.Exp(-phase*30)
			v = 0.9 * math.Sin(2*math.Pi*freq*phase) * math.Exp(-phase*8)
			off := math.Mod(t+beat/2, beat)
			if off < 0.03 {
				m.noise ^= m.noise << 13
				m.noise ^= m.noise >> 17
				m.noise ^= m.noise << 5
				v += 0.15 * (float64(m.noise)/math.MaxUint32*2 - 1) * (1 - off/0.03)
			}
		}
		s := float32(v)
		dst[i] = s
		dst[i+1] = s
		m.frame++
	}
}

func (m *Metronome) Finished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Length > 0 && float64(m.frame)/float64(m.SampleRate) >= m.Length
}

func (m *Metronome) SeekFrame(frame int64) {
	m.mu.Lock()
	m.frame = frame
	m.mu.Unlock()
}

// Frame is the next frame to be rendered.
func (m *Metronome) Frame() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}
