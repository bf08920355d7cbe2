package audio

import "sync"

// ManualTrack is a silent track whose position only moves when Advance is
// called. Offline rendering and tests drive the clock through it.
type ManualTrack struct {
	mu      sync.Mutex
	name    string
	pos     float64
	length  float64
	playing bool
	closed  bool

	// PlayErr, when set, is returned by Play.
	PlayErr error
}

func NewManualTrack(name string, length float64) *ManualTrack {
	return &ManualTrack{name: name, length: length}
}

func (m *ManualTrack) Name() string { return m.name }

func (m *ManualTrack) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PlayErr != nil {
		return m.PlayErr
	}
	m.playing = true
	return nil
}

func (m *ManualTrack) Pause() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
}

func (m *ManualTrack) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = m.clampLocked(seconds)
	return nil
}

func (m *ManualTrack) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *ManualTrack) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *ManualTrack) Close() error {
	m.mu.Lock()
	m.closed = true
	m.playing = false
	m.mu.Unlock()
	return nil
}

// Advance moves the position by dt seconds while playing. Playback stops at
// the track length.
func (m *ManualTrack) Advance(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return
	}
	m.pos = m.clampLocked(m.pos + dt)
	if m.length > 0 && m.pos >= m.length {
		m.playing = false
	}
}

func (m *ManualTrack) clampLocked(v float64) float64 {
	if v < 0 {
		return 0
	}
	if m.length > 0 && v > m.length {
		return m.length
	}
	return v
}
