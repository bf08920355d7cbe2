package analysis

import "sync"

const defaultTapLen = 1 << 15

// Tap is a mono ring buffer fed from the audio thread. Snapshots are aligned
// to what the listener hears rather than to what the decoder has read ahead.
type Tap struct {
	mu     sync.Mutex
	ring   []float32
	write  int
	tapped int64 // mono frames written since the last Rebase
}

func NewTap(length int) *Tap {
	if length <= 0 {
		length = defaultTapLen
	}
	return &Tap{ring: make([]float32, length)}
}

// WriteStereo folds interleaved stereo float samples into the ring.
func (t *Tap) WriteStereo(samples []float32) {
	t.mu.Lock()
	for i := 0; i+1 < len(samples); i += 2 {
		t.push((samples[i] + samples[i+1]) * 0.5)
	}
	t.mu.Unlock()
}

func (t *Tap) push(v float32) {
	t.ring[t.write] = v
	t.write = (t.write + 1) % len(t.ring)
	t.tapped++
}

// Rebase sets the tapped frame count, e.g. to the seek target after a seek,
// so alignment with the playback position stays correct.
func (t *Tap) Rebase(frames int64) {
	t.mu.Lock()
	t.tapped = frames
	t.mu.Unlock()
}

// Snapshot copies the n frames ending at playbackFrame (the audible position
// in frames). The result is written into dst, which is grown if needed.
func (t *Tap) Snapshot(dst []float32, n int, playbackFrame int64) []float32 {
	size := len(t.ring)
	if n > size {
		n = size
	}
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	t.mu.Lock()
	delay := int(t.tapped - playbackFrame)
	if delay < 0 {
		delay = 0
	}
	if delay > size-n {
		delay = size - n
	}
	start := (t.write - delay - n + size*2) % size
	for i := 0; i < n; i++ {
		dst[i] = t.ring[(start+i)%size]
	}
	t.mu.Unlock()
	return dst
}
