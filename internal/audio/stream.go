package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/cbegin/avsync-go/internal/analysis"
)

const bytesPerFrame = 8 // stereo float32

type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// SeekableSource can jump to a frame offset.
type SeekableSource interface {
	SampleSource
	SeekFrame(frame int64)
}

// StreamReader renders a SampleSource as little-endian stereo float32 PCM
// and copies what it renders into an optional tap.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	tap    TapWriter
	buf    []float32
	frame  int64
}

// NewStreamReader wraps source. tap may be nil.
func NewStreamReader(source SampleSource, tap TapWriter) *StreamReader {
	return &StreamReader{source: source, tap: tap}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	if r.tap != nil {
		r.tap.WriteStereo(r.buf)
	}
	r.frame += int64(frames)
	n := frames * bytesPerFrame
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

// Seek supports io.SeekStart and io.SeekCurrent on frame boundaries. The
// source must implement SeekableSource.
func (r *StreamReader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.source.(SeekableSource)
	if !ok {
		return 0, errNotSeekable
	}
	pos := offset
	if whence == io.SeekCurrent {
		pos += r.frame * bytesPerFrame
	} else if whence != io.SeekStart {
		return 0, errNotSeekable
	}
	if pos < 0 {
		pos = 0
	}
	r.frame = pos / bytesPerFrame
	s.SeekFrame(r.frame)
	if r.tap != nil {
		r.tap.Rebase(r.frame)
	}
	return r.frame * bytesPerFrame, nil
}

func (r *StreamReader) Close() error { return nil }

// tapReader forwards a decoded float32 stream and mirrors it into a tap.
type tapReader struct {
	src   io.ReadSeeker
	tap   *analysis.Tap
	buf   []float32
	carry []byte
}

func (t *tapReader) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	if n > 0 && t.tap != nil {
		t.carry = append(t.carry, p[:n]...)
		whole := len(t.carry) / bytesPerFrame * bytesPerFrame
		samples := whole / 4
		if cap(t.buf) < samples {
			t.buf = make([]float32, samples)
		}
		t.buf = t.buf[:samples]
		for i := range t.buf {
			t.buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.carry[i*4:]))
		}
		t.tap.WriteStereo(t.buf)
		t.carry = append(t.carry[:0], t.carry[whole:]...)
	}
	return n, err
}

func (t *tapReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := t.src.Seek(offset, whence)
	if err == nil && t.tap != nil {
		t.carry = t.carry[:0]
		t.tap.Rebase(pos / bytesPerFrame)
	}
	return pos, err
}
