package avsync

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestRenderTimelineFrames(t *testing.T) {
	var frames []FrameRecord
	err := RenderTimeline(RenderOptions{FPS: 10, To: 2, Spins: []float64{1}}, func(fr FrameRecord) error {
		frames = append(frames, fr)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 21 {
		t.Fatalf("frames = %d, want 21", len(frames))
	}
	if frames[0].Styles["model.opacity"] != 0 {
		t.Fatalf("t=0 opacity = %v", frames[0].Styles["model.opacity"])
	}
	if frames[20].Time != 2 || frames[20].Styles["model.opacity"] != 0.8 {
		t.Fatalf("last frame t=%v opacity=%v", frames[20].Time, frames[20].Styles["model.opacity"])
	}
	for i, fr := range frames {
		if fr.Spin != (i == 10) {
			t.Fatalf("frame %d spin = %v", i, fr.Spin)
		}
		if fr.Drums != 0 {
			t.Fatalf("silent render has drums %v at frame %d", fr.Drums, i)
		}
	}
}

func TestRenderTimelineMetronomeDrivesDrums(t *testing.T) {
	var peak float64
	err := RenderTimeline(RenderOptions{FPS: 30, From: 40, To: 42, BPM: 120, SampleRate: 22050}, func(fr FrameRecord) error {
		if fr.Time < 40 {
			t.Fatalf("frame before From: %v", fr.Time)
		}
		if fr.Drums > peak {
			peak = fr.Drums
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if peak <= 0 {
		t.Fatal("metronome produced no drums level")
	}
}

func TestRenderTimelineDeterministic(t *testing.T) {
	render := func() []byte {
		var buf bytes.Buffer
		if err := RenderTimeline(RenderOptions{FPS: 15, From: 30, To: 33, Seed: 7}, EncodeJSONL(&buf)); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}
	a, b := render(), render()
	if !bytes.Equal(a, b) {
		t.Fatal("same seed rendered different frames")
	}
	sc := bufio.NewScanner(bytes.NewReader(a))
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	lines := 0
	for sc.Scan() {
		var fr FrameRecord
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		lines++
	}
	if lines != 46 {
		t.Fatalf("lines = %d, want 46", lines)
	}
}

func TestRenderTimelineStopsOnEmitError(t *testing.T) {
	stop := errors.New("enough")
	n := 0
	err := RenderTimeline(RenderOptions{FPS: 60}, func(FrameRecord) error {
		n++
		if n == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || n != 3 {
		t.Fatalf("err = %v after %d frames", err, n)
	}
	if err := RenderTimeline(RenderOptions{}, nil); err == nil {
		t.Fatal("zero fps accepted")
	}
}
