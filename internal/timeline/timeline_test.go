package timeline

import (
	"errors"
	"math"
	"testing"

	"github.com/cbegin/avsync-go/internal/easing"
)

func TestTrackHoldsOutsideSegments(t *testing.T) {
	tr := MustTrack(
		Segment{Start: 0, End: 31.5, From: 0.01, To: 1, Ease: easing.QuadInOut},
		Segment{Start: 64, End: 94, From: 1, To: 0.5, Ease: easing.CubicInOut},
	)
	cases := []struct {
		name string
		t    float64
		want float64
	}{
		{"before start", -5, 0.01},
		{"at start", 0, 0.01},
		{"midpoint", 15.75, 0.505},
		{"end of first", 31.5, 1},
		{"gap", 50, 1},
		{"after end", 1000, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tr.Value(tc.t); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Value(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
	if tr.Value(-5) != tr.Value(0) {
		t.Fatalf("hold-before-start broken: %v vs %v", tr.Value(-5), tr.Value(0))
	}
}

func TestTrackInstantSegment(t *testing.T) {
	tr := MustTrack(
		Segment{Start: 123, End: 127, From: 1, To: 0},
		Segment{Start: 128.04, End: 128.04, From: 0, To: 1},
	)
	if got := tr.Value(127.5); got != 0 {
		t.Fatalf("between fade and snap = %v, want 0", got)
	}
	if got := tr.Value(128.04); got != 1 {
		t.Fatalf("at snap = %v, want 1", got)
	}
}

func TestZeroTrackIsNeutral(t *testing.T) {
	var tr Track
	if got := tr.Value(42); got != 0 {
		t.Fatalf("zero track = %v, want 0", got)
	}
	if !tr.Empty() {
		t.Fatalf("zero track should be empty")
	}
}

func TestTrackRejectsOverlap(t *testing.T) {
	_, err := NewTrack(
		Segment{Start: 0, End: 32, From: 1000, To: 450},
		Segment{Start: 31.5, End: 33.5, From: 450, To: 90},
	)
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("err = %v, want ErrOverlap", err)
	}
	_, err = NewTrack(Segment{Start: 5, End: 4})
	if !errors.Is(err, ErrInverted) {
		t.Fatalf("err = %v, want ErrInverted", err)
	}
}

func TestTableLocate(t *testing.T) {
	tb := MustTable(
		Phase{Start: 127.78, End: 160, Kind: "rise"},
		Phase{Start: 31.85, End: 95.8, Kind: "drop"},
		Phase{Start: 95.8, End: 97.8, Kind: "decel"},
		Phase{Start: 160, End: math.Inf(1), Kind: "drop"},
	)
	cases := []struct {
		t        float64
		kind     Kind
		progress float64
		ok       bool
	}{
		{0, "", 0, false},
		{31.85, "drop", 0, true},
		{95.8, "decel", 0, true},
		{96.8, "decel", 0.5, true},
		{97.8, "", 0, false},
		{143.89, "rise", 0.5, true},
		{500, "drop", 0, true},
	}
	for _, tc := range cases {
		p, prog, ok := tb.Locate(tc.t)
		if ok != tc.ok || p.Kind != tc.kind || math.Abs(prog-tc.progress) > 1e-9 {
			t.Errorf("Locate(%v) = %q, %v, %v; want %q, %v, %v", tc.t, p.Kind, prog, ok, tc.kind, tc.progress, tc.ok)
		}
	}
	if got := tb.KindAt(10, "normal"); got != "normal" {
		t.Fatalf("KindAt fallback = %q", got)
	}
}

func TestTableRejectsOverlap(t *testing.T) {
	_, err := NewTable(Phase{Start: 0, End: 10, Kind: "a"}, Phase{Start: 9, End: 12, Kind: "b"})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("err = %v, want ErrOverlap", err)
	}
	if _, err := NewTable(Phase{Start: 0, End: 10}, Phase{Start: 10, End: 12}); err != nil {
		t.Fatalf("touching phases rejected: %v", err)
	}
}

func TestTriggerCooldown(t *testing.T) {
	w := Window{Start: 0, End: 240}
	g := Trigger{Active: 1.5, Cooldown: 1}
	if g.Fire(0, w) {
		t.Fatalf("fired before playback started")
	}
	if !g.Fire(10, w) {
		t.Fatalf("first fire rejected")
	}
	before := g
	if g.Fire(11, w) {
		t.Fatalf("fired while active")
	}
	if g.Fire(12.4, w) {
		t.Fatalf("fired within cooldown")
	}
	if g != before {
		t.Fatalf("rejected fire mutated state: %+v vs %+v", g, before)
	}
	if !g.Fire(12.5, w) {
		t.Fatalf("fire after cooldown rejected")
	}
	if g.Fire(240, w) {
		t.Fatalf("fired after playback ended")
	}
}

func TestHandoffStartsFromCapturedValue(t *testing.T) {
	h := Handoff{From: 397.5, Start: 10, Duration: 0.5, Ease: easing.Smoothstep}
	if got := h.Value(10, 12); got != 397.5 {
		t.Fatalf("value at start = %v, want captured 397.5", got)
	}
	if got := h.Value(10.5, 12); got != 12 {
		t.Fatalf("value at end = %v, want target 12", got)
	}
	if !h.Done(10.5) || h.Done(10.49) {
		t.Fatalf("Done boundary wrong")
	}
}
