package surface

import (
	"image"
	"testing"
)

func TestDeadZone(t *testing.T) {
	d := DeadZone{Threshold: 0.02}
	steps := []struct {
		v    float64
		want bool
	}{
		{2.0, true},
		{2.01, false},
		{2.015, false},
		{2.03, true},
		{2.04, false},
		{1.0, true},
	}
	for i, s := range steps {
		if got := d.Changed("uD", s.v); got != s.want {
			t.Fatalf("step %d: Changed(%v) = %v, want %v", i, s.v, got, s.want)
		}
	}
	d.Reset()
	if !d.Changed("uD", 1.0) {
		t.Fatalf("first write after reset suppressed")
	}
}

func TestRecorderCopiesBuffers(t *testing.T) {
	r := NewRecorder()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Pix[0] = 9
	r.Present("dither", img)
	img.Pix[0] = 1
	if r.Images["dither"].Pix[0] != 9 {
		t.Fatalf("recorder aliased the presented image")
	}
	sprites := []Sprite{{X: 1}}
	r.DrawSprites("far", sprites)
	sprites[0].X = 5
	if r.Sprites["far"][0].X != 1 {
		t.Fatalf("recorder aliased sprites")
	}
	r.SetUniform("mesh", "uD", 2)
	r.SetUniform("mesh", "uD", 3)
	if v, ok := r.Uniform("mesh", "uD"); !ok || v != 3 || r.Writes["mesh.uD"] != 2 {
		t.Fatalf("uniform = %v %v writes=%d", v, ok, r.Writes["mesh.uD"])
	}
	r.SetStyle("stars", Opacity, 0.5)
	if v, ok := r.Style("stars", Opacity); !ok || v != 0.5 {
		t.Fatalf("style = %v %v", v, ok)
	}
}

func TestDiscardSatisfiesSurface(t *testing.T) {
	var s Surface = Discard{}
	s.SetUniform("a", "b", 1)
	s.Present("x", nil)
}
