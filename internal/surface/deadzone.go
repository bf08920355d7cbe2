package surface

import "math"

// DeadZone suppresses writes that moved less than Threshold since the last
// written value, to keep GPU state changes down.
type DeadZone struct {
	Threshold float64
	last      map[string]float64
}

// Changed reports whether v should be written for key and records it if so.
// The first value for a key always passes.
func (d *DeadZone) Changed(key string, v float64) bool {
	if d.last == nil {
		d.last = map[string]float64{}
	}
	prev, ok := d.last[key]
	if ok && math.Abs(v-prev) <= d.Threshold {
		return false
	}
	d.last[key] = v
	return true
}

// Force records v as written regardless of the threshold.
func (d *DeadZone) Force(key string, v float64) {
	if d.last == nil {
		d.last = map[string]float64{}
	}
	d.last[key] = v
}

func (d *DeadZone) Reset() { d.last = nil }
