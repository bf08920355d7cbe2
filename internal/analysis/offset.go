package analysis

// OffsetRing keeps a short history of (time, value) samples so a level can be
// read shifted against the audible position. It is used to correct perceived
// audio/visual lag on the bass level.
type OffsetRing struct {
	times []float64
	vals  []float64
	head  int
	n     int
}

func NewOffsetRing(capacity int) *OffsetRing {
	if capacity < 1 {
		capacity = 1
	}
	return &OffsetRing{
		times: make([]float64, capacity),
		vals:  make([]float64, capacity),
	}
}

// Push appends a sample, overwriting the oldest one when full.
func (r *OffsetRing) Push(t, v float64) {
	r.times[r.head] = t
	r.vals[r.head] = v
	r.head = (r.head + 1) % len(r.times)
	if r.n < len(r.times) {
		r.n++
	}
}

// Lookup returns the newest value recorded at or before t-offset. A zero or
// negative offset returns the newest value, since future samples do not exist
// yet. When the history does not reach back far enough the oldest value is
// returned. An empty ring yields 0.
func (r *OffsetRing) Lookup(t, offset float64) float64 {
	if r.n == 0 {
		return 0
	}
	newest := (r.head - 1 + len(r.times)) % len(r.times)
	if offset <= 0 {
		return r.vals[newest]
	}
	target := t - offset
	idx := newest
	for i := 0; i < r.n; i++ {
		if r.times[idx] <= target {
			return r.vals[idx]
		}
		if i < r.n-1 {
			idx = (idx - 1 + len(r.times)) % len(r.times)
		}
	}
	return r.vals[idx]
}

func (r *OffsetRing) Len() int { return r.n }

func (r *OffsetRing) Reset() {
	r.head = 0
	r.n = 0
}
