package timeline

import "sort"

// Library maps track names (e.g. "model.opacity") to compiled tracks.
type Library map[string]Track

// Get returns the named track, or the zero Track (constant 0) when missing.
func (l Library) Get(name string) Track { return l[name] }

// GetOr returns the named track, or a constant track holding v.
func (l Library) GetOr(name string, v float64) Track {
	if tr, ok := l[name]; ok && !tr.Empty() {
		return tr
	}
	return Constant(v)
}

// Names lists the library's tracks in sorted order.
func (l Library) Names() []string {
	out := make([]string, 0, len(l))
	for k := range l {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Constant is a track that always evaluates to v.
func Constant(v float64) Track {
	return Track{segs: []Segment{{From: v, To: v}}}
}
