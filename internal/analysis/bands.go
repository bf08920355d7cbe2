package analysis

// Band selects a fraction of a frequency-bin array: [Lo, Hi) with both
// bounds in [0,1].
type Band struct {
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`
}

// Level returns the mean energy of the band normalised to [0,1]. Empty input
// or an empty range yields 0.
func (b Band) Level(bins []byte) float64 {
	n := len(bins)
	if n == 0 {
		return 0
	}
	lo := int(b.Lo * float64(n))
	hi := int(b.Hi * float64(n))
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if hi <= lo {
		// A narrow band on a short array still covers one bin.
		if lo < n && b.Hi > b.Lo {
			hi = lo + 1
		} else {
			return 0
		}
	}
	sum := 0
	for _, v := range bins[lo:hi] {
		sum += int(v)
	}
	return clamp01(float64(sum) / float64(hi-lo) / 255)
}

// Smoother is a one-pole exponential filter: level = level*Alpha + sample*(1-Alpha).
type Smoother struct {
	Alpha float64
	level float64
}

// Step folds sample into the level and returns the new level in [0,1].
func (s *Smoother) Step(sample float64) float64 {
	s.level = clamp01(s.level*s.Alpha + clamp01(sample)*(1-s.Alpha))
	return s.level
}

func (s *Smoother) Level() float64 { return s.level }
func (s *Smoother) Reset()         { s.level = 0 }

// Kick is the kick edge: a pure threshold on the smoothed drums level with
// no hysteresis. Consumers apply their own attack and decay.
func Kick(drums, threshold float64) bool { return drums > threshold }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
