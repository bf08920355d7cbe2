package easing

import (
	"fmt"
	"math"
	"strings"
)

// Func selects one of the fixed easing curves. The zero value is Linear.
type Func int

const (
	Linear Func = iota
	QuadIn
	QuadOut
	QuadInOut
	CubicIn
	CubicOut
	CubicInOut
	Smoothstep
	SqrtOut
	Step
)

var names = [...]string{
	Linear:     "linear",
	QuadIn:     "quad-in",
	QuadOut:    "quad-out",
	QuadInOut:  "quad-in-out",
	CubicIn:    "cubic-in",
	CubicOut:   "cubic-out",
	CubicInOut: "cubic-in-out",
	Smoothstep: "smoothstep",
	SqrtOut:    "sqrt-out",
	Step:       "step",
}

// Apply reparametrizes progress p. p is clamped to [0,1] first, so every
// curve maps 0 to 0 and 1 to 1.
func (f Func) Apply(p float64) float64 {
	p = Clamp01(p)
	switch f {
	case QuadIn:
		return p * p
	case QuadOut:
		return p * (2 - p)
	case QuadInOut:
		if p < 0.5 {
			return 2 * p * p
		}
		return -1 + (4-2*p)*p
	case CubicIn:
		return p * p * p
	case CubicOut:
		q := 1 - p
		return 1 - q*q*q
	case CubicInOut:
		if p < 0.5 {
			return 4 * p * p * p
		}
		q := -2*p + 2
		return 1 - q*q*q/2
	case Smoothstep:
		return p * p * (3 - 2*p)
	case SqrtOut:
		return math.Sqrt(p)
	case Step:
		if p < 1 {
			return 0
		}
		return 1
	default:
		return p
	}
}

func (f Func) String() string {
	if f < 0 || int(f) >= len(names) {
		return fmt.Sprintf("easing(%d)", int(f))
	}
	return names[f]
}

// Parse maps a config name to a Func. The empty string is Linear.
func Parse(name string) (Func, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Linear, nil
	}
	for i, s := range names {
		if s == n {
			return Func(i), nil
		}
	}
	return Linear, fmt.Errorf("unknown easing %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (f Func) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Func) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Lerp interpolates between a and b.
func Lerp(a, b, p float64) float64 { return a + (b-a)*p }

func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
