package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Seconds is a playback time. In YAML it may be written as plain seconds
// ("31.5") or as a timestamp ("0:31.500", "1:02:03.25").
type Seconds float64

// ParseSeconds accepts plain seconds, MM:SS(.fff) or HH:MM:SS(.fff).
func ParseSeconds(s string) (Seconds, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\uFEFF", ""))
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("bad time %q: %w", s, err)
		}
		return Seconds(v), nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("bad time %q; use MM:SS.fff or HH:MM:SS.fff", s)
	}
	var total float64
	for i, p := range parts {
		var v float64
		var err error
		if i == len(parts)-1 {
			v, err = strconv.ParseFloat(p, 64)
		} else {
			var n int64
			n, err = strconv.ParseInt(p, 10, 64)
			v = float64(n)
		}
		if err != nil || v < 0 {
			return 0, fmt.Errorf("bad time %q; use MM:SS.fff or HH:MM:SS.fff", s)
		}
		total = total*60 + v
	}
	return Seconds(total), nil
}

func (s Seconds) String() string {
	v := float64(s)
	m := int(v / 60)
	return fmt.Sprintf("%d:%06.3f", m, v-float64(m)*60)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Seconds) UnmarshalText(b []byte) error {
	v, err := ParseSeconds(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Seconds) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(s), 'f', -1, 64)), nil
}
