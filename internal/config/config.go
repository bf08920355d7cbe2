// Package config holds every tunable of the experience and loads overrides
// from YAML. Defaults differ between desktop and mobile.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/avsync-go/internal/analysis"
	"github.com/cbegin/avsync-go/internal/drivers"
	"github.com/cbegin/avsync-go/internal/postfx"
	"github.com/cbegin/avsync-go/internal/timeline"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Audio struct {
	Main        string `yaml:"main"`
	Drums       string `yaml:"drums"`
	Instruments string `yaml:"instruments"`
	SampleRate  int    `yaml:"sample_rate"`
	FFTSize     int    `yaml:"fft_size"`
}

type Performance struct {
	// FPSScale is the global performance scale in (0,1].
	FPSScale      float64       `yaml:"fps_scale"`
	Adaptive      bool          `yaml:"adaptive"`
	LowQuality    bool          `yaml:"low_quality"`
	LowQualityFPS float64       `yaml:"low_quality_fps"`
	ResizeDelay   time.Duration `yaml:"resize_delay"`

	ModelDivisor  int `yaml:"model_divisor"`
	KickDivisor   int `yaml:"kick_divisor"`
	BloomDivisor  int `yaml:"bloom_divisor"`
	PostFXDivisor int `yaml:"postfx_divisor"`
	ASCIIDivisor  int `yaml:"ascii_divisor"`
	// ParallaxInterval is the overlay update interval on mobile; desktop
	// derives it from FPSScale.
	ParallaxInterval int `yaml:"parallax_interval"`
}

type PostFX struct {
	DitherLevels   int           `yaml:"dither_levels"`
	DitherFactor   float64       `yaml:"dither_factor"`
	ASCIIFactor    float64       `yaml:"ascii_factor"`
	ASCII          postfx.ASCII  `yaml:"ascii"`
	KeywordTimeout time.Duration `yaml:"keyword_timeout"`
}

// Config is the full set of tunables.
type Config struct {
	Mobile   bool    `yaml:"-"`
	Duration Seconds `yaml:"duration"`

	Audio       Audio           `yaml:"audio"`
	Analysis    analysis.Config `yaml:"analysis"`
	Performance Performance     `yaml:"performance"`
	PostFX      PostFX          `yaml:"postfx"`

	Orbit   drivers.OrbitConfig   `yaml:"orbit"`
	Camera  drivers.CameraConfig  `yaml:"camera"`
	Mesh    drivers.MeshConfig    `yaml:"mesh"`
	Stars   drivers.StarsConfig   `yaml:"stars"`
	Intro   drivers.IntroConfig   `yaml:"intro"`
	Screen  drivers.ScreenConfig  `yaml:"screen"`
	Scope   drivers.ScopeConfig   `yaml:"scope"`
	Overlay drivers.OverlayConfig `yaml:"overlay"`
	Ring    drivers.RingConfig    `yaml:"ring"`

	// Tracks entries replace the default track of the same name.
	Tracks Tracks `yaml:"tracks"`
}

// Default returns the shipped configuration.
func Default(mobile bool) Config {
	c := Config{
		Mobile:   mobile,
		Duration: 240,
		Audio: Audio{
			Main:        "assets/main.mp3",
			Drums:       "assets/drums.mp3",
			Instruments: "assets/instruments.mp3",
			SampleRate:  44100,
			FFTSize:     256,
		},
		Analysis: analysis.DefaultConfig(),
		Performance: Performance{
			FPSScale:         0.77,
			LowQualityFPS:    30,
			ResizeDelay:      250 * time.Millisecond,
			ModelDivisor:     2,
			KickDivisor:      2,
			BloomDivisor:     3,
			PostFXDivisor:    6,
			ASCIIDivisor:     2,
			ParallaxInterval: 4,
		},
		PostFX: PostFX{
			DitherLevels:   6,
			DitherFactor:   0.3,
			ASCIIFactor:    0.5,
			ASCII:          postfx.DefaultASCII(),
			KeywordTimeout: 2 * time.Second,
		},
		Orbit:   drivers.DefaultOrbitConfig(),
		Camera:  drivers.DefaultCameraConfig(),
		Mesh:    drivers.DefaultMeshConfig(mobile),
		Stars:   drivers.DefaultStarsConfig(),
		Intro:   drivers.DefaultIntroConfig(),
		Screen:  drivers.DefaultScreenConfig(),
		Scope:   drivers.DefaultScopeConfig(),
		Overlay: drivers.DefaultOverlayConfig(),
		Ring:    drivers.DefaultRingConfig(),
		Tracks:  DefaultTracks(),
	}
	if mobile {
		c.Audio.FFTSize = 128
		c.Performance.FPSScale = 1
		c.Performance.Adaptive = true
	}
	return c
}

// Load reads a YAML file over the defaults. Track entries in the file
// replace the default track of the same name; other tracks are kept.
func Load(path string, mobile bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(mobile), fmt.Errorf("config: %w", err)
	}
	return Parse(data, mobile)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte, mobile bool) (Config, error) {
	c := Default(mobile)
	tracks := c.Tracks
	c.Tracks = nil
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Default(mobile), fmt.Errorf("config: %w", err)
	}
	for name, segs := range c.Tracks {
		tracks[name] = segs
	}
	c.Tracks = tracks
	c.Mobile = mobile
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks ranges and compiles the phase tables so a bad file fails
// at load time rather than mid-playback.
func (c Config) Validate() error {
	p := c.Performance
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	case p.FPSScale <= 0 || p.FPSScale > 1:
		return fmt.Errorf("%w: fps_scale %v outside (0,1]", ErrInvalid, p.FPSScale)
	case c.Audio.FFTSize < 32 || c.Audio.FFTSize&(c.Audio.FFTSize-1) != 0:
		return fmt.Errorf("%w: fft_size %d must be a power of two >= 32", ErrInvalid, c.Audio.FFTSize)
	case c.Analysis.KickThreshold <= 0 || c.Analysis.KickThreshold >= 1:
		return fmt.Errorf("%w: kick_threshold %v outside (0,1)", ErrInvalid, c.Analysis.KickThreshold)
	case c.PostFX.DitherLevels < 2:
		return fmt.Errorf("%w: dither_levels must be at least 2", ErrInvalid)
	case len(c.Stars.Layers) == 0:
		return fmt.Errorf("%w: no star layers", ErrInvalid)
	}
	windows := map[string][]timeline.Window{
		"screen.shake_windows":   c.Screen.ShakeWindows,
		"stars.chroma_first":     {c.Stars.ChromaFirst},
		"stars.chroma_second":    {c.Stars.ChromaSecond},
		"overlay.glitch_windows": c.Overlay.GlitchWindows,
	}
	for name, ws := range windows {
		for _, w := range ws {
			if w.End < w.Start {
				return fmt.Errorf("%w: %s: %w [%v, %v]", ErrInvalid, name, timeline.ErrInverted, w.Start, w.End)
			}
		}
	}
	if _, err := c.Stars.VelocityTable(); err != nil {
		return fmt.Errorf("%w: stars: %w", ErrInvalid, err)
	}
	if _, err := c.Tracks.Library(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Library compiles the tracks.
func (c Config) Library() (timeline.Library, error) { return c.Tracks.Library() }
