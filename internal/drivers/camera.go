package drivers

import (
	"math"

	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/lfo"
	"github.com/cbegin/avsync-go/internal/surface"
	"github.com/cbegin/avsync-go/internal/timeline"
)

type CameraConfig struct {
	BPM          float64 `yaml:"bpm"`
	OrbitBeats   float64 `yaml:"orbit_beats"`
	LookBeats    float64 `yaml:"look_beats"`
	OrbitRadius  float64 `yaml:"orbit_radius"`
	HeightRange  float64 `yaml:"height_range"`
	DepthWobble  float64 `yaml:"depth_wobble"`
	LookOffset   float64 `yaml:"look_offset"`
	RoveStart    float64 `yaml:"rove_start"`
	PanStart     float64 `yaml:"pan_start"`
	PanSpeed     float64 `yaml:"pan_speed"`
	TiltSpeed    float64 `yaml:"tilt_speed"`
	KillTime     float64 `yaml:"kill_time"`
	RollBeats    float64 `yaml:"roll_beats"`
	RollFraction float64 `yaml:"roll_fraction"`
	HomeDistance float64 `yaml:"home_distance"`
}

func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		BPM:          120,
		OrbitBeats:   64,
		LookBeats:    128,
		OrbitRadius:  15,
		HeightRange:  8,
		DepthWobble:  5,
		LookOffset:   80,
		RoveStart:    33.5,
		PanStart:     160.06,
		PanSpeed:     2.125,
		TiltSpeed:    10,
		KillTime:     215,
		RollBeats:    192,
		RollFraction: 1.0 / 8,
		HomeDistance: 90,
	}
}

// Camera moves the scene camera: the intro dolly, the drop zooms, beat-locked
// roving, the late upward pan and the final zoom-out. Everything is a
// function of the clock, so skipped ticks and seeks need no extra state.
type Camera struct {
	cfg      CameraConfig
	sink     surface.Surface
	distance timeline.Track
	zoomOut  timeline.Track
	roveIn   timeline.Track
	last     surface.Pose
}

func NewCamera(cfg CameraConfig, lib timeline.Library, sink surface.Surface) *Camera {
	return &Camera{
		cfg:      cfg,
		sink:     sink,
		distance: lib.GetOr(TrackCameraDistance, cfg.HomeDistance),
		zoomOut:  lib.Get(TrackCameraZoomOut),
		roveIn:   lib.GetOr(TrackCameraRoveIn, 1),
	}
}

// PoseAt computes the camera pose at t.
func (c *Camera) PoseAt(t float64, playing bool) surface.Pose {
	home := surface.Pose{Position: surface.Vec3{Z: c.cfg.HomeDistance}}
	if t >= c.cfg.KillTime {
		return home
	}
	p := surface.Pose{Position: surface.Vec3{Z: c.distance.Value(t) + c.zoomOut.Value(t)}}

	if playing && t >= c.cfg.RoveStart {
		amount := c.roveIn.Value(t)
		angle := 2 * math.Pi * lfo.Cycle(t, lfo.Beats(c.cfg.OrbitBeats, c.cfg.BPM))
		eased := 0.5 - math.Cos(angle)*0.5
		p.Position.X = math.Sin(angle) * c.cfg.OrbitRadius * eased * amount
		p.Position.Y = math.Sin(angle*2) * c.cfg.HeightRange * eased * amount
		p.Position.Z += math.Cos(angle) * c.cfg.DepthWobble * eased * amount

		look := 2 * math.Pi * lfo.Cycle(t, lfo.Beats(c.cfg.LookBeats, c.cfg.BPM))
		p.LookAt = surface.Vec3{
			X: math.Sin(look) * c.cfg.LookOffset * amount,
			Y: math.Sin(look*1.5) * c.cfg.LookOffset * amount,
			Z: math.Cos(look*0.8) * c.cfg.LookOffset * 0.8 * amount,
		}
	}

	if t >= c.cfg.PanStart {
		since := t - c.cfg.PanStart
		p.Position.Y = since * c.cfg.PanSpeed
		p.LookAt = surface.Vec3{Y: since * c.cfg.TiltSpeed}
	}
	return p
}

// Roll is the scene's slow rotation about the view axis, in radians.
func (c *Camera) Roll(t float64) float64 {
	return 2 * math.Pi * c.cfg.RollFraction * lfo.Cycle(t, lfo.Beats(c.cfg.RollBeats, c.cfg.BPM))
}

func (c *Camera) Update(f *clock.Frame) {
	c.last = c.PoseAt(f.Time, f.Playing)
	c.sink.SetPose(ElemCamera, c.last)
	if f.Playing {
		c.sink.SetStyle(ElemScene, surface.Rotate, c.Roll(f.Time))
	}
}

func (c *Camera) Pose() surface.Pose { return c.last }

func (c *Camera) Reset()         { c.last = surface.Pose{} }
func (c *Camera) Resync(float64) {}
