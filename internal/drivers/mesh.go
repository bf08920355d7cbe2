package drivers

import (
	"github.com/cbegin/avsync-go/internal/clock"
	"github.com/cbegin/avsync-go/internal/surface"
	"github.com/cbegin/avsync-go/internal/timeline"
)

type MeshConfig struct {
	// DeadZone is the minimum uniform change that is written through.
	DeadZone  float64 `yaml:"dead_zone"`
	AudioKill float64 `yaml:"audio_kill"`

	KickKill     float64 `yaml:"kick_kill"`
	KickRise     float64 `yaml:"kick_rise"`
	KickFall     float64 `yaml:"kick_fall"`
	DefaultColor uint32  `yaml:"default_color"`
	KickColor    uint32  `yaml:"kick_color"`

	BloomKill      float64 `yaml:"bloom_kill"`
	BloomThreshold float64 `yaml:"bloom_threshold"`
}

func DefaultMeshConfig(mobile bool) MeshConfig {
	c := MeshConfig{
		DeadZone:       0.02,
		AudioKill:      206,
		KickKill:       190,
		KickRise:       0.3,
		KickFall:       0.05,
		DefaultColor:   0x362f99,
		KickColor:      0x80558a,
		BloomKill:      190,
		BloomThreshold: 0.5,
	}
	if mobile {
		c.DeadZone = 0.05
	}
	return c
}

// Mesh material uniforms at rest (bass = 0).
const (
	neutralD         = 2
	neutralA         = 1
	neutralRoughness = 0.5
	neutralMetalness = 0.3
)

// Mesh maps bass onto the displacement shader and PBR material of the
// background mesh and fades it in.
type Mesh struct {
	cfg     MeshConfig
	sink    surface.Surface
	opacity timeline.Track
	dz      surface.DeadZone
	killed  bool
}

func NewMesh(cfg MeshConfig, lib timeline.Library, sink surface.Surface) *Mesh {
	return &Mesh{
		cfg:     cfg,
		sink:    sink,
		opacity: lib.GetOr(TrackMeshOpacity, 1),
		dz:      surface.DeadZone{Threshold: cfg.DeadZone},
	}
}

// Material returns uD, uA, roughness and metalness for a bass level.
func Material(bass float64) (d, a, roughness, metalness float64) {
	bass = clamp(bass, 0, 1)
	return neutralD + bass*24, neutralA + bass*6, neutralRoughness - bass*0.3, neutralMetalness + bass*0.7
}

func (m *Mesh) Update(f *clock.Frame) {
	m.sink.SetStyle(ElemMesh, surface.Opacity, m.opacity.Value(f.Time))

	bass := f.Levels.Bass
	if f.Time >= m.cfg.AudioKill {
		if m.killed {
			return
		}
		m.killed = true
		bass = 0
		m.write(bass, true)
		return
	}
	m.killed = false
	m.write(bass, false)
}

func (m *Mesh) write(bass float64, force bool) {
	d, a, r, mt := Material(bass)
	for _, u := range [...]struct {
		name string
		v    float64
	}{{"uD", d}, {"uA", a}, {"roughness", r}, {"metalness", mt}} {
		if force {
			m.dz.Force(u.name, u.v)
		} else if !m.dz.Changed(u.name, u.v) {
			continue
		}
		m.sink.SetUniform(ElemMesh, u.name, u.v)
	}
}

func (m *Mesh) Reset() {
	m.dz.Reset()
	m.killed = false
}

func (m *Mesh) Resync(float64) { m.killed = false }

// KickFlash pulses the model colour on kicks.
type KickFlash struct {
	cfg    MeshConfig
	sink   surface.Surface
	level  float64
	killed bool
}

func NewKickFlash(cfg MeshConfig, sink surface.Surface) *KickFlash {
	return &KickFlash{cfg: cfg, sink: sink}
}

func (k *KickFlash) Level() float64 { return k.level }

func (k *KickFlash) Update(f *clock.Frame) {
	if f.Time >= k.cfg.KickKill {
		if !k.killed {
			k.killed = true
			k.level = 0
			k.sink.SetColor(ElemModel, "color", Hex(k.cfg.DefaultColor))
		}
		return
	}
	k.killed = false
	if f.Kick() {
		k.level += k.cfg.KickRise
	} else {
		k.level -= k.cfg.KickFall
	}
	k.level = clamp(k.level, 0, 1)
	k.sink.SetColor(ElemModel, "color", lerpColor(Hex(k.cfg.DefaultColor), Hex(k.cfg.KickColor), k.level))
}

func (k *KickFlash) Reset() {
	k.level = 0
	k.killed = false
}

func (k *KickFlash) Resync(float64) { k.Reset() }

// Bloom drives the bloom pass strength from bass above a threshold.
type Bloom struct {
	cfg  MeshConfig
	sink surface.Surface
	last float64
}

func NewBloom(cfg MeshConfig, sink surface.Surface) *Bloom {
	return &Bloom{cfg: cfg, sink: sink}
}

// Strength maps bass to bloom strength: zero at or below the threshold,
// rising linearly to 1 at full bass.
func (b *Bloom) Strength(bass float64) float64 {
	th := b.cfg.BloomThreshold
	if bass <= th || th >= 1 {
		return 0
	}
	return clamp((bass-th)/(1-th), 0, 1)
}

func (b *Bloom) Update(f *clock.Frame) {
	v := 0.0
	if f.Time < b.cfg.BloomKill {
		v = b.Strength(f.Levels.Bass)
	}
	b.last = v
	b.sink.SetUniform(ElemBloom, "strength", v)
}

func (b *Bloom) Last() float64 { return b.last }

func (b *Bloom) Reset()         { b.last = 0 }
func (b *Bloom) Resync(float64) {}
