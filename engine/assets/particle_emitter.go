package assets

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

// ParticleEmitter describes a stream of particles drawn with a material. An
// optional curve shapes particle opacity over their lifetime.
type ParticleEmitter struct {
	resources.Base
	materialName  string
	materialGroup string
	curveName     string
	curveGroup    string
	rate          float32
	lifetime      float32
	maxParticles  int
	gravity       mgl32.Vec3
	velocity      mgl32.Vec3

	material *Material
	curve    *Curve
}

type Particle struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Age      float32
	Alpha    float32
}

type ParticleEmitterInstance struct {
	Emitter   *ParticleEmitter
	Material  *MaterialInstance
	Particles []Particle
	pending   float32
}

func NewParticleEmitter(id resources.ID, env *resources.Env) resources.Resource {
	return &ParticleEmitter{Base: resources.NewBase(id, env)}
}

func (p *ParticleEmitter) Create(_ string, node *resources.Node) error {
	var err error
	if p.materialName, err = node.Required("material"); err != nil {
		return err
	}
	p.materialGroup = node.String("material_group", "")
	p.curveName = node.String("curve", "")
	p.curveGroup = node.String("curve_group", "")
	if p.rate, err = node.Float("rate", 10); err != nil {
		return err
	}
	if p.lifetime, err = node.Float("lifetime", 1); err != nil {
		return err
	}
	if p.maxParticles, err = node.Int("max_particles", 256); err != nil {
		return err
	}
	if p.rate <= 0 || p.lifetime <= 0 || p.maxParticles < 1 {
		return fmt.Errorf("%w: %s: rate, lifetime and max_particles must be positive", core.ErrBadParam, node.Source)
	}
	if p.gravity, err = parseVec3(node, "gravity", mgl32.Vec3{0, -9.81, 0}); err != nil {
		return err
	}
	if p.velocity, err = parseVec3(node, "velocity", mgl32.Vec3{0, 1, 0}); err != nil {
		return err
	}
	return nil
}

func parseVec3(node *resources.Node, key string, def mgl32.Vec3) (mgl32.Vec3, error) {
	parts := node.List(key)
	if len(parts) == 0 {
		return def, nil
	}
	if len(parts) != 3 {
		return def, fmt.Errorf("%w: %s: %s expects x,y,z", core.ErrBadParam, node.Source, key)
	}
	var v mgl32.Vec3
	for i, s := range parts {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return def, fmt.Errorf("%w: %s: %s: %q is not a number", core.ErrBadParam, node.Source, key, s)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func (p *ParticleEmitter) Load() error {
	return p.DriveLoad(func() error {
		dep, err := requireLoaded(p.Env(), TypeMaterial, p.materialName, p.materialGroup)
		if err != nil {
			return err
		}
		m, ok := dep.(*Material)
		if !ok {
			return fmt.Errorf("%w: '%s' is not a material", core.ErrBadParam, p.materialName)
		}
		var c *Curve
		if p.curveName != "" {
			dep, err := requireLoaded(p.Env(), TypeCurve, p.curveName, p.curveGroup)
			if err != nil {
				return err
			}
			if c, ok = dep.(*Curve); !ok {
				return fmt.Errorf("%w: '%s' is not a curve", core.ErrBadParam, p.curveName)
			}
		}
		p.material = m
		p.curve = c
		return nil
	})
}

func (p *ParticleEmitter) Unload() error {
	return p.DriveUnload(func() error {
		p.material = nil
		p.curve = nil
		return nil
	})
}

func (p *ParticleEmitter) Gravity() mgl32.Vec3 { return p.gravity }
func (p *ParticleEmitter) Rate() float32 { return p.rate }
func (p *ParticleEmitter) Lifetime() float32 { return p.lifetime }

// Curve is nil when none was declared or the emitter is not loaded.
func (p *ParticleEmitter) Curve() *Curve { return p.curve }

func (p *ParticleEmitter) CreateInstance() *ParticleEmitterInstance {
	if p.State() != resources.StateLoaded {
		return nil
	}
	return &ParticleEmitterInstance{
		Emitter:   p,
		Material:  p.material.CreateInstance(),
		Particles: make([]Particle, 0, p.maxParticles),
	}
}

// Step advances the simulation by dt seconds: particles age and fall, expired
// ones are dropped and new ones are spawned at the emitter rate.
func (i *ParticleEmitterInstance) Step(dt float32) {
	e := i.Emitter
	alive := i.Particles[:0]
	for _, pt := range i.Particles {
		pt.Age += dt
		if pt.Age >= e.lifetime {
			continue
		}
		pt.Velocity = pt.Velocity.Add(e.gravity.Mul(dt))
		pt.Position = pt.Position.Add(pt.Velocity.Mul(dt))
		pt.Alpha = i.alpha(pt.Age)
		alive = append(alive, pt)
	}
	i.Particles = alive

	i.pending += e.rate * dt
	for i.pending >= 1 && len(i.Particles) < e.maxParticles {
		i.Particles = append(i.Particles, Particle{Velocity: e.velocity, Alpha: i.alpha(0)})
		i.pending--
	}
	if len(i.Particles) >= e.maxParticles {
		i.pending = 0
	}
}

func (i *ParticleEmitterInstance) alpha(age float32) float32 {
	if i.Emitter.curve == nil {
		return 1
	}
	return i.Emitter.curve.Evaluate(age / i.Emitter.lifetime)
}
