package game

import (
	"fmt"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Simulator advances episodes of one scene under one tuning. It holds no
// per-episode state, so a single Simulator can drive any number of States.
type Simulator struct {
	params Params
	scene  *Scene
}

func NewSimulator(params Params, scene *Scene) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if scene == nil {
		return nil, fmt.Errorf("%w: nil scene", ErrBadShape)
	}
	return &Simulator{params: params, scene: scene}, nil
}

func (sim *Simulator) Params() Params { return sim.params }
func (sim *Simulator) Scene() *Scene  { return sim.scene }

// NewEpisode returns an Idle state with every target of the scene active.
func (sim *Simulator) NewEpisode() State {
	targets := make([]Target, len(sim.scene.Targets))
	copy(targets, sim.scene.Targets)
	for i := range targets {
		targets[i].Active = true
	}
	return State{
		Phase: PhaseIdle,
		Projectile: Projectile{
			Position:    sim.scene.Launch,
			Anchor:      sim.scene.Launch,
			Radius:      sim.scene.ProjectileRadius,
			Restitution: sim.params.Restitution,
		},
		Targets:   targets,
		Elevation: mgl64.Clamp(sim.params.AimStart, sim.params.AimMin, sim.params.AimMax),
		meterDir:  1,
	}
}

// Aim moves the cannon elevation by dir steps. Ignored once launched.
func (sim *Simulator) Aim(s *State, dir int) bool {
	if s.Phase != PhaseIdle || dir == 0 {
		return false
	}
	p := sim.params
	s.Elevation = mgl64.Clamp(s.Elevation+float64(dir)*p.AimStep, p.AimMin, p.AimMax)
	return true
}

// LaunchSpeed is the speed a launch would get with the meter where it is now.
func (sim *Simulator) LaunchSpeed(s *State) float64 {
	return sim.params.BaseSpeed - sim.params.MeterPenalty*math.Abs(s.Meter)
}

// Launch fires along the current elevation at LaunchSpeed.
func (sim *Simulator) Launch(s *State) bool {
	speed := sim.LaunchSpeed(s)
	a := mgl64.DegToRad(s.Elevation)
	return sim.LaunchWith(s, mgl64.Vec2{speed * math.Cos(a), speed * math.Sin(a)})
}

// LaunchWith fires with explicit launch-space velocity components.
func (sim *Simulator) LaunchWith(s *State, v mgl64.Vec2) bool {
	if s.Phase != PhaseIdle {
		return false
	}
	pr := &s.Projectile
	pr.Anchor = pr.Position
	pr.Elapsed = 0
	setArc(pr, v)
	s.Launched = true
	s.Phase = PhaseInFlight
	log.Printf("LAUNCH: elevation=%.1f meter=%.2f speed=%.3f v=(%.3f,%.3f)",
		s.Elevation, s.Meter, pr.Speed, v.X(), v.Y())
	return true
}

func setArc(pr *Projectile, v mgl64.Vec2) {
	pr.Velocity = v
	pr.Speed = v.Len()
	pr.Angle = math.Atan2(v.Y(), v.X())
}

// Tick advances the state by dt. dt must already have passed ValidateStep.
func (sim *Simulator) Tick(s *State, dt float64) Outcome {
	s.Tick++
	var out Outcome

	switch s.Phase {
	case PhaseIdle:
		sim.stepMeter(s)
		return out
	case PhaseResting:
		return out
	}

	pr := &s.Projectile
	pr.Elapsed += dt
	pr.Position = sim.arcPosition(pr)

	sim.checkTargets(s, &out)

	if pr.Position.Y() < sim.params.FloorY {
		sim.bounce(s)
		out.Bounced = true
	}

	if pr.Speed < sim.params.RestSpeed {
		pr.Position = pr.Anchor
		pr.Velocity = mgl64.Vec2{}
		s.Phase = PhaseResting
		out.Rested = true
		log.Printf("REST: at (%.3f,%.3f) score=%d", pr.Position.X(), pr.Position.Y(), s.Score)
	}
	return out
}

// arcPosition evaluates the current arc: anchor + scale*(vx*t, vy*t - g*t²).
func (sim *Simulator) arcPosition(pr *Projectile) mgl64.Vec2 {
	t := pr.Elapsed
	sc := sim.params.Scale
	dx := pr.Velocity.X() * t
	dy := pr.Velocity.Y()*t - sim.params.Gravity*t*t
	return pr.Anchor.Add(mgl64.Vec2{sc.X() * dx, sc.Y() * dy})
}

// worldVelocity is the instantaneous velocity along the arc, in world units.
func (sim *Simulator) worldVelocity(pr *Projectile) mgl64.Vec2 {
	sc := sim.params.Scale
	return mgl64.Vec2{
		sc.X() * pr.Velocity.X(),
		sc.Y() * (pr.Velocity.Y() - 2*sim.params.Gravity*pr.Elapsed),
	}
}

// restartArc re-anchors the projectile where it is and continues with the
// given world velocity.
func (sim *Simulator) restartArc(pr *Projectile, w mgl64.Vec2) {
	sc := sim.params.Scale
	pr.Anchor = pr.Position
	pr.Elapsed = 0
	setArc(pr, mgl64.Vec2{w.X() / sc.X(), w.Y() / sc.Y()})
}

func (sim *Simulator) bounce(s *State) {
	pr := &s.Projectile
	p := sim.params

	pr.Speed *= pr.Restitution
	pr.Elapsed = 0
	pr.Anchor = mgl64.Vec2{pr.Position.X(), p.FloorY + p.BounceLift}
	pr.Position = pr.Anchor

	elev := mgl64.DegToRad(s.Elevation)
	if pr.Velocity.X() > 0 {
		pr.Angle = elev
	} else {
		pr.Angle = math.Pi - elev
	}
	pr.Velocity = mgl64.Vec2{pr.Speed * math.Cos(pr.Angle), pr.Speed * math.Sin(pr.Angle)}

	log.Printf("BOUNCE: x=%.3f speed=%.3f angle=%.3f", pr.Position.X(), pr.Speed, pr.Angle)
}

func (sim *Simulator) stepMeter(s *State) {
	p := sim.params
	if s.meterDir == 0 {
		s.meterDir = 1
	}
	next := s.Meter + s.meterDir*p.MeterStep
	if next >= p.MeterRange {
		next = p.MeterRange
		s.meterDir = -1
	} else if next <= -p.MeterRange {
		next = -p.MeterRange
		s.meterDir = 1
	}
	s.Meter = next
}
