package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Session timing
const (
	TickRate      = 60
	RestPauseSecs = 1.5
)

// Params holds every tuned constant of the simulation. Zero values are not
// meaningful; start from DefaultParams and override.
type Params struct {
	// Gravity is the coefficient on the t² term of the vertical displacement.
	Gravity float64 `toml:"gravity" json:"gravity"`
	// Scale maps launch-space displacement into world units.
	Scale mgl64.Vec2 `toml:"scale" json:"scale"`

	FloorY      float64 `toml:"floor_y" json:"floorY"`
	BounceLift  float64 `toml:"bounce_lift" json:"bounceLift"`
	Restitution float64 `toml:"restitution" json:"restitution"`
	RestSpeed   float64 `toml:"rest_speed" json:"restSpeed"`
	HitScore    int     `toml:"hit_score" json:"hitScore"`
	TimeStep    float64 `toml:"time_step" json:"timeStep"`

	// Aim elevation, degrees
	AimMin   float64 `toml:"aim_min" json:"aimMin"`
	AimMax   float64 `toml:"aim_max" json:"aimMax"`
	AimStep  float64 `toml:"aim_step" json:"aimStep"`
	AimStart float64 `toml:"aim_start" json:"aimStart"`

	// Launch speed = BaseSpeed - MeterPenalty*|meter offset|
	BaseSpeed    float64 `toml:"base_speed" json:"baseSpeed"`
	MeterPenalty float64 `toml:"meter_penalty" json:"meterPenalty"`
	MeterStep    float64 `toml:"meter_step" json:"meterStep"`
	MeterRange   float64 `toml:"meter_range" json:"meterRange"`
}

// DefaultParams returns the tuning of the classic scene.
func DefaultParams() Params {
	const e = 0.7
	return Params{
		Gravity:      1,
		Scale:        mgl64.Vec2{1.0 / 20, 1.0 / 5},
		FloorY:       -3.1,
		BounceLift:   0.1,
		Restitution:  e,
		RestSpeed:    e * e * e * e * 14,
		HitScore:     5,
		TimeStep:     0.08,
		AimMin:       10,
		AimMax:       75,
		AimStep:      1,
		AimStart:     45,
		BaseSpeed:    15,
		MeterPenalty: 10,
		MeterStep:    0.01,
		MeterRange:   1,
	}
}

// Validate rejects tunings the integrator cannot run with.
func (p Params) Validate() error {
	finite := []struct {
		name string
		v    float64
	}{
		{"gravity", p.Gravity},
		{"scale.x", p.Scale.X()},
		{"scale.y", p.Scale.Y()},
		{"floor_y", p.FloorY},
		{"bounce_lift", p.BounceLift},
		{"restitution", p.Restitution},
		{"rest_speed", p.RestSpeed},
		{"time_step", p.TimeStep},
		{"aim_min", p.AimMin},
		{"aim_max", p.AimMax},
		{"aim_step", p.AimStep},
		{"aim_start", p.AimStart},
		{"base_speed", p.BaseSpeed},
		{"meter_penalty", p.MeterPenalty},
		{"meter_step", p.MeterStep},
		{"meter_range", p.MeterRange},
	}
	for _, f := range finite {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return paramError(f.name, "must be finite")
		}
	}
	switch {
	case p.Gravity <= 0:
		return paramError("gravity", "must be positive")
	case p.Scale.X() <= 0 || p.Scale.Y() <= 0:
		return paramError("scale", "must be positive")
	case p.Restitution < 0 || p.Restitution > 1:
		return paramError("restitution", "must be within [0, 1]")
	case p.RestSpeed < 0:
		return paramError("rest_speed", "must not be negative")
	case p.HitScore < 0:
		return paramError("hit_score", "must not be negative")
	case p.AimMin > p.AimMax:
		return paramError("aim_min", "must not exceed aim_max")
	case p.MeterRange < 0 || p.MeterStep < 0:
		return paramError("meter", "range and step must not be negative")
	}
	return ValidateStep(p.TimeStep)
}

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInFlight
	PhaseResting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInFlight:
		return "in-flight"
	case PhaseResting:
		return "resting"
	}
	return "unknown"
}

// Target is an obstacle circle. Every target goes inactive and scores when
// hit; Scorable only changes how the renderer draws it.
type Target struct {
	ID       int        `json:"id"`
	Position mgl64.Vec2 `json:"position"`
	Radius   float64    `json:"radius"`
	Color    Color      `json:"color"`
	Active   bool       `json:"active"`
	Scorable bool       `json:"scorable"`
}

type Projectile struct {
	Position mgl64.Vec2 `json:"position"`
	// Velocity is the launch-space velocity of the current arc.
	Velocity mgl64.Vec2 `json:"velocity"`
	Radius   float64    `json:"radius"`
	// Elapsed is the time since launch, last bounce, or last hit.
	Elapsed     float64    `json:"elapsed"`
	Restitution float64    `json:"restitution"`
	Anchor      mgl64.Vec2 `json:"anchor"` // where the current arc started
	Speed       float64    `json:"speed"`
	Angle       float64    `json:"angle"` // heading of the current arc, radians
}

// State is the whole simulation for one episode. It is owned by a single
// loop and must not be shared across goroutines.
type State struct {
	Tick       uint32     `json:"tick"`
	Phase      Phase      `json:"phase"`
	Launched   bool       `json:"launched"`
	Projectile Projectile `json:"projectile"`
	Targets    []Target   `json:"targets"`
	Score      int        `json:"score"`
	Elevation  float64    `json:"elevation"` // cannon aim, degrees
	Meter      float64    `json:"meter"`     // power meter offset
	meterDir   float64
}

// Outcome reports what a single tick changed.
type Outcome struct {
	ScoreDelta int
	Hits       []int // indices into State.Targets
	Bounced    bool
	Rested     bool
}
