package game

import "github.com/go-gl/mathgl/mgl64"

// Snapshot is the read-only view handed to renderers.
type Snapshot struct {
	Tick        uint32     `json:"tick"`
	Phase       Phase      `json:"phase"`
	Launched    bool       `json:"launched"`
	Position    mgl64.Vec2 `json:"position"`
	Radius      float64    `json:"radius"`
	Targets     []Target   `json:"targets"`
	Score       int        `json:"score"`
	Elevation   float64    `json:"elevation"`
	Meter       float64    `json:"meter"`
	LaunchSpeed float64    `json:"launchSpeed"`
}

// Snapshot copies the drawable parts of s. The result shares no memory with s.
func (sim *Simulator) Snapshot(s *State) Snapshot {
	targets := make([]Target, len(s.Targets))
	copy(targets, s.Targets)
	return Snapshot{
		Tick:        s.Tick,
		Phase:       s.Phase,
		Launched:    s.Launched,
		Position:    s.Projectile.Position,
		Radius:      s.Projectile.Radius,
		Targets:     targets,
		Score:       s.Score,
		Elevation:   s.Elevation,
		Meter:       s.Meter,
		LaunchSpeed: sim.LaunchSpeed(s),
	}
}
