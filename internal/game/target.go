package game

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
)

// Touching is the circle contact test. Touching at exactly the sum of radii
// counts.
func Touching(a mgl64.Vec2, ra float64, b mgl64.Vec2, rb float64) bool {
	return a.Sub(b).Len() <= ra+rb
}

// checkTargets tests the projectile against every active target at its
// current position. Every target touched in this tick goes inactive and pays
// HitScore, then the arc restarts from the impact point with the velocity
// reflected about the combined contact normal.
func (sim *Simulator) checkTargets(s *State, out *Outcome) {
	pr := &s.Projectile
	w := sim.worldVelocity(pr)

	var normal mgl64.Vec2
	hit := false
	for i := range s.Targets {
		t := &s.Targets[i]
		if !t.Active || !Touching(pr.Position, pr.Radius, t.Position, t.Radius) {
			continue
		}

		hit = true
		t.Active = false
		s.Score += sim.params.HitScore
		out.ScoreDelta += sim.params.HitScore
		out.Hits = append(out.Hits, i)
		if n := pr.Position.Sub(t.Position); n.Len() > 0 {
			normal = normal.Add(n.Normalize())
		}
		log.Printf("HIT: target %d at (%.2f,%.2f) +%d score=%d",
			t.ID, t.Position.X(), t.Position.Y(), sim.params.HitScore, s.Score)
	}
	if !hit {
		return
	}

	if normal.Len() > 0 {
		n := normal.Normalize()
		if dot := w.Dot(n); dot < 0 {
			w = w.Sub(n.Mul(2 * dot))
		}
	}
	sim.restartArc(pr, w)
}
