package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-9

// unitParams uses unit displacement scale so the arc is exactly
// x = ax + vx*t, y = ay + vy*t - t².
func unitParams() Params {
	p := DefaultParams()
	p.Scale = mgl64.Vec2{1, 1}
	p.FloorY = -100
	p.RestSpeed = 0.1
	p.TimeStep = 0.1
	return p
}

func emptyScene(launch mgl64.Vec2) *Scene {
	return &Scene{Name: "empty", Launch: launch, ProjectileRadius: 0.05}
}

func mustSim(t *testing.T, p Params, sc *Scene) *Simulator {
	t.Helper()
	sim, err := NewSimulator(p, sc)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return sim
}

func TestArcMatchesClosedForm(t *testing.T) {
	launch := mgl64.Vec2{-2, 1}
	sim := mustSim(t, unitParams(), emptyScene(launch))
	s := sim.NewEpisode()
	if !sim.LaunchWith(&s, mgl64.Vec2{3, 4}) {
		t.Fatalf("launch refused from idle")
	}

	for i := 0; i < 30; i++ {
		out := sim.Tick(&s, 0.1)
		if out.Bounced || out.Rested || len(out.Hits) > 0 {
			t.Fatalf("tick %d: unexpected outcome %+v", i, out)
		}
		tt := s.Projectile.Elapsed
		wantX := launch.X() + 3*tt
		wantY := launch.Y() + 4*tt - tt*tt
		got := s.Projectile.Position
		if math.Abs(got.X()-wantX) > eps || math.Abs(got.Y()-wantY) > eps {
			t.Fatalf("t=%.2f: got (%f,%f) want (%f,%f)", tt, got.X(), got.Y(), wantX, wantY)
		}
	}
	if math.Abs(s.Projectile.Elapsed-3) > 1e-6 {
		t.Fatalf("elapsed after 30 ticks: got %f want 3", s.Projectile.Elapsed)
	}
}

func TestArcAppliesScale(t *testing.T) {
	p := unitParams()
	p.Scale = mgl64.Vec2{0.5, 0.25}
	sim := mustSim(t, p, emptyScene(mgl64.Vec2{}))
	s := sim.NewEpisode()
	sim.LaunchWith(&s, mgl64.Vec2{3, 4})

	sim.Tick(&s, 1)
	got := s.Projectile.Position
	if math.Abs(got.X()-1.5) > eps || math.Abs(got.Y()-0.75) > eps {
		t.Fatalf("got (%f,%f) want (1.5,0.75)", got.X(), got.Y())
	}
}

func TestIdleProjectileStaysOnPad(t *testing.T) {
	launch := mgl64.Vec2{-2.8, -2}
	sim := mustSim(t, DefaultParams(), emptyScene(launch))
	s := sim.NewEpisode()

	for i := 0; i < 50; i++ {
		sim.Tick(&s, 0.08)
	}
	if s.Projectile.Position != launch {
		t.Fatalf("idle projectile moved to %v", s.Projectile.Position)
	}
	if s.Phase != PhaseIdle || s.Launched {
		t.Fatalf("expected idle and not launched, got phase=%s launched=%v", s.Phase, s.Launched)
	}
	if s.Meter == 0 {
		t.Fatalf("expected power meter to move while idle")
	}
}

func TestMeterOscillates(t *testing.T) {
	p := DefaultParams()
	p.MeterStep = 0.5
	p.MeterRange = 1
	sim := mustSim(t, p, emptyScene(mgl64.Vec2{}))
	s := sim.NewEpisode()

	want := []float64{0.5, 1, 0.5, 0, -0.5, -1, -0.5, 0, 0.5}
	for i, w := range want {
		sim.Tick(&s, p.TimeStep)
		if math.Abs(s.Meter-w) > eps {
			t.Fatalf("step %d: meter=%f want %f", i, s.Meter, w)
		}
	}
}

func TestLaunchUsesElevationAndMeter(t *testing.T) {
	sim := mustSim(t, DefaultParams(), emptyScene(mgl64.Vec2{}))
	s := sim.NewEpisode()
	s.Elevation = 30
	s.Meter = -0.3

	if got := sim.LaunchSpeed(&s); math.Abs(got-12) > eps {
		t.Fatalf("launch speed: got %f want 12", got)
	}
	sim.Launch(&s)
	v := s.Projectile.Velocity
	if math.Abs(v.X()-12*math.Cos(math.Pi/6)) > eps || math.Abs(v.Y()-6) > eps {
		t.Fatalf("launch velocity: got %v", v)
	}
	if s.Phase != PhaseInFlight || !s.Launched {
		t.Fatalf("expected in-flight after launch, got %s", s.Phase)
	}
	if sim.Launch(&s) {
		t.Fatalf("second launch in the same episode must be refused")
	}
}

func TestAimClampsAndLocksAfterLaunch(t *testing.T) {
	p := DefaultParams()
	sim := mustSim(t, p, emptyScene(mgl64.Vec2{}))
	s := sim.NewEpisode()

	if s.Elevation != p.AimStart {
		t.Fatalf("start elevation: got %f want %f", s.Elevation, p.AimStart)
	}
	sim.Aim(&s, 100)
	if s.Elevation != p.AimMax {
		t.Fatalf("aim up: got %f want %f", s.Elevation, p.AimMax)
	}
	sim.Aim(&s, -1000)
	if s.Elevation != p.AimMin {
		t.Fatalf("aim down: got %f want %f", s.Elevation, p.AimMin)
	}

	sim.Launch(&s)
	if sim.Aim(&s, 1) {
		t.Fatalf("aim must be ignored in flight")
	}
	if s.Elevation != p.AimMin {
		t.Fatalf("elevation changed in flight: %f", s.Elevation)
	}
}

func TestBounceBelowRestThresholdStops(t *testing.T) {
	p := unitParams()
	p.FloorY = -1
	p.Restitution = 0.1
	p.RestSpeed = 1
	sim := mustSim(t, p, emptyScene(mgl64.Vec2{}))
	s := sim.NewEpisode()
	sim.LaunchWith(&s, mgl64.Vec2{3, 4})

	rested := false
	for i := 0; i < 1000; i++ {
		out := sim.Tick(&s, 0.1)
		if out.Rested {
			if !out.Bounced {
				t.Fatalf("expected rest on the bounce tick")
			}
			rested = true
			break
		}
	}
	if !rested {
		t.Fatalf("projectile never came to rest")
	}
	if s.Phase != PhaseResting {
		t.Fatalf("phase: got %s want resting", s.Phase)
	}

	pos := s.Projectile.Position
	if math.Abs(pos.Y()-(p.FloorY+p.BounceLift)) > eps {
		t.Fatalf("rest height: got %f want %f", pos.Y(), p.FloorY+p.BounceLift)
	}
	for i := 0; i < 20; i++ {
		out := sim.Tick(&s, 0.1)
		if out.Bounced || out.Rested || out.ScoreDelta != 0 || len(out.Hits) != 0 {
			t.Fatalf("resting tick produced %+v", out)
		}
		if s.Projectile.Position != pos {
			t.Fatalf("resting projectile moved from %v to %v", pos, s.Projectile.Position)
		}
	}
}

func TestBounceRelaunchesAlongElevation(t *testing.T) {
	p := unitParams()
	p.FloorY = -1
	p.Restitution = 0.7
	p.RestSpeed = 1
	sim := mustSim(t, p, emptyScene(mgl64.Vec2{}))

	for _, tc := range []struct {
		name  string
		v     mgl64.Vec2
		angle float64
	}{
		{"rightward", mgl64.Vec2{3, 4}, math.Pi / 4},
		{"leftward", mgl64.Vec2{-3, 4}, 3 * math.Pi / 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := sim.NewEpisode()
			sim.LaunchWith(&s, tc.v)
			for i := 0; i < 1000; i++ {
				if sim.Tick(&s, 0.1).Bounced {
					break
				}
			}
			pr := s.Projectile
			if s.Phase != PhaseInFlight {
				t.Fatalf("expected to keep flying, got %s", s.Phase)
			}
			if math.Abs(pr.Speed-3.5) > eps {
				t.Fatalf("speed after bounce: got %f want 3.5", pr.Speed)
			}
			if pr.Elapsed != 0 {
				t.Fatalf("elapsed not reset: %f", pr.Elapsed)
			}
			if math.Abs(pr.Angle-tc.angle) > eps {
				t.Fatalf("angle: got %f want %f", pr.Angle, tc.angle)
			}
			if pr.Anchor.Y() != p.FloorY+p.BounceLift {
				t.Fatalf("anchor y: got %f", pr.Anchor.Y())
			}
		})
	}
}

func TestDegenerateLaunchRestsImmediately(t *testing.T) {
	launch := mgl64.Vec2{1, 1}
	sim := mustSim(t, DefaultParams(), emptyScene(launch))
	s := sim.NewEpisode()
	sim.LaunchWith(&s, mgl64.Vec2{})

	out := sim.Tick(&s, 0.08)
	if !out.Rested || s.Projectile.Position != launch {
		t.Fatalf("zero-velocity launch should rest on the pad, got %+v at %v", out, s.Projectile.Position)
	}
}

func TestClassicEpisodesEndAcrossAimAndMeter(t *testing.T) {
	p := DefaultParams()
	sim := mustSim(t, p, ClassicScene())

	for elev := p.AimMin; elev <= p.AimMax; elev += 5 {
		for meter := -1.0; meter <= 1.0; meter += 0.125 {
			s := sim.NewEpisode()
			s.Elevation = elev
			s.Meter = meter
			sim.Launch(&s)

			deactivated := make([]bool, len(s.Targets))
			prevScore, hits := 0, 0
			for i := 0; i < 100000 && s.Phase != PhaseResting; i++ {
				out := sim.Tick(&s, p.TimeStep)
				hits += len(out.Hits)

				newly := 0
				for j, tg := range s.Targets {
					if deactivated[j] && tg.Active {
						t.Fatalf("elevation %.0f meter %.3f: target %d reactivated", elev, meter, j)
					}
					if !tg.Active && !deactivated[j] {
						deactivated[j] = true
						newly++
					}
				}
				if s.Score < prevScore {
					t.Fatalf("elevation %.0f meter %.3f: score decreased %d -> %d", elev, meter, prevScore, s.Score)
				}
				if s.Score-prevScore != newly*p.HitScore || out.ScoreDelta != newly*p.HitScore {
					t.Fatalf("elevation %.0f meter %.3f: score delta %d for %d new hits",
						elev, meter, s.Score-prevScore, newly)
				}
				prevScore = s.Score
			}
			if s.Phase != PhaseResting {
				t.Fatalf("elevation %.0f meter %.3f: episode did not end", elev, meter)
			}
			if hits > len(s.Targets) {
				t.Fatalf("elevation %.0f meter %.3f: %d hits on %d targets", elev, meter, hits, len(s.Targets))
			}
		}
	}
}

func TestValidateStep(t *testing.T) {
	for _, dt := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		if err := ValidateStep(dt); err == nil {
			t.Fatalf("dt=%v: expected error", dt)
		}
	}
	if err := ValidateStep(0.016); err != nil {
		t.Fatalf("dt=0.016: %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	bad := []func(*Params){
		func(p *Params) { p.Gravity = 0 },
		func(p *Params) { p.Restitution = 1.5 },
		func(p *Params) { p.RestSpeed = math.NaN() },
		func(p *Params) { p.Scale = mgl64.Vec2{0, 1} },
		func(p *Params) { p.AimMin = 80 },
		func(p *Params) { p.TimeStep = 0 },
	}
	for i, mut := range bad {
		p := DefaultParams()
		mut(&p)
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
		if _, err := NewSimulator(p, ClassicScene()); err == nil {
			t.Fatalf("case %d: NewSimulator accepted bad params", i)
		}
	}
}
