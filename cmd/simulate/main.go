// Command simulate runs one headless episode and prints what happened.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vladimirvolkov/cannonball/internal/config"
	"github.com/vladimirvolkov/cannonball/internal/game"
)

func main() {
	var (
		scenePath  = flag.String("scene", "", "scene TOML file (default: classic scene)")
		tuningPath = flag.String("tuning", "", "tuning TOML file")
		elevation  = flag.Float64("elevation", 0, "aim elevation in degrees (0 keeps the tuning's start)")
		meter      = flag.Float64("meter", 0, "power meter offset at launch")
		vx         = flag.Float64("vx", 0, "explicit launch velocity x (with -vy, overrides aim and meter)")
		vy         = flag.Float64("vy", 0, "explicit launch velocity y")
		dt         = flag.Float64("dt", 0, "time step (0 uses the tuning's)")
		maxTicks   = flag.Int("max-ticks", 100000, "give up after this many ticks")
		dumpScene  = flag.String("dump-scene", "", "write the classic scene as TOML to this path and exit")
		quiet      = flag.Bool("quiet", false, "suppress per-event simulator logs")
	)
	flag.Parse()
	log.SetFlags(0)

	if *dumpScene != "" {
		if err := config.WriteScene(*dumpScene, game.ClassicSceneDesc()); err != nil {
			log.Fatalf("dump scene: %v", err)
		}
		return
	}

	params, err := config.LoadParams(*tuningPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	scene, err := config.LoadScene(*scenePath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	sim, err := game.NewSimulator(params, scene)
	if err != nil {
		log.Fatalf("%v", err)
	}

	step := params.TimeStep
	if *dt != 0 {
		step = *dt
	}
	if err := game.ValidateStep(step); err != nil {
		log.Fatalf("%v", err)
	}
	if *quiet {
		log.SetOutput(io.Discard)
	}

	st := sim.NewEpisode()
	if *elevation != 0 {
		st.Elevation = mgl64.Clamp(*elevation, params.AimMin, params.AimMax)
	}
	st.Meter = mgl64.Clamp(*meter, -params.MeterRange, params.MeterRange)
	if *vx != 0 || *vy != 0 {
		sim.LaunchWith(&st, mgl64.Vec2{*vx, *vy})
	} else {
		sim.Launch(&st)
	}

	bounces := 0
	for i := 0; i < *maxTicks && st.Phase != game.PhaseResting; i++ {
		out := sim.Tick(&st, step)
		for _, h := range out.Hits {
			t := st.Targets[h]
			fmt.Printf("tick %5d  hit     target=%d at (%.2f,%.2f) +%d\n", st.Tick, t.ID, t.Position.X(), t.Position.Y(), params.HitScore)
		}
		if out.Bounced {
			bounces++
			fmt.Printf("tick %5d  bounce  x=%.3f speed=%.3f\n", st.Tick, st.Projectile.Position.X(), st.Projectile.Speed)
		}
	}

	pos := st.Projectile.Position
	fmt.Printf("phase=%s score=%d bounces=%d ticks=%d rest=(%.3f,%.3f)\n",
		st.Phase, st.Score, bounces, st.Tick, pos.X(), pos.Y())
	if st.Phase != game.PhaseResting {
		os.Exit(1)
	}
}
