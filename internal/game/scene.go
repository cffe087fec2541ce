package game

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Color is an RGB triple for the renderer; the simulation never reads it.
type Color [3]uint8

type ShapeKind string

const (
	ShapeCircle ShapeKind = "circle"
	ShapeRect   ShapeKind = "rect"
)

// ShapeDesc is one declarative scene record. Obstacle circles become targets,
// everything else is a prop that is only drawn.
type ShapeDesc struct {
	Name     string     `toml:"name" json:"name,omitempty"`
	Kind     ShapeKind  `toml:"kind" json:"kind"`
	Center   mgl64.Vec2 `toml:"center" json:"center"`
	Radius   float64    `toml:"radius" json:"radius"`
	Angle    float64    `toml:"angle" json:"angle,omitempty"` // rects only, degrees
	Color    Color      `toml:"color" json:"color"`
	Obstacle bool       `toml:"obstacle" json:"obstacle,omitempty"`
	Scorable bool       `toml:"scorable" json:"scorable,omitempty"`
}

type SceneDesc struct {
	Name             string      `toml:"name" json:"name"`
	Launch           mgl64.Vec2  `toml:"launch" json:"launch"`
	ProjectileRadius float64     `toml:"projectile_radius" json:"projectileRadius"`
	Shapes           []ShapeDesc `toml:"shape" json:"shapes"`
}

// Prop is a drawn-only scene object.
type Prop struct {
	Name   string     `json:"name,omitempty"`
	Kind   ShapeKind  `json:"kind"`
	Center mgl64.Vec2 `json:"center"`
	Radius float64    `json:"radius"`
	Angle  float64    `json:"angle,omitempty"`
	Color  Color      `json:"color"`
}

// Scene is a validated SceneDesc. Targets is the pristine layout that every
// episode copies from.
type Scene struct {
	Name             string     `json:"name"`
	Launch           mgl64.Vec2 `json:"launch"`
	ProjectileRadius float64    `json:"projectileRadius"`
	Targets          []Target   `json:"targets"`
	Props            []Prop     `json:"props"`
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func shapeError(i int, s ShapeDesc, msg string) error {
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("#%d", i)
	}
	return fmt.Errorf("%w: shape %s: %s", ErrBadShape, name, msg)
}

// BuildScene validates the description and splits it into targets and props.
// Targets keep declaration order.
func BuildScene(desc SceneDesc) (*Scene, error) {
	if !finite(desc.Launch.X(), desc.Launch.Y(), desc.ProjectileRadius) {
		return nil, fmt.Errorf("%w: launch position and projectile radius must be finite", ErrBadShape)
	}
	if desc.ProjectileRadius <= 0 {
		return nil, fmt.Errorf("%w: projectile radius must be positive", ErrBadShape)
	}

	sc := &Scene{
		Name:             desc.Name,
		Launch:           desc.Launch,
		ProjectileRadius: desc.ProjectileRadius,
	}
	for i, s := range desc.Shapes {
		if !finite(s.Center.X(), s.Center.Y(), s.Radius, s.Angle) {
			return nil, shapeError(i, s, "values must be finite")
		}
		if s.Radius <= 0 {
			return nil, shapeError(i, s, "radius must be positive")
		}
		switch s.Kind {
		case ShapeCircle:
			if s.Obstacle {
				sc.Targets = append(sc.Targets, Target{
					ID:       len(sc.Targets),
					Position: s.Center,
					Radius:   s.Radius,
					Color:    s.Color,
					Active:   true,
					Scorable: s.Scorable,
				})
				continue
			}
		case ShapeRect:
			if s.Obstacle {
				return nil, shapeError(i, s, "only circles can be obstacles")
			}
		default:
			return nil, shapeError(i, s, fmt.Sprintf("unknown kind %q", s.Kind))
		}
		sc.Props = append(sc.Props, Prop{
			Name:   s.Name,
			Kind:   s.Kind,
			Center: s.Center,
			Radius: s.Radius,
			Angle:  s.Angle,
			Color:  s.Color,
		})
	}
	return sc, nil
}

var (
	gold   = Color{255, 214, 0}
	red    = Color{255, 0, 0}
	green  = Color{0, 255, 0}
	black  = Color{0, 0, 0}
	white  = Color{255, 255, 255}
	purple = Color{128, 51, 128}
)

// ClassicSceneDesc is the standard cannon layout on a [-4, 4] canvas.
func ClassicSceneDesc() SceneDesc {
	return SceneDesc{
		Name:             "classic",
		Launch:           mgl64.Vec2{-2.8, -2.0},
		ProjectileRadius: 0.05,
		Shapes: []ShapeDesc{
			{Name: "barrel", Kind: ShapeRect, Center: mgl64.Vec2{-2, -2}, Radius: 0.5, Angle: 8, Color: purple},
			{Name: "floor", Kind: ShapeRect, Center: mgl64.Vec2{-4, -4}, Radius: 8, Angle: 5, Color: gold},
			{Name: "wall-left", Kind: ShapeRect, Center: mgl64.Vec2{-4, -4}, Radius: 8, Angle: 85, Color: gold},
			{Name: "ceiling", Kind: ShapeRect, Center: mgl64.Vec2{-4, 3.9}, Radius: 8, Angle: 5, Color: gold},
			{Name: "wall-right", Kind: ShapeRect, Center: mgl64.Vec2{3.9, 3.9}, Radius: 8, Angle: 85, Color: gold},
			{Name: "meter", Kind: ShapeRect, Center: mgl64.Vec2{-2, 2}, Radius: 1, Angle: 5, Color: white},
			{Name: "meter-needle", Kind: ShapeRect, Center: mgl64.Vec2{-2, 2}, Radius: 0.1, Angle: 40, Color: red},

			{Kind: ShapeCircle, Center: mgl64.Vec2{1, 1}, Radius: 0.1, Color: red, Obstacle: true, Scorable: true},
			{Kind: ShapeCircle, Center: mgl64.Vec2{1, 2}, Radius: 0.1, Color: green, Obstacle: true, Scorable: true},
			{Kind: ShapeCircle, Center: mgl64.Vec2{0, -1}, Radius: 0.1, Color: green, Obstacle: true, Scorable: true},
			{Kind: ShapeCircle, Center: mgl64.Vec2{0, -2}, Radius: 0.2, Color: green, Obstacle: true, Scorable: true},
			{Kind: ShapeCircle, Center: mgl64.Vec2{0, 2}, Radius: 0.1, Color: red, Obstacle: true},
			{Kind: ShapeCircle, Center: mgl64.Vec2{1, -2}, Radius: 0.1, Color: green, Obstacle: true},

			{Name: "cannon-base", Kind: ShapeCircle, Center: mgl64.Vec2{-2.8, -2}, Radius: 0.4, Color: black},
			{Name: "cannon-hub", Kind: ShapeCircle, Center: mgl64.Vec2{-2.8, -1.5}, Radius: 0.2, Color: black},
		},
	}
}

// ClassicScene builds ClassicSceneDesc. It cannot fail.
func ClassicScene() *Scene {
	sc, err := BuildScene(ClassicSceneDesc())
	if err != nil {
		panic(err)
	}
	return sc
}
