// Package arena defines the coordinate space hostiles and the hunter move in.
// Coordinates are percentages of the arena, 0-100 on each axis.
// This package is PURE and must NOT import any infrastructure packages.
package arena

import "math"

const (
	Min = 0.0
	Max = 100.0

	// SpawnX is the far edge every hostile enters from.
	SpawnX = 95.0
)

// HunterStart is where the hunter stands when an encounter begins.
var HunterStart = Vec2{X: 20, Y: 50}

// Vec2 is a position in arena space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Bounded clamps both axes into the arena.
func (v Vec2) Bounded() Vec2 {
	return Vec2{X: Clamp(v.X, Min, Max), Y: Clamp(v.Y, Min, Max)}
}
