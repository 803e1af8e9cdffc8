// Package ghost defines the hostile entities of an encounter.
// This package is PURE and must NOT import any infrastructure packages.
package ghost

import (
	"encoding/json"
	"strconv"

	"github.com/ghostguild/ghg-server/internal/domain/arena"
)

// MovePattern selects how a roaming ghost drifts around the arena.
type MovePattern string

const (
	PatternAggressive MovePattern = "aggressive" // closes in on the hunter's row
	PatternDefensive  MovePattern = "defensive"  // holds a band near the far side
	PatternErratic    MovePattern = "erratic"    // wide random jitter
)

// Patterns lists every move pattern; spawns pick uniformly from it.
var Patterns = []MovePattern{PatternAggressive, PatternDefensive, PatternErratic}

// Names is the fixed pool of hostile names.
var Names = []string{"Vengeful Spirit", "Dark Wraith", "Phantom Lord", "Shadow Demon", "Cursed Soul"}

// Abilities every ghost carries. Cosmetic only.
var Abilities = []string{"Phase Strike", "Soul Drain", "Spectral Charge"}

// State is the per-ghost lifecycle: Roaming -> Targeting -> InCombat -> removed.
type State uint8

const (
	StateRoaming State = iota
	StateTargeting
	StateInCombat
)

func (s State) String() string {
	switch s {
	case StateRoaming:
		return "roaming"
	case StateTargeting:
		return "targeting"
	case StateInCombat:
		return "inCombat"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CanTransition reports whether from -> to is a legal edge.
// Targeting -> Roaming is the recovery suppression edge.
func CanTransition(from, to State) bool {
	switch from {
	case StateRoaming:
		return to == StateTargeting
	case StateTargeting:
		return to == StateInCombat || to == StateRoaming
	default:
		return false
	}
}

// Ghost represents one hostile instance.
type Ghost struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Health    int         `json:"health"`
	MaxHealth int         `json:"max_health"`
	Damage    int         `json:"damage"`
	Position  arena.Vec2  `json:"position"`
	Pattern   MovePattern `json:"move_pattern"`
	State     State       `json:"state"`
	Abilities []string    `json:"abilities"`
}

// New creates a roaming ghost at full health.
func New(id int, name string, maxHealth, damage int, pos arena.Vec2, pattern MovePattern) *Ghost {
	return &Ghost{
		ID:        id,
		Name:      name,
		Health:    maxHealth,
		MaxHealth: maxHealth,
		Damage:    damage,
		Position:  pos,
		Pattern:   pattern,
		State:     StateRoaming,
		Abilities: append([]string(nil), Abilities...),
	}
}

// Transition moves the ghost to another state if the edge is legal.
func (g *Ghost) Transition(to State) bool {
	if !CanTransition(g.State, to) {
		return false
	}
	g.State = to
	return true
}

// Clone returns a copy that shares no memory with g.
func (g *Ghost) Clone() Ghost {
	c := *g
	c.Abilities = append([]string(nil), g.Abilities...)
	return c
}
