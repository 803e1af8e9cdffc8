package engine

import (
	"math"
	"strconv"

	"github.com/ghostguild/ghg-server/internal/domain/arena"
	"github.com/ghostguild/ghg-server/internal/domain/ghost"
)

// ProximityX is the horizontal coordinate at which a targeting ghost
// confronts the hunter.
const ProximityX = 40.0

// StepGhost computes one movement step for g relative to the hunter's
// position. rnd must return values in [0,1); it is drawn once per axis.
// The second result reports whether a targeting ghost reached proximity.
// Ghosts in combat never move.
func StepGhost(g ghost.Ghost, hunterPos arena.Vec2, rnd func() float64) (arena.Vec2, bool) {
	pos := g.Position
	switch g.State {
	case ghost.StateInCombat:
		return pos, false

	case ghost.StateTargeting:
		pos.X = math.Max(30, pos.X-15)
		pos.Y = hunterPos.Y + (rnd()-0.5)*10
		pos = pos.Bounded()
		return pos, pos.X <= ProximityX
	}

	switch g.Pattern {
	case ghost.PatternAggressive:
		pos.X = math.Max(50, pos.X-8)
		pos.Y = hunterPos.Y + (rnd()-0.5)*15
	case ghost.PatternDefensive:
		pos.X = arena.Clamp(pos.X+(rnd()-0.5)*10, 60, 85)
		pos.Y = arena.Clamp(pos.Y+(rnd()-0.5)*25, 20, 80)
	case ghost.PatternErratic:
		pos.X = arena.Clamp(pos.X+(rnd()-0.5)*20, 55, 90)
		pos.Y = arena.Clamp(pos.Y+(rnd()-0.5)*35, 10, 90)
	}
	return pos.Bounded(), false
}

// movementBatch snapshots which ghosts may move this pass and schedules
// their actuation. The loop re-arms itself for as long as the generation lives.
func (e *Encounter) movementBatch(gen uint64) {
	if e.stale(gen) {
		return
	}
	if e.hunter.InRecovery || len(e.ghosts) == 0 {
		e.sched.After(MovementBatch, func() { e.movementBatch(gen) })
		return
	}

	var batch []int
	for _, id := range e.sortedGhostIDs() {
		if e.ghosts[id].State != ghost.StateInCombat {
			batch = append(batch, id)
		}
	}
	e.sched.After(MovementActuation, func() {
		e.actuate(gen, batch)
		if !e.stale(gen) {
			e.sched.After(MovementBatch, func() { e.movementBatch(gen) })
		}
	})
}

// actuate applies one step to each ghost in ids that still exists and is
// still free to move. The batch may be stale by now.
func (e *Encounter) actuate(gen uint64, ids []int) {
	if e.stale(gen) || e.hunter.InRecovery {
		return
	}
	for _, id := range ids {
		g, ok := e.ghosts[id]
		if !ok {
			e.logger.Debug("movement skipped: ghost " + strconv.Itoa(id) + " is gone")
			continue
		}
		if g.State == ghost.StateInCombat {
			continue
		}
		pos, reached := StepGhost(*g, e.hunter.Position, e.rng.Float64)
		g.Position = pos
		if reached {
			e.confront(g)
		}
	}
}
