package engine

import (
	"strconv"

	"github.com/ghostguild/ghg-server/internal/domain/catalog"
	"github.com/ghostguild/ghg-server/internal/domain/ghost"
	"github.com/ghostguild/ghg-server/internal/domain/rules"
	"github.com/ghostguild/ghg-server/internal/events"
)

// confront moves a targeting ghost into combat. Only one confrontation may
// be active; a second ghost arriving meanwhile keeps targeting and retries
// on the next movement pass.
func (e *Encounter) confront(g *ghost.Ghost) bool {
	if e.hunter.InRecovery || e.combatGhost != 0 {
		return false
	}
	if !g.Transition(ghost.StateInCombat) {
		return false
	}
	e.combatGhost = g.ID

	e.logLine("⚔️ " + g.Name + " confronts you! Combat begins!")
	e.banner("COMBAT ENGAGED!")
	e.emit(events.EventTypeConfrontation, ghostTarget(g.ID), ghostPayload(g, ""))

	gen, id := e.generation, g.ID
	e.sched.After(ConfrontationDelay, func() { e.initiateCombat(gen, id) })
	return true
}

// initiateCombat starts the fight proper. If the hunter fell into recovery
// during the confrontation delay the ghost is abandoned.
func (e *Encounter) initiateCombat(gen uint64, id int) {
	if e.stale(gen) {
		return
	}
	g, ok := e.ghosts[id]
	if !ok || g.State != ghost.StateInCombat {
		e.logger.Debug("combat initiation skipped: ghost " + strconv.Itoa(id) + " is gone")
		return
	}
	if e.hunter.InRecovery {
		e.abandon(g, "recovery started before combat")
		return
	}

	e.logLine("🥊 Combat initiated with " + g.Name + "!")
	e.emit(events.EventTypeCombatInitiated, ghostTarget(id), ghostPayload(g, ""))
	e.sched.After(ResolutionDelay, func() {
		if !e.stale(gen) {
			e.Resolve(id)
		}
	})
}

// Resolve flips the weighted coin for the ghost in combat and applies the
// outcome. It reports false without side effects when the ghost is missing
// or not in combat. If the hunter is in recovery the ghost is abandoned.
func (e *Encounter) Resolve(id int) bool {
	if !e.active {
		return false
	}
	g, ok := e.ghosts[id]
	if !ok || g.State != ghost.StateInCombat {
		e.logger.Debug("resolution skipped: ghost " + strconv.Itoa(id) + " is not in combat")
		return false
	}
	if e.hunter.InRecovery {
		e.abandon(g, "recovery started before resolution")
		return false
	}

	roll := e.roll()
	won := rules.HunterWins(roll)
	e.metrics.RecordOutcome(won)
	if won {
		e.victory(g, roll)
	} else {
		e.defeat(g, roll)
	}
	return true
}

func (e *Encounter) victory(g *ghost.Ghost, roll float64) {
	loc := e.loadout.Location
	xp := rules.VictoryXP(loc.Difficulty)
	ectos := rules.VictoryEctos(loc.Difficulty)

	e.logLine("🏆 You defeated " + g.Name + "! The ghost disappears into the void.")
	e.banner("VICTORY!")
	e.damageNumber(rules.VictoryDamageNumber, true, events.DamageKindDamage)
	e.removeGhost(g.ID)
	e.emit(events.EventTypeCombatResolved, ghostTarget(g.ID), events.CombatResolvedPayload{
		GhostID:    g.ID,
		GhostName:  g.Name,
		LocationID: loc.ID,
		Difficulty: loc.Difficulty,
		HunterWon:  true,
		Roll:       roll,
		XPGained:   xp,
		Ectos:      ectos,
	})

	e.hunter.KillCount++
	e.GrantXP(xp)
	e.grantEctos(ectos)
	e.hunter.Recharge(rules.VictoryEnergyRestore)
	e.hunter.Heal(rules.VictoryHealthRestore)

	if drop, ok := catalog.DropFor(g.Name); ok {
		e.emit(events.EventTypeMaterialDropped, ghostTarget(g.ID), events.MaterialDroppedPayload{
			Name:        drop.Name,
			Rarity:      string(drop.Rarity),
			Description: drop.Description,
			Quantity:    loc.Difficulty,
		})
	}
	e.emit(events.EventTypeBestiaryDefeat, ghostTarget(g.ID), events.BestiaryPayload{
		GhostName:  g.Name,
		LocationID: loc.ID,
		Difficulty: loc.Difficulty,
	})
	e.logger.Event(string(events.EventTypeCombatResolved), ghostTarget(g.ID), "hunter won")
}

func (e *Encounter) defeat(g *ghost.Ghost, roll float64) {
	loc := e.loadout.Location

	e.logLine("💀 " + g.Name + " defeated you! Entering recovery mode...")
	e.banner("DEFEATED!")
	e.damageNumber(rules.DefeatDamageNumber, false, events.DamageKindDamage)
	e.removeGhost(g.ID)
	e.emit(events.EventTypeCombatResolved, ghostTarget(g.ID), events.CombatResolvedPayload{
		GhostID:    g.ID,
		GhostName:  g.Name,
		LocationID: loc.ID,
		Difficulty: loc.Difficulty,
		HunterWon:  false,
		Roll:       roll,
	})
	e.logger.Event(string(events.EventTypeCombatResolved), ghostTarget(g.ID), "ghost won")

	e.EnterRecovery(rules.RecoverySeconds)
}

// abandon drops a ghost whose confrontation can no longer be resolved.
func (e *Encounter) abandon(g *ghost.Ghost, reason string) {
	e.removeGhost(g.ID)
	e.metrics.RecordAbandoned()
	e.emit(events.EventTypeGhostAbandoned, ghostTarget(g.ID), ghostPayload(g, reason))
	e.logger.With("ghost", g.ID).Warn("confrontation abandoned: " + reason)
}

func (e *Encounter) removeGhost(id int) {
	delete(e.ghosts, id)
	if e.combatGhost == id {
		e.combatGhost = 0
	}
}
