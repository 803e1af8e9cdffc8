package engine

import (
	"github.com/ghostguild/ghg-server/internal/domain/ghost"
	"github.com/ghostguild/ghg-server/internal/events"
)

// EnterRecovery incapacitates the hunter for seconds and starts the
// countdown. Targeting ghosts fall back to roaming. It reports false if the
// hunter is already recovering or no encounter is running.
func (e *Encounter) EnterRecovery(seconds int) bool {
	if !e.active || e.hunter.InRecovery {
		return false
	}
	e.hunter.Incapacitate(seconds)

	for _, id := range e.sortedGhostIDs() {
		g := e.ghosts[id]
		if g.State == ghost.StateTargeting {
			g.Transition(ghost.StateRoaming)
		}
	}

	e.emit(events.EventTypeRecoveryStart, "", events.RecoveryPayload{Seconds: seconds})
	e.logLine("🏥 Recovery mode activated. You will be restored in 3 minutes.")
	e.logger.Warn("Hunter incapacitated, entering recovery")

	gen := e.generation
	e.sched.After(RecoveryStep, func() { e.recoveryTick(gen) })
	return true
}

func (e *Encounter) recoveryTick(gen uint64) {
	if e.stale(gen) || !e.hunter.InRecovery {
		return
	}
	e.hunter.RecoveryRemaining--
	if e.hunter.RecoveryRemaining > 0 {
		e.sched.After(RecoveryStep, func() { e.recoveryTick(gen) })
		return
	}
	e.completeRecovery()
}

// completeRecovery restores the hunter and hard-resets the arena before
// spawning restarts. Progression is kept.
func (e *Encounter) completeRecovery() {
	e.stop()
	e.hunter.Restore()

	e.logLine("💚 Recovery complete! You are ready to fight again!")
	e.banner("RECOVERY COMPLETE!")
	e.emit(events.EventTypeRecoveryComplete, "", nil)
	e.logger.Info("Hunter restored, encounter re-armed")

	e.arm()
}
