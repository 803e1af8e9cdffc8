package engine

import (
	"strconv"

	"github.com/ghostguild/ghg-server/internal/domain/rules"
	"github.com/ghostguild/ghg-server/internal/events"
)

// GrantXP adds experience and advances at most one level per grant.
// It reports whether the hunter levelled up.
func (e *Encounter) GrantXP(amount int) bool {
	if e.hunter == nil || amount <= 0 {
		return false
	}
	h := e.hunter
	var leveled bool
	h.XP, h.Level, leveled = rules.ApplyXP(h.XP, h.Level, amount)
	if !leveled {
		return false
	}

	e.emit(events.EventTypeLevelUp, "", events.LevelUpPayload{Level: h.Level, XP: h.XP})
	e.logLine("🌟 Level up! You are now level " + strconv.Itoa(h.Level) + "!")
	e.banner("LEVEL UP!")
	e.logger.Event(string(events.EventTypeLevelUp), h.ProfileID, "level "+strconv.Itoa(h.Level))
	return true
}

// grantEctos credits the session total and emits the wallet intent.
func (e *Encounter) grantEctos(amount int) {
	if amount <= 0 {
		return
	}
	e.hunter.Ectos += amount
	e.emit(events.EventTypeEctosGranted, "", events.EctosGrantedPayload{Amount: amount})
}
