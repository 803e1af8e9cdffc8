// Package hunter defines the player aggregate of an encounter.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package hunter

import "github.com/ghostguild/ghg-server/internal/domain/arena"

const (
	MaxShield = 100
	MaxEnergy = 100
)

// Hunter is the mutable combat state of the player for one encounter session.
type Hunter struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
	MaxHealth int    `json:"max_health"`

	// Vitals
	Health int `json:"health"` // 0-MaxHealth
	Shield int `json:"shield"` // 0-100
	Energy int `json:"energy"` // 0-100

	Position arena.Vec2 `json:"position"`

	// Progression
	XP        int `json:"xp"`
	Level     int `json:"level"`
	KillCount int `json:"kill_count"`
	Ectos     int `json:"ectos"`

	// Recovery
	InRecovery        bool `json:"in_recovery"`
	RecoveryRemaining int  `json:"recovery_remaining"` // seconds
}

// New creates a hunter at full strength with fresh progression.
func New(profileID, name string, maxHealth int) *Hunter {
	h := &Hunter{
		ProfileID: profileID,
		Name:      name,
		MaxHealth: maxHealth,
	}
	h.Reset()
	return h
}

// Reset restores initial values; used for "new game".
func (h *Hunter) Reset() {
	h.Health = h.MaxHealth
	h.Shield = MaxShield
	h.Energy = MaxEnergy
	h.Position = arena.HunterStart
	h.XP = 0
	h.Level = 1
	h.KillCount = 0
	h.Ectos = 0
	h.InRecovery = false
	h.RecoveryRemaining = 0
}

// Incapacitate zeroes every vital and starts a recovery countdown.
func (h *Hunter) Incapacitate(seconds int) {
	h.Health = 0
	h.Shield = 0
	h.Energy = 0
	h.InRecovery = true
	h.RecoveryRemaining = seconds
}

// Restore ends recovery with full vitals. Progression is untouched.
func (h *Hunter) Restore() {
	h.Health = h.MaxHealth
	h.Shield = MaxShield
	h.Energy = MaxEnergy
	h.InRecovery = false
	h.RecoveryRemaining = 0
}

// Heal adds health up to MaxHealth and returns the amount actually gained.
func (h *Hunter) Heal(amount int) int {
	before := h.Health
	h.Health = min(h.MaxHealth, h.Health+amount)
	return h.Health - before
}

// Recharge adds energy up to MaxEnergy and returns the amount actually gained.
func (h *Hunter) Recharge(amount int) int {
	before := h.Energy
	h.Energy = min(MaxEnergy, h.Energy+amount)
	return h.Energy - before
}
