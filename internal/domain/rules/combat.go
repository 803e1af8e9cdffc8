// Package rules contains the pure calculation logic for game mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

// HunterWinChance is the probability the hunter wins a confrontation.
// Loadout and hunter stats do not modify it.
const HunterWinChance = 0.6

// Fixed cosmetic damage numbers shown on a confrontation outcome.
const (
	VictoryDamageNumber = 50
	DefeatDamageNumber  = 100
)

// Post-victory restoration.
const (
	VictoryEnergyRestore = 20
	VictoryHealthRestore = 10
)

// RecoverySeconds is how long a defeated hunter stays incapacitated.
const RecoverySeconds = 180

// MaxActiveGhosts caps concurrent hostiles in the arena.
const MaxActiveGhosts = 2

// GhostMaxHealth returns the health of a hostile spawned at difficulty d.
func GhostMaxHealth(difficulty int) int {
	return 60 + 20*difficulty
}

// GhostDamage returns the damage of a hostile spawned at difficulty d.
func GhostDamage(difficulty int) int {
	return 15 + 5*difficulty
}

// VictoryXP is the experience granted for banishing a hostile.
func VictoryXP(difficulty int) int {
	return 35 + 15*difficulty
}

// VictoryEctos is the ECTOS reward for banishing a hostile.
func VictoryEctos(difficulty int) int {
	return 10 * difficulty
}

// HunterWins maps a uniform roll in [0,1) to a confrontation outcome.
// Rolls in the top HunterWinChance of the range are hunter victories.
func HunterWins(roll float64) bool {
	return roll >= 1-HunterWinChance
}
