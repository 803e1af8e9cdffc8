package rules

// RequiredXP is the experience needed to advance past level.
func RequiredXP(level int) int {
	return level * 50
}

// ApplyXP adds gain to xp and advances at most one level.
// A grant that would cross two thresholds still advances only once; the
// surplus stays in xp.
func ApplyXP(xp, level, gain int) (newXP, newLevel int, leveled bool) {
	newXP = xp + gain
	need := RequiredXP(level)
	if newXP >= need {
		return newXP - need, level + 1, true
	}
	return newXP, level, false
}
