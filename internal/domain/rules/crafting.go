package rules

import "strings"

// MaterialKey normalizes a material display name into a recipe key:
// lower-case with runs of whitespace replaced by a single underscore.
func MaterialKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// CanCraft reports whether owned (keyed by MaterialKey) covers every requirement.
func CanCraft(required, owned map[string]int) bool {
	for key, need := range required {
		if owned[key] < need {
			return false
		}
	}
	return true
}

// SkillUpgradeCost is the ECTOS price of raising a skill from level to level+1.
func SkillUpgradeCost(level int) int {
	return (level + 1) * 10
}

// CanUpgradeSkill applies the skill tree gate: unlocked, below max, affordable.
func CanUpgradeSkill(unlocked bool, level, maxLevel, ectos int) bool {
	return unlocked && level < maxLevel && ectos >= SkillUpgradeCost(level)
}
