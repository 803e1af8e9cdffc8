package rules

import (
	"testing"

	"pgregory.net/rapid"
)

func TestSpawnStats(t *testing.T) {
	tests := []struct {
		difficulty, health, damage, xp int
	}{
		{1, 80, 20, 50},
		{2, 100, 25, 65},
		{3, 120, 30, 80},
	}
	for _, tt := range tests {
		if got := GhostMaxHealth(tt.difficulty); got != tt.health {
			t.Errorf("GhostMaxHealth(%d) = %d, want %d", tt.difficulty, got, tt.health)
		}
		if got := GhostDamage(tt.difficulty); got != tt.damage {
			t.Errorf("GhostDamage(%d) = %d, want %d", tt.difficulty, got, tt.damage)
		}
		if got := VictoryXP(tt.difficulty); got != tt.xp {
			t.Errorf("VictoryXP(%d) = %d, want %d", tt.difficulty, got, tt.xp)
		}
	}
}

func TestHunterWinsBoundary(t *testing.T) {
	if HunterWins(0.39) {
		t.Error("roll 0.39 should be a ghost win")
	}
	if !HunterWins(0.4) {
		t.Error("roll 0.4 should be a hunter win")
	}
	if !HunterWins(0.999) {
		t.Error("roll 0.999 should be a hunter win")
	}
}

func TestApplyXPExactThreshold(t *testing.T) {
	// Difficulty-1 victory at level 1: 50 XP against a 50 XP threshold.
	xp, lvl, up := ApplyXP(0, 1, VictoryXP(1))
	if !up || lvl != 2 || xp != 0 {
		t.Errorf("ApplyXP(0,1,50) = %d, %d, %v; want 0, 2, true", xp, lvl, up)
	}
}

func TestApplyXPDoesNotCascade(t *testing.T) {
	// 50 + 100 would cover levels 1 and 2; only one level is granted.
	xp, lvl, up := ApplyXP(0, 1, 150)
	if !up || lvl != 2 || xp != 100 {
		t.Errorf("ApplyXP(0,1,150) = %d, %d, %v; want 100, 2, true", xp, lvl, up)
	}
}

func TestApplyXPProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		level := rapid.IntRange(1, 50).Draw(t, "level")
		need := RequiredXP(level)

		xp, lvl, up := ApplyXP(0, level, need)
		if !up || lvl != level+1 || xp != 0 {
			t.Fatalf("exact threshold at level %d: got xp=%d lvl=%d up=%v", level, xp, lvl, up)
		}

		xp, lvl, up = ApplyXP(0, level, need-1)
		if up || lvl != level || xp != need-1 {
			t.Fatalf("threshold-1 at level %d: got xp=%d lvl=%d up=%v", level, xp, lvl, up)
		}

		gain := rapid.IntRange(0, 10*need).Draw(t, "gain")
		_, lvl, _ = ApplyXP(0, level, gain)
		if lvl > level+1 {
			t.Fatalf("gain %d at level %d advanced to %d", gain, level, lvl)
		}
	})
}

func TestSpawnStatProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := rapid.IntRange(0, 100).Draw(t, "difficulty")
		if GhostMaxHealth(d) != 60+20*d || GhostDamage(d) != 15+5*d {
			t.Fatalf("difficulty %d: health %d damage %d", d, GhostMaxHealth(d), GhostDamage(d))
		}
	})
}

func TestMaterialKey(t *testing.T) {
	tests := map[string]string{
		"Ectoplasm Residue":      "ectoplasm_residue",
		"  Phantom  Crown Shard": "phantom_crown_shard",
		"Soul\tFragment":         "soul_fragment",
	}
	for in, want := range tests {
		if got := MaterialKey(in); got != want {
			t.Errorf("MaterialKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanCraft(t *testing.T) {
	required := map[string]int{"wraith_cloth": 2, "soul_fragment": 2}

	if CanCraft(required, map[string]int{"wraith_cloth": 2, "soul_fragment": 1}) {
		t.Error("short on soul_fragment should not craft")
	}
	if !CanCraft(required, map[string]int{"wraith_cloth": 5, "soul_fragment": 2, "extra": 1}) {
		t.Error("sufficient materials should craft")
	}
}

func TestCanUpgradeSkill(t *testing.T) {
	tests := []struct {
		name                  string
		unlocked              bool
		level, maxLevel, ecto int
		want                  bool
	}{
		{"affordable", true, 0, 5, 10, true},
		{"locked", false, 0, 5, 100, false},
		{"maxed", true, 3, 3, 100, false},
		{"poor", true, 2, 5, 29, false},
		{"exact", true, 2, 5, 30, true},
	}
	for _, tt := range tests {
		if got := CanUpgradeSkill(tt.unlocked, tt.level, tt.maxLevel, tt.ecto); got != tt.want {
			t.Errorf("%s: CanUpgradeSkill = %v, want %v", tt.name, got, tt.want)
		}
	}
}
