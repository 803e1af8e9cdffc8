package hunter

import (
	"testing"

	"github.com/ghostguild/ghg-server/internal/domain/arena"
)

func TestNewHunterStartsFull(t *testing.T) {
	h := New("warrior", "Father Dave", 120)

	if h.Health != 120 || h.Shield != MaxShield || h.Energy != MaxEnergy {
		t.Errorf("vitals = %d/%d/%d, want 120/100/100", h.Health, h.Shield, h.Energy)
	}
	if h.Level != 1 || h.XP != 0 || h.KillCount != 0 {
		t.Errorf("progression = lvl %d xp %d kills %d, want 1/0/0", h.Level, h.XP, h.KillCount)
	}
	if h.Position != arena.HunterStart {
		t.Errorf("Position = %+v, want %+v", h.Position, arena.HunterStart)
	}
}

func TestIncapacitateAndRestore(t *testing.T) {
	h := New("mage", "Inquisitor", 80)
	h.XP = 30
	h.Level = 3

	h.Incapacitate(180)
	if h.Health != 0 || h.Shield != 0 || h.Energy != 0 {
		t.Errorf("vitals after defeat = %d/%d/%d, want zeros", h.Health, h.Shield, h.Energy)
	}
	if !h.InRecovery || h.RecoveryRemaining != 180 {
		t.Errorf("recovery = %v/%d, want true/180", h.InRecovery, h.RecoveryRemaining)
	}

	h.Restore()
	if h.Health != 80 || h.Shield != 100 || h.Energy != 100 || h.InRecovery {
		t.Errorf("after restore = %+v", h)
	}
	if h.XP != 30 || h.Level != 3 {
		t.Errorf("restore must keep progression, got xp %d lvl %d", h.XP, h.Level)
	}
}

func TestHealAndRechargeCap(t *testing.T) {
	h := New("paladin", "Vega", 100)
	h.Health = 95
	h.Energy = 90

	if got := h.Heal(10); got != 5 || h.Health != 100 {
		t.Errorf("Heal gained %d, health %d; want 5, 100", got, h.Health)
	}
	if got := h.Recharge(20); got != 10 || h.Energy != 100 {
		t.Errorf("Recharge gained %d, energy %d; want 10, 100", got, h.Energy)
	}
}
