package catalog

import (
	"testing"

	"github.com/ghostguild/ghg-server/internal/domain/ghost"
)

func TestLookups(t *testing.T) {
	if h, ok := HunterByID("warrior"); !ok || h.MaxHealth != 120 {
		t.Errorf("HunterByID(warrior) = %+v, %v", h, ok)
	}
	if _, ok := HunterByID("bard"); ok {
		t.Error("HunterByID(bard) should miss")
	}
	if w, ok := WeaponByID("crossbow"); !ok || w.CritMultiplier != 3.0 {
		t.Errorf("WeaponByID(crossbow) = %+v, %v", w, ok)
	}
	if s, ok := ShieldByID("tower"); !ok || s.Defense != 20 {
		t.Errorf("ShieldByID(tower) = %+v, %v", s, ok)
	}
	if _, ok := ShieldByID("sword"); ok {
		t.Error("a weapon id must not resolve as a shield")
	}
	if l, ok := LocationByID("hospital"); !ok || l.Difficulty != 3 {
		t.Errorf("LocationByID(hospital) = %+v, %v", l, ok)
	}
}

func TestEveryGhostHasADrop(t *testing.T) {
	for _, name := range ghost.Names {
		if _, ok := DropFor(name); !ok {
			t.Errorf("no material drop for %q", name)
		}
	}
}

func TestSortRecipesByRarity(t *testing.T) {
	rs := []Recipe{
		{ID: "b", Rarity: RarityEpic},
		{ID: "a", Rarity: RarityCommon},
		{ID: "c", Rarity: RarityEpic},
		{ID: "d", Rarity: Rarity("mythic")},
	}
	SortRecipes(rs)

	want := []string{"a", "b", "c", "d"}
	for i, id := range want {
		if rs[i].ID != id {
			t.Fatalf("order = %v, want %v", []string{rs[0].ID, rs[1].ID, rs[2].ID, rs[3].ID}, want)
		}
	}
}
