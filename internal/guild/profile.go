package guild

import (
	"time"

	"github.com/ghostguild/ghg-server/internal/domain/catalog"
	"github.com/ghostguild/ghg-server/internal/domain/rules"
	"github.com/ghostguild/ghg-server/internal/infra/storage"
)

// Profile is everything the guild screens show for one user.
type Profile struct {
	UserID    string          `json:"user_id"`
	Ectos     int             `json:"ectos"`
	Materials []Material      `json:"materials"`
	Equipment []Item          `json:"equipment"`
	Bestiary  []BestiaryEntry `json:"bestiary"`
	Skills    []Skill         `json:"skills"`
	Recipes   []Recipe        `json:"recipes"`
}

type Material struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Rarity      string `json:"rarity"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
}

type Item struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Rarity    string         `json:"rarity"`
	Stats     map[string]int `json:"stats"`
	Equipped  bool           `json:"equipped"`
	Crafted   bool           `json:"crafted"`
	CreatedAt time.Time      `json:"created_at"`
}

type BestiaryEntry struct {
	ID             string    `json:"id"`
	GhostName      string    `json:"ghost_name"`
	LocationID     string    `json:"location_id"`
	Encounters     int       `json:"encounters"`
	Defeats        int       `json:"defeats"`
	FirstEncounter time.Time `json:"first_encounter"`
	LastEncounter  time.Time `json:"last_encounter"`
}

// Skill is one node of a user's skill tree with its next upgrade price.
type Skill struct {
	ID          string `json:"id"`
	SkillID     string `json:"skill_id"`
	Name        string `json:"name"`
	Type        string `json:"skill_type"`
	Level       int    `json:"level"`
	MaxLevel    int    `json:"max_level"`
	Unlocked    bool   `json:"unlocked"`
	Description string `json:"description"`
	UpgradeCost int    `json:"upgrade_cost"`
	CanUpgrade  bool   `json:"can_upgrade"`
}

// Recipe annotates a catalog recipe with whether the user can craft it now.
type Recipe struct {
	catalog.Recipe
	Craftable bool `json:"craftable"`
}

func materialFrom(r storage.Record) Material {
	return Material{
		ID:          r.Text("id"),
		Name:        r.Text("name"),
		Rarity:      r.Text("rarity"),
		Quantity:    r.Int("quantity"),
		Description: r.Text("description"),
	}
}

func itemFrom(r storage.Record) Item {
	return Item{
		ID:        r.Text("id"),
		Name:      r.Text("name"),
		Type:      r.Text("type"),
		Rarity:    r.Text("rarity"),
		Stats:     r.IntMap("stats"),
		Equipped:  r.Bool("equipped"),
		Crafted:   r.Bool("crafted"),
		CreatedAt: r.Time("created_at"),
	}
}

func bestiaryFrom(r storage.Record) BestiaryEntry {
	return BestiaryEntry{
		ID:             r.Text("id"),
		GhostName:      r.Text("ghost_name"),
		LocationID:     r.Text("location_id"),
		Encounters:     r.Int("encounters"),
		Defeats:        r.Int("defeats"),
		FirstEncounter: r.Time("first_encounter"),
		LastEncounter:  r.Time("last_encounter"),
	}
}

func skillFrom(r storage.Record, ectos int) Skill {
	level, maxLevel, unlocked := r.Int("level"), r.Int("max_level"), r.Bool("unlocked")
	return Skill{
		ID:          r.Text("id"),
		SkillID:     r.Text("skill_id"),
		Name:        r.Text("name"),
		Type:        r.Text("skill_type"),
		Level:       level,
		MaxLevel:    maxLevel,
		Unlocked:    unlocked,
		Description: r.Text("description"),
		UpgradeCost: rules.SkillUpgradeCost(level),
		CanUpgrade:  rules.CanUpgradeSkill(unlocked, level, maxLevel, ectos),
	}
}

func recipeFrom(r storage.Record) catalog.Recipe {
	return catalog.Recipe{
		ID:                r.Text("id"),
		ItemName:          r.Text("item_name"),
		ItemType:          catalog.EquipmentType(r.Text("item_type")),
		Rarity:            catalog.Rarity(r.Text("rarity")),
		RequiredMaterials: r.IntMap("required_materials"),
		Stats:             r.IntMap("stats"),
		Description:       r.Text("description"),
	}
}

// ownedMaterials sums quantities by normalized material name.
func ownedMaterials(ms []Material) map[string]int {
	owned := make(map[string]int, len(ms))
	for _, m := range ms {
		owned[rules.MaterialKey(m.Name)] += m.Quantity
	}
	return owned
}
