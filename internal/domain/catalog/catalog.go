// Package catalog holds the static reference data supplied to the encounter core:
// hunters, equipment, locations, loot materials, default skills and recipes.
// This package is PURE and must NOT import any infrastructure packages.
package catalog

import "sort"

// HunterProfile is a selectable player character.
type HunterProfile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Class          string `json:"class"`
	MaxHealth      int    `json:"max_health"`
	SpecialAbility string `json:"special_ability"`
	Description    string `json:"description"`
	Speed          int    `json:"speed"`
	CritChance     int    `json:"crit_chance"`
}

// EquipmentType is either a weapon or a shield. Crafting adds armor.
type EquipmentType string

const (
	EquipmentWeapon EquipmentType = "weapon"
	EquipmentShield EquipmentType = "shield"
	EquipmentArmor  EquipmentType = "armor"
)

// Equipment is a weapon or shield offered on the loadout screen.
type Equipment struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Type           EquipmentType `json:"type"`
	Damage         int           `json:"damage,omitempty"`
	Defense        int           `json:"defense,omitempty"`
	Special        string        `json:"special"`
	CritMultiplier float64       `json:"crit_multiplier,omitempty"`
	Speed          int           `json:"speed,omitempty"`
}

// Location is a haunted site. Difficulty scales hostile stats and rewards.
type Location struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Difficulty  int      `json:"difficulty"`
	Description string   `json:"description"`
	GhostTypes  []string `json:"ghost_types"`
}

// Rarity grades materials, recipes and crafted items.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// MaterialDrop describes the loot a hostile leaves behind.
type MaterialDrop struct {
	Name        string `json:"name"`
	Rarity      Rarity `json:"rarity"`
	Description string `json:"description"`
}

// SkillType groups the skill tree branches.
type SkillType string

const (
	SkillCombat   SkillType = "combat"
	SkillSurvival SkillType = "survival"
	SkillOccult   SkillType = "occult"
)

// SkillDefinition seeds a new user's skill tree.
type SkillDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        SkillType `json:"type"`
	MaxLevel    int       `json:"max_level"`
	Description string    `json:"description"`
	Unlocked    bool      `json:"unlocked"`
}

// Recipe turns loot materials into equipment.
type Recipe struct {
	ID                string         `json:"id"`
	ItemName          string         `json:"item_name"`
	ItemType          EquipmentType  `json:"item_type"`
	Rarity            Rarity         `json:"rarity"`
	RequiredMaterials map[string]int `json:"required_materials"` // normalized material name -> quantity
	Stats             map[string]int `json:"stats"`
	Description       string         `json:"description"`
}

var Hunters = []HunterProfile{
	{
		ID:             "warrior",
		Name:           `"Father Dave" Langford`,
		Class:          "Exorcist",
		MaxHealth:      120,
		SpecialAbility: "Divine Banishment",
		Description:    "A battle-hardened priest with superior combat skills and divine protection against supernatural entities.",
		Speed:          15,
		CritChance:     20,
	},
	{
		ID:             "mage",
		Name:           "The Blacklisted Inquisitor",
		Class:          "Occultist",
		MaxHealth:      80,
		SpecialAbility: "Forbidden Knowledge",
		Description:    "A mysterious occultist who deals massive magical damage using forbidden arts and ancient rituals.",
		Speed:          25,
		CritChance:     30,
	},
	{
		ID:             "paladin",
		Name:           `Vega "Overclock" Rook`,
		Class:          "Tech Specialist",
		MaxHealth:      100,
		SpecialAbility: "Spectral Override",
		Description:    "A tech specialist who uses advanced spectral technology and digital warfare against supernatural threats.",
		Speed:          10,
		CritChance:     15,
	},
}

var Weapons = []Equipment{
	{ID: "sword", Name: "Spectral Blade", Type: EquipmentWeapon, Damage: 25, Special: "Ignores ghost armor", CritMultiplier: 2.0, Speed: 10},
	{ID: "staff", Name: "Ethereal Staff", Type: EquipmentWeapon, Damage: 35, Special: "Magic damage bonus", CritMultiplier: 2.5, Speed: 15},
	{ID: "crossbow", Name: "Spirit Crossbow", Type: EquipmentWeapon, Damage: 30, Special: "Long range attacks", CritMultiplier: 3.0, Speed: 5},
}

var Shields = []Equipment{
	{ID: "tower", Name: "Tower Shield", Type: EquipmentShield, Defense: 20, Special: "High physical defense"},
	{ID: "mystic", Name: "Mystic Ward", Type: EquipmentShield, Defense: 15, Special: "Magic resistance"},
	{ID: "buckler", Name: "Spirit Buckler", Type: EquipmentShield, Defense: 10, Special: "Fast counterattacks"},
}

var Locations = []Location{
	{ID: "mansion", Name: "Haunted Mansion", Difficulty: 1, Description: "An old Victorian mansion with restless spirits.", GhostTypes: []string{"Poltergeist", "Spirit"}},
	{ID: "cemetery", Name: "Cursed Cemetery", Difficulty: 2, Description: "Ancient burial ground with powerful undead.", GhostTypes: []string{"Wraith", "Banshee"}},
	{ID: "hospital", Name: "Abandoned Hospital", Difficulty: 3, Description: "A medical facility haunted by tormented souls.", GhostTypes: []string{"Phantom", "Shadow"}},
}

// Drops maps each hostile name to the material it leaves behind.
var Drops = map[string]MaterialDrop{
	"Vengeful Spirit": {Name: "Ectoplasm Residue", Rarity: RarityCommon, Description: "Sticky green residue left by a banished spirit."},
	"Dark Wraith":     {Name: "Wraith Cloth", Rarity: RarityUncommon, Description: "A tattered shred of a wraith's shroud."},
	"Phantom Lord":    {Name: "Phantom Crown Shard", Rarity: RarityRare, Description: "A splinter of spectral royalty."},
	"Shadow Demon":    {Name: "Shadow Essence", Rarity: RarityEpic, Description: "Darkness distilled into something you can hold."},
	"Cursed Soul":     {Name: "Soul Fragment", Rarity: RarityUncommon, Description: "It still whispers."},
}

// DefaultSkills is the skill tree every new user starts with.
var DefaultSkills = []SkillDefinition{
	{ID: "combat_mastery", Name: "Combat Mastery", Type: SkillCombat, MaxLevel: 5, Description: "Increases damage by 10% per level", Unlocked: true},
	{ID: "critical_strike", Name: "Critical Strike", Type: SkillCombat, MaxLevel: 5, Description: "Increases critical hit chance by 5% per level"},
	{ID: "defensive_stance", Name: "Defensive Stance", Type: SkillCombat, MaxLevel: 3, Description: "Reduces damage taken by 15% per level"},
	{ID: "ghost_sight", Name: "Ghost Sight", Type: SkillOccult, MaxLevel: 3, Description: "Reveals ghost weaknesses and increases XP gain", Unlocked: true},
	{ID: "ectoplasm_mastery", Name: "Ectoplasm Mastery", Type: SkillOccult, MaxLevel: 5, Description: "Increases ecto drops by 20% per level"},
	{ID: "spirit_communion", Name: "Spirit Communion", Type: SkillOccult, MaxLevel: 3, Description: "Chance to avoid combat through negotiation"},
	{ID: "survival_instinct", Name: "Survival Instinct", Type: SkillSurvival, MaxLevel: 5, Description: "Increases health by 20 per level", Unlocked: true},
	{ID: "energy_conservation", Name: "Energy Conservation", Type: SkillSurvival, MaxLevel: 3, Description: "Reduces energy consumption by 25% per level"},
	{ID: "rapid_recovery", Name: "Rapid Recovery", Type: SkillSurvival, MaxLevel: 3, Description: "Reduces recovery time by 30 seconds per level"},
}

// DefaultRecipes seeds the global recipe table when it is empty.
var DefaultRecipes = []Recipe{
	{
		ID: "ecto_blade", ItemName: "Ecto-Forged Blade", ItemType: EquipmentWeapon, Rarity: RarityUncommon,
		RequiredMaterials: map[string]int{"ectoplasm_residue": 3},
		Stats:             map[string]int{"damage": 30},
		Description:       "A blade quenched in ectoplasm.",
	},
	{
		ID: "shroud_ward", ItemName: "Shroud Ward", ItemType: EquipmentShield, Rarity: RarityRare,
		RequiredMaterials: map[string]int{"wraith_cloth": 2, "soul_fragment": 2},
		Stats:             map[string]int{"defense": 25},
		Description:       "Woven from the shrouds of the restless dead.",
	},
	{
		ID: "phantom_mail", ItemName: "Phantom Mail", ItemType: EquipmentArmor, Rarity: RarityEpic,
		RequiredMaterials: map[string]int{"phantom_crown_shard": 2, "shadow_essence": 1},
		Stats:             map[string]int{"defense": 40},
		Description:       "Armor that is only partly in this world.",
	},
}

// HunterByID returns the hunter profile with the given id.
func HunterByID(id string) (HunterProfile, bool) {
	for _, h := range Hunters {
		if h.ID == id {
			return h, true
		}
	}
	return HunterProfile{}, false
}

// WeaponByID returns the weapon with the given id.
func WeaponByID(id string) (Equipment, bool) {
	return equipmentByID(Weapons, id)
}

// ShieldByID returns the shield with the given id.
func ShieldByID(id string) (Equipment, bool) {
	return equipmentByID(Shields, id)
}

func equipmentByID(list []Equipment, id string) (Equipment, bool) {
	for _, e := range list {
		if e.ID == id {
			return e, true
		}
	}
	return Equipment{}, false
}

// LocationByID returns the location with the given id.
func LocationByID(id string) (Location, bool) {
	for _, l := range Locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// DropFor returns the loot material for a hostile name.
func DropFor(ghostName string) (MaterialDrop, bool) {
	d, ok := Drops[ghostName]
	return d, ok
}

var rarityRank = map[Rarity]int{
	RarityCommon:    0,
	RarityUncommon:  1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 4,
}

// RarityRank orders rarities from common (0) to legendary (4).
func RarityRank(r Rarity) int {
	if n, ok := rarityRank[r]; ok {
		return n
	}
	return len(rarityRank)
}

// SortRecipes orders recipes by rarity, then id.
func SortRecipes(rs []Recipe) {
	sort.SliceStable(rs, func(i, j int) bool {
		ri, rj := RarityRank(rs[i].Rarity), RarityRank(rs[j].Rarity)
		if ri != rj {
			return ri < rj
		}
		return rs[i].ID < rs[j].ID
	})
}
