// Package guild is the persistence-side collaborator of the encounter core.
// It owns everything a hunter keeps between fights: materials, equipment,
// bestiary entries, the skill tree, crafting recipes and the ECTOS wallet.
package guild

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ghostguild/ghg-server/internal/domain/catalog"
	"github.com/ghostguild/ghg-server/internal/domain/rules"
	"github.com/ghostguild/ghg-server/internal/infra/storage"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
)

var (
	ErrSkillLocked       = errors.New("guild: skill is locked")
	ErrSkillMaxed        = errors.New("guild: skill is at max level")
	ErrInsufficientEctos = errors.New("guild: not enough ECTOS")
	ErrMissingMaterials  = errors.New("guild: missing materials")
	ErrUnknownRecipe     = errors.New("guild: unknown recipe")
	ErrUnknownSkill      = errors.New("guild: unknown skill")
	ErrUnknownItem       = errors.New("guild: unknown item")
)

// Service reads and mutates a user's guild records through a storage.Store.
type Service struct {
	store  storage.Store
	logger *logger.Logger
	now    func() time.Time

	// mu serializes read-modify-write sequences; the store has no transactions.
	mu sync.Mutex
}

func NewService(store storage.Store, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log,
		now:    time.Now,
	}
}

// LoadProfile gathers everything the guild screens show. Storage failures
// are logged and degrade to empty sections; it never fails.
func (s *Service) LoadProfile(ctx context.Context, userID string) Profile {
	p := Profile{
		UserID:    userID,
		Materials: []Material{},
		Equipment: []Item{},
		Bestiary:  []BestiaryEntry{},
		Skills:    []Skill{},
		Recipes:   []Recipe{},
	}
	user := storage.Filter{"user_id": userID}

	if recs, err := s.store.List(ctx, storage.TableMaterials, user, &storage.Order{Column: "name"}); err != nil {
		s.logger.Error("Error loading materials: " + err.Error())
	} else {
		for _, r := range recs {
			p.Materials = append(p.Materials, materialFrom(r))
		}
	}

	if recs, err := s.store.List(ctx, storage.TableEquipment, user, &storage.Order{Column: "created_at", Desc: true}); err != nil {
		s.logger.Error("Error loading equipment: " + err.Error())
	} else {
		for _, r := range recs {
			p.Equipment = append(p.Equipment, itemFrom(r))
		}
	}

	if recs, err := s.store.List(ctx, storage.TableBestiary, user, &storage.Order{Column: "last_encounter", Desc: true}); err != nil {
		s.logger.Error("Error loading bestiary: " + err.Error())
	} else {
		for _, r := range recs {
			p.Bestiary = append(p.Bestiary, bestiaryFrom(r))
		}
	}

	ectos, err := s.Ectos(ctx, userID)
	if err != nil {
		s.logger.Error("Error loading wallet: " + err.Error())
	}
	p.Ectos = ectos

	for _, r := range s.loadSkills(ctx, userID) {
		p.Skills = append(p.Skills, skillFrom(r, ectos))
	}

	owned := ownedMaterials(p.Materials)
	for _, rc := range s.loadRecipes(ctx) {
		p.Recipes = append(p.Recipes, Recipe{Recipe: rc, Craftable: rules.CanCraft(rc.RequiredMaterials, owned)})
	}
	return p
}

// loadSkills lists the user's skill tree, seeding the defaults on first use.
func (s *Service) loadSkills(ctx context.Context, userID string) []storage.Record {
	filter := storage.Filter{"user_id": userID}
	order := &storage.Order{Column: "skill_type"}

	recs, err := s.store.List(ctx, storage.TableSkills, filter, order)
	if err != nil {
		s.logger.Error("Error loading skills: " + err.Error())
		return nil
	}
	if len(recs) > 0 {
		return recs
	}

	s.logger.With("user", userID).Info("Seeding default skill tree")
	for _, def := range catalog.DefaultSkills {
		_, err := s.store.Create(ctx, storage.TableSkills, storage.Record{
			"id":          userID + "_" + def.ID,
			"user_id":     userID,
			"skill_id":    def.ID,
			"name":        def.Name,
			"skill_type":  string(def.Type),
			"level":       0,
			"max_level":   def.MaxLevel,
			"unlocked":    def.Unlocked,
			"description": def.Description,
		})
		if err != nil {
			s.logger.Error("Error seeding skill " + def.ID + ": " + err.Error())
		}
	}

	recs, err = s.store.List(ctx, storage.TableSkills, filter, order)
	if err != nil {
		s.logger.Error("Error loading skills: " + err.Error())
		return nil
	}
	return recs
}

// loadRecipes lists the global recipe table, seeding it when empty.
func (s *Service) loadRecipes(ctx context.Context) []catalog.Recipe {
	recs, err := s.store.List(ctx, storage.TableRecipes, nil, &storage.Order{Column: "rarity"})
	if err != nil {
		s.logger.Error("Error loading recipes: " + err.Error())
		return nil
	}

	var out []catalog.Recipe
	if len(recs) == 0 {
		s.logger.Info("Seeding default crafting recipes")
		for _, rc := range catalog.DefaultRecipes {
			_, err := s.store.Create(ctx, storage.TableRecipes, storage.Record{
				"id":                 rc.ID,
				"item_name":          rc.ItemName,
				"item_type":          string(rc.ItemType),
				"rarity":             string(rc.Rarity),
				"required_materials": rc.RequiredMaterials,
				"stats":              rc.Stats,
				"description":        rc.Description,
			})
			if err != nil {
				s.logger.Error("Error seeding recipe " + rc.ID + ": " + err.Error())
				continue
			}
			out = append(out, rc)
		}
	} else {
		for _, r := range recs {
			out = append(out, recipeFrom(r))
		}
	}
	catalog.SortRecipes(out)
	return out
}

// UpgradeSkill raises a skill one level, paying (level+1)*10 ECTOS. The level
// is written before the wallet is charged and reverted if the charge fails.
func (s *Service) UpgradeSkill(ctx context.Context, userID, skillID string) (Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.List(ctx, storage.TableSkills, storage.Filter{"user_id": userID, "skill_id": skillID}, nil)
	if err != nil {
		return Skill{}, fmt.Errorf("failed to load skill: %w", err)
	}
	if len(recs) == 0 {
		return Skill{}, fmt.Errorf("%w: %q", ErrUnknownSkill, skillID)
	}
	rec := recs[0]
	level, maxLevel := rec.Int("level"), rec.Int("max_level")

	if !rec.Bool("unlocked") {
		return Skill{}, fmt.Errorf("%w: %q", ErrSkillLocked, skillID)
	}
	if level >= maxLevel {
		return Skill{}, fmt.Errorf("%w: %q", ErrSkillMaxed, skillID)
	}
	ectos, err := s.Ectos(ctx, userID)
	if err != nil {
		return Skill{}, fmt.Errorf("failed to load wallet: %w", err)
	}
	cost := rules.SkillUpgradeCost(level)
	if !rules.CanUpgradeSkill(true, level, maxLevel, ectos) {
		return Skill{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientEctos, cost, ectos)
	}

	id := rec.Text("id")
	if err := s.store.Update(ctx, storage.TableSkills, id, storage.Record{"level": level + 1}); err != nil {
		return Skill{}, fmt.Errorf("failed to upgrade skill: %w", err)
	}
	if _, err := s.addEctos(ctx, userID, -cost); err != nil {
		if rerr := s.store.Update(context.WithoutCancel(ctx), storage.TableSkills, id, storage.Record{"level": level}); rerr != nil {
			s.logger.With("skill", id).Error("Failed to roll back skill level: " + rerr.Error())
		}
		return Skill{}, fmt.Errorf("failed to debit wallet: %w", err)
	}
	rec["level"] = level + 1

	s.logger.Event("SKILL_UPGRADED", userID, fmt.Sprintf("%s -> %d", skillID, level+1))
	return skillFrom(rec, ectos-cost), nil
}

// Craft consumes a recipe's materials and adds the crafted item to the
// user's equipment. On error every debited material is put back.
func (s *Service) Craft(ctx context.Context, userID, recipeID string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.List(ctx, storage.TableRecipes, storage.Filter{"id": recipeID}, nil)
	if err != nil {
		return Item{}, fmt.Errorf("failed to load recipe: %w", err)
	}
	if len(recs) == 0 {
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownRecipe, recipeID)
	}
	recipe := recipeFrom(recs[0])

	matRecs, err := s.store.List(ctx, storage.TableMaterials, storage.Filter{"user_id": userID}, &storage.Order{Column: "created_at"})
	if err != nil {
		return Item{}, fmt.Errorf("failed to load materials: %w", err)
	}
	mats := make([]Material, 0, len(matRecs))
	for _, r := range matRecs {
		mats = append(mats, materialFrom(r))
	}
	if !rules.CanCraft(recipe.RequiredMaterials, ownedMaterials(mats)) {
		return Item{}, fmt.Errorf("%w for %q", ErrMissingMaterials, recipeID)
	}

	var taken []Material
	for key, need := range recipe.RequiredMaterials {
		for _, m := range mats {
			if need == 0 {
				break
			}
			if rules.MaterialKey(m.Name) != key || m.Quantity == 0 {
				continue
			}
			take := min(need, m.Quantity)
			if err := s.store.Update(ctx, storage.TableMaterials, m.ID, storage.Record{"quantity": m.Quantity - take}); err != nil {
				s.restore(ctx, taken)
				return Item{}, fmt.Errorf("failed to debit %s: %w", m.Name, err)
			}
			taken = append(taken, m)
			need -= take
		}
	}

	rec, err := s.store.Create(ctx, storage.TableEquipment, storage.Record{
		"user_id":  userID,
		"name":     recipe.ItemName,
		"type":     string(recipe.ItemType),
		"rarity":   string(recipe.Rarity),
		"stats":    recipe.Stats,
		"equipped": false,
		"crafted":  true,
	})
	if err != nil {
		s.restore(ctx, taken)
		return Item{}, fmt.Errorf("failed to create crafted item: %w", err)
	}

	s.logger.Event("ITEM_CRAFTED", userID, recipe.ItemName)
	return itemFrom(rec), nil
}

// restore puts debited materials back to the quantities they had before
// Craft took from them, newest first. A failed restore is only logged.
func (s *Service) restore(ctx context.Context, taken []Material) {
	ctx = context.WithoutCancel(ctx)
	for i := len(taken) - 1; i >= 0; i-- {
		m := taken[i]
		if err := s.store.Update(ctx, storage.TableMaterials, m.ID, storage.Record{"quantity": m.Quantity}); err != nil {
			s.logger.With("material", m.ID).Error("Failed to restore " + m.Name + ": " + err.Error())
		}
	}
}

// Equip marks an owned item equipped and unequips others of its type.
func (s *Service) Equip(ctx context.Context, userID, itemID string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.List(ctx, storage.TableEquipment, storage.Filter{"user_id": userID}, nil)
	if err != nil {
		return Item{}, fmt.Errorf("failed to load equipment: %w", err)
	}

	var target storage.Record
	for _, r := range recs {
		if r.Text("id") == itemID {
			target = r
			break
		}
	}
	if target == nil {
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}

	for _, r := range recs {
		if r.Text("id") != itemID && r.Text("type") == target.Text("type") && r.Bool("equipped") {
			if err := s.store.Update(ctx, storage.TableEquipment, r.Text("id"), storage.Record{"equipped": false}); err != nil {
				return Item{}, fmt.Errorf("failed to unequip %s: %w", r.Text("name"), err)
			}
		}
	}
	if err := s.store.Update(ctx, storage.TableEquipment, itemID, storage.Record{"equipped": true}); err != nil {
		return Item{}, fmt.Errorf("failed to equip: %w", err)
	}
	target["equipped"] = true
	return itemFrom(target), nil
}

// Ectos returns the wallet balance, zero when the user has no wallet yet.
func (s *Service) Ectos(ctx context.Context, userID string) (int, error) {
	recs, err := s.store.List(ctx, storage.TableWallet, storage.Filter{"user_id": userID}, nil)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}
	return recs[0].Int("ectos"), nil
}

// AddEctos credits (or debits, for negative delta) the wallet.
func (s *Service) AddEctos(ctx context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEctos(ctx, userID, delta)
}

func (s *Service) addEctos(ctx context.Context, userID string, delta int) (int, error) {
	recs, err := s.store.List(ctx, storage.TableWallet, storage.Filter{"user_id": userID}, nil)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		balance := max(0, delta)
		_, err := s.store.Create(ctx, storage.TableWallet, storage.Record{
			"id":         userID,
			"user_id":    userID,
			"ectos":      balance,
			"updated_at": s.now(),
		})
		return balance, err
	}
	balance := max(0, recs[0].Int("ectos")+delta)
	err = s.store.Update(ctx, storage.TableWallet, recs[0].Text("id"), storage.Record{
		"ectos":      balance,
		"updated_at": s.now(),
	})
	return balance, err
}

// AddMaterial stacks qty of a dropped material onto the user's inventory.
func (s *Service) AddMaterial(ctx context.Context, userID string, drop catalog.MaterialDrop, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.List(ctx, storage.TableMaterials, storage.Filter{"user_id": userID, "name": drop.Name}, nil)
	if err != nil {
		return err
	}
	if len(recs) > 0 {
		return s.store.Update(ctx, storage.TableMaterials, recs[0].Text("id"), storage.Record{
			"quantity": recs[0].Int("quantity") + qty,
		})
	}
	_, err = s.store.Create(ctx, storage.TableMaterials, storage.Record{
		"user_id":     userID,
		"name":        drop.Name,
		"rarity":      string(drop.Rarity),
		"quantity":    qty,
		"description": drop.Description,
	})
	return err
}

// RecordBestiary notes a sighting (defeated=false) or a banishment of a
// ghost type at the given time.
func (s *Service) RecordBestiary(ctx context.Context, userID, ghostName, locationID string, defeated bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.List(ctx, storage.TableBestiary, storage.Filter{"user_id": userID, "ghost_name": ghostName}, nil)
	if err != nil {
		return err
	}
	if len(recs) > 0 {
		changes := storage.Record{"last_encounter": at, "location_id": locationID}
		if defeated {
			changes["defeats"] = recs[0].Int("defeats") + 1
		} else {
			changes["encounters"] = recs[0].Int("encounters") + 1
		}
		return s.store.Update(ctx, storage.TableBestiary, recs[0].Text("id"), changes)
	}

	rec := storage.Record{
		"user_id":         userID,
		"ghost_name":      ghostName,
		"location_id":     locationID,
		"encounters":      1,
		"defeats":         0,
		"first_encounter": at,
		"last_encounter":  at,
	}
	if defeated {
		rec["defeats"] = 1
	}
	_, err = s.store.Create(ctx, storage.TableBestiary, rec)
	return err
}
