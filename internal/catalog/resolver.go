package catalog

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"barkeep/models"
)

// Role is an ingredient's position in the base/branded hierarchy. An
// ingredient is never a base and branded at the same time.
type Role string

const (
	RoleUnlinked Role = "unlinked"
	RoleBase     Role = "base"
	RoleBranded  Role = "branded"
)

// LinkBase makes ingredientID a branded variant of baseIngredientID.
func (s *Store) LinkBase(ctx context.Context, ingredientID, baseIngredientID uint) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.First(&ingredient, ingredientID).Error; err != nil {
			return err
		}
		if err := validateLink(tx, ingredientID, baseIngredientID); err != nil {
			return err
		}
		return tx.Model(&ingredient).Update("base_ingredient_id", baseIngredientID).Error
	})
	return wrap(fmt.Sprintf("link ingredient %d to base %d", ingredientID, baseIngredientID), err)
}

// UnlinkBase clears the base of ingredientID. Unlinking an ingredient without
// a base is a no-op.
func (s *Store) UnlinkBase(ctx context.Context, ingredientID uint) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.First(&ingredient, ingredientID).Error; err != nil {
			return err
		}
		if ingredient.BaseIngredientID == nil {
			return nil
		}
		return tx.Model(&ingredient).Update("base_ingredient_id", nil).Error
	})
	return wrap(fmt.Sprintf("unlink ingredient %d", ingredientID), err)
}

// BrandedFor lists the ingredients whose base is baseIngredientID.
func (s *Store) BrandedFor(ctx context.Context, baseIngredientID uint) ([]models.Ingredient, error) {
	var branded []models.Ingredient
	if err := s.conn(ctx).
		Where("base_ingredient_id = ?", baseIngredientID).
		Order(nameOrder).
		Find(&branded).Error; err != nil {
		return nil, wrap(fmt.Sprintf("list branded ingredients of %d", baseIngredientID), err)
	}
	return branded, nil
}

// BaseCandidates lists the ingredients that ingredientID could be linked to.
// An ingredient that already has branded ingredients gets no candidates.
func (s *Store) BaseCandidates(ctx context.Context, ingredientID uint) ([]models.Ingredient, error) {
	conn := s.conn(ctx)
	if ingredientID != 0 {
		count, err := brandedCount(conn, ingredientID)
		if err != nil {
			return nil, wrap("list base candidates", err)
		}
		if count > 0 {
			return []models.Ingredient{}, nil
		}
	}

	var candidates []models.Ingredient
	if err := conn.
		Where("base_ingredient_id IS NULL AND id <> ?", ingredientID).
		Order(nameOrder).
		Find(&candidates).Error; err != nil {
		return nil, wrap("list base candidates", err)
	}
	return candidates, nil
}

// Role reports the hierarchy role of an ingredient.
func (s *Store) Role(ctx context.Context, ingredientID uint) (Role, error) {
	conn := s.conn(ctx)
	var ingredient models.Ingredient
	if err := conn.First(&ingredient, ingredientID).Error; err != nil {
		return "", wrap(fmt.Sprintf("load ingredient %d", ingredientID), err)
	}
	if ingredient.IsBranded() {
		return RoleBranded, nil
	}
	count, err := brandedCount(conn, ingredientID)
	if err != nil {
		return "", wrap(fmt.Sprintf("count branded ingredients of %d", ingredientID), err)
	}
	if count > 0 {
		return RoleBase, nil
	}
	return RoleUnlinked, nil
}

// validateLink checks that ingredientID may point at baseIngredientID.
// ingredientID is zero for an ingredient that does not exist yet. Both rows
// are locked until the transaction ends, so concurrent links through the same
// ingredient are checked one after the other.
func validateLink(tx *gorm.DB, ingredientID, baseIngredientID uint) error {
	invalid := func(reason string) error {
		return &InvalidLinkError{IngredientID: ingredientID, BaseIngredientID: baseIngredientID, Reason: reason}
	}

	if baseIngredientID == 0 {
		return invalid("base ingredient is required")
	}
	if ingredientID == baseIngredientID {
		return invalid("an ingredient cannot be its own base")
	}

	base, err := lockForLink(tx, ingredientID, baseIngredientID)
	if err != nil {
		return err
	}
	if base.IsBranded() {
		return invalid(fmt.Sprintf("%q is itself a branded ingredient", base.Name))
	}

	if ingredientID != 0 {
		count, err := brandedCount(tx, ingredientID)
		if err != nil {
			return err
		}
		if count > 0 {
			return invalid("the ingredient already has branded ingredients")
		}
	}
	return nil
}

// lockForLink takes row locks on the ingredients in id order and returns the
// base. sqlite has no row locks; its single connection serializes writers.
func lockForLink(tx *gorm.DB, ingredientID, baseIngredientID uint) (models.Ingredient, error) {
	ids := []uint{baseIngredientID}
	if ingredientID != 0 {
		ids = append(ids, ingredientID)
	}
	slices.Sort(ids)

	var locked []models.Ingredient
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&locked).Error; err != nil {
		return models.Ingredient{}, err
	}
	for _, ingredient := range locked {
		if ingredient.ID == baseIngredientID {
			return ingredient, nil
		}
	}
	return models.Ingredient{}, gorm.ErrRecordNotFound
}

func brandedCount(tx *gorm.DB, baseIngredientID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Ingredient{}).Where("base_ingredient_id = ?", baseIngredientID).Count(&count).Error
	return count, err
}
