package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"barkeep/models"
)

// Filter narrows ListIngredients. Zero values do not filter.
type Filter struct {
	InBar          bool
	InShoppingList bool
	Query          string
}

var ingredientColumns = []string{"name", "description", "photo_ref", "tags", "base_ingredient_id", "in_bar", "in_shopping_list"}

// ListIngredients returns ingredients ordered by name.
func (s *Store) ListIngredients(ctx context.Context, filter Filter) ([]models.Ingredient, error) {
	query := s.conn(ctx).Order(nameOrder)
	if filter.InBar {
		query = query.Where("in_bar = ?", true)
	}
	if filter.InShoppingList {
		query = query.Where("in_shopping_list = ?", true)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		query = query.Where("lower(name) LIKE ?", "%"+q+"%")
	}

	var results []models.Ingredient
	if err := query.Find(&results).Error; err != nil {
		return nil, wrap("list ingredients", err)
	}
	return results, nil
}

// Ingredient loads one ingredient.
func (s *Store) Ingredient(ctx context.Context, id uint) (models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.conn(ctx).First(&ingredient, id).Error; err != nil {
		return models.Ingredient{}, wrap(fmt.Sprintf("load ingredient %d", id), err)
	}
	return ingredient, nil
}

// BarIngredientIDs returns the ids of every ingredient marked as in the bar.
func (s *Store) BarIngredientIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := s.conn(ctx).Model(&models.Ingredient{}).Where("in_bar = ?", true).Pluck("id", &ids).Error; err != nil {
		return nil, wrap("load bar ingredient ids", err)
	}
	return ids, nil
}

// CreateIngredient inserts a new ingredient. A requested base link is
// validated against the hierarchy rules first.
func (s *Store) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	if err := normalizeIngredient(ingredient); err != nil {
		return err
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if ingredient.IsBranded() {
			if err := validateLink(tx, 0, *ingredient.BaseIngredientID); err != nil {
				return err
			}
		} else {
			ingredient.BaseIngredientID = nil
		}
		return tx.Create(ingredient).Error
	})
	return wrap("create ingredient", err)
}

// UpdateIngredient saves every editable field of the ingredient.
func (s *Store) UpdateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	if err := normalizeIngredient(ingredient); err != nil {
		return err
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Ingredient
		if err := tx.First(&existing, ingredient.ID).Error; err != nil {
			return err
		}
		if ingredient.IsBranded() {
			if err := validateLink(tx, ingredient.ID, *ingredient.BaseIngredientID); err != nil {
				return err
			}
		} else {
			ingredient.BaseIngredientID = nil
		}
		if err := tx.Model(&existing).Select(ingredientColumns).Updates(ingredient).Error; err != nil {
			return err
		}
		return tx.First(ingredient, ingredient.ID).Error
	})
	return wrap(fmt.Sprintf("update ingredient %d", ingredient.ID), err)
}

// SetInBar updates the in-bar flag and returns the saved ingredient.
func (s *Store) SetInBar(ctx context.Context, id uint, inBar bool) (models.Ingredient, error) {
	return s.setFlag(ctx, id, "in_bar", inBar)
}

// SetInShoppingList updates the shopping-list flag and returns the saved ingredient.
func (s *Store) SetInShoppingList(ctx context.Context, id uint, inList bool) (models.Ingredient, error) {
	return s.setFlag(ctx, id, "in_shopping_list", inList)
}

func (s *Store) setFlag(ctx context.Context, id uint, column string, value bool) (models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ingredient, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&ingredient).Update(column, value).Error; err != nil {
			return err
		}
		return tx.First(&ingredient, id).Error
	})
	if err != nil {
		return models.Ingredient{}, wrap(fmt.Sprintf("set %s on ingredient %d", column, id), err)
	}
	return ingredient, nil
}

// DeleteIngredient removes an ingredient. Branded ingredients pointing at it
// are unlinked in the same transaction. Ingredients still referenced by a
// cocktail line, as primary or substitute, cannot be deleted.
func (s *Store) DeleteIngredient(ctx context.Context, id uint) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.First(&ingredient, id).Error; err != nil {
			return err
		}

		inUse, err := ingredientReferenced(tx, id)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("delete ingredient %d: %w", id, ErrIngredientInUse)
		}

		if err := tx.Model(&models.Ingredient{}).
			Where("base_ingredient_id = ?", id).
			Update("base_ingredient_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&ingredient).Error
	})
	return wrap(fmt.Sprintf("delete ingredient %d", id), err)
}

func ingredientReferenced(tx *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.CocktailIngredient{}).
		Joins("JOIN cocktails ON cocktails.id = cocktail_ingredients.cocktail_id AND cocktails.deleted_at IS NULL").
		Where("cocktail_ingredients.ingredient_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	var cocktails []models.Cocktail
	if err := tx.Select("id", "ingredient_lines").Find(&cocktails).Error; err != nil {
		return false, err
	}
	for _, cocktail := range cocktails {
		for _, line := range cocktail.IngredientLines {
			for _, substitute := range line.SubstituteIngredientIDs {
				if substitute == id {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func normalizeIngredient(ingredient *models.Ingredient) error {
	ingredient.Name = strings.TrimSpace(ingredient.Name)
	ingredient.Description = strings.TrimSpace(ingredient.Description)
	ingredient.PhotoRef = strings.TrimSpace(ingredient.PhotoRef)
	if ingredient.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidIngredient)
	}
	if !validateTags(ingredient.Tags) {
		return fmt.Errorf("%w: tags need a name and a #RRGGBB color", ErrInvalidIngredient)
	}
	if ingredient.Tags == nil {
		ingredient.Tags = []models.Tag{}
	}
	return nil
}
