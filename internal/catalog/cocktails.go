package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"barkeep/models"
)

var cocktailColumns = []string{"name", "glass_id", "tags", "description", "instructions", "ingredient_lines", "photo_ref"}

// ListCocktails returns every cocktail ordered by name.
func (s *Store) ListCocktails(ctx context.Context) ([]models.Cocktail, error) {
	var cocktails []models.Cocktail
	if err := s.conn(ctx).Order(nameOrder).Find(&cocktails).Error; err != nil {
		return nil, wrap("list cocktails", err)
	}
	return cocktails, nil
}

// Cocktail loads one cocktail.
func (s *Store) Cocktail(ctx context.Context, id uint) (models.Cocktail, error) {
	var cocktail models.Cocktail
	if err := s.conn(ctx).First(&cocktail, id).Error; err != nil {
		return models.Cocktail{}, wrap(fmt.Sprintf("load cocktail %d", id), err)
	}
	return cocktail, nil
}

// CocktailsUsing lists the cocktails with a line whose primary ingredient is
// ingredientID, using the cocktail_ingredients index.
func (s *Store) CocktailsUsing(ctx context.Context, ingredientID uint) ([]models.Cocktail, error) {
	conn := s.conn(ctx)
	var cocktails []models.Cocktail
	err := conn.
		Where("id IN (?)", conn.Model(&models.CocktailIngredient{}).Select("cocktail_id").Where("ingredient_id = ?", ingredientID)).
		Order(nameOrder).
		Find(&cocktails).Error
	if err != nil {
		return nil, wrap(fmt.Sprintf("list cocktails using ingredient %d", ingredientID), err)
	}
	return cocktails, nil
}

// CreateCocktail inserts a cocktail and its index rows.
func (s *Store) CreateCocktail(ctx context.Context, cocktail *models.Cocktail) error {
	if err := normalizeCocktail(cocktail); err != nil {
		return err
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureReferencesExist(tx, cocktail); err != nil {
			return err
		}
		if err := tx.Create(cocktail).Error; err != nil {
			return err
		}
		return syncCocktailIngredients(tx, cocktail.ID, cocktail.IngredientLines)
	})
	return wrap("create cocktail", err)
}

// UpdateCocktail saves every editable field and rewrites the index rows.
func (s *Store) UpdateCocktail(ctx context.Context, cocktail *models.Cocktail) error {
	if err := normalizeCocktail(cocktail); err != nil {
		return err
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Cocktail
		if err := tx.First(&existing, cocktail.ID).Error; err != nil {
			return err
		}
		if err := ensureReferencesExist(tx, cocktail); err != nil {
			return err
		}
		if err := tx.Model(&existing).Select(cocktailColumns).Updates(cocktail).Error; err != nil {
			return err
		}
		if err := syncCocktailIngredients(tx, cocktail.ID, cocktail.IngredientLines); err != nil {
			return err
		}
		return tx.First(cocktail, cocktail.ID).Error
	})
	return wrap(fmt.Sprintf("update cocktail %d", cocktail.ID), err)
}

// DeleteCocktail removes a cocktail and its index rows.
func (s *Store) DeleteCocktail(ctx context.Context, id uint) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var cocktail models.Cocktail
		if err := tx.First(&cocktail, id).Error; err != nil {
			return err
		}
		if err := tx.Where("cocktail_id = ?", id).Delete(&models.CocktailIngredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cocktail).Error
	})
	return wrap(fmt.Sprintf("delete cocktail %d", id), err)
}

func syncCocktailIngredients(tx *gorm.DB, cocktailID uint, lines []models.CocktailIngredientLine) error {
	if err := tx.Where("cocktail_id = ?", cocktailID).Delete(&models.CocktailIngredient{}).Error; err != nil {
		return err
	}
	rows := make([]models.CocktailIngredient, 0, len(lines))
	seen := make(map[uint]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.IngredientID]; dup {
			continue
		}
		seen[line.IngredientID] = struct{}{}
		rows = append(rows, models.CocktailIngredient{CocktailID: cocktailID, IngredientID: line.IngredientID})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// ensureReferencesExist checks the glass and every ingredient a cocktail
// points at. An empty glass id means no glass.
func ensureReferencesExist(tx *gorm.DB, cocktail *models.Cocktail) error {
	if cocktail.GlassID != "" {
		var count int64
		if err := tx.Model(&models.Glassware{}).Where("id = ?", cocktail.GlassID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: unknown glass %q", ErrInvalidCocktail, cocktail.GlassID)
		}
	}
	return ensureIngredientsExist(tx, cocktail.IngredientLines)
}

func ensureIngredientsExist(tx *gorm.DB, lines []models.CocktailIngredientLine) error {
	wanted := make(map[uint]struct{})
	for _, line := range lines {
		wanted[line.IngredientID] = struct{}{}
		for _, substitute := range line.SubstituteIngredientIDs {
			wanted[substitute] = struct{}{}
		}
	}
	ids := make([]uint, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}

	var count int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return fmt.Errorf("%w: a line references an unknown ingredient", ErrInvalidCocktail)
	}
	return nil
}

// normalizeCocktail trims text fields, orders lines by their order value and
// renumbers them from 1.
func normalizeCocktail(cocktail *models.Cocktail) error {
	cocktail.Name = strings.TrimSpace(cocktail.Name)
	cocktail.GlassID = strings.TrimSpace(cocktail.GlassID)
	cocktail.Description = strings.TrimSpace(cocktail.Description)
	cocktail.Instructions = strings.TrimSpace(cocktail.Instructions)
	cocktail.PhotoRef = strings.TrimSpace(cocktail.PhotoRef)

	if cocktail.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCocktail)
	}
	if len(cocktail.IngredientLines) == 0 {
		return fmt.Errorf("%w: at least one ingredient line is required", ErrInvalidCocktail)
	}
	if !validateTags(cocktail.Tags) {
		return fmt.Errorf("%w: tags need a name and a #RRGGBB color", ErrInvalidCocktail)
	}
	if cocktail.Tags == nil {
		cocktail.Tags = []models.Tag{}
	}

	sort.SliceStable(cocktail.IngredientLines, func(i, j int) bool {
		return cocktail.IngredientLines[i].Order < cocktail.IngredientLines[j].Order
	})
	for i := range cocktail.IngredientLines {
		line := &cocktail.IngredientLines[i]
		if line.IngredientID == 0 {
			return fmt.Errorf("%w: line %d has no ingredient", ErrInvalidCocktail, i+1)
		}
		for _, substitute := range line.SubstituteIngredientIDs {
			if substitute == 0 || substitute == line.IngredientID {
				return fmt.Errorf("%w: line %d has an invalid substitute", ErrInvalidCocktail, i+1)
			}
		}
		if line.Amount != nil {
			amount := strings.TrimSpace(*line.Amount)
			if amount == "" {
				line.Amount = nil
			} else {
				line.Amount = &amount
			}
		}
		if line.SubstituteIngredientIDs == nil {
			line.SubstituteIngredientIDs = []uint{}
		}
		line.Order = i + 1
	}
	return nil
}
