package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"barkeep/models"
)

//go:embed reference.yaml
var referenceYAML []byte

type referenceTag struct {
	ID      uint   `yaml:"id"`
	Name    string `yaml:"name"`
	Color   string `yaml:"color"`
	BuiltIn bool   `yaml:"built_in"`
}

// Reference is the built-in data seeded into a fresh database.
type Reference struct {
	Glassware      []models.Glassware   `yaml:"glassware"`
	Units          []models.MeasureUnit `yaml:"units"`
	IngredientTags []referenceTag       `yaml:"ingredient_tags"`
	CocktailTags   []referenceTag       `yaml:"cocktail_tags"`
}

var (
	referenceOnce sync.Once
	reference     Reference
	referenceErr  error
)

// LoadReference parses the embedded reference file once.
func LoadReference() (Reference, error) {
	referenceOnce.Do(func() {
		referenceErr = yaml.Unmarshal(referenceYAML, &reference)
		if referenceErr != nil {
			referenceErr = fmt.Errorf("parse reference data: %w", referenceErr)
		}
	})
	return reference, referenceErr
}

// SeedReference inserts the built-in reference rows. Rows that already exist
// are left untouched, so calling it on every start is safe.
func (s *Store) SeedReference(ctx context.Context) error {
	ref, err := LoadReference()
	if err != nil {
		return err
	}

	ingredientTags := make([]models.IngredientTag, 0, len(ref.IngredientTags))
	for _, tag := range ref.IngredientTags {
		ingredientTags = append(ingredientTags, models.IngredientTag{ID: tag.ID, Name: tag.Name, Color: tag.Color, IsBuiltIn: tag.BuiltIn})
	}
	cocktailTags := make([]models.CocktailTag, 0, len(ref.CocktailTags))
	for _, tag := range ref.CocktailTags {
		cocktailTags = append(cocktailTags, models.CocktailTag{ID: tag.ID, Name: tag.Name, Color: tag.Color, IsBuiltIn: tag.BuiltIn})
	}

	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		ignore := tx.Clauses(clause.OnConflict{DoNothing: true})
		if err := ignore.Create(&ref.Glassware).Error; err != nil {
			return fmt.Errorf("glassware: %w", err)
		}
		if err := ignore.Create(&ref.Units).Error; err != nil {
			return fmt.Errorf("measure units: %w", err)
		}
		if err := ignore.Create(&ingredientTags).Error; err != nil {
			return fmt.Errorf("ingredient tags: %w", err)
		}
		if err := ignore.Create(&cocktailTags).Error; err != nil {
			return fmt.Errorf("cocktail tags: %w", err)
		}
		return nil
	})
	return wrap("seed reference data", err)
}

// Glassware lists every glass ordered by name.
func (s *Store) Glassware(ctx context.Context) ([]models.Glassware, error) {
	var glasses []models.Glassware
	if err := s.conn(ctx).Order("lower(name) asc").Find(&glasses).Error; err != nil {
		return nil, wrap("list glassware", err)
	}
	return glasses, nil
}

// MeasureUnits lists every unit ordered by id.
func (s *Store) MeasureUnits(ctx context.Context) ([]models.MeasureUnit, error) {
	var units []models.MeasureUnit
	if err := s.conn(ctx).Order("id asc").Find(&units).Error; err != nil {
		return nil, wrap("list measure units", err)
	}
	return units, nil
}

// IngredientTags lists ingredient tags, built-in ones first.
func (s *Store) IngredientTags(ctx context.Context) ([]models.IngredientTag, error) {
	var tags []models.IngredientTag
	if err := s.conn(ctx).Order("id asc").Find(&tags).Error; err != nil {
		return nil, wrap("list ingredient tags", err)
	}
	return tags, nil
}

// CocktailTags lists cocktail tags ordered by id.
func (s *Store) CocktailTags(ctx context.Context) ([]models.CocktailTag, error) {
	var tags []models.CocktailTag
	if err := s.conn(ctx).Order("id asc").Find(&tags).Error; err != nil {
		return nil, wrap("list cocktail tags", err)
	}
	return tags, nil
}

// CreateIngredientTag adds a custom ingredient tag. Ids are assigned after the
// highest existing id so they never collide with the seeded built-in ids.
func (s *Store) CreateIngredientTag(ctx context.Context, name, color string) (models.IngredientTag, error) {
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if name == "" {
		return models.IngredientTag{}, fmt.Errorf("%w: name is required", ErrInvalidTag)
	}
	if !models.ValidTagColor(color) {
		return models.IngredientTag{}, fmt.Errorf("%w: color %q is not #RRGGBB", ErrInvalidTag, color)
	}

	tag := models.IngredientTag{Name: name, Color: color}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.IngredientTag{}).Where("lower(name) = ?", strings.ToLower(name)).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: tag %q already exists", ErrInvalidTag, name)
		}

		var maxID uint
		if err := tx.Model(&models.IngredientTag{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return err
		}
		tag.ID = maxID + 1
		return tx.Create(&tag).Error
	})
	if err != nil {
		return models.IngredientTag{}, wrap("create ingredient tag", err)
	}
	return tag, nil
}

// ResolveIngredientTags turns tag ids into embeddable values, keeping the
// order of ids.
func (s *Store) ResolveIngredientTags(ctx context.Context, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var rows []models.IngredientTag
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, wrap("resolve ingredient tags", err)
	}
	byID := make(map[uint]models.Tag, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.AsTag()
	}
	return orderTags(ids, byID)
}

// ResolveCocktailTags turns tag ids into embeddable values, keeping the order
// of ids.
func (s *Store) ResolveCocktailTags(ctx context.Context, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var rows []models.CocktailTag
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, wrap("resolve cocktail tags", err)
	}
	byID := make(map[uint]models.Tag, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.AsTag()
	}
	return orderTags(ids, byID)
}

func orderTags(ids []uint, byID map[uint]models.Tag) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		tag, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown tag %d", ErrInvalidTag, id)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
