package models

import (
	"gorm.io/gorm"
)

type Cocktail struct {
	gorm.Model
	Name            string                   `gorm:"not null;index" json:"name"`
	GlassID         string                   `json:"glass_id"`
	Tags            []Tag                    `gorm:"serializer:json" json:"tags"`
	Description     string                   `gorm:"type:text" json:"description"`
	Instructions    string                   `gorm:"type:text" json:"instructions"`
	IngredientLines []CocktailIngredientLine `gorm:"serializer:json" json:"ingredient_lines"`
	PhotoRef        string                   `json:"photo_ref"`
}

// CocktailIngredientLine is one component of a recipe together with its
// substitution policy. Lines are stored inline with the cocktail.
type CocktailIngredientLine struct {
	Order                   int     `json:"order"`
	IngredientID            uint    `json:"ingredient_id"`
	Amount                  *string `json:"amount,omitempty"`
	UnitID                  *uint   `json:"unit_id,omitempty"`
	IsGarnish               bool    `json:"is_garnish"`
	IsOptional              bool    `json:"is_optional"`
	AllowBaseSubstitution   bool    `json:"allow_base_substitution"`
	AllowBrandedSubstitutes bool    `json:"allow_branded_substitutes"`
	SubstituteIngredientIDs []uint  `json:"substitute_ingredient_ids"`
}

// CocktailIngredient is the reverse-lookup index between cocktails and the
// primary ingredients of their lines.
type CocktailIngredient struct {
	CocktailID   uint `gorm:"primaryKey;autoIncrement:false" json:"cocktail_id"`
	IngredientID uint `gorm:"primaryKey;autoIncrement:false;index" json:"ingredient_id"`
}
