package models

import (
	"gorm.io/gorm"
)

type Ingredient struct {
	gorm.Model
	Name        string `gorm:"not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	PhotoRef    string `json:"photo_ref"`
	Tags        []Tag  `gorm:"serializer:json" json:"tags"`

	// BaseIngredientID marks the ingredient as a branded variant of another
	// ingredient. The referenced ingredient never has a base of its own.
	BaseIngredientID *uint `gorm:"index" json:"base_ingredient_id,omitempty"`

	InBar          bool `gorm:"not null;default:false;index" json:"in_bar"`
	InShoppingList bool `gorm:"not null;default:false;index" json:"in_shopping_list"`
}

// IsBranded reports whether the ingredient points at a base ingredient.
func (i Ingredient) IsBranded() bool {
	return i.BaseIngredientID != nil && *i.BaseIngredientID != 0
}
