package models

import "regexp"

var tagColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Tag is the value embedded in ingredient and cocktail rows. It mirrors the
// tag tables at the time the row was saved.
type Tag struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsBuiltIn bool   `json:"is_built_in"`
}

// IngredientTag is a row of the ingredient_tags table.
type IngredientTag struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"uniqueIndex;not null" json:"name"`
	Color     string `gorm:"type:varchar(7);not null" json:"color"`
	IsBuiltIn bool   `gorm:"not null;default:false" json:"is_built_in"`
}

// CocktailTag is a row of the cocktail_tags table.
type CocktailTag struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"uniqueIndex;not null" json:"name"`
	Color     string `gorm:"type:varchar(7);not null" json:"color"`
	IsBuiltIn bool   `gorm:"not null;default:false" json:"is_built_in"`
}

// AsTag converts the row into the embeddable value.
func (t IngredientTag) AsTag() Tag {
	return Tag{ID: t.ID, Name: t.Name, Color: t.Color, IsBuiltIn: t.IsBuiltIn}
}

// AsTag converts the row into the embeddable value.
func (t CocktailTag) AsTag() Tag {
	return Tag{ID: t.ID, Name: t.Name, Color: t.Color, IsBuiltIn: t.IsBuiltIn}
}

// ValidTagColor reports whether color is an RGB hex string such as "#4DABF7".
func ValidTagColor(color string) bool {
	return tagColorPattern.MatchString(color)
}
