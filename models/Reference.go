package models

// Glassware is a static reference row keyed by a slug such as "coupe".
type Glassware struct {
	ID        string `gorm:"primaryKey;type:varchar(64)" json:"id" yaml:"id"`
	Name      string `gorm:"not null" json:"name" yaml:"name"`
	ImagePath string `gorm:"not null" json:"image_path" yaml:"image_path"`
}

// MeasureUnit is a static reference row used by cocktail ingredient lines.
type MeasureUnit struct {
	ID     uint   `gorm:"primaryKey;autoIncrement:false" json:"id" yaml:"id"`
	Name   string `gorm:"not null" json:"name" yaml:"name"`
	Plural string `gorm:"not null" json:"plural" yaml:"plural"`
}
