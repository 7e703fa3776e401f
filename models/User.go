package models

import "gorm.io/gorm"

// User is the owner account that unlocks the bar API.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
}
