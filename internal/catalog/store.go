// Package catalog persists ingredients, cocktails and the static reference
// tables, and enforces the base/branded ingredient hierarchy.
//
// Writes are last-write-wins: two concurrent toggles of the same ingredient
// are not serialized beyond what the database itself provides.
package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"barkeep/models"
)

// nameOrder sorts case-insensitively with the id as tie breaker.
const nameOrder = "lower(name) asc, id asc"

// Store is the gorm-backed record store.
type Store struct {
	db *gorm.DB
}

// New wraps an open database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func validateTags(tags []models.Tag) bool {
	for _, tag := range tags {
		if strings.TrimSpace(tag.Name) == "" || !models.ValidTagColor(tag.Color) {
			return false
		}
	}
	return true
}
