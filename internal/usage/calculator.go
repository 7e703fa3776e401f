// Package usage computes how heavily each ingredient is used by a cocktail
// catalog and which cocktails can be made from the ingredients in a bar.
package usage

import (
	"barkeep/models"
)

// Usage is the derived usage statistic for one ingredient.
type Usage struct {
	Count int `json:"count"`
	// SingleCocktailName is set only while Count == 1.
	SingleCocktailName string `json:"single_cocktail_name,omitempty"`
}

// Map holds usage keyed by ingredient id. Ingredients that are never counted
// have no entry.
type Map map[uint]Usage

// Bar is the set of ingredient ids that are available. A nil Bar means the
// calculation is unscoped; an empty non-nil Bar means nothing is available.
type Bar map[uint]struct{}

// NewBar builds a Bar from a list of ids.
func NewBar(ids ...uint) Bar {
	bar := make(Bar, len(ids))
	for _, id := range ids {
		bar[id] = struct{}{}
	}
	return bar
}

// Has reports whether id is in the bar.
func (b Bar) Has(id uint) bool {
	_, ok := b[id]
	return ok
}

// IDs returns the ids in the bar in no particular order.
func (b Bar) IDs() []uint {
	ids := make([]uint, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	return ids
}

// Makeable reports whether every non-optional line of the cocktail has its
// ingredient in the bar. Substitutes are not consulted. A nil bar makes every
// cocktail makeable.
func Makeable(cocktail models.Cocktail, bar Bar) bool {
	if bar == nil {
		return true
	}
	for _, line := range cocktail.IngredientLines {
		if line.IsOptional {
			continue
		}
		if !bar.Has(line.IngredientID) {
			return false
		}
	}
	return true
}

// MissingRequired lists the required ingredient ids of the cocktail that are
// not in the bar, in line order.
func MissingRequired(cocktail models.Cocktail, bar Bar) []uint {
	if bar == nil {
		return nil
	}
	var missing []uint
	for _, line := range cocktail.IngredientLines {
		if line.IsOptional || bar.Has(line.IngredientID) {
			continue
		}
		missing = append(missing, line.IngredientID)
	}
	return missing
}

// Compute maps every ingredient id to the number of cocktail lines that use it.
//
// With a nil bar every line of every cocktail is counted. With a bar, cocktails
// that are not makeable are skipped entirely and lines of makeable cocktails
// whose ingredient is missing (optional ones) are not counted either.
// Compute never fails and does not check that ingredient ids exist.
func Compute(cocktails []models.Cocktail, bar Bar) Map {
	result := make(Map)
	for _, cocktail := range cocktails {
		if !Makeable(cocktail, bar) {
			continue
		}
		for _, line := range cocktail.IngredientLines {
			if bar != nil && !bar.Has(line.IngredientID) {
				continue
			}
			entry := result[line.IngredientID]
			entry.Count++
			if entry.Count == 1 {
				entry.SingleCocktailName = cocktail.Name
			} else {
				entry.SingleCocktailName = ""
			}
			result[line.IngredientID] = entry
		}
	}
	return result
}

// Get returns the usage for id, the zero Usage when the ingredient is unused.
func (m Map) Get(id uint) Usage {
	return m[id]
}
