// Package cache keeps the ingredient lists shown by the bar views so that
// switching between views does not reload them from storage.
package cache

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"barkeep/models"
)

// ListKey names one of the cached ingredient views.
type ListKey string

const (
	All      ListKey = "all"
	My       ListKey = "my"
	Shopping ListKey = "shopping"
)

// Keys lists every cached view.
var Keys = []ListKey{All, My, Shopping}

// ParseListKey validates a view name.
func ParseListKey(value string) (ListKey, error) {
	switch key := ListKey(value); key {
	case All, My, Shopping:
		return key, nil
	case "":
		return All, nil
	default:
		return "", fmt.Errorf("unknown ingredient list %q", value)
	}
}

// Includes reports whether an ingredient belongs to the view.
func (k ListKey) Includes(ingredient models.Ingredient) bool {
	switch k {
	case My:
		return ingredient.InBar
	case Shopping:
		return ingredient.InShoppingList
	default:
		return true
	}
}

// Lists caches ingredient slices per view. Entries have no TTL; they stay
// valid until invalidated or patched by a mutation. Stored and returned slices
// are copies, so callers may modify them freely.
type Lists struct {
	mu      sync.RWMutex
	entries map[ListKey][]models.Ingredient
}

// NewLists returns an empty cache.
func NewLists() *Lists {
	return &Lists{entries: make(map[ListKey][]models.Ingredient)}
}

// Get returns the cached list for key.
func (c *Lists) Get(key ListKey) ([]models.Ingredient, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return clone(data), true
}

// Set replaces the cached list for key.
func (c *Lists) Set(key ListKey, data []models.Ingredient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = clone(data)
}

// Invalidate drops the given keys, or every key when none are given.
func (c *Lists) Invalidate(keys ...ListKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		c.entries = make(map[ListKey][]models.Ingredient)
		return
	}
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// Patch writes an updated ingredient through every cached list. The ingredient
// replaces its old copy, is appended to lists it now belongs to and is removed
// from lists it no longer belongs to.
func (c *Lists) Patch(ingredient models.Ingredient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, data := range c.entries {
		c.entries[key] = patchList(key, data, ingredient)
	}
}

// Remove drops an ingredient from every cached list.
func (c *Lists) Remove(id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, data := range c.entries {
		kept := data[:0:0]
		for _, item := range data {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		c.entries[key] = kept
	}
}

func patchList(key ListKey, data []models.Ingredient, ingredient models.Ingredient) []models.Ingredient {
	belongs := key.Includes(ingredient)
	out := make([]models.Ingredient, 0, len(data)+1)
	found := false
	for _, item := range data {
		if item.ID != ingredient.ID {
			out = append(out, item)
			continue
		}
		found = true
		if belongs {
			out = append(out, cloneIngredient(ingredient))
		}
	}
	if belongs && !found {
		out = append(out, cloneIngredient(ingredient))
		slices.SortStableFunc(out, compareByName)
	}
	return out
}

// compareByName matches the "lower(name), id" ordering used by the store.
func compareByName(a, b models.Ingredient) int {
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func clone(data []models.Ingredient) []models.Ingredient {
	if data == nil {
		return nil
	}
	out := make([]models.Ingredient, len(data))
	for i, item := range data {
		out[i] = cloneIngredient(item)
	}
	return out
}

func cloneIngredient(item models.Ingredient) models.Ingredient {
	item.Tags = append([]models.Tag(nil), item.Tags...)
	if item.BaseIngredientID != nil {
		base := *item.BaseIngredientID
		item.BaseIngredientID = &base
	}
	return item
}
