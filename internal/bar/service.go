// Package bar is the view-model layer: it serves ingredient lists through the
// list cache, keeps the cache in step with every mutation and feeds the usage
// scheduler with catalog snapshots.
package bar

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"barkeep/internal/cache"
	"barkeep/internal/catalog"
	applog "barkeep/internal/log"
	"barkeep/internal/usage"
	"barkeep/models"
)

// Catalog is the part of the record store the service depends on.
type Catalog interface {
	ListIngredients(ctx context.Context, filter catalog.Filter) ([]models.Ingredient, error)
	Ingredient(ctx context.Context, id uint) (models.Ingredient, error)
	BarIngredientIDs(ctx context.Context) ([]uint, error)
	CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error
	UpdateIngredient(ctx context.Context, ingredient *models.Ingredient) error
	SetInBar(ctx context.Context, id uint, inBar bool) (models.Ingredient, error)
	SetInShoppingList(ctx context.Context, id uint, inList bool) (models.Ingredient, error)
	DeleteIngredient(ctx context.Context, id uint) error

	LinkBase(ctx context.Context, ingredientID, baseIngredientID uint) error
	UnlinkBase(ctx context.Context, ingredientID uint) error
	BrandedFor(ctx context.Context, baseIngredientID uint) ([]models.Ingredient, error)
	BaseCandidates(ctx context.Context, ingredientID uint) ([]models.Ingredient, error)
	Role(ctx context.Context, ingredientID uint) (catalog.Role, error)

	ListCocktails(ctx context.Context) ([]models.Cocktail, error)
	Cocktail(ctx context.Context, id uint) (models.Cocktail, error)
	CocktailsUsing(ctx context.Context, ingredientID uint) ([]models.Cocktail, error)
	CreateCocktail(ctx context.Context, cocktail *models.Cocktail) error
	UpdateCocktail(ctx context.Context, cocktail *models.Cocktail) error
	DeleteCocktail(ctx context.Context, id uint) error
}

// Service owns the list cache and the usage scheduler for one bar.
type Service struct {
	store     Catalog
	lists     *cache.Lists
	scheduler *usage.Scheduler
}

// NewService wires a service. A nil cache gets a fresh one.
func NewService(store Catalog, lists *cache.Lists, scheduler *usage.Scheduler) *Service {
	if lists == nil {
		lists = cache.NewLists()
	}
	return &Service{store: store, lists: lists, scheduler: scheduler}
}

// Ingredients returns the list behind a view, from the cache when present.
func (s *Service) Ingredients(ctx context.Context, key cache.ListKey) ([]models.Ingredient, error) {
	if cached, ok := s.lists.Get(key); ok {
		applog.Debug(ctx, "ingredient list served from cache", "list", key, "count", len(cached))
		return cached, nil
	}

	filter := catalog.Filter{InBar: key == cache.My, InShoppingList: key == cache.Shopping}
	ingredients, err := s.store.ListIngredients(ctx, filter)
	if err != nil {
		applog.Error(ctx, "failed to load ingredient list", "list", key, "error", err)
		return nil, err
	}
	s.lists.Set(key, ingredients)
	return ingredients, nil
}

// Search filters ingredients by name without touching the cache.
func (s *Service) Search(ctx context.Context, query string) ([]models.Ingredient, error) {
	return s.store.ListIngredients(ctx, catalog.Filter{Query: query})
}

// Ingredient loads one ingredient.
func (s *Service) Ingredient(ctx context.Context, id uint) (models.Ingredient, error) {
	return s.store.Ingredient(ctx, id)
}

// ToggleInBar flips the in-bar flag of an ingredient.
func (s *Service) ToggleInBar(ctx context.Context, id uint) (models.Ingredient, error) {
	return s.toggle(ctx, id, "in_bar",
		func(i *models.Ingredient) { i.InBar = !i.InBar },
		func(i models.Ingredient) (models.Ingredient, error) { return s.store.SetInBar(ctx, id, i.InBar) },
	)
}

// ToggleShoppingList flips the shopping-list flag of an ingredient.
func (s *Service) ToggleShoppingList(ctx context.Context, id uint) (models.Ingredient, error) {
	return s.toggle(ctx, id, "in_shopping_list",
		func(i *models.Ingredient) { i.InShoppingList = !i.InShoppingList },
		func(i models.Ingredient) (models.Ingredient, error) {
			return s.store.SetInShoppingList(ctx, id, i.InShoppingList)
		},
	)
}

// toggle patches every cached list before the write so views never flicker.
// When the write fails only the toggled ingredient is put back, so toggles of
// other ingredients that committed meanwhile stay in the cache.
func (s *Service) toggle(ctx context.Context, id uint, field string, flip func(*models.Ingredient), save func(models.Ingredient) (models.Ingredient, error)) (models.Ingredient, error) {
	current, err := s.current(ctx, id)
	if err != nil {
		return models.Ingredient{}, err
	}

	original := current
	flip(&current)
	s.lists.Patch(current)

	saved, err := save(current)
	if err != nil {
		s.lists.Patch(original)
		applog.Error(ctx, "ingredient toggle rolled back", "ingredient_id", id, "field", field, "error", err)
		return models.Ingredient{}, err
	}

	s.lists.Patch(saved)
	applog.Debug(ctx, "ingredient toggled", "ingredient_id", id, "field", field)
	return saved, nil
}

func (s *Service) current(ctx context.Context, id uint) (models.Ingredient, error) {
	if all, ok := s.lists.Get(cache.All); ok {
		for _, ingredient := range all {
			if ingredient.ID == id {
				return ingredient, nil
			}
		}
	}
	return s.store.Ingredient(ctx, id)
}

// CreateIngredient stores a new ingredient.
func (s *Service) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	if err := s.store.CreateIngredient(ctx, ingredient); err != nil {
		return err
	}
	s.lists.Invalidate()
	applog.Info(ctx, "ingredient created", "ingredient_id", ingredient.ID, "name", ingredient.Name)
	return nil
}

// UpdateIngredient saves an edited ingredient.
func (s *Service) UpdateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	if err := s.store.UpdateIngredient(ctx, ingredient); err != nil {
		return err
	}
	s.lists.Invalidate()
	applog.Info(ctx, "ingredient updated", "ingredient_id", ingredient.ID)
	return nil
}

// DeleteIngredient removes an ingredient. When it was a base its branded
// ingredients lose their link and every cached list is dropped; otherwise the
// ingredient is only removed from the cached lists.
func (s *Service) DeleteIngredient(ctx context.Context, id uint) error {
	branded, err := s.store.BrandedFor(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIngredient(ctx, id); err != nil {
		return err
	}
	if len(branded) > 0 {
		s.lists.Invalidate()
	} else {
		s.lists.Remove(id)
	}
	applog.Info(ctx, "ingredient deleted", "ingredient_id", id)
	return nil
}

// LinkBase makes ingredientID a branded variant of baseIngredientID.
func (s *Service) LinkBase(ctx context.Context, ingredientID, baseIngredientID uint) error {
	if err := s.store.LinkBase(ctx, ingredientID, baseIngredientID); err != nil {
		if errors.Is(err, catalog.ErrInvalidLink) {
			applog.Warn(ctx, "ingredient link rejected", "ingredient_id", ingredientID, "base_ingredient_id", baseIngredientID, "error", err)
		}
		return err
	}
	s.lists.Invalidate()
	return nil
}

// UnlinkBase clears the base of an ingredient.
func (s *Service) UnlinkBase(ctx context.Context, ingredientID uint) error {
	if err := s.store.UnlinkBase(ctx, ingredientID); err != nil {
		return err
	}
	s.lists.Invalidate()
	return nil
}

// BrandedFor lists the branded variants of a base ingredient.
func (s *Service) BrandedFor(ctx context.Context, baseIngredientID uint) ([]models.Ingredient, error) {
	return s.store.BrandedFor(ctx, baseIngredientID)
}

// BaseCandidates lists the ingredients an ingredient may be linked to.
func (s *Service) BaseCandidates(ctx context.Context, ingredientID uint) ([]models.Ingredient, error) {
	return s.store.BaseCandidates(ctx, ingredientID)
}

// Detail is everything the ingredient page shows.
type Detail struct {
	Ingredient     models.Ingredient   `json:"ingredient"`
	Role           catalog.Role        `json:"role"`
	Base           *models.Ingredient  `json:"base,omitempty"`
	Branded        []models.Ingredient `json:"branded"`
	BaseCandidates []models.Ingredient `json:"base_candidates"`
	Cocktails      []models.Cocktail   `json:"cocktails"`
	Usage          usage.Usage         `json:"usage"`
}

// IngredientDetail gathers an ingredient with its hierarchy and the cocktails
// that use it.
func (s *Service) IngredientDetail(ctx context.Context, id uint) (Detail, error) {
	ingredient, err := s.store.Ingredient(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Ingredient: ingredient}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		role, err := s.store.Role(gctx, id)
		detail.Role = role
		return err
	})
	g.Go(func() error {
		branded, err := s.store.BrandedFor(gctx, id)
		detail.Branded = branded
		return err
	})
	g.Go(func() error {
		candidates, err := s.store.BaseCandidates(gctx, id)
		detail.BaseCandidates = candidates
		return err
	})
	g.Go(func() error {
		cocktails, err := s.store.CocktailsUsing(gctx, id)
		detail.Cocktails = cocktails
		return err
	})
	if ingredient.IsBranded() {
		g.Go(func() error {
			base, err := s.store.Ingredient(gctx, *ingredient.BaseIngredientID)
			if err != nil {
				return err
			}
			detail.Base = &base
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}

	counts, err := s.scheduler.Compute(ctx, detail.Cocktails, nil)
	if err != nil {
		if !errors.Is(err, usage.ErrWorkerDispatch) {
			return Detail{}, err
		}
		applog.Warn(ctx, "usage unavailable, showing zero count", "ingredient_id", id, "error", err)
		counts = usage.Map{}
	}
	detail.Usage = counts.Get(id)
	return detail, nil
}

// Cocktails lists every cocktail.
func (s *Service) Cocktails(ctx context.Context) ([]models.Cocktail, error) {
	return s.store.ListCocktails(ctx)
}

// Cocktail loads one cocktail.
func (s *Service) Cocktail(ctx context.Context, id uint) (models.Cocktail, error) {
	return s.store.Cocktail(ctx, id)
}

// CreateCocktail stores a new cocktail.
func (s *Service) CreateCocktail(ctx context.Context, cocktail *models.Cocktail) error {
	if err := s.store.CreateCocktail(ctx, cocktail); err != nil {
		return err
	}
	applog.Info(ctx, "cocktail created", "cocktail_id", cocktail.ID, "name", cocktail.Name)
	return nil
}

// UpdateCocktail saves an edited cocktail.
func (s *Service) UpdateCocktail(ctx context.Context, cocktail *models.Cocktail) error {
	if err := s.store.UpdateCocktail(ctx, cocktail); err != nil {
		return err
	}
	applog.Info(ctx, "cocktail updated", "cocktail_id", cocktail.ID)
	return nil
}

// DeleteCocktail removes a cocktail.
func (s *Service) DeleteCocktail(ctx context.Context, id uint) error {
	if err := s.store.DeleteCocktail(ctx, id); err != nil {
		return err
	}
	applog.Info(ctx, "cocktail deleted", "cocktail_id", id)
	return nil
}

// MakeableCocktails lists the cocktails whose required ingredients are all in
// the bar.
func (s *Service) MakeableCocktails(ctx context.Context) ([]models.Cocktail, error) {
	cocktails, bar, err := s.usageInputs(ctx, true)
	if err != nil {
		return nil, err
	}
	makeable := make([]models.Cocktail, 0, len(cocktails))
	for _, cocktail := range cocktails {
		if usage.Makeable(cocktail, bar) {
			makeable = append(makeable, cocktail)
		}
	}
	return makeable, nil
}

// MissingIngredients lists the required ingredients of a cocktail that are
// not in the bar.
func (s *Service) MissingIngredients(ctx context.Context, cocktailID uint) ([]models.Ingredient, error) {
	cocktail, err := s.store.Cocktail(ctx, cocktailID)
	if err != nil {
		return nil, err
	}
	barIDs, err := s.store.BarIngredientIDs(ctx)
	if err != nil {
		return nil, err
	}

	missingIDs := usage.MissingRequired(cocktail, usage.NewBar(barIDs...))
	missing := make([]models.Ingredient, 0, len(missingIDs))
	for _, id := range missingIDs {
		ingredient, err := s.store.Ingredient(ctx, id)
		if err != nil {
			return nil, err
		}
		missing = append(missing, ingredient)
	}
	return missing, nil
}

// scoped reports whether usage for a view counts only makeable cocktails.
// The bar view counts what can be mixed now; the other views count the whole
// catalog.
func scoped(key cache.ListKey) bool {
	return key == cache.My
}

// usageInputs loads the cocktails and, when scoped, the bar contents in
// parallel. An unscoped load returns a nil bar.
func (s *Service) usageInputs(ctx context.Context, scoped bool) ([]models.Cocktail, usage.Bar, error) {
	var (
		cocktails []models.Cocktail
		barIDs    []uint
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cocktails, err = s.store.ListCocktails(gctx)
		return err
	})
	if scoped {
		g.Go(func() error {
			var err error
			barIDs, err = s.store.BarIngredientIDs(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		applog.Error(ctx, "failed to load usage inputs", "error", err)
		return nil, nil, err
	}

	if !scoped {
		return cocktails, nil, nil
	}
	return cocktails, usage.NewBar(barIDs...), nil
}
