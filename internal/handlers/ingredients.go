package handlers

import (
	"context"
	"net/http"
	"strings"

	"barkeep/internal/cache"
	applog "barkeep/internal/log"
	"barkeep/models"
)

const ingredientsPrefix = "/app/api/ingredients"

type ingredientRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	Description      string `json:"description" validate:"max=4000"`
	PhotoRef         string `json:"photo_ref" validate:"max=500"`
	TagIDs           []uint `json:"tag_ids" validate:"dive,gt=0"`
	BaseIngredientID *uint  `json:"base_ingredient_id" validate:"omitempty,gt=0"`
	InBar            bool   `json:"in_bar"`
	InShoppingList   bool   `json:"in_shopping_list"`
}

type linkRequest struct {
	BaseIngredientID uint `json:"base_ingredient_id" validate:"required"`
}

// IngredientResource handles REST-style interactions for ingredient records.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if !servicesReady(w, r) {
		return
	}

	segments := resourcePath(r, ingredientsPrefix)
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			createIngredient(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid ingredient identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			showIngredient(w, r, id)
		case http.MethodPut:
			updateIngredient(w, r, id)
		case http.MethodDelete:
			deleteIngredient(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch action := strings.Join(segments[1:], "/"); {
	case action == "bar" && r.Method == http.MethodPost:
		toggleIngredient(w, r, id, "update your bar", barService.ToggleInBar)
	case action == "shopping" && r.Method == http.MethodPost:
		toggleIngredient(w, r, id, "update your shopping list", barService.ToggleShoppingList)
	case action == "base" && r.Method == http.MethodPut:
		linkIngredient(w, r, id)
	case action == "base" && r.Method == http.MethodDelete:
		unlinkIngredient(w, r, id)
	case action == "branded" && r.Method == http.MethodGet:
		branded, err := barService.BrandedFor(r.Context(), id)
		if err != nil {
			writeCatalogError(w, r, err, "load branded ingredients")
			return
		}
		writeJSON(w, http.StatusOK, branded)
	case action == "base-candidates" && r.Method == http.MethodGet:
		candidates, err := barService.BaseCandidates(r.Context(), id)
		if err != nil {
			writeCatalogError(w, r, err, "load base ingredients")
			return
		}
		writeJSON(w, http.StatusOK, candidates)
	case action == "bar", action == "shopping", action == "base", action == "branded", action == "base-candidates":
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

// listIngredients serves one of the cached views with its usage counts, or a
// name search when q is given.
func listIngredients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	if q := strings.TrimSpace(query.Get("q")); q != "" {
		results, err := barService.Search(ctx, q)
		if err != nil {
			writeCatalogError(w, r, err, "search ingredients")
			return
		}
		writeJSON(w, http.StatusOK, results)
		return
	}

	key, err := cache.ParseListKey(query.Get("list"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := barService.OpenView(key)
	defer view.Close()

	if err := view.Load(ctx); err != nil {
		writeCatalogError(w, r, err, "load ingredients")
		return
	}
	done, err := view.RefreshUsage(ctx)
	if err != nil {
		writeCatalogError(w, r, err, "load ingredient usage")
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
		applog.Debug(ctx, "client left before usage was ready", "list", key)
		return
	}

	state := view.Snapshot()
	if state.UsageDegraded {
		pushNotification(r, "Ingredient usage is unavailable right now.")
	}
	writeJSON(w, http.StatusOK, state)
}

func showIngredient(w http.ResponseWriter, r *http.Request, id uint) {
	detail, err := barService.IngredientDetail(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err, "load ingredient")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func createIngredient(w http.ResponseWriter, r *http.Request) {
	var payload ingredientRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	ingredient, ok := buildIngredient(w, r, payload)
	if !ok {
		return
	}
	if err := barService.CreateIngredient(r.Context(), &ingredient); err != nil {
		writeCatalogError(w, r, err, "save the ingredient")
		return
	}
	writeJSON(w, http.StatusCreated, ingredient)
}

func updateIngredient(w http.ResponseWriter, r *http.Request, id uint) {
	var payload ingredientRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	ingredient, ok := buildIngredient(w, r, payload)
	if !ok {
		return
	}
	ingredient.ID = id
	if err := barService.UpdateIngredient(r.Context(), &ingredient); err != nil {
		writeCatalogError(w, r, err, "save the ingredient")
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, id uint) {
	if err := barService.DeleteIngredient(r.Context(), id); err != nil {
		writeCatalogError(w, r, err, "delete the ingredient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toggleIngredient(w http.ResponseWriter, r *http.Request, id uint, action string, toggle func(context.Context, uint) (models.Ingredient, error)) {
	ingredient, err := toggle(r.Context(), id)
	if err != nil {
		writeCatalogError(w, r, err, action)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func linkIngredient(w http.ResponseWriter, r *http.Request, id uint) {
	var payload linkRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := barService.LinkBase(r.Context(), id, payload.BaseIngredientID); err != nil {
		writeCatalogError(w, r, err, "link the ingredient")
		return
	}
	showIngredient(w, r, id)
}

func unlinkIngredient(w http.ResponseWriter, r *http.Request, id uint) {
	if err := barService.UnlinkBase(r.Context(), id); err != nil {
		writeCatalogError(w, r, err, "unlink the ingredient")
		return
	}
	showIngredient(w, r, id)
}

func buildIngredient(w http.ResponseWriter, r *http.Request, payload ingredientRequest) (models.Ingredient, bool) {
	tags, err := catalogStore.ResolveIngredientTags(r.Context(), payload.TagIDs)
	if err != nil {
		writeCatalogError(w, r, err, "load ingredient tags")
		return models.Ingredient{}, false
	}
	return models.Ingredient{
		Name:             payload.Name,
		Description:      payload.Description,
		PhotoRef:         payload.PhotoRef,
		Tags:             tags,
		BaseIngredientID: payload.BaseIngredientID,
		InBar:            payload.InBar,
		InShoppingList:   payload.InShoppingList,
	}, true
}
