package handlers

import (
	"net/http"
	"strconv"

	applog "barkeep/internal/log"
	"barkeep/models"
)

const cocktailsPrefix = "/app/api/cocktails"

type cocktailLineRequest struct {
	Order                   int     `json:"order" validate:"gte=0"`
	IngredientID            uint    `json:"ingredient_id" validate:"required"`
	Amount                  *string `json:"amount" validate:"omitempty,max=32"`
	UnitID                  *uint   `json:"unit_id" validate:"omitempty,gt=0"`
	IsGarnish               bool    `json:"is_garnish"`
	IsOptional              bool    `json:"is_optional"`
	AllowBaseSubstitution   bool    `json:"allow_base_substitution"`
	AllowBrandedSubstitutes bool    `json:"allow_branded_substitutes"`
	SubstituteIngredientIDs []uint  `json:"substitute_ingredient_ids" validate:"dive,gt=0"`
}

type cocktailRequest struct {
	Name            string                `json:"name" validate:"required,max=200"`
	GlassID         string                `json:"glass_id" validate:"max=64"`
	TagIDs          []uint                `json:"tag_ids" validate:"dive,gt=0"`
	Description     string                `json:"description" validate:"max=4000"`
	Instructions    string                `json:"instructions" validate:"max=8000"`
	PhotoRef        string                `json:"photo_ref" validate:"max=500"`
	IngredientLines []cocktailLineRequest `json:"ingredient_lines" validate:"required,min=1,dive"`
}

// CocktailResource handles REST-style interactions for cocktail records.
func CocktailResource(w http.ResponseWriter, r *http.Request) {
	if !servicesReady(w, r) {
		return
	}

	segments := resourcePath(r, cocktailsPrefix)
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listCocktails(w, r)
		case http.MethodPost:
			createCocktail(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid cocktail identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	if len(segments) == 2 && segments[1] == "missing" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		missing, err := barService.MissingIngredients(r.Context(), id)
		if err != nil {
			writeCatalogError(w, r, err, "check the bar")
			return
		}
		writeJSON(w, http.StatusOK, missing)
		return
	}
	if len(segments) > 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		cocktail, err := barService.Cocktail(r.Context(), id)
		if err != nil {
			writeCatalogError(w, r, err, "load the cocktail")
			return
		}
		writeJSON(w, http.StatusOK, cocktail)
	case http.MethodPut:
		updateCocktail(w, r, id)
	case http.MethodDelete:
		if err := barService.DeleteCocktail(r.Context(), id); err != nil {
			writeCatalogError(w, r, err, "delete the cocktail")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// listCocktails returns the whole catalog, or only what the bar can make when
// makeable=true.
func listCocktails(w http.ResponseWriter, r *http.Request) {
	makeableOnly, _ := strconv.ParseBool(r.URL.Query().Get("makeable"))

	var (
		cocktails []models.Cocktail
		err       error
	)
	if makeableOnly {
		cocktails, err = barService.MakeableCocktails(r.Context())
	} else {
		cocktails, err = barService.Cocktails(r.Context())
	}
	if err != nil {
		writeCatalogError(w, r, err, "load cocktails")
		return
	}
	writeJSON(w, http.StatusOK, cocktails)
}

func createCocktail(w http.ResponseWriter, r *http.Request) {
	var payload cocktailRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	cocktail, ok := buildCocktail(w, r, payload)
	if !ok {
		return
	}
	if err := barService.CreateCocktail(r.Context(), &cocktail); err != nil {
		writeCatalogError(w, r, err, "save the cocktail")
		return
	}
	writeJSON(w, http.StatusCreated, cocktail)
}

func updateCocktail(w http.ResponseWriter, r *http.Request, id uint) {
	var payload cocktailRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	cocktail, ok := buildCocktail(w, r, payload)
	if !ok {
		return
	}
	cocktail.ID = id
	if err := barService.UpdateCocktail(r.Context(), &cocktail); err != nil {
		writeCatalogError(w, r, err, "save the cocktail")
		return
	}
	writeJSON(w, http.StatusOK, cocktail)
}

func buildCocktail(w http.ResponseWriter, r *http.Request, payload cocktailRequest) (models.Cocktail, bool) {
	tags, err := catalogStore.ResolveCocktailTags(r.Context(), payload.TagIDs)
	if err != nil {
		writeCatalogError(w, r, err, "load cocktail tags")
		return models.Cocktail{}, false
	}

	lines := make([]models.CocktailIngredientLine, 0, len(payload.IngredientLines))
	for _, line := range payload.IngredientLines {
		lines = append(lines, models.CocktailIngredientLine{
			Order:                   line.Order,
			IngredientID:            line.IngredientID,
			Amount:                  line.Amount,
			UnitID:                  line.UnitID,
			IsGarnish:               line.IsGarnish,
			IsOptional:              line.IsOptional,
			AllowBaseSubstitution:   line.AllowBaseSubstitution,
			AllowBrandedSubstitutes: line.AllowBrandedSubstitutes,
			SubstituteIngredientIDs: line.SubstituteIngredientIDs,
		})
	}

	return models.Cocktail{
		Name:            payload.Name,
		GlassID:         payload.GlassID,
		Tags:            tags,
		Description:     payload.Description,
		Instructions:    payload.Instructions,
		PhotoRef:        payload.PhotoRef,
		IngredientLines: lines,
	}, true
}
