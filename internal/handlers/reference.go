package handlers

import (
	"net/http"
)

type tagRequest struct {
	Name  string `json:"name" validate:"required,max=64"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
}

// IngredientTags lists ingredient tags and creates custom ones.
func IngredientTags(w http.ResponseWriter, r *http.Request) {
	if !servicesReady(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		tags, err := catalogStore.IngredientTags(r.Context())
		if err != nil {
			writeCatalogError(w, r, err, "load ingredient tags")
			return
		}
		writeJSON(w, http.StatusOK, tags)
	case http.MethodPost:
		var payload tagRequest
		if !decodeJSON(w, r, &payload) {
			return
		}
		tag, err := catalogStore.CreateIngredientTag(r.Context(), payload.Name, payload.Color)
		if err != nil {
			writeCatalogError(w, r, err, "save the tag")
			return
		}
		writeJSON(w, http.StatusCreated, tag)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// CocktailTags lists cocktail tags.
func CocktailTags(w http.ResponseWriter, r *http.Request) {
	if !servicesReady(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tags, err := catalogStore.CocktailTags(r.Context())
	if err != nil {
		writeCatalogError(w, r, err, "load cocktail tags")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// Glassware lists the glass reference table.
func Glassware(w http.ResponseWriter, r *http.Request) {
	if !servicesReady(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	glasses, err := catalogStore.Glassware(r.Context())
	if err != nil {
		writeCatalogError(w, r, err, "load glassware")
		return
	}
	writeJSON(w, http.StatusOK, glasses)
}

// MeasureUnits lists the unit reference table.
func MeasureUnits(w http.ResponseWriter, r *http.Request) {
	if !servicesReady(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	units, err := catalogStore.MeasureUnits(r.Context())
	if err != nil {
		writeCatalogError(w, r, err, "load measure units")
		return
	}
	writeJSON(w, http.StatusOK, units)
}
