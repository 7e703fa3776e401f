package handlers

import (
	"net/http"
	"testing"

	"barkeep/models"
)

func TestReferenceEndpoints(t *testing.T) {
	_, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)

	w := serve(t, Glassware, http.MethodGet, "/app/api/glassware", "")
	if glasses := decodeBody[[]models.Glassware](t, w); len(glasses) != 20 {
		t.Fatalf("expected 20 glasses, got %d", len(glasses))
	}

	w = serve(t, MeasureUnits, http.MethodGet, "/app/api/units", "")
	if units := decodeBody[[]models.MeasureUnit](t, w); len(units) != 15 {
		t.Fatalf("expected 15 units, got %d", len(units))
	}

	w = serve(t, CocktailTags, http.MethodGet, "/app/api/tags/cocktails", "")
	if tags := decodeBody[[]models.CocktailTag](t, w); len(tags) != 11 {
		t.Fatalf("expected 11 cocktail tags, got %d", len(tags))
	}

	for _, handler := range []http.HandlerFunc{Glassware, MeasureUnits, CocktailTags} {
		if w := serve(t, handler, http.MethodPost, "/app/api/reference", `{}`); w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", w.Code)
		}
	}
}

func TestIngredientTagsCreate(t *testing.T) {
	_, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "valid", body: `{"name":"bitters","color":"#8D6E63"}`, want: http.StatusCreated},
		{name: "duplicate", body: `{"name":"Juice","color":"#8D6E63"}`, want: http.StatusBadRequest},
		{name: "short color", body: `{"name":"smoke","color":"#abc"}`, want: http.StatusBadRequest},
		{name: "not a color", body: `{"name":"smoke","color":"orange"}`, want: http.StatusBadRequest},
		{name: "missing name", body: `{"color":"#123456"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, IngredientTags, http.MethodPost, "/app/api/tags/ingredients", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}

	w := serve(t, IngredientTags, http.MethodGet, "/app/api/tags/ingredients", "")
	tags := decodeBody[[]models.IngredientTag](t, w)
	if len(tags) != 11 {
		t.Fatalf("expected 11 ingredient tags, got %d", len(tags))
	}
	custom := tags[len(tags)-1]
	if custom.ID != 11 || custom.Name != "bitters" || custom.IsBuiltIn {
		t.Fatalf("unexpected custom tag %+v", custom)
	}
}
