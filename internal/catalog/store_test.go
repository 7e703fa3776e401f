package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"barkeep/internal/config"
	"barkeep/internal/db"
	"barkeep/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	database, err := db.Initialize(config.DatabaseConfig{URL: fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", name)})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		t.Fatalf("automigrate sqlite database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return New(database)
}

func mustCreateIngredient(t *testing.T, s *Store, name string) models.Ingredient {
	t.Helper()

	ingredient := models.Ingredient{Name: name}
	if err := s.CreateIngredient(context.Background(), &ingredient); err != nil {
		t.Fatalf("create ingredient %q: %v", name, err)
	}
	return ingredient
}

func TestCreateIngredientValidation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		ingredient models.Ingredient
		wantErr    error
	}{
		{"blank name", models.Ingredient{Name: "   "}, ErrInvalidIngredient},
		{"bad tag colour", models.Ingredient{Name: "Gin", Tags: []models.Tag{{ID: 1, Name: "strong", Color: "red"}}}, ErrInvalidIngredient},
		{"unknown base", models.Ingredient{Name: "Gin", BaseIngredientID: ptr(uint(999))}, ErrNotFound},
	}

	for _, tt := range tests {
		ingredient := tt.ingredient
		err := s.CreateIngredient(ctx, &ingredient)
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: CreateIngredient() error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}

	gin := models.Ingredient{Name: "  Gin  "}
	if err := s.CreateIngredient(ctx, &gin); err != nil {
		t.Fatalf("CreateIngredient() error = %v", err)
	}
	if gin.ID == 0 || gin.Name != "Gin" {
		t.Fatalf("unexpected stored ingredient: %+v", gin)
	}
	if gin.Tags == nil {
		t.Fatal("expected tags to default to an empty slice")
	}
}

func TestListIngredientsFiltersAndOrders(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for _, ingredient := range []models.Ingredient{
		{Name: "vodka", InBar: true},
		{Name: "Gin", InBar: true, InShoppingList: true},
		{Name: "Amaretto", InShoppingList: true},
	} {
		ingredient := ingredient
		if err := s.CreateIngredient(ctx, &ingredient); err != nil {
			t.Fatalf("create ingredient: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"Amaretto", "Gin", "vodka"}},
		{"in bar", Filter{InBar: true}, []string{"Gin", "vodka"}},
		{"shopping", Filter{InShoppingList: true}, []string{"Amaretto", "Gin"}},
		{"query", Filter{Query: "  GI "}, []string{"Gin"}},
	}

	for _, tt := range tests {
		got, err := s.ListIngredients(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: ListIngredients() error = %v", tt.name, err)
		}
		if names := ingredientNames(got); strings.Join(names, ",") != strings.Join(tt.want, ",") {
			t.Fatalf("%s: ListIngredients() = %v, want %v", tt.name, names, tt.want)
		}
	}

	ids, err := s.BarIngredientIDs(ctx)
	if err != nil {
		t.Fatalf("BarIngredientIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 bar ingredient ids, got %v", ids)
	}
}

func TestSetFlagsPersist(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	gin := mustCreateIngredient(t, s, "Gin")

	updated, err := s.SetInBar(ctx, gin.ID, true)
	if err != nil {
		t.Fatalf("SetInBar() error = %v", err)
	}
	if !updated.InBar {
		t.Fatal("expected returned ingredient to be in the bar")
	}

	updated, err = s.SetInShoppingList(ctx, gin.ID, true)
	if err != nil {
		t.Fatalf("SetInShoppingList() error = %v", err)
	}
	if !updated.InBar || !updated.InShoppingList {
		t.Fatalf("expected both flags set, got %+v", updated)
	}

	if _, err := s.SetInBar(ctx, 404, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetInBar() on missing ingredient error = %v, want ErrNotFound", err)
	}
}

func TestLinkBaseRejectsSecondLevel(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	vodka := mustCreateIngredient(t, s, "Vodka")
	brandX := mustCreateIngredient(t, s, "Vodka Brand X")
	other := mustCreateIngredient(t, s, "Some Other Base")

	if err := s.LinkBase(ctx, brandX.ID, vodka.ID); err != nil {
		t.Fatalf("LinkBase(brand, vodka) error = %v", err)
	}

	err := s.LinkBase(ctx, vodka.ID, other.ID)
	if !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("LinkBase(vodka, other) error = %v, want ErrInvalidLink", err)
	}
	var linkErr *InvalidLinkError
	if !errors.As(err, &linkErr) || linkErr.IngredientID != vodka.ID {
		t.Fatalf("expected InvalidLinkError for vodka, got %#v", err)
	}

	if err := s.LinkBase(ctx, other.ID, brandX.ID); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("LinkBase(other, brand) error = %v, want ErrInvalidLink", err)
	}
	if err := s.LinkBase(ctx, other.ID, other.ID); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("self link error = %v, want ErrInvalidLink", err)
	}
	if err := s.LinkBase(ctx, other.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("link to missing base error = %v, want ErrNotFound", err)
	}

	role, err := s.Role(ctx, vodka.ID)
	if err != nil || role != RoleBase {
		t.Fatalf("Role(vodka) = %q, %v; want base", role, err)
	}
	role, err = s.Role(ctx, brandX.ID)
	if err != nil || role != RoleBranded {
		t.Fatalf("Role(brand) = %q, %v; want branded", role, err)
	}
	role, err = s.Role(ctx, other.ID)
	if err != nil || role != RoleUnlinked {
		t.Fatalf("Role(other) = %q, %v; want unlinked", role, err)
	}
}

func TestUpdateIngredientEnforcesHierarchy(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	vodka := mustCreateIngredient(t, s, "Vodka")
	brandX := mustCreateIngredient(t, s, "Vodka Brand X")
	if err := s.LinkBase(ctx, brandX.ID, vodka.ID); err != nil {
		t.Fatalf("LinkBase() error = %v", err)
	}

	gin := mustCreateIngredient(t, s, "Gin")
	vodka.BaseIngredientID = &gin.ID
	if err := s.UpdateIngredient(ctx, &vodka); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("UpdateIngredient() error = %v, want ErrInvalidLink", err)
	}

	newBrand := models.Ingredient{Name: "Gin Brand", BaseIngredientID: &brandX.ID}
	if err := s.CreateIngredient(ctx, &newBrand); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("CreateIngredient() under branded base error = %v, want ErrInvalidLink", err)
	}

	brandX.Description = "Triple distilled"
	if err := s.UpdateIngredient(ctx, &brandX); err != nil {
		t.Fatalf("UpdateIngredient() error = %v", err)
	}
	if brandX.BaseIngredientID == nil || *brandX.BaseIngredientID != vodka.ID {
		t.Fatalf("expected base link to survive update, got %+v", brandX.BaseIngredientID)
	}
}

func TestUnlinkBaseIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	vodka := mustCreateIngredient(t, s, "Vodka")
	brand := mustCreateIngredient(t, s, "Vodka Brand X")

	if err := s.LinkBase(ctx, brand.ID, vodka.ID); err != nil {
		t.Fatalf("LinkBase() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.UnlinkBase(ctx, brand.ID); err != nil {
			t.Fatalf("UnlinkBase() #%d error = %v", i+1, err)
		}
	}

	branded, err := s.BrandedFor(ctx, vodka.ID)
	if err != nil {
		t.Fatalf("BrandedFor() error = %v", err)
	}
	if len(branded) != 0 {
		t.Fatalf("expected no branded ingredients, got %v", ingredientNames(branded))
	}
	if err := s.UnlinkBase(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UnlinkBase() on missing ingredient error = %v, want ErrNotFound", err)
	}
}

func TestBaseCandidates(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	vodka := mustCreateIngredient(t, s, "Vodka")
	brand := mustCreateIngredient(t, s, "Vodka Brand X")
	gin := mustCreateIngredient(t, s, "Gin")
	if err := s.LinkBase(ctx, brand.ID, vodka.ID); err != nil {
		t.Fatalf("LinkBase() error = %v", err)
	}

	candidates, err := s.BaseCandidates(ctx, gin.ID)
	if err != nil {
		t.Fatalf("BaseCandidates(gin) error = %v", err)
	}
	if got := strings.Join(ingredientNames(candidates), ","); got != "Vodka" {
		t.Fatalf("BaseCandidates(gin) = %s, want Vodka", got)
	}

	candidates, err = s.BaseCandidates(ctx, vodka.ID)
	if err != nil {
		t.Fatalf("BaseCandidates(vodka) error = %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("a base with branded ingredients must get no candidates, got %v", ingredientNames(candidates))
	}
}

func TestHierarchyHoldsAcrossLinkSequences(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	ids := make([]uint, 0, 8)
	for i := 0; i < 8; i++ {
		ids = append(ids, mustCreateIngredient(t, s, fmt.Sprintf("Ingredient %d", i)).ID)
	}

	rng := rand.New(rand.NewSource(7))
	for step := 0; step < 300; step++ {
		id := ids[rng.Intn(len(ids))]
		if rng.Intn(3) == 0 {
			if err := s.UnlinkBase(ctx, id); err != nil {
				t.Fatalf("step %d: UnlinkBase() error = %v", step, err)
			}
		} else {
			base := ids[rng.Intn(len(ids))]
			if err := s.LinkBase(ctx, id, base); err != nil && !errors.Is(err, ErrInvalidLink) {
				t.Fatalf("step %d: LinkBase() unexpected error = %v", step, err)
			}
		}

		all, err := s.ListIngredients(ctx, Filter{})
		if err != nil {
			t.Fatalf("step %d: ListIngredients() error = %v", step, err)
		}
		for _, ingredient := range all {
			if !ingredient.IsBranded() {
				continue
			}
			branded, err := s.BrandedFor(ctx, ingredient.ID)
			if err != nil {
				t.Fatalf("step %d: BrandedFor() error = %v", step, err)
			}
			if len(branded) > 0 {
				t.Fatalf("step %d: %q is branded and has branded ingredients %v", step, ingredient.Name, ingredientNames(branded))
			}
		}
	}
}

func TestConcurrentLinksNeverChain(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		a := mustCreateIngredient(t, s, fmt.Sprintf("Brand %d", round))
		b := mustCreateIngredient(t, s, fmt.Sprintf("Middle %d", round))
		c := mustCreateIngredient(t, s, fmt.Sprintf("Base %d", round))

		errs := make([]error, 2)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs[0] = s.LinkBase(ctx, a.ID, b.ID)
		}()
		go func() {
			defer wg.Done()
			errs[1] = s.LinkBase(ctx, b.ID, c.ID)
		}()
		wg.Wait()

		if (errs[0] == nil) == (errs[1] == nil) {
			t.Fatalf("round %d: want exactly one link to succeed, got %v and %v", round, errs[0], errs[1])
		}
		for _, err := range errs {
			if err != nil && !errors.Is(err, ErrInvalidLink) {
				t.Fatalf("round %d: LinkBase() error = %v, want ErrInvalidLink", round, err)
			}
		}

		want := RoleBranded
		if errs[0] == nil {
			want = RoleBase
		}
		if role, err := s.Role(ctx, b.ID); err != nil || role != want {
			t.Fatalf("round %d: Role(middle) = %q, %v; want %q", round, role, err, want)
		}
	}
}

func TestDeleteIngredientUnlinksBranded(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	vodka := mustCreateIngredient(t, s, "Vodka")
	brand := mustCreateIngredient(t, s, "Vodka Brand X")
	if err := s.LinkBase(ctx, brand.ID, vodka.ID); err != nil {
		t.Fatalf("LinkBase() error = %v", err)
	}

	if err := s.DeleteIngredient(ctx, vodka.ID); err != nil {
		t.Fatalf("DeleteIngredient() error = %v", err)
	}
	if _, err := s.Ingredient(ctx, vodka.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Ingredient() after delete error = %v, want ErrNotFound", err)
	}

	reloaded, err := s.Ingredient(ctx, brand.ID)
	if err != nil {
		t.Fatalf("Ingredient(brand) error = %v", err)
	}
	if reloaded.BaseIngredientID != nil {
		t.Fatalf("expected branded ingredient to be unlinked, base = %d", *reloaded.BaseIngredientID)
	}
}

func TestDeleteIngredientInUse(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	rum := mustCreateIngredient(t, s, "Rum")
	lime := mustCreateIngredient(t, s, "Lime Juice")
	lemon := mustCreateIngredient(t, s, "Lemon Juice")

	daiquiri := models.Cocktail{
		Name: "Daiquiri",
		IngredientLines: []models.CocktailIngredientLine{
			{Order: 1, IngredientID: rum.ID},
			{Order: 2, IngredientID: lime.ID, SubstituteIngredientIDs: []uint{lemon.ID}},
		},
	}
	if err := s.CreateCocktail(ctx, &daiquiri); err != nil {
		t.Fatalf("CreateCocktail() error = %v", err)
	}

	for _, id := range []uint{rum.ID, lemon.ID} {
		if err := s.DeleteIngredient(ctx, id); !errors.Is(err, ErrIngredientInUse) {
			t.Fatalf("DeleteIngredient(%d) error = %v, want ErrIngredientInUse", id, err)
		}
	}

	if err := s.DeleteCocktail(ctx, daiquiri.ID); err != nil {
		t.Fatalf("DeleteCocktail() error = %v", err)
	}
	if err := s.DeleteIngredient(ctx, rum.ID); err != nil {
		t.Fatalf("DeleteIngredient() after cocktail removal error = %v", err)
	}
}

func TestCocktailWritesMaintainIndex(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	tequila := mustCreateIngredient(t, s, "Tequila")
	lime := mustCreateIngredient(t, s, "Lime Juice")
	rum := mustCreateIngredient(t, s, "Rum")

	margarita := models.Cocktail{
		Name: "Margarita",
		IngredientLines: []models.CocktailIngredientLine{
			{Order: 1, IngredientID: tequila.ID},
			{Order: 2, IngredientID: lime.ID},
			{Order: 3, IngredientID: lime.ID, IsGarnish: true},
		},
	}
	if err := s.CreateCocktail(ctx, &margarita); err != nil {
		t.Fatalf("CreateCocktail() error = %v", err)
	}

	assertUsing := func(ingredientID uint, want ...string) {
		t.Helper()
		got, err := s.CocktailsUsing(ctx, ingredientID)
		if err != nil {
			t.Fatalf("CocktailsUsing(%d) error = %v", ingredientID, err)
		}
		names := make([]string, 0, len(got))
		for _, cocktail := range got {
			names = append(names, cocktail.Name)
		}
		if strings.Join(names, ",") != strings.Join(want, ",") {
			t.Fatalf("CocktailsUsing(%d) = %v, want %v", ingredientID, names, want)
		}
	}

	assertUsing(tequila.ID, "Margarita")
	assertUsing(lime.ID, "Margarita")
	assertUsing(rum.ID)

	margarita.IngredientLines = []models.CocktailIngredientLine{
		{Order: 1, IngredientID: rum.ID},
		{Order: 2, IngredientID: lime.ID},
	}
	if err := s.UpdateCocktail(ctx, &margarita); err != nil {
		t.Fatalf("UpdateCocktail() error = %v", err)
	}
	assertUsing(tequila.ID)
	assertUsing(rum.ID, "Margarita")

	if err := s.DeleteCocktail(ctx, margarita.ID); err != nil {
		t.Fatalf("DeleteCocktail() error = %v", err)
	}
	assertUsing(lime.ID)

	if err := s.DeleteCocktail(ctx, margarita.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second DeleteCocktail() error = %v, want ErrNotFound", err)
	}
}

func TestCreateCocktailNormalizesLines(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	gin := mustCreateIngredient(t, s, "Gin")
	tonic := mustCreateIngredient(t, s, "Tonic")
	blank := "  "

	cocktail := models.Cocktail{
		Name: " Gin & Tonic ",
		IngredientLines: []models.CocktailIngredientLine{
			{Order: 20, IngredientID: tonic.ID},
			{Order: 5, IngredientID: gin.ID, Amount: &blank},
		},
	}
	if err := s.CreateCocktail(ctx, &cocktail); err != nil {
		t.Fatalf("CreateCocktail() error = %v", err)
	}

	stored, err := s.Cocktail(ctx, cocktail.ID)
	if err != nil {
		t.Fatalf("Cocktail() error = %v", err)
	}
	if stored.Name != "Gin & Tonic" {
		t.Fatalf("expected trimmed name, got %q", stored.Name)
	}
	if len(stored.IngredientLines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(stored.IngredientLines))
	}
	first, second := stored.IngredientLines[0], stored.IngredientLines[1]
	if first.IngredientID != gin.ID || first.Order != 1 || second.IngredientID != tonic.ID || second.Order != 2 {
		t.Fatalf("unexpected line order: %+v", stored.IngredientLines)
	}
	if first.Amount != nil {
		t.Fatalf("expected blank amount to be cleared, got %q", *first.Amount)
	}
}

func TestCreateCocktailValidation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	gin := mustCreateIngredient(t, s, "Gin")

	tests := []struct {
		name     string
		cocktail models.Cocktail
	}{
		{"no name", models.Cocktail{IngredientLines: []models.CocktailIngredientLine{{IngredientID: gin.ID}}}},
		{"no lines", models.Cocktail{Name: "Empty"}},
		{"zero ingredient", models.Cocktail{Name: "Zero", IngredientLines: []models.CocktailIngredientLine{{IngredientID: 0}}}},
		{"unknown ingredient", models.Cocktail{Name: "Ghost", IngredientLines: []models.CocktailIngredientLine{{IngredientID: 404}}}},
		{"self substitute", models.Cocktail{Name: "Loop", IngredientLines: []models.CocktailIngredientLine{{IngredientID: gin.ID, SubstituteIngredientIDs: []uint{gin.ID}}}}},
		{"unknown glass", models.Cocktail{Name: "Bucket", GlassID: "bucket", IngredientLines: []models.CocktailIngredientLine{{IngredientID: gin.ID}}}},
	}

	for _, tt := range tests {
		cocktail := tt.cocktail
		if err := s.CreateCocktail(ctx, &cocktail); !errors.Is(err, ErrInvalidCocktail) {
			t.Fatalf("%s: CreateCocktail() error = %v, want ErrInvalidCocktail", tt.name, err)
		}
	}
}

func TestSeedReferenceIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.SeedReference(ctx); err != nil {
			t.Fatalf("SeedReference() #%d error = %v", i+1, err)
		}
	}

	glasses, err := s.Glassware(ctx)
	if err != nil {
		t.Fatalf("Glassware() error = %v", err)
	}
	if len(glasses) != 20 || glasses[0].ID != "bowl" {
		t.Fatalf("unexpected glassware: %d rows, first %+v", len(glasses), glasses[0])
	}

	units, err := s.MeasureUnits(ctx)
	if err != nil {
		t.Fatalf("MeasureUnits() error = %v", err)
	}
	if len(units) == 0 || units[0].Name != "ml" {
		t.Fatalf("unexpected measure units: %+v", units)
	}

	ingredientTags, err := s.IngredientTags(ctx)
	if err != nil {
		t.Fatalf("IngredientTags() error = %v", err)
	}
	if len(ingredientTags) != 10 || !ingredientTags[0].IsBuiltIn {
		t.Fatalf("unexpected ingredient tags: %+v", ingredientTags)
	}

	cocktailTags, err := s.CocktailTags(ctx)
	if err != nil {
		t.Fatalf("CocktailTags() error = %v", err)
	}
	if len(cocktailTags) != 11 || cocktailTags[10].IsBuiltIn {
		t.Fatalf("unexpected cocktail tags: %+v", cocktailTags)
	}
}

func TestCreateIngredientTag(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	if err := s.SeedReference(ctx); err != nil {
		t.Fatalf("SeedReference() error = %v", err)
	}

	tag, err := s.CreateIngredientTag(ctx, " bitters ", "#123abc")
	if err != nil {
		t.Fatalf("CreateIngredientTag() error = %v", err)
	}
	if tag.ID != 11 || tag.Name != "bitters" || tag.IsBuiltIn {
		t.Fatalf("unexpected custom tag: %+v", tag)
	}

	tests := []struct {
		name, tagName, color string
	}{
		{"duplicate", "Bitters", "#123abc"},
		{"blank name", " ", "#123abc"},
		{"bad colour", "smoke", "grey"},
	}
	for _, tt := range tests {
		if _, err := s.CreateIngredientTag(ctx, tt.tagName, tt.color); !errors.Is(err, ErrInvalidTag) {
			t.Fatalf("%s: CreateIngredientTag() error = %v, want ErrInvalidTag", tt.name, err)
		}
	}

	resolved, err := s.ResolveIngredientTags(ctx, []uint{tag.ID, 1, tag.ID})
	if err != nil {
		t.Fatalf("ResolveIngredientTags() error = %v", err)
	}
	if len(resolved) != 2 || resolved[0].Name != "bitters" || resolved[1].Name != "strong alcohol" {
		t.Fatalf("unexpected resolved tags: %+v", resolved)
	}
	if _, err := s.ResolveCocktailTags(ctx, []uint{99}); !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("ResolveCocktailTags() unknown id error = %v, want ErrInvalidTag", err)
	}
}

func TestStorageErrorWhenDatabaseClosed(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	sqlDB, err := s.db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close sql db: %v", err)
	}

	_, err = s.ListIngredients(context.Background(), Filter{})
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("ListIngredients() error = %v, want ErrStorageUnavailable", err)
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "list ingredients" {
		t.Fatalf("expected StorageError for list ingredients, got %#v", err)
	}
}

func ingredientNames(list []models.Ingredient) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, item.Name)
	}
	return out
}

func ptr[T any](value T) *T {
	return &value
}
