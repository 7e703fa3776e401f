package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"barkeep/internal/catalog"
	"barkeep/internal/db"
	applog "barkeep/internal/log"
	"barkeep/models"
)

const (
	OwnerEmail    = "owner@barkeep.app"
	OwnerPassword = "shaken"
)

// New returns an in-memory sqlite database seeded with a small home bar.
// Every call gets its own database.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:barkeep-mock-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	store := catalog.New(database)
	if err := store.SeedReference(ctx); err != nil {
		return err
	}

	password, err := bcrypt.GenerateFromPassword([]byte(OwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Home Bartender",
		Email:        OwnerEmail,
		PasswordHash: string(password),
	}
	if err := database.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	strong, err := store.ResolveIngredientTags(ctx, []uint{1})
	if err != nil {
		return err
	}
	soft, err := store.ResolveIngredientTags(ctx, []uint{2})
	if err != nil {
		return err
	}
	juice, err := store.ResolveIngredientTags(ctx, []uint{5})
	if err != nil {
		return err
	}
	syrup, err := store.ResolveIngredientTags(ctx, []uint{4})
	if err != nil {
		return err
	}
	herb, err := store.ResolveIngredientTags(ctx, []uint{7})
	if err != nil {
		return err
	}

	tequila := models.Ingredient{Name: "Tequila", Tags: strong, InBar: true}
	tripleSec := models.Ingredient{Name: "Triple Sec", Tags: soft, InBar: true}
	lime := models.Ingredient{Name: "Lime Juice", Tags: juice, InBar: true}
	rum := models.Ingredient{Name: "White Rum", Tags: strong, InBar: true}
	sugar := models.Ingredient{Name: "Simple Syrup", Tags: syrup}
	mint := models.Ingredient{Name: "Mint", Tags: herb, InShoppingList: true}
	soda := models.Ingredient{Name: "Soda Water", InShoppingList: true}
	vodka := models.Ingredient{Name: "Vodka", Tags: strong}

	for _, ingredient := range []*models.Ingredient{&tequila, &tripleSec, &lime, &rum, &sugar, &mint, &soda, &vodka} {
		if err := store.CreateIngredient(ctx, ingredient); err != nil {
			return err
		}
	}

	premiumVodka := models.Ingredient{Name: "Premium Vodka", Tags: strong, InBar: true, BaseIngredientID: &vodka.ID}
	if err := store.CreateIngredient(ctx, &premiumVodka); err != nil {
		return err
	}

	ml := uint(1)
	leaf := uint(10)
	amount := func(value string) *string { return &value }

	cocktailTags, err := store.ResolveCocktailTags(ctx, []uint{1})
	if err != nil {
		return err
	}

	cocktails := []models.Cocktail{
		{
			Name:         "Margarita",
			GlassID:      "margarita_glass",
			Tags:         cocktailTags,
			Instructions: "Shake with ice and strain into a salt-rimmed glass.",
			IngredientLines: []models.CocktailIngredientLine{
				{Order: 1, IngredientID: tequila.ID, Amount: amount("50"), UnitID: &ml},
				{Order: 2, IngredientID: tripleSec.ID, Amount: amount("20"), UnitID: &ml},
				{Order: 3, IngredientID: lime.ID, Amount: amount("15"), UnitID: &ml},
			},
		},
		{
			Name:         "Daiquiri",
			GlassID:      "cocktail_glass",
			Tags:         cocktailTags,
			Instructions: "Shake hard with ice and double strain.",
			IngredientLines: []models.CocktailIngredientLine{
				{Order: 1, IngredientID: rum.ID, Amount: amount("60"), UnitID: &ml},
				{Order: 2, IngredientID: lime.ID, Amount: amount("20"), UnitID: &ml},
				{Order: 3, IngredientID: sugar.ID, Amount: amount("15"), UnitID: &ml},
			},
		},
		{
			Name:         "Mojito",
			GlassID:      "highball_glass",
			Tags:         cocktailTags,
			Instructions: "Muddle mint with sugar and lime, add rum and ice, top with soda.",
			IngredientLines: []models.CocktailIngredientLine{
				{Order: 1, IngredientID: rum.ID, Amount: amount("45"), UnitID: &ml},
				{Order: 2, IngredientID: lime.ID, Amount: amount("20"), UnitID: &ml},
				{Order: 3, IngredientID: mint.ID, Amount: amount("6"), UnitID: &leaf},
				{Order: 4, IngredientID: sugar.ID, Amount: amount("10"), UnitID: &ml},
				{Order: 5, IngredientID: soda.ID, IsOptional: true},
			},
		},
	}

	for i := range cocktails {
		if err := store.CreateCocktail(ctx, &cocktails[i]); err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
