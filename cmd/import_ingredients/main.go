// Command import_ingredients loads ingredients from a CSV file into the
// configured database. It writes to storage directly, so a running server keeps
// showing its cached ingredient lists until its next mutation or restart.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"barkeep/internal/catalog"
	"barkeep/internal/config"
	"barkeep/internal/db"
	"barkeep/models"
)

var cleanWhitespace = regexp.MustCompile(`\s+`)

// Column headers understood by the importer. Only Name is required.
const (
	columnName        = "Name"
	columnDescription = "Description"
	columnTags        = "Tags"
	columnBase        = "Base Ingredient"
	columnInBar       = "In Bar"
	columnShopping    = "Shopping List"
)

func main() {
	csvPath := "ingredients.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(context.Background(), csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	imported, err := importFile(ctx, database, csvPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d ingredients from %s\n", imported, filepath.Base(csvPath))
	return nil
}

// importFile upserts every row of the CSV by case-insensitive name, then
// links branded rows to their base ingredient.
func importFile(ctx context.Context, database *gorm.DB, csvPath string) (int, error) {
	records, err := readCSV(csvPath)
	if err != nil {
		return 0, fmt.Errorf("read csv: %w", err)
	}

	store := catalog.New(database)
	if err := store.SeedReference(ctx); err != nil {
		return 0, fmt.Errorf("seed reference data: %w", err)
	}

	tags, err := store.IngredientTags(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ingredient tags: %w", err)
	}
	tagsByName := make(map[string]models.Tag, len(tags))
	for _, tag := range tags {
		tagsByName[strings.ToLower(tag.Name)] = tag.AsTag()
	}

	idsByName := make(map[string]uint, len(records))
	for idx, record := range records {
		ingredient, err := buildIngredient(record, tagsByName)
		if err != nil {
			return 0, fmt.Errorf("record %d (%s): %w", idx+1, record[columnName], err)
		}
		if err := upsertIngredient(ctx, database, store, &ingredient); err != nil {
			return 0, fmt.Errorf("record %d (%s): %w", idx+1, ingredient.Name, err)
		}
		idsByName[strings.ToLower(ingredient.Name)] = ingredient.ID
	}

	for idx, record := range records {
		baseName := normalizeText(record[columnBase])
		if baseName == "" {
			continue
		}
		id := idsByName[strings.ToLower(normalizeText(record[columnName]))]
		baseID, err := findIngredientID(ctx, database, baseName)
		if err != nil {
			return 0, fmt.Errorf("record %d (%s): base %q: %w", idx+1, record[columnName], baseName, err)
		}
		if err := store.LinkBase(ctx, id, baseID); err != nil {
			return 0, fmt.Errorf("record %d (%s): %w", idx+1, record[columnName], err)
		}
	}

	return len(records), nil
}

func upsertIngredient(ctx context.Context, database *gorm.DB, store *catalog.Store, ingredient *models.Ingredient) error {
	id, err := findIngredientID(ctx, database, ingredient.Name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.CreateIngredient(ctx, ingredient)
	case err != nil:
		return err
	}

	existing, err := store.Ingredient(ctx, id)
	if err != nil {
		return err
	}
	ingredient.ID = existing.ID
	ingredient.BaseIngredientID = existing.BaseIngredientID
	if ingredient.PhotoRef == "" {
		ingredient.PhotoRef = existing.PhotoRef
	}
	return store.UpdateIngredient(ctx, ingredient)
}

func findIngredientID(ctx context.Context, database *gorm.DB, name string) (uint, error) {
	var existing models.Ingredient
	err := database.WithContext(ctx).
		Select("id").
		Where("lower(name) = ?", strings.ToLower(name)).
		Order("id asc").
		First(&existing).Error
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[strings.TrimSpace(key)] = strings.TrimSpace(row[idx])
		}
		if record[columnName] == "" {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func buildIngredient(row map[string]string, tagsByName map[string]models.Tag) (models.Ingredient, error) {
	ingredient := models.Ingredient{
		Name:           normalizeText(row[columnName]),
		Description:    normalizeText(row[columnDescription]),
		InBar:          parseFlag(row[columnInBar]),
		InShoppingList: parseFlag(row[columnShopping]),
	}

	for _, name := range splitList(row[columnTags]) {
		tag, ok := tagsByName[strings.ToLower(name)]
		if !ok {
			return models.Ingredient{}, fmt.Errorf("unknown ingredient tag %q", name)
		}
		ingredient.Tags = append(ingredient.Tags, tag)
	}

	return ingredient, nil
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	return strings.TrimSpace(cleanWhitespace.ReplaceAllString(value, " "))
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "y", "yes", "true", "x":
		return true
	default:
		return false
	}
}

func splitList(value string) []string {
	value = normalizeValue(value)
	if value == "" {
		return nil
	}

	parts := strings.Split(strings.ReplaceAll(value, ";", ","), ",")
	result := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(clean)]; ok {
			continue
		}
		seen[strings.ToLower(clean)] = struct{}{}
		result = append(result, clean)
	}
	return result
}
