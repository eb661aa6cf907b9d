package recipe

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mise/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:recipe-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open sqlite test database")

	require.NoError(t, db.AutoMigrate(
		&models.Ingredient{},
		&models.Product{},
		&models.RecipeEntry{},
	), "migrate test database")

	return db
}

// newEngine wires a Service with the GORM store and ledger the way the
// server does, against the given database.
func newEngine(db *gorm.DB, maxDepth int) *Service {
	store := NewGormStore(db)
	ledger := NewGormLedger(db)
	return NewService(
		store,
		NewValidator(store, ledger, maxDepth),
		NewResolver(store, ledger, maxDepth),
	)
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func createIngredient(t *testing.T, db *gorm.DB, name, unit, cost string) models.Ingredient {
	t.Helper()

	ingredient := models.Ingredient{
		Name:     name,
		Unit:     unit,
		UnitCost: dec(cost),
	}
	require.NoError(t, db.Create(&ingredient).Error, "create ingredient %s", name)
	return ingredient
}

func createComposite(t *testing.T, db *gorm.DB, name, unit, batchSize string) models.Ingredient {
	t.Helper()

	ingredient := models.Ingredient{
		Name:        name,
		Unit:        unit,
		IsComposite: true,
		BatchSize:   dec(batchSize),
	}
	require.NoError(t, db.Create(&ingredient).Error, "create composite %s", name)
	return ingredient
}

func createProduct(t *testing.T, db *gorm.DB, name, price string) models.Product {
	t.Helper()

	product := models.Product{
		Name:         name,
		Unit:         "each",
		SellingPrice: dec(price),
	}
	require.NoError(t, db.Create(&product).Error, "create product %s", name)
	return product
}

func entry(kind Kind, id uint, quantity string) Entry {
	return Entry{
		Source:   Node{Kind: kind, ID: id},
		Quantity: dec(quantity),
		Unit:     "each",
	}
}

// insertRawEntry writes a recipe row straight to the table, bypassing the
// validated replace path. Tests use it to fabricate states the engine is
// supposed to defend against.
func insertRawEntry(t *testing.T, db *gorm.DB, parent, source Node, quantity string) {
	t.Helper()

	row := models.RecipeEntry{
		ParentKind: string(parent.Kind),
		ParentID:   parent.ID,
		SourceKind: string(source.Kind),
		SourceID:   source.ID,
		Quantity:   dec(quantity),
		Unit:       "each",
	}
	require.NoError(t, db.Create(&row).Error, "insert raw entry %s -> %s", parent, source)
}
