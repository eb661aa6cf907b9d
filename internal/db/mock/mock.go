package mock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "mise/internal/log"
	"mise/models"
)

// New returns an in-memory sqlite database seeded with a small taco stand:
// base ingredients, two prepared (composite) ingredients and two priced menu
// products wired together through recipe entries.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:mise-mock?mode=memory&cache=shared"), &gorm.Config{
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

	if err := db.AutoMigrate(
		&models.Ingredient{},
		&models.Product{},
		&models.RecipeEntry{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	beef := models.Ingredient{
		Name:     "Beef",
		Unit:     "lb",
		UnitCost: decimal.RequireFromString("4.00"),
		Notes:    "80/20 ground chuck from the Tuesday supplier drop.",
	}

	tortilla := models.Ingredient{
		Name:     "Tortilla",
		Unit:     "each",
		UnitCost: decimal.RequireFromString("0.10"),
	}

	tomato := models.Ingredient{
		Name:     "Tomato",
		Unit:     "lb",
		UnitCost: decimal.RequireFromString("0.80"),
	}

	onion := models.Ingredient{
		Name:     "Onion",
		Unit:     "lb",
		UnitCost: decimal.RequireFromString("0.60"),
	}

	chips := models.Ingredient{
		Name:     "Tortilla Chips",
		Unit:     "lb",
		UnitCost: decimal.RequireFromString("1.20"),
	}

	tacoMeat := models.Ingredient{
		Name:        "Taco Meat",
		Unit:        "lb",
		IsComposite: true,
		BatchSize:   decimal.RequireFromString("10"),
		Notes:       "Browned in batches every morning before open.",
	}

	salsa := models.Ingredient{
		Name:        "Salsa Roja",
		Unit:        "cup",
		IsComposite: true,
		BatchSize:   decimal.RequireFromString("8"),
	}

	ingredients := []*models.Ingredient{&beef, &tortilla, &tomato, &onion, &chips, &tacoMeat, &salsa}
	for _, ingredient := range ingredients {
		if err := db.WithContext(ctx).Create(ingredient).Error; err != nil {
			return err
		}
	}

	beefTaco := models.Product{
		Name:         "Beef Taco",
		Unit:         "each",
		SellingPrice: decimal.RequireFromString("3.50"),
	}

	chipsAndSalsa := models.Product{
		Name:         "Chips and Salsa",
		Unit:         "each",
		SellingPrice: decimal.RequireFromString("4.25"),
	}

	if err := db.WithContext(ctx).Create(&beefTaco).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(&chipsAndSalsa).Error; err != nil {
		return err
	}

	entries := []models.RecipeEntry{
		{
			ParentKind: "ingredient",
			ParentID:   tacoMeat.ID,
			SourceKind: "ingredient",
			SourceID:   beef.ID,
			Quantity:   decimal.RequireFromString("10"),
			Unit:       "lb",
			Position:   0,
		},
		{
			ParentKind: "ingredient",
			ParentID:   salsa.ID,
			SourceKind: "ingredient",
			SourceID:   tomato.ID,
			Quantity:   decimal.RequireFromString("4"),
			Unit:       "lb",
			Position:   0,
		},
		{
			ParentKind: "ingredient",
			ParentID:   salsa.ID,
			SourceKind: "ingredient",
			SourceID:   onion.ID,
			Quantity:   decimal.RequireFromString("1"),
			Unit:       "lb",
			Position:   1,
		},
		{
			ParentKind: "product",
			ParentID:   beefTaco.ID,
			SourceKind: "ingredient",
			SourceID:   tacoMeat.ID,
			Quantity:   decimal.RequireFromString("0.25"),
			Unit:       "lb",
			Position:   0,
		},
		{
			ParentKind: "product",
			ParentID:   beefTaco.ID,
			SourceKind: "ingredient",
			SourceID:   tortilla.ID,
			Quantity:   decimal.RequireFromString("1"),
			Unit:       "each",
			Position:   1,
		},
		{
			ParentKind: "product",
			ParentID:   chipsAndSalsa.ID,
			SourceKind: "ingredient",
			SourceID:   salsa.ID,
			Quantity:   decimal.RequireFromString("0.5"),
			Unit:       "cup",
			Position:   0,
		},
		{
			ParentKind: "product",
			ParentID:   chipsAndSalsa.ID,
			SourceKind: "ingredient",
			SourceID:   chips.ID,
			Quantity:   decimal.RequireFromString("0.3"),
			Unit:       "lb",
			Position:   1,
		},
	}

	for _, entry := range entries {
		entryCopy := entry
		if err := db.WithContext(ctx).Create(&entryCopy).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
