package recipe

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mise/models"
)

// Ledger is the engine's read-only window onto ingredient and product
// records. Lookups are batched; ids without a record are absent from the
// returned map and callers decide whether that is an error. The engine never
// writes through this interface.
type Ledger interface {
	Ingredients(ctx context.Context, ids []uint) (map[uint]IngredientRecord, error)
	Products(ctx context.Context, ids []uint) (map[uint]ProductRecord, error)
}

// GormLedger adapts the ingredient and product tables to the Ledger
// interface.
type GormLedger struct {
	DB *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{DB: db}
}

func (l *GormLedger) Ingredients(ctx context.Context, ids []uint) (map[uint]IngredientRecord, error) {
	records := make(map[uint]IngredientRecord, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	var rows []models.Ingredient
	if err := l.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}

	for _, row := range rows {
		records[row.ID] = IngredientRecord{
			Name:        row.Name,
			UnitCost:    row.UnitCost,
			IsComposite: row.IsComposite,
			BatchSize:   row.BatchSize,
		}
	}
	return records, nil
}

func (l *GormLedger) Products(ctx context.Context, ids []uint) (map[uint]ProductRecord, error) {
	records := make(map[uint]ProductRecord, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	var rows []models.Product
	if err := l.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	for _, row := range rows {
		records[row.ID] = ProductRecord{
			Name:         row.Name,
			SellingPrice: row.SellingPrice,
		}
	}
	return records, nil
}
