package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Ingredient struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Unit string `gorm:"not null" json:"unit"`

	// UnitCost is the purchase cost per Unit. When IsComposite is set the
	// stored value is ignored and the cost is derived from the recipe.
	UnitCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	IsComposite bool            `gorm:"not null;default:false" json:"is_composite"`

	// BatchSize is how many Units one pass of the recipe yields. Required
	// to be positive for composite ingredients, unused otherwise.
	BatchSize decimal.Decimal `gorm:"type:decimal(20,4)" json:"batch_size"`

	Notes string `gorm:"type:text" json:"notes"`
}
