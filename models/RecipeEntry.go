package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecipeEntry is one edge of the recipe graph: the parent needs Quantity
// of the source per batch. Kind columns hold "ingredient" or "product".
type RecipeEntry struct {
	gorm.Model

	// --- Parent ---
	ParentKind string `gorm:"not null;index:idx_recipe_parent" json:"parent_kind"`
	ParentID   uint   `gorm:"not null;index:idx_recipe_parent" json:"parent_id"`

	// --- Source Link ---
	SourceKind string `gorm:"not null" json:"source_kind"`
	SourceID   uint   `gorm:"not null" json:"source_id"`

	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_needed"`
	Unit     string          `gorm:"not null" json:"unit_of_measure"`
	Notes    string          `gorm:"type:text" json:"notes"`

	// Position keeps the prep-sheet ordering of the entries stable.
	Position int `gorm:"not null;default:0" json:"position"`
}
