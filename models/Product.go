package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	gorm.Model
	Name         string          `gorm:"uniqueIndex;not null" json:"name"`
	Unit         string          `json:"unit"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"selling_price"`
	Notes        string          `gorm:"type:text" json:"notes"`
}
