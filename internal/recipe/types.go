// Package recipe implements the costing engine behind the kitchen: a shared
// directed graph of ingredients and products, structural validation of recipe
// edits, and bottom-up unit cost and margin resolution over that graph.
package recipe

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two node families sharing the recipe graph.
type Kind string

const (
	KindIngredient Kind = "ingredient"
	KindProduct    Kind = "product"
)

// ParseKind normalizes a wire-format kind string.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(KindIngredient):
		return KindIngredient, nil
	case string(KindProduct):
		return KindProduct, nil
	default:
		return "", fmt.Errorf("unknown node kind %q", value)
	}
}

// Valid reports whether the kind is one of the two known families.
func (k Kind) Valid() bool {
	return k == KindIngredient || k == KindProduct
}

// Node identifies one vertex of the recipe graph. An ID of zero marks a
// draft parent that has not been persisted yet; it can never collide with a
// stored row.
type Node struct {
	Kind Kind
	ID   uint
}

func (n Node) String() string {
	if n.IsDraft() {
		return fmt.Sprintf("new %s", n.Kind)
	}
	return fmt.Sprintf("%s/%d", n.Kind, n.ID)
}

// IsDraft reports whether the node refers to a not-yet-saved parent.
func (n Node) IsDraft() bool {
	return n.ID == 0
}

// Entry is one line of a recipe: the parent consumes Quantity of Source per
// batch. Slice order is the prep-sheet order.
type Entry struct {
	Source   Node
	Quantity decimal.Decimal
	Unit     string
	Notes    string
}

// IngredientRecord is the ledger's read-only view of an ingredient.
type IngredientRecord struct {
	Name        string
	UnitCost    decimal.Decimal
	IsComposite bool
	BatchSize   decimal.Decimal
}

// ProductRecord is the ledger's read-only view of a product.
type ProductRecord struct {
	Name         string
	SellingPrice decimal.Decimal
}

// Margin breaks down the profitability of one product. Every field is
// unrounded; presentation layers apply display rounding.
type Margin struct {
	Cost         decimal.Decimal
	SellingPrice decimal.Decimal
	GrossProfit  decimal.Decimal
	MarginPct    decimal.Decimal
}
