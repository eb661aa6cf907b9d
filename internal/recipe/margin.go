package recipe

import (
	"context"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ProductMargin combines a product's resolved recipe cost with its selling
// price. A selling price of zero yields a margin of 0%, never a division
// error. Results are unrounded.
func (r *Resolver) ProductMargin(ctx context.Context, productID uint) (Margin, error) {
	node := Node{Kind: KindProduct, ID: productID}

	records, err := r.Ledger.Products(ctx, []uint{productID})
	if err != nil {
		return Margin{}, err
	}
	record, ok := records[productID]
	if !ok {
		return Margin{}, &NotFoundError{Node: node}
	}

	cost, err := r.UnitCost(ctx, node)
	if err != nil {
		return Margin{}, err
	}

	gross := record.SellingPrice.Sub(cost)
	pct := decimal.Zero
	if record.SellingPrice.Sign() > 0 {
		pct = gross.Div(record.SellingPrice).Mul(oneHundred)
	}

	return Margin{
		Cost:         cost,
		SellingPrice: record.SellingPrice,
		GrossProfit:  gross,
		MarginPct:    pct,
	}, nil
}
