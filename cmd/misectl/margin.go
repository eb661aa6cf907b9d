package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mise/internal/recipe"
)

type marginOutput struct {
	ProductID      uint   `json:"product_id"`
	Name           string `json:"name"`
	IngredientCost string `json:"ingredient_cost"`
	SellingPrice   string `json:"selling_price"`
	GrossProfit    string `json:"gross_profit"`
	MarginPct      string `json:"margin_pct"`
}

func newMarginCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "margin <product-id>",
		Short: "Print a product's cost, gross profit and margin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idValue, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || idValue == 0 {
				return fmt.Errorf("product id must be a positive integer, got %q", args[0])
			}
			productID := uint(idValue)

			ctx := cmd.Context()
			tk, err := connectFunc(ctx)
			if err != nil {
				return err
			}

			name, err := tk.nodeName(ctx, recipe.Node{Kind: recipe.KindProduct, ID: productID})
			if err != nil {
				return err
			}
			margin, err := tk.engine.ProductMargin(ctx, productID)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(marginOutput{
					ProductID:      productID,
					Name:           name,
					IngredientCost: margin.Cost.StringFixed(2),
					SellingPrice:   margin.SellingPrice.StringFixed(2),
					GrossProfit:    margin.GrossProfit.StringFixed(2),
					MarginPct:      margin.MarginPct.StringFixed(1),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, name)
			fmt.Fprintf(out, "  ingredient cost  %s\n", margin.Cost.StringFixed(2))
			fmt.Fprintf(out, "  selling price    %s\n", margin.SellingPrice.StringFixed(2))
			fmt.Fprintf(out, "  gross profit     %s\n", margin.GrossProfit.StringFixed(2))
			fmt.Fprintf(out, "  margin           %s%%\n", margin.MarginPct.StringFixed(1))
			return nil
		},
	}
}
