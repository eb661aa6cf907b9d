package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type costOutput struct {
	Kind           string `json:"kind"`
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	IngredientCost string `json:"ingredient_cost"`
}

func newCostCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cost <kind> <id>",
		Short: "Resolve the per-unit ingredient cost of a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := parseNodeArgs(args[0], args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			tk, err := connectFunc(ctx)
			if err != nil {
				return err
			}

			name, err := tk.nodeName(ctx, node)
			if err != nil {
				return err
			}
			cost, err := tk.engine.UnitCost(ctx, node)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(costOutput{
					Kind:           string(node.Kind),
					ID:             node.ID,
					Name:           name,
					IngredientCost: cost.StringFixed(2),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) costs %s per unit\n", name, node, cost.StringFixed(2))
			return nil
		},
	}
}
