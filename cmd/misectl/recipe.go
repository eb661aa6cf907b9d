package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mise/internal/recipe"
)

type recipeEntryOutput struct {
	SourceKind string `json:"source_kind"`
	SourceID   uint   `json:"source_id"`
	SourceName string `json:"source_name"`
	Quantity   string `json:"quantity_needed"`
	Unit       string `json:"unit_of_measure"`
	Notes      string `json:"notes,omitempty"`
}

func newRecipeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recipe <kind> <id>",
		Short: "Print the stored recipe of a node in prep-sheet order",
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
			entries, err := tk.engine.Recipe(ctx, node)
			if err != nil {
				return err
			}

			outputs := make([]recipeEntryOutput, 0, len(entries))
			for _, item := range entries {
				sourceName, err := tk.nodeName(ctx, item.Source)
				if err != nil {
					var nfErr *recipe.NotFoundError
					if !errors.As(err, &nfErr) {
						return err
					}
					sourceName = item.Source.String()
				}
				outputs = append(outputs, recipeEntryOutput{
					SourceKind: string(item.Source.Kind),
					SourceID:   item.Source.ID,
					SourceName: sourceName,
					Quantity:   item.Quantity.String(),
					Unit:       item.Unit,
					Notes:      item.Notes,
				})
			}

			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(outputs)
			}

			out := cmd.OutOrStdout()
			if len(outputs) == 0 {
				fmt.Fprintf(out, "%s has no recipe recorded\n", name)
				return nil
			}
			fmt.Fprintf(out, "%s uses:\n", name)
			for i, item := range outputs {
				line := fmt.Sprintf("  %d. %s %s %s", i+1, item.Quantity, item.Unit, item.SourceName)
				if item.Notes != "" {
					line += fmt.Sprintf(" (%s)", item.Notes)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
