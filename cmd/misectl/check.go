package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"mise/internal/recipe"
)

type checkFinding struct {
	Parent   string   `json:"parent"`
	Problems []string `json:"problems"`
}

type checkOutput struct {
	Checked  int            `json:"checked"`
	Findings []checkFinding `json:"findings"`
}

// newCheckCommand sweeps every stored recipe through the same validation a
// write goes through, surfacing cycles, depth breaches and dangling sources
// that may have crept in outside the service.
func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate every stored recipe against the graph invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tk, err := connectFunc(ctx)
			if err != nil {
				return err
			}

			graph, err := tk.store.AllRecipes(ctx)
			if err != nil {
				return err
			}

			parents := make([]recipe.Node, 0, len(graph))
			for parent := range graph {
				parents = append(parents, parent)
			}
			sort.Slice(parents, func(i, j int) bool {
				if parents[i].Kind != parents[j].Kind {
					return parents[i].Kind < parents[j].Kind
				}
				return parents[i].ID < parents[j].ID
			})

			result := checkOutput{Checked: len(parents), Findings: []checkFinding{}}
			for _, parent := range parents {
				err := tk.engine.Validate(ctx, parent, graph[parent])
				if err == nil {
					continue
				}
				var valErr *recipe.ValidationError
				if !errors.As(err, &valErr) {
					return err
				}
				result.Findings = append(result.Findings, checkFinding{
					Parent:   parent.String(),
					Problems: valErr.Problems,
				})
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				if err := json.NewEncoder(out).Encode(result); err != nil {
					return err
				}
			} else if len(result.Findings) == 0 {
				fmt.Fprintf(out, "checked %d recipes, all clean\n", result.Checked)
			} else {
				fmt.Fprintf(out, "checked %d recipes, %d with problems\n", result.Checked, len(result.Findings))
				for _, finding := range result.Findings {
					fmt.Fprintf(out, "%s:\n", finding.Parent)
					for _, problem := range finding.Problems {
						fmt.Fprintf(out, "  - %s\n", problem)
					}
				}
			}

			if len(result.Findings) > 0 {
				return fmt.Errorf("%d of %d recipes failed validation", len(result.Findings), result.Checked)
			}
			return nil
		},
	}
}
