package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	applog "mise/internal/log"
)

type rootOptions struct {
	Format string
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "misectl",
		Short: "Back-of-house costing utilities",
		Long:  "misectl inspects and maintains the recipe graph behind the costing service.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newCostCommand(opts))
	cmd.AddCommand(newMarginCommand(opts))
	cmd.AddCommand(newRecipeCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newImportCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}

func main() {
	if err := godotenv.Load(); err != nil {
		applog.Debug(context.Background(), "no .env file loaded", "error", err)
	}

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
