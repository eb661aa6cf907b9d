package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"mise/internal/recipe"
	"mise/internal/validation"
)

var importColumns = []string{"parent_kind", "parent_id", "source_kind", "source_id", "quantity", "unit", "notes"}

type importRow struct {
	ParentKind string `validate:"required,node_kind"`
	ParentID   uint   `validate:"required"`
	SourceKind string `validate:"required,node_kind"`
	SourceID   uint   `validate:"required"`
	Quantity   decimal.Decimal
	Unit       string
	Notes      string
}

// newImportCommand bulk-loads recipes from a CSV export. Rows are grouped
// by parent and each group replaces that parent's recipe atomically, so a
// rejected parent leaves its previous recipe untouched.
func newImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Replace recipes in bulk from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath := strings.TrimSpace(args[0])
			if csvPath == "" {
				return errors.New("csv path must not be empty")
			}

			rows, err := readImportCSV(csvPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			tk, err := connectFunc(ctx)
			if err != nil {
				return err
			}

			// Group rows by parent, keeping first-appearance order so the
			// summary reads like the file.
			order := make([]recipe.Node, 0)
			grouped := make(map[recipe.Node][]recipe.Entry)
			for _, row := range rows {
				parent := recipe.Node{Kind: recipe.Kind(row.ParentKind), ID: row.ParentID}
				if _, seen := grouped[parent]; !seen {
					order = append(order, parent)
				}
				grouped[parent] = append(grouped[parent], recipe.Entry{
					Source:   recipe.Node{Kind: recipe.Kind(row.SourceKind), ID: row.SourceID},
					Quantity: row.Quantity,
					Unit:     row.Unit,
					Notes:    row.Notes,
				})
			}

			out := cmd.OutOrStdout()
			rejected := make([]string, 0)
			for _, parent := range order {
				if err := tk.engine.Replace(ctx, parent, grouped[parent]); err != nil {
					var valErr *recipe.ValidationError
					if !errors.As(err, &valErr) {
						return fmt.Errorf("replace %s: %w", parent, err)
					}
					rejected = append(rejected, parent.String())
					fmt.Fprintf(out, "%s rejected:\n", parent)
					for _, problem := range valErr.Problems {
						fmt.Fprintf(out, "  - %s\n", problem)
					}
					continue
				}
				fmt.Fprintf(out, "%s replaced with %d entries\n", parent, len(grouped[parent]))
			}

			fmt.Fprintf(out, "imported %d of %d recipes from %s\n",
				len(order)-len(rejected), len(order), filepath.Base(csvPath))

			if len(rejected) > 0 {
				return fmt.Errorf("rejected parents: %s", strings.Join(rejected, ", "))
			}
			return nil
		},
	}
}

func readImportCSV(path string) ([]importRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv is empty")
	}

	index := make(map[string]int, len(records[0]))
	for i, column := range records[0] {
		index[strings.TrimSpace(strings.ToLower(column))] = i
	}
	for _, column := range importColumns {
		if column == "notes" || column == "unit" {
			continue
		}
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("csv is missing the %q column", column)
		}
	}

	field := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]importRow, 0, len(records)-1)
	for i, record := range records[1:] {
		lineNo := i + 2
		if len(record) == 0 {
			continue
		}

		parentID, err := parseCSVID(field(record, "parent_id"))
		if err != nil {
			return nil, fmt.Errorf("line %d: parent_id: %w", lineNo, err)
		}
		sourceID, err := parseCSVID(field(record, "source_id"))
		if err != nil {
			return nil, fmt.Errorf("line %d: source_id: %w", lineNo, err)
		}
		quantity, err := decimal.NewFromString(field(record, "quantity"))
		if err != nil {
			return nil, fmt.Errorf("line %d: quantity: %w", lineNo, err)
		}

		row := importRow{
			ParentKind: strings.ToLower(field(record, "parent_kind")),
			ParentID:   parentID,
			SourceKind: strings.ToLower(field(record, "source_kind")),
			SourceID:   sourceID,
			Quantity:   quantity,
			Unit:       field(record, "unit"),
			Notes:      field(record, "notes"),
		}
		if errs := validation.Struct(row); len(errs) > 0 {
			return nil, fmt.Errorf("line %d: %s", lineNo, errs[0].Message())
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.New("csv has no data rows")
	}
	return rows, nil
}

func parseCSVID(value string) (uint, error) {
	idValue, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a positive integer, got %q", value)
	}
	return uint(idValue), nil
}
