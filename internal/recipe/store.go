package recipe

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mise/models"
)

// Store persists the edge set of the recipe graph. Recipes are replaced
// wholesale; there is no per-entry patch operation.
type Store interface {
	// Recipe returns the parent's current entries in prep-sheet order, an
	// empty slice when none are defined.
	Recipe(ctx context.Context, parent Node) ([]Entry, error)

	// ReplaceRecipe atomically swaps the parent's entry set. Callers are
	// expected to have run the Validator first; the store re-checks only
	// the local invariants (positive quantities, sources that exist) and
	// rejects the whole write on any violation.
	ReplaceRecipe(ctx context.Context, parent Node, entries []Entry) error

	// AllRecipes bulk-loads every recipe keyed by parent, the one read the
	// graph walkers use instead of a query per node.
	AllRecipes(ctx context.Context) (map[Node][]Entry, error)
}

// GormStore implements Store on the recipe_entries table.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Recipe(ctx context.Context, parent Node) ([]Entry, error) {
	var rows []models.RecipeEntry
	if err := s.DB.WithContext(ctx).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Order("position ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load recipe for %s: %w", parent, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromRow(row))
	}
	return entries, nil
}

func (s *GormStore) ReplaceRecipe(ctx context.Context, parent Node, entries []Entry) error {
	if !parent.Kind.Valid() {
		return &ValidationError{Problems: []string{fmt.Sprintf("unknown parent kind %q", parent.Kind)}}
	}
	if parent.IsDraft() {
		return &ValidationError{Problems: []string{"parent must be persisted before its recipe is saved"}}
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		problems := localProblems(entries)

		missing, err := missingSources(tx, entries)
		if err != nil {
			return err
		}
		for _, node := range missing {
			problems = append(problems, fmt.Sprintf("source %s does not exist in the ledger", node))
		}

		if len(problems) > 0 {
			return &ValidationError{Problems: problems}
		}

		if err := tx.Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
			Delete(&models.RecipeEntry{}).Error; err != nil {
			return fmt.Errorf("clear recipe for %s: %w", parent, err)
		}

		if len(entries) == 0 {
			return nil
		}

		rows := make([]models.RecipeEntry, 0, len(entries))
		for position, entry := range entries {
			rows = append(rows, models.RecipeEntry{
				ParentKind: string(parent.Kind),
				ParentID:   parent.ID,
				SourceKind: string(entry.Source.Kind),
				SourceID:   entry.Source.ID,
				Quantity:   entry.Quantity,
				Unit:       entry.Unit,
				Notes:      entry.Notes,
				Position:   position,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert recipe for %s: %w", parent, err)
		}
		return nil
	})
}

func (s *GormStore) AllRecipes(ctx context.Context) (map[Node][]Entry, error) {
	var rows []models.RecipeEntry
	if err := s.DB.WithContext(ctx).
		Order("parent_kind ASC, parent_id ASC, position ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load recipe graph: %w", err)
	}

	recipes := make(map[Node][]Entry)
	for _, row := range rows {
		parent := Node{Kind: Kind(row.ParentKind), ID: row.ParentID}
		recipes[parent] = append(recipes[parent], entryFromRow(row))
	}
	return recipes, nil
}

func entryFromRow(row models.RecipeEntry) Entry {
	return Entry{
		Source:   Node{Kind: Kind(row.SourceKind), ID: row.SourceID},
		Quantity: row.Quantity,
		Unit:     row.Unit,
		Notes:    row.Notes,
	}
}

// localProblems reports the per-entry checks both the store and the
// validator enforce. Entry numbering is 1-based to match prep-sheet lines.
func localProblems(entries []Entry) []string {
	var problems []string
	for idx, entry := range entries {
		if !entry.Source.Kind.Valid() {
			problems = append(problems, fmt.Sprintf("entry %d: unknown source kind %q", idx+1, entry.Source.Kind))
		}
		if entry.Source.IsDraft() {
			problems = append(problems, fmt.Sprintf("entry %d: source id must be set", idx+1))
		}
		if entry.Quantity.Sign() <= 0 {
			problems = append(problems, fmt.Sprintf("entry %d: quantity_needed must be positive, got %s", idx+1, entry.Quantity))
		}
	}
	return problems
}

func splitSourceIDs(entries []Entry) (ingredientIDs, productIDs []uint) {
	seen := make(map[Node]bool, len(entries))
	for _, entry := range entries {
		node := entry.Source
		if node.IsDraft() || !node.Kind.Valid() || seen[node] {
			continue
		}
		seen[node] = true
		switch node.Kind {
		case KindIngredient:
			ingredientIDs = append(ingredientIDs, node.ID)
		case KindProduct:
			productIDs = append(productIDs, node.ID)
		}
	}
	return ingredientIDs, productIDs
}

func missingSources(tx *gorm.DB, entries []Entry) ([]Node, error) {
	ingredientIDs, productIDs := splitSourceIDs(entries)

	present := make(map[Node]bool, len(ingredientIDs)+len(productIDs))
	if len(ingredientIDs) > 0 {
		var found []uint
		if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ingredientIDs).Pluck("id", &found).Error; err != nil {
			return nil, fmt.Errorf("check ingredient sources: %w", err)
		}
		for _, id := range found {
			present[Node{Kind: KindIngredient, ID: id}] = true
		}
	}
	if len(productIDs) > 0 {
		var found []uint
		if err := tx.Model(&models.Product{}).Where("id IN ?", productIDs).Pluck("id", &found).Error; err != nil {
			return nil, fmt.Errorf("check product sources: %w", err)
		}
		for _, id := range found {
			present[Node{Kind: KindProduct, ID: id}] = true
		}
	}

	var missing []Node
	reported := make(map[Node]bool)
	for _, entry := range entries {
		node := entry.Source
		if node.IsDraft() || !node.Kind.Valid() || present[node] || reported[node] {
			continue
		}
		reported[node] = true
		missing = append(missing, node)
	}
	return missing, nil
}
