package recipe

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAcceptsValidRecipe(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewGormStore(db)
	validator := NewValidator(store, NewGormLedger(db), 0)
	ctx := context.Background()

	beef := createIngredient(t, db, "Beef", "lb", "4.00")
	tortilla := createIngredient(t, db, "Tortilla", "each", "0.10")
	taco := createProduct(t, db, "Beef Taco", "3.50")

	err := validator.Check(ctx, Node{Kind: KindProduct, ID: taco.ID}, []Entry{
		entry(KindIngredient, beef.ID, "0.25"),
		entry(KindIngredient, tortilla.ID, "1"),
	})
	require.NoError(t, err)
}

func TestCheckRejectsCycleBetweenProducts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewGormStore(db)
	validator := NewValidator(store, NewGormLedger(db), 0)
	ctx := context.Background()

	plate := createProduct(t, db, "Taco Plate", "9.00")
	combo := createProduct(t, db, "Combo Box", "12.00")

	// Committed: the plate already includes the combo.
	require.NoError(t, store.ReplaceRecipe(ctx, Node{Kind: KindProduct, ID: plate.ID}, []Entry{
		entry(KindProduct, combo.ID, "1"),
	}))

	// Editing the combo to include the plate closes the loop.
	err := validator.Check(ctx, Node{Kind: KindProduct, ID: combo.ID}, []Entry{
		entry(KindProduct, plate.ID, "1"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Problems, 1)
	assert.Contains(t, vErr.Problems[0], "cycle detected: Combo Box → Taco Plate → Combo Box")

	// Nothing was written by a failed validation.
	got, err := store.Recipe(ctx, Node{Kind: KindProduct, ID: combo.ID})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckRejectsSelfReference(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewGormStore(db)
	validator := NewValidator(store, NewGormLedger(db), 0)

	chili := createComposite(t, db, "Chili Base", "qt", "4")

	err := validator.Check(context.Background(), Node{Kind: KindIngredient, ID: chili.ID}, []Entry{
		entry(KindIngredient, chili.ID, "1"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Problems[0], "cycle detected: Chili Base → Chili Base")
}

func TestCheckRejectsCycleAcrossKinds(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewGormStore(db)
	validator := NewValidator(store, NewGormLedger(db), 0)
	ctx := context.Background()

	tacoMeat := createComposite(t, db, "Taco Meat", "lb", "10")
	taco := createProduct(t, db, "Beef Taco", "3.50")

	// Committed: the product uses the composite ingredient.
	require.NoError(t, store.ReplaceRecipe(ctx, Node{Kind: KindProduct, ID: taco.ID}, []Entry{
		entry(KindIngredient, tacoMeat.ID, "0.25"),
	}))

	// A composite ingredient reaching back into the product must be caught
	// by the same walk, not a per-kind one.
	err := validator.Check(ctx, Node{Kind: KindIngredient, ID: tacoMeat.ID}, []Entry{
		entry(KindProduct, taco.ID, "1"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Problems[0], "cycle detected: Taco Meat → Beef Taco → Taco Meat")
}

func TestCheckEnforcesDepthBound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewGormStore(db)
	validator := NewValidator(store, NewGormLedger(db), 3)
	ctx := context.Background()

	base := createIngredient(t, db, "Flour", "lb", "0.40")
	levels := make([]Node, 0, 4)
	previous := Node{Kind: KindIngredient, ID: base.ID}
	for i := 1; i <= 3; i++ {
		composite := createComposite(t, db, fmt.Sprintf("Prep Level %d", i), "lb", "1")
		node := Node{Kind: KindIngredient, ID: composite.ID}
		require.NoError(t, store.ReplaceRecipe(ctx, node, []Entry{
			entry(previous.Kind, previous.ID, "1"),
		}))
		levels = append(levels, node)
		previous = node
	}

	// Three levels below the parent sits exactly at the bound.
	okParent := createProduct(t, db, "At The Limit", "5.00")
	require.NoError(t, validator.Check(ctx, Node{Kind: KindProduct, ID: okParent.ID}, []Entry{
		entry(levels[1].Kind, levels[1].ID, "1"),
	}))

	// Four levels exceeds it.
	deepParent := createProduct(t, db, "One Too Deep", "5.00")
	err := validator.Check(ctx, Node{Kind: KindProduct, ID: deepParent.ID}, []Entry{
		entry(levels[2].Kind, levels[2].ID, "1"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Problems[0], "maximum is 3")
	assert.Contains(t, vErr.Problems[0], "One Too Deep → Prep Level 3 → Prep Level 2 → Prep Level 1 → Flour")
}

func TestCheckCollectsEveryFieldProblem(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewGormStore(db)
	validator := NewValidator(store, NewGormLedger(db), 0)

	// Composite parent saved with a zero batch size.
	broken := createComposite(t, db, "Broken Batch", "qt", "0")

	err := validator.Check(context.Background(), Node{Kind: KindIngredient, ID: broken.ID}, []Entry{
		entry(KindIngredient, 9999, "-1"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.GreaterOrEqual(t, len(vErr.Problems), 3)
	assert.Contains(t, vErr.Error(), "quantity_needed must be positive")
	assert.Contains(t, vErr.Error(), "ingredient/9999 does not exist")
	assert.Contains(t, vErr.Error(), "batch_size must be positive")
}

func TestCheckRejectsUnknownParent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewGormStore(db)
	validator := NewValidator(store, NewGormLedger(db), 0)

	err := validator.Check(context.Background(), Node{Kind: KindProduct, ID: 777}, nil)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Problems[0], "parent product/777 does not exist")
}

func TestCheckAllowsDraftParent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewGormStore(db)
	validator := NewValidator(store, NewGormLedger(db), 0)
	ctx := context.Background()

	beef := createIngredient(t, db, "Beef", "lb", "4.00")

	// A not-yet-saved product can have its draft recipe checked; the zero
	// id never collides with a persisted node.
	err := validator.Check(ctx, Node{Kind: KindProduct}, []Entry{
		entry(KindIngredient, beef.ID, "0.5"),
	})
	require.NoError(t, err)
}

func TestCheckReplacesParentEdgesBeforeWalking(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewGormStore(db)
	validator := NewValidator(store, NewGormLedger(db), 0)
	ctx := context.Background()

	soup := createComposite(t, db, "Tortilla Soup", "qt", "6")
	stock := createComposite(t, db, "Chicken Stock", "qt", "8")
	carrot := createIngredient(t, db, "Carrot", "lb", "0.30")

	soupNode := Node{Kind: KindIngredient, ID: soup.ID}
	stockNode := Node{Kind: KindIngredient, ID: stock.ID}

	// Fabricate a committed loop directly in the table; the validator must
	// judge the proposal against the graph with the parent's old edges
	// removed, so replacing the soup's recipe can repair the state.
	insertRawEntry(t, db, soupNode, stockNode, "2")
	insertRawEntry(t, db, stockNode, soupNode, "1")

	err := validator.Check(ctx, soupNode, []Entry{
		entry(KindIngredient, carrot.ID, "1"),
	})
	require.NoError(t, err)
}
