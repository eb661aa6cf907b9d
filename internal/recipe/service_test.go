package recipe

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceReplaceValidatesBeforeWriting(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	engine := newEngine(db, 0)
	ctx := context.Background()

	beef := createIngredient(t, db, "Beef", "lb", "4.00")
	taco := createProduct(t, db, "Beef Taco", "3.50")
	tacoNode := Node{Kind: KindProduct, ID: taco.ID}

	require.NoError(t, engine.Replace(ctx, tacoNode, []Entry{
		entry(KindIngredient, beef.ID, "0.25"),
	}))

	// A bad revision must not disturb the committed recipe.
	err := engine.Replace(ctx, tacoNode, []Entry{
		entry(KindIngredient, 9999, "1"),
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	entries, err := engine.Recipe(ctx, tacoNode)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Node{Kind: KindIngredient, ID: beef.ID}, entries[0].Source)
}

func TestServiceReplaceThenCost(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	engine := newEngine(db, 0)
	ctx := context.Background()

	beef := createIngredient(t, db, "Beef", "lb", "4.00")
	tortilla := createIngredient(t, db, "Tortilla", "each", "0.10")
	tacoMeat := createComposite(t, db, "Taco Meat", "lb", "10")
	taco := createProduct(t, db, "Beef Taco", "3.50")

	require.NoError(t, engine.Replace(ctx, Node{Kind: KindIngredient, ID: tacoMeat.ID}, []Entry{
		entry(KindIngredient, beef.ID, "10"),
	}))
	require.NoError(t, engine.Replace(ctx, Node{Kind: KindProduct, ID: taco.ID}, []Entry{
		entry(KindIngredient, tacoMeat.ID, "0.25"),
		entry(KindIngredient, tortilla.ID, "1"),
	}))

	cost, err := engine.UnitCost(ctx, Node{Kind: KindProduct, ID: taco.ID})
	require.NoError(t, err)
	assert.True(t, cost.Equal(dec("1.10")), "cost = %s", cost)

	margin, err := engine.ProductMargin(ctx, taco.ID)
	require.NoError(t, err)
	assert.True(t, margin.GrossProfit.Equal(dec("2.40")))
}

func TestServiceConcurrentEditsOnDifferentParents(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	engine := newEngine(db, 0)
	ctx := context.Background()

	beans := createIngredient(t, db, "Beans", "lb", "1.50")
	rice := createIngredient(t, db, "Rice", "lb", "1.00")
	bowlA := createProduct(t, db, "Bean Bowl", "6.00")
	bowlB := createProduct(t, db, "Rice Bowl", "5.00")
	nodeA := Node{Kind: KindProduct, ID: bowlA.ID}
	nodeB := Node{Kind: KindProduct, ID: bowlB.ID}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = engine.Replace(ctx, nodeA, []Entry{entry(KindIngredient, beans.ID, "1")})
	}()
	go func() {
		defer wg.Done()
		errs[1] = engine.Replace(ctx, nodeB, []Entry{entry(KindIngredient, rice.ID, "1")})
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	gotA, err := engine.Recipe(ctx, nodeA)
	require.NoError(t, err)
	gotB, err := engine.Recipe(ctx, nodeB)
	require.NoError(t, err)
	require.Len(t, gotA, 1)
	require.Len(t, gotB, 1)
	assert.Equal(t, Node{Kind: KindIngredient, ID: beans.ID}, gotA[0].Source)
	assert.Equal(t, Node{Kind: KindIngredient, ID: rice.ID}, gotB[0].Source)
}

func TestServiceConcurrentEditsCannotFormCycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	engine := newEngine(db, 0)
	ctx := context.Background()

	plate := createProduct(t, db, "Taco Plate", "9.00")
	combo := createProduct(t, db, "Combo Box", "12.00")
	plateNode := Node{Kind: KindProduct, ID: plate.ID}
	comboNode := Node{Kind: KindProduct, ID: combo.ID}

	// Each edit is fine alone; together they would close a loop. The edit
	// lock forces one to see the other's commit and be rejected.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = engine.Replace(ctx, plateNode, []Entry{entry(KindProduct, combo.ID, "1")})
	}()
	go func() {
		defer wg.Done()
		errs[1] = engine.Replace(ctx, comboNode, []Entry{entry(KindProduct, plate.ID, "1")})
	}()
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err == nil {
			continue
		}
		failures++
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Contains(t, valErr.Problems[0], "cycle detected")
	}
	require.Equal(t, 1, failures, "exactly one of the two edits must lose")

	// Whatever won, the committed graph still resolves.
	_, err := engine.UnitCost(ctx, plateNode)
	require.NoError(t, err)
	_, err = engine.UnitCost(ctx, comboNode)
	require.NoError(t, err)
}

func TestServiceValidateIsDryRun(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	engine := newEngine(db, 0)
	ctx := context.Background()

	beef := createIngredient(t, db, "Beef", "lb", "4.00")
	draft := Node{Kind: KindProduct}

	require.NoError(t, engine.Validate(ctx, draft, []Entry{
		entry(KindIngredient, beef.ID, "2"),
	}))

	err := engine.Validate(ctx, draft, []Entry{
		entry(KindIngredient, beef.ID, "-2"),
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	// Nothing was written on either call.
	var count int64
	require.NoError(t, db.Table("recipe_entries").Count(&count).Error)
	assert.Zero(t, count)
}
