package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"mise/models"
)

func seedTacoStand(t *testing.T) (models.Product, func()) {
	t.Helper()
	db, cleanup := withRecipeTestDatabase(t)

	beef := mustCreateIngredient(t, db, "Beef", "lb", "4.00")
	tortilla := mustCreateIngredient(t, db, "Tortilla", "each", "0.10")
	tacoMeat := mustCreateComposite(t, db, "Taco Meat", "lb", "10")
	taco := mustCreateProduct(t, db, "Beef Taco", "3.50")

	w := putRecipe(t, fmt.Sprintf("/api/recipes/ingredient/%d", tacoMeat.ID), []map[string]any{
		{"source_kind": "ingredient", "source_id": beef.ID, "quantity_needed": "10", "unit_of_measure": "lb"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("failed to seed taco meat recipe: %d %s", w.Code, w.Body.String())
	}
	w = putRecipe(t, fmt.Sprintf("/api/recipes/product/%d", taco.ID), []map[string]any{
		{"source_kind": "ingredient", "source_id": tacoMeat.ID, "quantity_needed": "0.25", "unit_of_measure": "lb"},
		{"source_kind": "ingredient", "source_id": tortilla.ID, "quantity_needed": "1", "unit_of_measure": "each"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("failed to seed taco recipe: %d %s", w.Code, w.Body.String())
	}

	return taco, cleanup
}

func TestCostResourceResolvesProduct(t *testing.T) {
	taco, cleanup := seedTacoStand(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/cost/product/%d", taco.ID), nil)
	w := httptest.NewRecorder()
	CostResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp costResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Kind != "product" || resp.ID != taco.ID || resp.Name != "Beef Taco" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.IngredientCost != "1.10" {
		t.Fatalf("expected ingredient_cost 1.10, got %q", resp.IngredientCost)
	}
}

func TestCostResourceResolvesComposite(t *testing.T) {
	db, cleanup := withRecipeTestDatabase(t)
	t.Cleanup(cleanup)

	beef := mustCreateIngredient(t, db, "Beef", "lb", "4.00")
	tacoMeat := mustCreateComposite(t, db, "Taco Meat", "lb", "10")
	w := putRecipe(t, fmt.Sprintf("/api/recipes/ingredient/%d", tacoMeat.ID), []map[string]any{
		{"source_kind": "ingredient", "source_id": beef.ID, "quantity_needed": "10", "unit_of_measure": "lb"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("failed to seed recipe: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/cost/ingredient/%d", tacoMeat.ID), nil)
	getW := httptest.NewRecorder()
	CostResource(getW, req)

	var resp costResponse
	if err := json.Unmarshal(getW.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.IngredientCost != "4.00" {
		t.Fatalf("expected ingredient_cost 4.00, got %q", resp.IngredientCost)
	}
}

func TestCostResourceUnknownNode(t *testing.T) {
	_, cleanup := withRecipeTestDatabase(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodGet, "/api/cost/ingredient/404", nil)
	w := httptest.NewRecorder()
	CostResource(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestCostResourceReportsCommittedCycle(t *testing.T) {
	db, cleanup := withRecipeTestDatabase(t)
	t.Cleanup(cleanup)

	plate := mustCreateProduct(t, db, "Taco Plate", "9.00")
	combo := mustCreateProduct(t, db, "Combo Box", "12.00")

	// Write the loop behind the validator's back to simulate corrupt data.
	one := decimal.RequireFromString("1")
	rows := []models.RecipeEntry{
		{ParentKind: "product", ParentID: plate.ID, SourceKind: "product", SourceID: combo.ID, Quantity: one, Position: 0},
		{ParentKind: "product", ParentID: combo.ID, SourceKind: "product", SourceID: plate.ID, Quantity: one, Position: 0},
	}
	for _, row := range rows {
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("failed to insert raw entry: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/cost/product/%d", plate.ID), nil)
	w := httptest.NewRecorder()
	CostResource(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 for committed cycle, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMarginResourceBreakdown(t *testing.T) {
	taco, cleanup := seedTacoStand(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/margin/%d", taco.ID), nil)
	w := httptest.NewRecorder()
	MarginResource(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp marginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ProductID != taco.ID || resp.Name != "Beef Taco" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.IngredientCost != "1.10" || resp.SellingPrice != "3.50" || resp.GrossProfit != "2.40" {
		t.Fatalf("unexpected money fields: %+v", resp)
	}
	if resp.MarginPct != "68.6" {
		t.Fatalf("expected margin_pct 68.6, got %q", resp.MarginPct)
	}
}

func TestMarginResourceUnknownProduct(t *testing.T) {
	_, cleanup := withRecipeTestDatabase(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodGet, "/api/margin/404", nil)
	w := httptest.NewRecorder()
	MarginResource(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestMarginResourceMalformedID(t *testing.T) {
	_, cleanup := withRecipeTestDatabase(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodGet, "/api/margin/abc", nil)
	w := httptest.NewRecorder()
	MarginResource(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}
