package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	applog "mise/internal/log"
	"mise/internal/recipe"
)

type costResponse struct {
	Kind           string `json:"kind"`
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	IngredientCost string `json:"ingredient_cost"`
}

type marginResponse struct {
	ProductID      uint   `json:"product_id"`
	Name           string `json:"name"`
	IngredientCost string `json:"ingredient_cost"`
	SellingPrice   string `json:"selling_price"`
	GrossProfit    string `json:"gross_profit"`
	MarginPct      string `json:"margin_pct"`
}

// CostResource resolves the current per-unit ingredient cost of any node,
// addressed as /api/cost/{kind}/{id}.
func CostResource(w http.ResponseWriter, r *http.Request) {
	if engine == nil || ledger == nil {
		applog.Debug(r.Context(), "cost request before handler configuration")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	node, ok := parseNodePath(w, r, "/api/cost")
	if !ok {
		return
	}
	ctx := r.Context()

	name, err := lookupNodeName(ctx, node)
	if err != nil {
		respondNodeLookupError(w, r, node, err)
		return
	}

	cost, err := engine.UnitCost(ctx, node)
	if err != nil {
		respondResolutionError(w, r, node, err)
		return
	}

	writeJSON(w, http.StatusOK, costResponse{
		Kind:           string(node.Kind),
		ID:             node.ID,
		Name:           name,
		IngredientCost: cost.StringFixed(2),
	})
}

// MarginResource reports a product's cost, gross profit and margin,
// addressed as /api/margin/{id}.
func MarginResource(w http.ResponseWriter, r *http.Request) {
	if engine == nil || ledger == nil {
		applog.Debug(r.Context(), "margin request before handler configuration")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/margin")
	path = strings.Trim(path, "/")
	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil || idValue == 0 {
		applog.Debug(r.Context(), "invalid product identifier", "identifier", path)
		writeJSONError(w, http.StatusBadRequest, "identifier must be a positive integer")
		return
	}
	productID := uint(idValue)
	node := recipe.Node{Kind: recipe.KindProduct, ID: productID}
	ctx := r.Context()

	name, err := lookupNodeName(ctx, node)
	if err != nil {
		respondNodeLookupError(w, r, node, err)
		return
	}

	margin, err := engine.ProductMargin(ctx, productID)
	if err != nil {
		respondResolutionError(w, r, node, err)
		return
	}

	writeJSON(w, http.StatusOK, marginResponse{
		ProductID:      productID,
		Name:           name,
		IngredientCost: margin.Cost.StringFixed(2),
		SellingPrice:   margin.SellingPrice.StringFixed(2),
		GrossProfit:    margin.GrossProfit.StringFixed(2),
		MarginPct:      margin.MarginPct.StringFixed(1),
	})
}

// respondResolutionError maps resolver failures for a node whose existence
// was already confirmed. Anything structural at this point means the
// committed graph broke an invariant, which is worth an alert.
func respondResolutionError(w http.ResponseWriter, r *http.Request, node recipe.Node, err error) {
	ctx := r.Context()

	var cycleErr *recipe.CycleError
	if errors.As(err, &cycleErr) {
		applog.Error(ctx, "committed recipe graph contains a cycle",
			"node", node.String(),
			"path", strings.Join(cycleErr.Path, " → "),
		)
		writeJSONError(w, http.StatusInternalServerError, "recipe graph contains a cycle")
		return
	}

	if errors.Is(err, recipe.ErrDepthExceeded) {
		applog.Debug(ctx, "cost resolution exceeded depth bound", "node", node.String())
		writeJSONError(w, http.StatusUnprocessableEntity, "recipe nests deeper than the configured maximum")
		return
	}

	var nfErr *recipe.NotFoundError
	if errors.As(err, &nfErr) && nfErr.Node != node {
		applog.Error(ctx, "committed recipe references a missing record",
			"node", node.String(),
			"missing", nfErr.Node.String(),
		)
		writeJSONError(w, http.StatusInternalServerError, "recipe references a missing record")
		return
	}
	if errors.As(err, &nfErr) {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	applog.Error(ctx, "failed to resolve cost", "error", err, "node", node.String())
	writeJSONError(w, http.StatusInternalServerError, "unable to resolve cost")
}
