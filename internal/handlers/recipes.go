package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	applog "mise/internal/log"
	"mise/internal/recipe"
	"mise/internal/validation"
)

var (
	engine *recipe.Service
	ledger recipe.Ledger
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(service *recipe.Service, l recipe.Ledger) {
	engine = service
	ledger = l
}

type recipeEntryRequest struct {
	SourceKind string          `json:"source_kind" validate:"required,node_kind"`
	SourceID   uint            `json:"source_id"`
	Quantity   decimal.Decimal `json:"quantity_needed"`
	Unit       string          `json:"unit_of_measure"`
	Notes      string          `json:"notes"`
}

type recipeEntryResponse struct {
	SourceKind string `json:"source_kind"`
	SourceID   uint   `json:"source_id"`
	SourceName string `json:"source_name"`
	Quantity   string `json:"quantity_needed"`
	Unit       string `json:"unit_of_measure"`
	Notes      string `json:"notes,omitempty"`
	Position   int    `json:"position"`
}

type recipeValidationResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// RecipeResource handles reads and atomic replacements of one parent's
// recipe. The path identifies the parent as /api/recipes/{kind}/{id}.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if engine == nil || ledger == nil {
		applog.Debug(r.Context(), "recipe request before handler configuration")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	parent, ok := parseNodePath(w, r, "/api/recipes")
	if !ok {
		return
	}

	if _, err := lookupNodeName(r.Context(), parent); err != nil {
		respondNodeLookupError(w, r, parent, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, parent)
	case http.MethodPut:
		replaceRecipe(w, r, parent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func showRecipe(w http.ResponseWriter, r *http.Request, parent recipe.Node) {
	ctx := r.Context()

	entries, err := engine.Recipe(ctx, parent)
	if err != nil {
		applog.Error(ctx, "failed to load recipe", "error", err, "parent", parent.String())
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return
	}

	payload, err := projectEntries(ctx, entries)
	if err != nil {
		applog.Error(ctx, "failed to project recipe entries", "error", err, "parent", parent.String())
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe")
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

func replaceRecipe(w http.ResponseWriter, r *http.Request, parent recipe.Node) {
	ctx := r.Context()

	var payload []recipeEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid recipe payload", "error", err, "parent", parent.String())
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	for i, item := range payload {
		if errs := validation.Struct(item); len(errs) > 0 {
			applog.Debug(ctx, "recipe payload shape rejected", "parent", parent.String(), "entry", i+1)
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("entry %d: %s", i+1, errs[0].Message()))
			return
		}
	}

	entries := make([]recipe.Entry, 0, len(payload))
	for _, item := range payload {
		kind, err := recipe.ParseKind(item.SourceKind)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		entries = append(entries, recipe.Entry{
			Source:   recipe.Node{Kind: kind, ID: item.SourceID},
			Quantity: item.Quantity,
			Unit:     strings.TrimSpace(item.Unit),
			Notes:    strings.TrimSpace(item.Notes),
		})
	}

	if err := engine.Replace(ctx, parent, entries); err != nil {
		var valErr *recipe.ValidationError
		if errors.As(err, &valErr) {
			applog.Debug(ctx, "recipe rejected", "parent", parent.String(), "problems", len(valErr.Problems))
			writeJSON(w, http.StatusUnprocessableEntity, recipeValidationResponse{
				Valid:  false,
				Errors: valErr.Problems,
			})
			return
		}
		applog.Error(ctx, "failed to replace recipe", "error", err, "parent", parent.String())
		writeJSONError(w, http.StatusInternalServerError, "unable to save recipe")
		return
	}

	committed, err := engine.Recipe(ctx, parent)
	if err != nil {
		applog.Error(ctx, "failed to reload recipe after replace", "error", err, "parent", parent.String())
		writeJSONError(w, http.StatusInternalServerError, "unable to load saved recipe")
		return
	}

	response, err := projectEntries(ctx, committed)
	if err != nil {
		applog.Error(ctx, "failed to project saved recipe", "error", err, "parent", parent.String())
		writeJSONError(w, http.StatusInternalServerError, "unable to load saved recipe")
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// projectEntries renders entries with ledger-enriched source names using one
// bulk read per kind.
func projectEntries(ctx context.Context, entries []recipe.Entry) ([]recipeEntryResponse, error) {
	ingredientIDs := make([]uint, 0, len(entries))
	productIDs := make([]uint, 0, len(entries))
	for _, item := range entries {
		switch item.Source.Kind {
		case recipe.KindIngredient:
			ingredientIDs = append(ingredientIDs, item.Source.ID)
		case recipe.KindProduct:
			productIDs = append(productIDs, item.Source.ID)
		}
	}

	ingredients := map[uint]recipe.IngredientRecord{}
	if len(ingredientIDs) > 0 {
		loaded, err := ledger.Ingredients(ctx, ingredientIDs)
		if err != nil {
			return nil, err
		}
		ingredients = loaded
	}

	products := map[uint]recipe.ProductRecord{}
	if len(productIDs) > 0 {
		loaded, err := ledger.Products(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		products = loaded
	}

	responses := make([]recipeEntryResponse, 0, len(entries))
	for i, item := range entries {
		name := item.Source.String()
		switch item.Source.Kind {
		case recipe.KindIngredient:
			if record, ok := ingredients[item.Source.ID]; ok {
				name = record.Name
			}
		case recipe.KindProduct:
			if record, ok := products[item.Source.ID]; ok {
				name = record.Name
			}
		}
		responses = append(responses, recipeEntryResponse{
			SourceKind: string(item.Source.Kind),
			SourceID:   item.Source.ID,
			SourceName: name,
			Quantity:   item.Quantity.String(),
			Unit:       item.Unit,
			Notes:      item.Notes,
			Position:   i,
		})
	}
	return responses, nil
}

// parseNodePath extracts {kind}/{id} from the request path below base. A
// malformed kind or identifier is a client error, not a missing resource.
func parseNodePath(w http.ResponseWriter, r *http.Request, base string) (recipe.Node, bool) {
	path := strings.TrimPrefix(r.URL.Path, base)
	path = strings.Trim(path, "/")

	segments := strings.Split(path, "/")
	if len(segments) != 2 {
		applog.Debug(r.Context(), "malformed node path", "path", r.URL.Path)
		writeJSONError(w, http.StatusBadRequest, "path must be "+base+"/{kind}/{id}")
		return recipe.Node{}, false
	}

	kind, err := recipe.ParseKind(segments[0])
	if err != nil {
		applog.Debug(r.Context(), "invalid node kind", "kind", segments[0])
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return recipe.Node{}, false
	}

	idValue, err := strconv.ParseUint(segments[1], 10, 64)
	if err != nil || idValue == 0 {
		applog.Debug(r.Context(), "invalid node identifier", "identifier", segments[1])
		writeJSONError(w, http.StatusBadRequest, "identifier must be a positive integer")
		return recipe.Node{}, false
	}

	return recipe.Node{Kind: kind, ID: uint(idValue)}, true
}

// lookupNodeName resolves the node's display name from the ledger, doubling
// as the existence check for path parents.
func lookupNodeName(ctx context.Context, node recipe.Node) (string, error) {
	switch node.Kind {
	case recipe.KindIngredient:
		records, err := ledger.Ingredients(ctx, []uint{node.ID})
		if err != nil {
			return "", err
		}
		if record, ok := records[node.ID]; ok {
			return record.Name, nil
		}
	case recipe.KindProduct:
		records, err := ledger.Products(ctx, []uint{node.ID})
		if err != nil {
			return "", err
		}
		if record, ok := records[node.ID]; ok {
			return record.Name, nil
		}
	}
	return "", &recipe.NotFoundError{Node: node}
}

func respondNodeLookupError(w http.ResponseWriter, r *http.Request, node recipe.Node, err error) {
	var nfErr *recipe.NotFoundError
	if errors.As(err, &nfErr) {
		applog.Debug(r.Context(), "node not found", "node", node.String())
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	applog.Error(r.Context(), "failed to look up node", "error", err, "node", node.String())
	writeJSONError(w, http.StatusInternalServerError, "unable to load record")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
