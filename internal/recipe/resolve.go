package recipe

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Resolver computes per-unit costs bottom-up over the recipe graph. Each
// top-level call loads the edge set and every reachable ledger record up
// front, then walks entirely in memory.
type Resolver struct {
	Store    Store
	Ledger   Ledger
	MaxDepth int
}

func NewResolver(store Store, ledger Ledger, maxDepth int) *Resolver {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{Store: store, Ledger: ledger, MaxDepth: maxDepth}
}

// UnitCost resolves the current cost of one unit of node. Base ingredients
// answer with their stored cost, composite ingredients divide their recipe
// total by batch size, products sum their recipe as-is. A parent with no
// recipe costs zero, the normal state of a freshly created item. Ledger
// values are re-read on every call, so a price change is visible on the
// next resolution with no cache to invalidate.
func (r *Resolver) UnitCost(ctx context.Context, node Node) (decimal.Decimal, error) {
	if !node.Kind.Valid() {
		return decimal.Zero, fmt.Errorf("unknown node kind %q", node.Kind)
	}

	graph, err := r.Store.AllRecipes(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	ingredients, products, err := r.reachableRecords(ctx, node, graph)
	if err != nil {
		return decimal.Zero, err
	}

	pass := &resolution{
		graph:       graph,
		ingredients: ingredients,
		products:    products,
		memo:        make(map[Node]decimal.Decimal),
		visiting:    make(map[Node]bool),
		maxDepth:    r.MaxDepth,
	}
	return pass.cost(node, 0)
}

// reachableRecords walks the subgraph under root breadth-first and fetches
// every touched ledger record in two bulk reads.
func (r *Resolver) reachableRecords(ctx context.Context, root Node, graph map[Node][]Entry) (map[uint]IngredientRecord, map[uint]ProductRecord, error) {
	var ingredientIDs, productIDs []uint
	seen := make(map[Node]bool)
	frontier := []Node{root}

	for len(frontier) > 0 {
		node := frontier[0]
		frontier = frontier[1:]
		if seen[node] {
			continue
		}
		seen[node] = true

		switch node.Kind {
		case KindIngredient:
			ingredientIDs = append(ingredientIDs, node.ID)
		case KindProduct:
			productIDs = append(productIDs, node.ID)
		}

		for _, entry := range graph[node] {
			if !seen[entry.Source] {
				frontier = append(frontier, entry.Source)
			}
		}
	}

	ingredients, err := r.Ledger.Ingredients(ctx, ingredientIDs)
	if err != nil {
		return nil, nil, err
	}
	products, err := r.Ledger.Products(ctx, productIDs)
	if err != nil {
		return nil, nil, err
	}
	return ingredients, products, nil
}

// resolution is the working state of one pass: the in-memory graph, the
// ledger snapshot, the memo of finished nodes and the path currently being
// expanded. Nothing here outlives the top-level call.
type resolution struct {
	graph       map[Node][]Entry
	ingredients map[uint]IngredientRecord
	products    map[uint]ProductRecord
	memo        map[Node]decimal.Decimal
	visiting    map[Node]bool
	path        []Node
	maxDepth    int
}

func (p *resolution) cost(node Node, depth int) (decimal.Decimal, error) {
	if value, ok := p.memo[node]; ok {
		return value, nil
	}
	if p.visiting[node] {
		return decimal.Zero, p.cycleError(node)
	}
	if depth > p.maxDepth {
		return decimal.Zero, fmt.Errorf("resolve %s: %w", node, ErrDepthExceeded)
	}

	switch node.Kind {
	case KindIngredient:
		record, ok := p.ingredients[node.ID]
		if !ok {
			return decimal.Zero, &NotFoundError{Node: node}
		}
		if !record.IsComposite {
			p.memo[node] = record.UnitCost
			return record.UnitCost, nil
		}
		entries := p.graph[node]
		if len(entries) == 0 {
			p.memo[node] = decimal.Zero
			return decimal.Zero, nil
		}
		if record.BatchSize.Sign() <= 0 {
			return decimal.Zero, fmt.Errorf("resolve %s: batch_size must be positive, got %s", node, record.BatchSize)
		}
		total, err := p.recipeTotal(node, entries, depth)
		if err != nil {
			return decimal.Zero, err
		}
		unit := total.Div(record.BatchSize)
		p.memo[node] = unit
		return unit, nil

	case KindProduct:
		if _, ok := p.products[node.ID]; !ok {
			return decimal.Zero, &NotFoundError{Node: node}
		}
		entries := p.graph[node]
		if len(entries) == 0 {
			p.memo[node] = decimal.Zero
			return decimal.Zero, nil
		}
		// A product's batch is implicitly one unit of product.
		total, err := p.recipeTotal(node, entries, depth)
		if err != nil {
			return decimal.Zero, err
		}
		p.memo[node] = total
		return total, nil

	default:
		return decimal.Zero, fmt.Errorf("unknown node kind %q", node.Kind)
	}
}

// recipeTotal sums child cost times quantity over one recipe while node is
// marked as being expanded.
func (p *resolution) recipeTotal(node Node, entries []Entry, depth int) (decimal.Decimal, error) {
	p.visiting[node] = true
	p.path = append(p.path, node)
	defer func() {
		delete(p.visiting, node)
		p.path = p.path[:len(p.path)-1]
	}()

	total := decimal.Zero
	for _, entry := range entries {
		child, err := p.cost(entry.Source, depth+1)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(child.Mul(entry.Quantity))
	}
	return total, nil
}

// cycleError names the loop using whatever records this pass already holds.
func (p *resolution) cycleError(node Node) *CycleError {
	start := 0
	for idx, onPath := range p.path {
		if onPath == node {
			start = idx
			break
		}
	}

	loop := append(append([]Node{}, p.path[start:]...), node)
	labels := make([]string, len(loop))
	for idx, n := range loop {
		labels[idx] = p.label(n)
	}
	return &CycleError{Path: labels}
}

func (p *resolution) label(node Node) string {
	switch node.Kind {
	case KindIngredient:
		if record, ok := p.ingredients[node.ID]; ok && record.Name != "" {
			return record.Name
		}
	case KindProduct:
		if record, ok := p.products[node.ID]; ok && record.Name != "" {
			return record.Name
		}
	}
	return node.String()
}
