package recipe

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxDepth bounds recipe nesting when no explicit limit is
// configured, counted in edges from a parent down to its deepest base
// ingredient.
const DefaultMaxDepth = 10

const (
	nodeUnseen = iota
	nodeOnPath
	nodeDone
)

// Validator checks a proposed whole-recipe replacement against the graph it
// would create: per-entry field problems, dangling ledger references, batch
// size on composite parents, cycles and nesting past MaxDepth. Ingredients
// and products share one graph here, so a product that reaches itself
// through a composite ingredient is caught like any other loop.
type Validator struct {
	Store    Store
	Ledger   Ledger
	MaxDepth int
}

func NewValidator(store Store, ledger Ledger, maxDepth int) *Validator {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Validator{Store: store, Ledger: ledger, MaxDepth: maxDepth}
}

// Check returns nil when the replacement is safe to commit, or a
// *ValidationError listing every problem found. Any other error is an
// infrastructure failure, not a verdict. A draft parent (zero ID) is treated
// as a node distinct from every persisted id.
func (v *Validator) Check(ctx context.Context, parent Node, proposed []Entry) error {
	problems := localProblems(proposed)
	if !parent.Kind.Valid() {
		problems = append(problems, fmt.Sprintf("unknown parent kind %q", parent.Kind))
	}

	recordProblems, err := v.recordProblems(ctx, parent, proposed)
	if err != nil {
		return err
	}
	problems = append(problems, recordProblems...)

	// The graph walk only makes sense over well-formed, existing nodes.
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	graph, err := v.candidateGraph(ctx, parent, proposed)
	if err != nil {
		return err
	}

	cyclePath, depthPath := v.walk(graph, parent)
	if cyclePath != nil {
		described, err := v.describePath(ctx, cyclePath)
		if err != nil {
			return err
		}
		return &ValidationError{Problems: []string{fmt.Sprintf("cycle detected: %s", described)}}
	}
	if depthPath != nil {
		described, err := v.describePath(ctx, depthPath)
		if err != nil {
			return err
		}
		return &ValidationError{Problems: []string{fmt.Sprintf(
			"recipe nests %d levels deep, maximum is %d: %s", len(depthPath)-1, v.MaxDepth, described)}}
	}
	return nil
}

// recordProblems verifies every referenced node against the ledger and, for
// a composite ingredient parent, that its batch size is positive.
func (v *Validator) recordProblems(ctx context.Context, parent Node, proposed []Entry) ([]string, error) {
	ingredientIDs, productIDs := splitSourceIDs(proposed)
	if !parent.IsDraft() {
		switch parent.Kind {
		case KindIngredient:
			ingredientIDs = append(ingredientIDs, parent.ID)
		case KindProduct:
			productIDs = append(productIDs, parent.ID)
		}
	}

	ingredients, err := v.Ledger.Ingredients(ctx, ingredientIDs)
	if err != nil {
		return nil, err
	}
	products, err := v.Ledger.Products(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	var problems []string

	if !parent.IsDraft() {
		switch parent.Kind {
		case KindIngredient:
			record, ok := ingredients[parent.ID]
			if !ok {
				problems = append(problems, fmt.Sprintf("parent %s does not exist in the ledger", parent))
			} else if record.IsComposite && record.BatchSize.Sign() <= 0 {
				problems = append(problems, fmt.Sprintf(
					"%s: batch_size must be positive for a composite ingredient, got %s", record.Name, record.BatchSize))
			}
		case KindProduct:
			if _, ok := products[parent.ID]; !ok {
				problems = append(problems, fmt.Sprintf("parent %s does not exist in the ledger", parent))
			}
		}
	}

	reported := make(map[Node]bool)
	for idx, entry := range proposed {
		node := entry.Source
		if node.IsDraft() || !node.Kind.Valid() || reported[node] {
			continue
		}
		exists := false
		switch node.Kind {
		case KindIngredient:
			_, exists = ingredients[node.ID]
		case KindProduct:
			_, exists = products[node.ID]
		}
		if !exists {
			reported[node] = true
			problems = append(problems, fmt.Sprintf("entry %d: source %s does not exist in the ledger", idx+1, node))
		}
	}
	return problems, nil
}

// candidateGraph is the committed graph with the parent's current edges
// swapped for the proposed ones.
func (v *Validator) candidateGraph(ctx context.Context, parent Node, proposed []Entry) (map[Node][]Node, error) {
	recipes, err := v.Store.AllRecipes(ctx)
	if err != nil {
		return nil, err
	}

	graph := make(map[Node][]Node, len(recipes)+1)
	for node, entries := range recipes {
		if node == parent {
			continue
		}
		graph[node] = sourcesOf(entries)
	}
	graph[parent] = sourcesOf(proposed)
	return graph, nil
}

func sourcesOf(entries []Entry) []Node {
	seen := make(map[Node]bool, len(entries))
	sources := make([]Node, 0, len(entries))
	for _, entry := range entries {
		if seen[entry.Source] {
			continue
		}
		seen[entry.Source] = true
		sources = append(sources, entry.Source)
	}
	return sources
}

type walkFrame struct {
	node Node
	next int
}

// walk runs a depth-first traversal from parent over the candidate graph
// using an explicit frame stack, so hostile nesting cannot exhaust the call
// stack. It returns the loop as a node path when the traversal re-enters a
// node currently on the path, or the deepest chain when the parent's nesting
// exceeds MaxDepth. Finished nodes memoize their height, which keeps the
// walk linear on diamond-shaped graphs.
func (v *Validator) walk(graph map[Node][]Node, parent Node) (cyclePath, depthPath []Node) {
	state := make(map[Node]int, len(graph))
	heights := make(map[Node]int, len(graph))

	stack := []walkFrame{{node: parent}}
	state[parent] = nodeOnPath

	for len(stack) > 0 {
		frame := &stack[len(stack)-1]
		children := graph[frame.node]

		if frame.next < len(children) {
			child := children[frame.next]
			frame.next++

			switch state[child] {
			case nodeOnPath:
				path := pathOf(stack)
				start := 0
				for idx, node := range path {
					if node == child {
						start = idx
						break
					}
				}
				return append(path[start:], child), nil
			case nodeDone:
				// height already folded in below
			default:
				state[child] = nodeOnPath
				stack = append(stack, walkFrame{node: child})
			}
			continue
		}

		height := 0
		for _, child := range children {
			if h := heights[child] + 1; h > height {
				height = h
			}
		}
		heights[frame.node] = height
		state[frame.node] = nodeDone
		stack = stack[:len(stack)-1]
	}

	if heights[parent] > v.MaxDepth {
		return nil, deepestChain(graph, heights, parent)
	}
	return nil, nil
}

func pathOf(stack []walkFrame) []Node {
	path := make([]Node, len(stack))
	for idx, frame := range stack {
		path[idx] = frame.node
	}
	return path
}

// deepestChain reconstructs one maximal chain under parent by stepping to a
// child whose height is exactly one less at every hop.
func deepestChain(graph map[Node][]Node, heights map[Node]int, parent Node) []Node {
	chain := []Node{parent}
	node := parent
	for heights[node] > 0 {
		advanced := false
		for _, child := range graph[node] {
			if heights[child] == heights[node]-1 {
				chain = append(chain, child)
				node = child
				advanced = true
				break
			}
		}
		if !advanced {
			break
		}
	}
	return chain
}

// describePath renders a node path with ledger names where they exist, e.g.
// "Beef Taco → Taco Meat → Beef Taco".
func (v *Validator) describePath(ctx context.Context, path []Node) (string, error) {
	names, err := nodeNames(ctx, v.Ledger, path)
	if err != nil {
		return "", err
	}
	labels := make([]string, len(path))
	for idx, node := range path {
		labels[idx] = names[node]
	}
	return strings.Join(labels, " → "), nil
}

// nodeNames resolves display names for a set of nodes in two bulk reads,
// falling back to the kind/id form for nodes without a ledger record.
func nodeNames(ctx context.Context, ledger Ledger, path []Node) (map[Node]string, error) {
	var ingredientIDs, productIDs []uint
	for _, node := range path {
		if node.IsDraft() {
			continue
		}
		switch node.Kind {
		case KindIngredient:
			ingredientIDs = append(ingredientIDs, node.ID)
		case KindProduct:
			productIDs = append(productIDs, node.ID)
		}
	}

	ingredients, err := ledger.Ingredients(ctx, ingredientIDs)
	if err != nil {
		return nil, err
	}
	products, err := ledger.Products(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	names := make(map[Node]string, len(path))
	for _, node := range path {
		label := node.String()
		switch node.Kind {
		case KindIngredient:
			if record, ok := ingredients[node.ID]; ok && record.Name != "" {
				label = record.Name
			}
		case KindProduct:
			if record, ok := products[node.ID]; ok && record.Name != "" {
				label = record.Name
			}
		}
		names[node] = label
	}
	return names, nil
}
