package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDepthExceeded reports a recipe chain nested past the configured bound.
var ErrDepthExceeded = errors.New("recipe: nesting depth exceeded")

// ValidationError carries every structural problem found in a proposed
// recipe. Problems is never empty.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("recipe validation failed: %s", strings.Join(e.Problems, "; "))
}

// CycleError reports a dependency loop found while resolving costs. Path
// holds the display names along the loop; the first and last element are the
// same node. The committed graph is supposed to be acyclic, so seeing this
// error means an edit slipped past validation and needs operator attention.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("recipe: cycle detected: %s", strings.Join(e.Path, " → "))
}

// NotFoundError reports a graph node with no backing ledger record.
type NotFoundError struct {
	Node Node
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("recipe: %s not found", e.Node)
}
