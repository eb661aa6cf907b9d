package recipe

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Service is the front door of the engine. It serializes every
// validate-then-replace behind one mutex so two concurrent edits cannot
// weave a cycle into the committed graph between one edit's validation and
// its write. Reads never take the lock.
type Service struct {
	store     Store
	validator *Validator
	resolver  *Resolver

	editMu sync.Mutex
}

func NewService(store Store, validator *Validator, resolver *Resolver) *Service {
	return &Service{store: store, validator: validator, resolver: resolver}
}

// Recipe returns the parent's committed entries in prep-sheet order.
func (s *Service) Recipe(ctx context.Context, parent Node) ([]Entry, error) {
	return s.store.Recipe(ctx, parent)
}

// Replace validates the proposed entries against the would-be graph and, on
// success, swaps them in atomically. On a *ValidationError nothing is
// written and the previous recipe stays intact.
func (s *Service) Replace(ctx context.Context, parent Node, entries []Entry) error {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	if err := s.validator.Check(ctx, parent, entries); err != nil {
		return err
	}
	return s.store.ReplaceRecipe(ctx, parent, entries)
}

// Validate runs the structural checks without committing anything, the
// dry-run used for draft parents and the consistency sweep.
func (s *Service) Validate(ctx context.Context, parent Node, entries []Entry) error {
	return s.validator.Check(ctx, parent, entries)
}

// UnitCost resolves the current per-unit cost of any node.
func (s *Service) UnitCost(ctx context.Context, node Node) (decimal.Decimal, error) {
	return s.resolver.UnitCost(ctx, node)
}

// ProductMargin resolves a product's cost and profitability breakdown.
func (s *Service) ProductMargin(ctx context.Context, productID uint) (Margin, error) {
	return s.resolver.ProductMargin(ctx, productID)
}
