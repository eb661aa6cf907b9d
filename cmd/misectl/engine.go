package main

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"mise/internal/config"
	"mise/internal/db"
	"mise/internal/db/mock"
	"mise/internal/recipe"
)

// toolkit bundles the engine pieces a command needs once connected.
type toolkit struct {
	engine *recipe.Service
	store  recipe.Store
	ledger recipe.Ledger
}

// connectFunc is swapped out by tests to avoid a real database.
var connectFunc = connect

func connect(ctx context.Context) (*toolkit, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var database *gorm.DB
	if cfg.Database.UseMock {
		database, err = mock.New(ctx)
	} else {
		database, err = db.Configure(cfg.Database)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := recipe.NewGormStore(database)
	ledger := recipe.NewGormLedger(database)
	engine := recipe.NewService(
		store,
		recipe.NewValidator(store, ledger, cfg.Costing.MaxDepth),
		recipe.NewResolver(store, ledger, cfg.Costing.MaxDepth),
	)

	return &toolkit{engine: engine, store: store, ledger: ledger}, nil
}

// nodeName resolves the display name for a node, failing when the record
// does not exist.
func (tk *toolkit) nodeName(ctx context.Context, node recipe.Node) (string, error) {
	switch node.Kind {
	case recipe.KindIngredient:
		records, err := tk.ledger.Ingredients(ctx, []uint{node.ID})
		if err != nil {
			return "", err
		}
		if record, ok := records[node.ID]; ok {
			return record.Name, nil
		}
	case recipe.KindProduct:
		records, err := tk.ledger.Products(ctx, []uint{node.ID})
		if err != nil {
			return "", err
		}
		if record, ok := records[node.ID]; ok {
			return record.Name, nil
		}
	}
	return "", &recipe.NotFoundError{Node: node}
}

func parseNodeArgs(kindArg, idArg string) (recipe.Node, error) {
	kind, err := recipe.ParseKind(kindArg)
	if err != nil {
		return recipe.Node{}, err
	}
	idValue, err := strconv.ParseUint(idArg, 10, 64)
	if err != nil || idValue == 0 {
		return recipe.Node{}, fmt.Errorf("identifier must be a positive integer, got %q", idArg)
	}
	return recipe.Node{Kind: kind, ID: uint(idValue)}, nil
}
