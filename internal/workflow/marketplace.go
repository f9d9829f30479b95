// Package workflow chains contract calls into multi-step scenarios.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"casperdash/internal/casper/types"
	"casperdash/internal/contract"
	"casperdash/internal/contract/cep78"
	"casperdash/internal/contract/marketplace"
	"casperdash/internal/deployer"
)

var (
	ErrNoBuyer        = errors.New("no buyer key configured")
	ErrInvalidListing = errors.New("invalid listing")
)

// Listing describes a CEP-78 token sold through the marketplace
type Listing struct {
	Marketplace *marketplace.Contract
	Collection  *cep78.Contract
	TokenID     uint64
	Price       *big.Int
	// BuyWasm is the buy_item session code
	BuyWasm []byte
}

func (l Listing) validate() error {
	switch {
	case l.Marketplace == nil || l.Collection == nil:
		return fmt.Errorf("%w: marketplace and collection are required", ErrInvalidListing)
	case l.Marketplace.PackageHash.IsZero():
		return fmt.Errorf("%w: marketplace package hash is not set", ErrInvalidListing)
	case l.Marketplace.ContractHash.IsZero():
		return fmt.Errorf("%w: marketplace contract hash is not set", ErrInvalidListing)
	case l.Collection.ContractHash.IsZero():
		return fmt.Errorf("%w: collection contract hash is not set", ErrInvalidListing)
	case l.Price == nil || l.Price.Sign() <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidListing)
	}
	return nil
}

// Step records the outcome of one workflow step
type Step struct {
	Name    string
	Receipt *deployer.Receipt
}

// MarketplaceWithCEP78 lists a token as seller and buys it as buyer:
// approve the marketplace package, list the item, approve the marketplace
// contract, then buy with the buyer key. It stops at the first failing step
// and returns the steps completed so far.
func MarketplaceWithCEP78(ctx context.Context, seller *deployer.Executor, buyer types.Signer, l Listing) ([]Step, error) {
	if buyer == nil {
		return nil, ErrNoBuyer
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	token := cep78.ByID(l.TokenID)
	item := marketplace.ItemArgs{
		TokenContract: l.Collection.ContractHash,
		TokenID:       fmt.Sprint(l.TokenID),
		Amount:        l.Price,
	}

	steps := []struct {
		name string
		exec *deployer.Executor
		call deployer.BuildFunc
	}{
		{"approve_package", seller, func(opts contract.CallOptions) (*types.Deploy, error) {
			return l.Collection.Approve(cep78.ApproveArgs{Operator: types.HashKey(l.Marketplace.PackageHash), Token: token}, opts)
		}},
		{"list_item", seller, func(opts contract.CallOptions) (*types.Deploy, error) {
			return l.Marketplace.ListItem(item, opts)
		}},
		{"approve_contract", seller, func(opts contract.CallOptions) (*types.Deploy, error) {
			return l.Collection.Approve(cep78.ApproveArgs{Operator: types.HashKey(l.Marketplace.ContractHash), Token: token}, opts)
		}},
		{"buy_item", seller.WithCaller(buyer), func(opts contract.CallOptions) (*types.Deploy, error) {
			return l.Marketplace.BuyItem(l.BuyWasm, item, opts)
		}},
	}

	done := make([]Step, 0, len(steps))
	for _, s := range steps {
		slog.Info("Running workflow step", "step", s.name, "token_id", l.TokenID)
		receipt, err := s.exec.Run(ctx, s.call)
		if err != nil {
			return done, fmt.Errorf("step %s: %w", s.name, err)
		}
		slog.Info("Workflow step completed", "step", s.name, "deploy_hash", receipt.DeployHash)
		done = append(done, Step{Name: s.name, Receipt: receipt})
	}
	return done, nil
}
