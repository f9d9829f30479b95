// Package marketplace builds deploys for the NFT marketplace contract.
package marketplace

import (
	"errors"
	"math/big"

	"casperdash/internal/casper/types"
	"casperdash/internal/contract"
)

var ErrInvalidAmount = errors.New("item amount must be positive")

// BuyItemPayment is the fixed payment, in motes, for the buy_item session code
var BuyItemPayment = big.NewInt(33_010_427_510)

type InstallArgs struct {
	CollectionName   string
	CollectionSymbol string
	TotalTokenSupply string
}

// ItemArgs identifies a listed token and its price in motes
type ItemArgs struct {
	TokenContract types.Hash
	TokenID       string
	Amount        *big.Int
}

func (a ItemArgs) validate() error {
	if a.Amount == nil || a.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

type Contract struct {
	*contract.Contract
}

func New(chainName, contractHash, packageHash string) (*Contract, error) {
	c, err := contract.New(chainName, contractHash, packageHash)
	if err != nil {
		return nil, err
	}
	return &Contract{Contract: c}, nil
}

func (c *Contract) Install(wasm []byte, args InstallArgs, opts contract.CallOptions) (*types.Deploy, error) {
	if len(wasm) == 0 {
		return nil, contract.ErrMissingWasm
	}
	rt := types.NewArgs().
		Insert("collection_name", types.String(args.CollectionName)).
		Insert("collection_symbol", types.String(args.CollectionSymbol)).
		Insert("total_token_supply", types.String(args.TotalTokenSupply))
	return c.Session(wasm, rt, opts)
}

// ListItem offers a token for sale. The marketplace must already be approved
// as operator of the token.
func (c *Contract) ListItem(args ItemArgs, opts contract.CallOptions) (*types.Deploy, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("token", types.ByteArray(args.TokenContract[:])).
		Insert("token_id", types.String(args.TokenID)).
		Insert("amount", types.U512(args.Amount))
	return c.EntryPoint("list_item", rt, opts)
}

// BuyItem runs the buy_item session code, which transfers Amount to the
// marketplace purse and calls buy_item. The payment is always BuyItemPayment.
func (c *Contract) BuyItem(wasm []byte, args ItemArgs, opts contract.CallOptions) (*types.Deploy, error) {
	if c.ContractHash.IsZero() {
		return nil, contract.ErrNoContractHash
	}
	if err := args.validate(); err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("market", types.ByteArray(c.ContractHash[:])).
		Insert("token", types.ByteArray(args.TokenContract[:])).
		Insert("token_id", types.String(args.TokenID)).
		Insert("amount", types.U512(args.Amount))
	opts.Payment = BuyItemPayment
	return c.Session(wasm, rt, opts)
}
