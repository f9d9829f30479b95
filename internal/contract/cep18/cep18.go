// Package cep18 builds deploys for the CEP-18 fungible token standard.
package cep18

import (
	"errors"
	"math/big"

	"casperdash/internal/casper/types"
	"casperdash/internal/contract"
)

var ErrNoSecurityChange = errors.New("should provide at least one arg")

// EventsMode selects how the token emits events
type EventsMode uint8

const (
	EventsNoEvents EventsMode = 0
	EventsCES      EventsMode = 1
)

type InstallArgs struct {
	Name              string
	Symbol            string
	Decimals          uint8
	TotalSupply       *big.Int
	EventsMode        *EventsMode
	EnableMintAndBurn *bool
}

type TransferArgs struct {
	Recipient types.Key
	Amount    *big.Int
}

type TransferFromArgs struct {
	Owner     types.Key
	Recipient types.Key
	Amount    *big.Int
}

// ApproveArgs is used by approve and by the allowance adjustments
type ApproveArgs struct {
	Spender types.Key
	Amount  *big.Int
}

// MintArgs is used by mint and burn
type MintArgs struct {
	Owner  types.Key
	Amount *big.Int
}

type BurnArgs = MintArgs

// ChangeSecurityArgs assigns roles. A nil list is left unchanged; an empty
// non-nil list is sent as an empty list.
type ChangeSecurityArgs struct {
	AdminList       []types.Key
	MinterList      []types.Key
	BurnerList      []types.Key
	MintAndBurnList []types.Key
	NoneList        []types.Key
}

// Contract wraps an installed (or to be installed) CEP-18 token
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

// Install deploys the token wasm
func (c *Contract) Install(wasm []byte, args InstallArgs, opts contract.CallOptions) (*types.Deploy, error) {
	if len(wasm) == 0 {
		return nil, contract.ErrMissingWasm
	}
	rt := types.NewArgs().
		Insert("name", types.String(args.Name)).
		Insert("symbol", types.String(args.Symbol)).
		Insert("decimals", types.U8(args.Decimals)).
		Insert("total_supply", types.U256(args.TotalSupply))

	if args.EventsMode != nil {
		rt.Insert("events_mode", types.U8(uint8(*args.EventsMode)))
	}
	if args.EnableMintAndBurn != nil {
		var v uint8
		if *args.EnableMintAndBurn {
			v = 1
		}
		rt.Insert("enable_mint_burn", types.U8(v))
	}
	return c.Session(wasm, rt, opts)
}

func (c *Contract) Transfer(args TransferArgs, opts contract.CallOptions) (*types.Deploy, error) {
	rt := types.NewArgs().
		Insert("recipient", types.KeyValue(args.Recipient)).
		Insert("amount", types.U256(args.Amount))
	return c.EntryPoint("transfer", rt, opts)
}

// TransferFrom moves tokens of an owner that approved the sender
func (c *Contract) TransferFrom(args TransferFromArgs, opts contract.CallOptions) (*types.Deploy, error) {
	rt := types.NewArgs().
		Insert("owner", types.KeyValue(args.Owner)).
		Insert("recipient", types.KeyValue(args.Recipient)).
		Insert("amount", types.U256(args.Amount))
	return c.EntryPoint("transfer_from", rt, opts)
}

func (c *Contract) Approve(args ApproveArgs, opts contract.CallOptions) (*types.Deploy, error) {
	return c.EntryPoint("approve", spenderArgs(args), opts)
}

func (c *Contract) IncreaseAllowance(args ApproveArgs, opts contract.CallOptions) (*types.Deploy, error) {
	return c.EntryPoint("increase_allowance", spenderArgs(args), opts)
}

func (c *Contract) DecreaseAllowance(args ApproveArgs, opts contract.CallOptions) (*types.Deploy, error) {
	return c.EntryPoint("decrease_allowance", spenderArgs(args), opts)
}

// Mint creates Amount tokens for Owner and increases the total supply
func (c *Contract) Mint(args MintArgs, opts contract.CallOptions) (*types.Deploy, error) {
	return c.EntryPoint("mint", ownerArgs(args), opts)
}

// Burn destroys Amount tokens of Owner and decreases the total supply
func (c *Contract) Burn(args BurnArgs, opts contract.CallOptions) (*types.Deploy, error) {
	return c.EntryPoint("burn", ownerArgs(args), opts)
}

// ChangeSecurity reassigns roles. At least one list must be set.
func (c *Contract) ChangeSecurity(args ChangeSecurityArgs, opts contract.CallOptions) (*types.Deploy, error) {
	rt := types.NewArgs()
	lists := []struct {
		name string
		keys []types.Key
	}{
		{"admin_list", args.AdminList},
		{"minter_list", args.MinterList},
		{"burner_list", args.BurnerList},
		{"mint_and_burn_list", args.MintAndBurnList},
		{"none_list", args.NoneList},
	}
	for _, l := range lists {
		if l.keys != nil {
			rt.Insert(l.name, types.KeyList(l.keys))
		}
	}
	if rt.Len() == 0 {
		return nil, ErrNoSecurityChange
	}
	return c.EntryPoint("change_security", rt, opts)
}

func spenderArgs(args ApproveArgs) *types.Args {
	return types.NewArgs().
		Insert("spender", types.KeyValue(args.Spender)).
		Insert("amount", types.U256(args.Amount))
}

func ownerArgs(args MintArgs) *types.Args {
	return types.NewArgs().
		Insert("owner", types.KeyValue(args.Owner)).
		Insert("amount", types.U256(args.Amount))
}
