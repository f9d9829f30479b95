// Package cep47 builds deploys for the CEP-47 NFT standard.
package cep47

import (
	"casperdash/internal/casper/types"
	"casperdash/internal/contract"
)

// Event names emitted by CEP-47 contracts
const (
	EventMintOne        = "cep47_mint_one"
	EventTransferToken  = "cep47_transfer_token"
	EventBurnOne        = "cep47_burn_one"
	EventMetadataUpdate = "cep47_metadata_update"
	EventApproveToken   = "cep47_approve_token"
)

// InstallArgs are the CEP-47 installation parameters
type InstallArgs struct {
	Name         string
	ContractName string
	Symbol       string
	Meta         map[string]string
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
		Insert("name", types.String(args.Name)).
		Insert("contract_name", types.String(args.ContractName)).
		Insert("symbol", types.String(args.Symbol)).
		Insert("meta", types.StringMap(args.Meta))
	return c.Session(wasm, rt, opts)
}

// Approve lets spender transfer the given tokens of the sender
func (c *Contract) Approve(spender types.Key, ids []string, opts contract.CallOptions) (*types.Deploy, error) {
	tokenIDs, err := contract.U256List(ids)
	if err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("spender", types.KeyValue(spender)).
		Insert("token_ids", tokenIDs)
	return c.EntryPoint("approve", rt, opts)
}

// Mint creates tokens for recipient; ids and metas are paired in order
func (c *Contract) Mint(recipient types.Key, ids []string, metas []map[string]string, opts contract.CallOptions) (*types.Deploy, error) {
	tokenIDs, err := contract.U256List(ids)
	if err != nil {
		return nil, err
	}
	items := make([]types.CLValue, len(metas))
	for i, m := range metas {
		items[i] = types.StringMap(m)
	}
	rt := types.NewArgs().
		Insert("recipient", types.KeyValue(recipient)).
		Insert("token_ids", tokenIDs).
		Insert("token_metas", types.List(types.MapType(types.CLTypeString, types.CLTypeString), items...))
	return c.EntryPoint("mint", rt, opts)
}

// MintCopies creates count tokens sharing the same metadata
func (c *Contract) MintCopies(recipient types.Key, ids []string, meta map[string]string, count uint32, opts contract.CallOptions) (*types.Deploy, error) {
	tokenIDs, err := contract.U256List(ids)
	if err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("recipient", types.KeyValue(recipient)).
		Insert("token_ids", tokenIDs).
		Insert("token_meta", types.StringMap(meta)).
		Insert("count", types.U32(count))
	return c.EntryPoint("mint_copies", rt, opts)
}

func (c *Contract) Burn(owner types.Key, ids []string, opts contract.CallOptions) (*types.Deploy, error) {
	tokenIDs, err := contract.U256List(ids)
	if err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("owner", types.KeyValue(owner)).
		Insert("token_ids", tokenIDs)
	return c.EntryPoint("burn", rt, opts)
}

// TransferFrom moves tokens of owner to recipient
func (c *Contract) TransferFrom(recipient, owner types.Key, ids []string, opts contract.CallOptions) (*types.Deploy, error) {
	tokenIDs, err := contract.U256List(ids)
	if err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("recipient", types.KeyValue(recipient)).
		Insert("sender", types.KeyValue(owner)).
		Insert("token_ids", tokenIDs)
	return c.EntryPoint("transfer_from", rt, opts)
}

func (c *Contract) Transfer(recipient types.Key, ids []string, opts contract.CallOptions) (*types.Deploy, error) {
	tokenIDs, err := contract.U256List(ids)
	if err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("recipient", types.KeyValue(recipient)).
		Insert("token_ids", tokenIDs)
	return c.EntryPoint("transfer", rt, opts)
}

func (c *Contract) UpdateTokenMeta(id string, meta map[string]string, opts contract.CallOptions) (*types.Deploy, error) {
	tokenID, err := types.U256FromString(id)
	if err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("token_id", tokenID).
		Insert("token_meta", types.StringMap(meta))
	return c.EntryPoint("update_token_meta", rt, opts)
}
