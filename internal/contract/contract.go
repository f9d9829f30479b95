// Package contract builds deploys that call installed contracts or run session code.
package contract

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"casperdash/internal/casper/types"
)

var (
	ErrMissingWasm    = errors.New("you need to provide wasm")
	ErrMissingPayment = errors.New("payment amount must be positive")
	ErrMissingSender  = errors.New("deploy sender is required")
	ErrNoContractHash = errors.New("contract hash is not set")
	ErrNoEntryPoint   = errors.New("entry point name is required")
)

// CallKind selects how a call reaches the chain
type CallKind int

const (
	// KindEntryPoint invokes an exported function of an installed contract
	KindEntryPoint CallKind = iota
	// KindSession runs a wasm payload in the sender's account context
	KindSession
)

func (k CallKind) String() string {
	if k == KindSession {
		return "session"
	}
	return "entry_point"
}

// Call is a contract interaction before it becomes a deploy
type Call struct {
	Kind       CallKind
	EntryPoint string
	Wasm       []byte
	Args       *types.Args
}

// Name returns the entry point, or "session" for session code
func (c Call) Name() string {
	if c.Kind == KindSession {
		return "session"
	}
	return c.EntryPoint
}

// CallOptions carries who pays, who signs and which network the deploy targets
type CallOptions struct {
	Payment   *big.Int
	Sender    types.PublicKey
	ChainName string // overrides the contract's network when set
	Signers   []types.Signer
	TTL       time.Duration
	Timestamp time.Time
}

// Builder turns a call into a deploy. Contract is the canonical implementation.
type Builder interface {
	Build(call Call, opts CallOptions) (*types.Deploy, error)
}

// Contract identifies an installed contract on a network. The zero hashes are
// valid for install-only use.
type Contract struct {
	ChainName    string
	ContractHash types.Hash
	PackageHash  types.Hash
}

// New parses the optional contract and package hashes ("hash-" prefixed or bare hex)
func New(chainName, contractHash, packageHash string) (*Contract, error) {
	c := &Contract{ChainName: chainName}
	if contractHash != "" {
		h, err := types.ParseHash(contractHash)
		if err != nil {
			return nil, fmt.Errorf("contract hash: %w", err)
		}
		c.ContractHash = h
	}
	if packageHash != "" {
		h, err := types.ParseHash(packageHash)
		if err != nil {
			return nil, fmt.Errorf("contract package hash: %w", err)
		}
		c.PackageHash = h
	}
	return c, nil
}

// HashKey returns the contract hash as a Key, as passed to session code in nft_contract_hash
func (c *Contract) HashKey() (types.CLValue, error) {
	if c.ContractHash.IsZero() {
		return types.CLValue{}, ErrNoContractHash
	}
	return types.KeyValue(types.HashKey(c.ContractHash)), nil
}

// EntryPoint builds a deploy calling name on the installed contract
func (c *Contract) EntryPoint(name string, args *types.Args, opts CallOptions) (*types.Deploy, error) {
	return c.Build(Call{Kind: KindEntryPoint, EntryPoint: name, Args: args}, opts)
}

// Session builds a deploy running wasm with args
func (c *Contract) Session(wasm []byte, args *types.Args, opts CallOptions) (*types.Deploy, error) {
	return c.Build(Call{Kind: KindSession, Wasm: wasm, Args: args}, opts)
}

// Build validates the call and options, then makes and signs the deploy
func (c *Contract) Build(call Call, opts CallOptions) (*types.Deploy, error) {
	if opts.Payment == nil || opts.Payment.Sign() <= 0 {
		return nil, ErrMissingPayment
	}
	if opts.Sender.IsZero() {
		return nil, ErrMissingSender
	}
	args := call.Args
	if args == nil {
		args = types.NewArgs()
	}
	if err := args.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", call.Name(), err)
	}

	var session types.ExecutableDeployItem
	switch call.Kind {
	case KindSession:
		if len(call.Wasm) == 0 {
			return nil, ErrMissingWasm
		}
		session.ModuleBytes = &types.ModuleBytes{ModuleBytes: call.Wasm, Args: args}
	default:
		if c.ContractHash.IsZero() {
			return nil, ErrNoContractHash
		}
		if call.EntryPoint == "" {
			return nil, ErrNoEntryPoint
		}
		session.StoredContractByHash = &types.StoredContractByHash{
			Hash:       c.ContractHash,
			EntryPoint: call.EntryPoint,
			Args:       args,
		}
	}

	chain := opts.ChainName
	if chain == "" {
		chain = c.ChainName
	}
	params := types.NewDeployParams(opts.Sender, chain)
	if opts.TTL > 0 {
		params.TTL = opts.TTL
	}
	if !opts.Timestamp.IsZero() {
		params.Timestamp = opts.Timestamp
	}

	deploy, err := types.MakeDeploy(params, types.StandardPayment(opts.Payment), session)
	if err != nil {
		return nil, fmt.Errorf("failed to make %s deploy: %w", call.Name(), err)
	}
	if err := deploy.Sign(opts.Signers...); err != nil {
		return nil, err
	}
	return deploy, nil
}

// Some returns a pointer to v, for optional call arguments
func Some[T any](v T) *T {
	return &v
}

// HashList converts contract hashes to a List(ByteArray(32)) value
func HashList(hashes []types.Hash) types.CLValue {
	items := make([]types.CLValue, len(hashes))
	for i, h := range hashes {
		items[i] = types.ByteArray(h[:])
	}
	return types.List(types.ByteArrayType(32), items...)
}

// U256List converts decimal token ids to a List(U256) value
func U256List(ids []string) (types.CLValue, error) {
	items := make([]types.CLValue, len(ids))
	for i, id := range ids {
		v, err := types.U256FromString(id)
		if err != nil {
			return types.CLValue{}, fmt.Errorf("token id %q: %w", id, err)
		}
		items[i] = v
	}
	return types.List(types.CLTypeU256, items...), nil
}
