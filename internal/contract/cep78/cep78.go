// Package cep78 builds deploys for the CEP-78 enhanced NFT standard.
package cep78

import (
	"encoding/json"
	"errors"
	"fmt"

	"casperdash/internal/casper/types"
	"casperdash/internal/contract"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrConflictingArguments = errors.New("Conflicting arguments provided")
	ErrHashMutableConflict  = errors.New("you can't combine NFTIdentifierMode.Hash and MetadataMutability.Mutable")
	ErrMissingCustomKeys    = errors.New("you need to provide 'accessKeyName' and 'hashKeyName' if you want to use NamedKeyConventionMode.V1_0Custom")
	ErrMissingCollection    = errors.New("missing collectionName argument")
	ErrTokenIdentifier      = errors.New("provide exactly one of token id or token hash")
)

// InstallArgs are fixed at installation time. Pointer and slice fields are
// optional and only sent when set.
type InstallArgs struct {
	CollectionName     string
	CollectionSymbol   string
	TotalTokenSupply   uint64
	OwnershipMode      OwnershipMode
	NFTKind            NFTKind
	MetadataKind       MetadataKind
	IdentifierMode     IdentifierMode
	MetadataMutability MetadataMutability

	JSONSchema             *MetadataSchema
	MintingMode            *MintingMode
	AllowMinting           *bool
	WhitelistMode          *WhitelistMode
	HolderMode             *HolderMode
	ContractWhitelist      []types.Hash
	BurnMode               *BurnMode
	OwnerReverseLookupMode *OwnerReverseLookupMode
	NamedKeyConvention     *NamedKeyConvention
	AccessKeyName          string
	HashKeyName            string
	EventsMode             *EventsMode
}

// ConfigurableVariables can be changed after installation
type ConfigurableVariables struct {
	AllowMinting      *bool
	ContractWhitelist []types.Hash
}

// TokenRef identifies a token by ordinal id or by hash
type TokenRef struct {
	ID   *uint64
	Hash *string
}

// ByID refers to a token in ordinal identifier mode
func ByID(id uint64) TokenRef { return TokenRef{ID: &id} }

// ByHash refers to a token in hash identifier mode
func ByHash(hash string) TokenRef { return TokenRef{Hash: &hash} }

func (r TokenRef) validate() error {
	if (r.ID == nil) == (r.Hash == nil) {
		return ErrTokenIdentifier
	}
	return nil
}

func (r TokenRef) insert(args *types.Args) {
	if r.ID != nil {
		args.Insert("token_id", types.U64(*r.ID))
	}
	if r.Hash != nil {
		args.Insert("token_hash", types.String(*r.Hash))
	}
}

// insertWithMode also tells session code which identifier is used
func (r TokenRef) insertWithMode(args *types.Args) {
	args.Insert("is_hash_identifier_mode", types.Bool(r.Hash != nil))
	r.insert(args)
}

// CallConfig selects between the contract entry point and session code
type CallConfig struct {
	UseSessionCode bool
}

// MintArgs describes a token to mint. Meta is encoded to JSON; a string or
// json.RawMessage is sent as is.
type MintArgs struct {
	Owner          types.Key
	Meta           any
	CollectionName string // required with session code
}

type TransferArgs struct {
	Token  TokenRef
	Source types.Key
	Target types.Key
}

type ApproveArgs struct {
	Operator types.Key
	Token    TokenRef
}

type ApproveAllArgs struct {
	TokenOwner types.Key
	ApproveAll bool
	Operator   types.Key
}

type TokenMetadataArgs struct {
	Token    TokenRef
	Metadata any
}

type StoreBalanceOfArgs struct {
	TokenOwner types.Key
	KeyName    string
}

// StoreTokenArgs is used by the get_approved and owner_of session helpers
type StoreTokenArgs struct {
	Token   TokenRef
	KeyName string
}

// Contract wraps a CEP-78 collection
type Contract struct {
	*contract.Contract
	schema *jsonschema.Schema
}

type Option func(*Contract)

// WithMetadataSchema validates minted and updated metadata before building deploys
func WithMetadataSchema(schema *jsonschema.Schema) Option {
	return func(c *Contract) {
		c.schema = schema
	}
}

func New(chainName, contractHash, packageHash string, opts ...Option) (*Contract, error) {
	base, err := contract.New(chainName, contractHash, packageHash)
	if err != nil {
		return nil, err
	}
	c := &Contract{Contract: base}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Install deploys the collection wasm
func (c *Contract) Install(wasm []byte, args InstallArgs, opts contract.CallOptions) (*types.Deploy, error) {
	if len(wasm) == 0 {
		return nil, contract.ErrMissingWasm
	}
	if args.IdentifierMode == IdentifierHash && args.MetadataMutability == MetadataMutable {
		return nil, ErrHashMutableConflict
	}

	rt := types.NewArgs().
		Insert("collection_name", types.String(args.CollectionName)).
		Insert("collection_symbol", types.String(args.CollectionSymbol)).
		Insert("total_token_supply", types.U64(args.TotalTokenSupply)).
		Insert("ownership_mode", types.U8(uint8(args.OwnershipMode))).
		Insert("nft_kind", types.U8(uint8(args.NFTKind))).
		Insert("nft_metadata_kind", types.U8(uint8(args.MetadataKind))).
		Insert("identifier_mode", types.U8(uint8(args.IdentifierMode))).
		Insert("metadata_mutability", types.U8(uint8(args.MetadataMutability)))

	if args.JSONSchema != nil {
		if _, err := args.JSONSchema.Compile(); err != nil {
			return nil, fmt.Errorf("invalid json_schema: %w", err)
		}
		raw, err := json.Marshal(args.JSONSchema)
		if err != nil {
			return nil, err
		}
		rt.Insert("json_schema", types.String(string(raw)))
	}
	if args.MintingMode != nil {
		rt.Insert("minting_mode", types.U8(uint8(*args.MintingMode)))
	}
	if args.AllowMinting != nil {
		rt.Insert("allow_minting", types.Bool(*args.AllowMinting))
	}
	if args.WhitelistMode != nil {
		rt.Insert("whitelist_mode", types.U8(uint8(*args.WhitelistMode)))
	}
	if args.HolderMode != nil {
		rt.Insert("holder_mode", types.U8(uint8(*args.HolderMode)))
	}
	if args.ContractWhitelist != nil {
		rt.Insert("contract_whitelist", contract.HashList(args.ContractWhitelist))
	}
	if args.BurnMode != nil {
		rt.Insert("burn_mode", types.U8(uint8(*args.BurnMode)))
	}
	if args.OwnerReverseLookupMode != nil {
		rt.Insert("owner_reverse_lookup_mode", types.U8(uint8(*args.OwnerReverseLookupMode)))
	}
	if args.NamedKeyConvention != nil {
		rt.Insert("named_key_convention", types.U8(uint8(*args.NamedKeyConvention)))
		if *args.NamedKeyConvention == NamedKeyV1_0Custom {
			if args.AccessKeyName == "" || args.HashKeyName == "" {
				return nil, ErrMissingCustomKeys
			}
			rt.Insert("access_key_name", types.String(args.AccessKeyName))
			rt.Insert("hash_key_name", types.String(args.HashKeyName))
		}
	}
	if args.EventsMode != nil {
		rt.Insert("events_mode", types.U8(uint8(*args.EventsMode)))
	}

	return c.Session(wasm, rt, opts)
}

func (c *Contract) SetVariables(args ConfigurableVariables, opts contract.CallOptions) (*types.Deploy, error) {
	rt := types.NewArgs()
	if args.AllowMinting != nil {
		rt.Insert("allow_minting", types.Bool(*args.AllowMinting))
	}
	if args.ContractWhitelist != nil {
		rt.Insert("contract_whitelist", contract.HashList(args.ContractWhitelist))
	}
	return c.EntryPoint("set_variables", rt, opts)
}

// Register registers an owner when the collection uses owner reverse lookup
func (c *Contract) Register(tokenOwner types.Key, opts contract.CallOptions) (*types.Deploy, error) {
	rt := types.NewArgs().Insert("token_owner", types.KeyValue(tokenOwner))
	return c.EntryPoint("register_owner", rt, opts)
}

// RegisterTokenOwner calls the register_token_owner entry point of older collections
func (c *Contract) RegisterTokenOwner(tokenOwner types.Key, opts contract.CallOptions) (*types.Deploy, error) {
	rt := types.NewArgs().Insert("token_owner", types.KeyValue(tokenOwner))
	return c.EntryPoint("register_token_owner", rt, opts)
}

func (c *Contract) Revoke(opts contract.CallOptions) (*types.Deploy, error) {
	return c.EntryPoint("revoke", types.NewArgs(), opts)
}

// Mint mints a token through the entry point, or through session code when
// cfg.UseSessionCode is set.
func (c *Contract) Mint(args MintArgs, cfg CallConfig, wasm []byte, opts contract.CallOptions) (*types.Deploy, error) {
	if !cfg.UseSessionCode && len(wasm) > 0 {
		return nil, ErrConflictingArguments
	}
	meta, err := c.metadataJSON(args.Meta)
	if err != nil {
		return nil, err
	}

	rt := types.NewArgs().
		Insert("token_owner", types.KeyValue(args.Owner)).
		Insert("token_meta_data", types.String(string(meta)))

	if cfg.UseSessionCode {
		if len(wasm) == 0 {
			return nil, contract.ErrMissingWasm
		}
		if args.CollectionName == "" {
			return nil, ErrMissingCollection
		}
		hashKey, err := c.HashKey()
		if err != nil {
			return nil, err
		}
		rt.Insert("nft_contract_hash", hashKey)
		rt.Insert("collection_name", types.String(args.CollectionName))
		return c.Session(wasm, rt, opts)
	}
	return c.EntryPoint("mint", rt, opts)
}

func (c *Contract) Burn(token TokenRef, opts contract.CallOptions) (*types.Deploy, error) {
	if err := token.validate(); err != nil {
		return nil, err
	}
	rt := types.NewArgs()
	token.insert(rt)
	return c.EntryPoint("burn", rt, opts)
}

// Transfer moves a token from Source to Target
func (c *Contract) Transfer(args TransferArgs, cfg CallConfig, wasm []byte, opts contract.CallOptions) (*types.Deploy, error) {
	if !cfg.UseSessionCode && len(wasm) > 0 {
		return nil, ErrConflictingArguments
	}
	if err := args.Token.validate(); err != nil {
		return nil, err
	}

	rt := types.NewArgs().
		Insert("target_key", types.KeyValue(args.Target)).
		Insert("source_key", types.KeyValue(args.Source))
	args.Token.insertWithMode(rt)

	if cfg.UseSessionCode {
		if len(wasm) == 0 {
			return nil, contract.ErrMissingWasm
		}
		hashKey, err := c.HashKey()
		if err != nil {
			return nil, err
		}
		rt.Insert("nft_contract_hash", hashKey)
		return c.Session(wasm, rt, opts)
	}
	return c.EntryPoint("transfer", rt, opts)
}

// SetTokenMetadata replaces the metadata of a mutable token
func (c *Contract) SetTokenMetadata(args TokenMetadataArgs, opts contract.CallOptions) (*types.Deploy, error) {
	if err := args.Token.validate(); err != nil {
		return nil, err
	}
	meta, err := c.metadataJSON(args.Metadata)
	if err != nil {
		return nil, err
	}
	rt := types.NewArgs()
	args.Token.insert(rt)
	rt.Insert("token_meta_data", types.String(string(meta)))
	return c.EntryPoint("set_token_metadata", rt, opts)
}

// Approve lets operator transfer a single token
func (c *Contract) Approve(args ApproveArgs, opts contract.CallOptions) (*types.Deploy, error) {
	if err := args.Token.validate(); err != nil {
		return nil, err
	}
	rt := types.NewArgs().Insert("operator", types.KeyValue(args.Operator))
	args.Token.insert(rt)
	return c.EntryPoint("approve", rt, opts)
}

// ApproveAll grants or revokes operator rights over every token of the owner
func (c *Contract) ApproveAll(args ApproveAllArgs, opts contract.CallOptions) (*types.Deploy, error) {
	rt := types.NewArgs().
		Insert("token_owner", types.KeyValue(args.TokenOwner)).
		Insert("approve_all", types.Bool(args.ApproveAll)).
		Insert("operator", types.KeyValue(args.Operator))
	return c.EntryPoint("set_approval_for_all", rt, opts)
}

// StoreBalanceOf runs session code that stores the owner's balance under KeyName
func (c *Contract) StoreBalanceOf(args StoreBalanceOfArgs, wasm []byte, opts contract.CallOptions) (*types.Deploy, error) {
	if len(wasm) == 0 {
		return nil, contract.ErrMissingWasm
	}
	hashKey, err := c.HashKey()
	if err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("nft_contract_hash", hashKey).
		Insert("token_owner", types.KeyValue(args.TokenOwner)).
		Insert("key_name", types.String(args.KeyName))
	return c.Session(wasm, rt, opts)
}

// StoreGetApproved runs session code that stores the approved operator of a token
func (c *Contract) StoreGetApproved(args StoreTokenArgs, wasm []byte, opts contract.CallOptions) (*types.Deploy, error) {
	return c.storeToken(args, wasm, opts)
}

// StoreOwnerOf runs session code that stores the owner of a token
func (c *Contract) StoreOwnerOf(args StoreTokenArgs, wasm []byte, opts contract.CallOptions) (*types.Deploy, error) {
	return c.storeToken(args, wasm, opts)
}

func (c *Contract) storeToken(args StoreTokenArgs, wasm []byte, opts contract.CallOptions) (*types.Deploy, error) {
	if len(wasm) == 0 {
		return nil, contract.ErrMissingWasm
	}
	if err := args.Token.validate(); err != nil {
		return nil, err
	}
	hashKey, err := c.HashKey()
	if err != nil {
		return nil, err
	}
	rt := types.NewArgs().
		Insert("nft_contract_hash", hashKey).
		Insert("key_name", types.String(args.KeyName))
	args.Token.insertWithMode(rt)
	return c.Session(wasm, rt, opts)
}

// Migrate upgrades a collection installed by an older contract version
func (c *Contract) Migrate(collectionName string, opts contract.CallOptions) (*types.Deploy, error) {
	rt := types.NewArgs().Insert("collection_name", types.String(collectionName))
	return c.EntryPoint("migrate", rt, opts)
}

func (c *Contract) metadataJSON(meta any) ([]byte, error) {
	var raw []byte
	switch m := meta.(type) {
	case json.RawMessage:
		raw = m
	case string:
		raw = []byte(m)
	default:
		b, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to encode token metadata: %w", err)
		}
		raw = b
	}
	if err := validateMetadata(c.schema, raw); err != nil {
		return nil, err
	}
	return raw, nil
}
