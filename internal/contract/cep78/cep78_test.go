package cep78

import (
	"testing"

	"casperdash/internal/casper/types"
	"casperdash/internal/contract"
	"casperdash/internal/contract/contracttest"

	"github.com/stretchr/testify/require"
)

func newCollection(t *testing.T, opts ...Option) *Contract {
	c, err := New("casper-test", contracttest.ContractHash, contracttest.PackageHash, opts...)
	require.NoError(t, err)
	return c
}

func baseInstall() InstallArgs {
	return InstallArgs{
		CollectionName:     "casper-punks",
		CollectionSymbol:   "CPK",
		TotalTokenSupply:   1000,
		OwnershipMode:      OwnershipTransferable,
		NFTKind:            KindDigital,
		MetadataKind:       MetadataNFT721,
		IdentifierMode:     IdentifierOrdinal,
		MetadataMutability: MetadataImmutable,
	}
}

func TestInstall_OmitsUnsetOptionalArgs(t *testing.T) {
	d, err := newCollection(t).Install(contracttest.Wasm, baseInstall(), contracttest.Options(t))
	require.NoError(t, err)

	require.Equal(t, []string{
		"collection_name", "collection_symbol", "total_token_supply", "ownership_mode",
		"nft_kind", "nft_metadata_kind", "identifier_mode", "metadata_mutability",
	}, contracttest.ArgNames(d))
	require.False(t, d.Session.Args().Has("events_mode"))
}

func TestInstall_InsertsSetOptionalArgs(t *testing.T) {
	args := baseInstall()
	args.EventsMode = contract.Some(EventsCES)
	args.MintingMode = contract.Some(MintingPublic)
	args.AllowMinting = contract.Some(false)
	args.OwnerReverseLookupMode = contract.Some(ReverseLookupNone)
	args.ContractWhitelist = []types.Hash{{1}}

	d, err := newCollection(t).Install(contracttest.Wasm, args, contracttest.Options(t))
	require.NoError(t, err)

	rt := d.Session.Args()
	for _, name := range []string{"events_mode", "minting_mode", "allow_minting", "owner_reverse_lookup_mode", "contract_whitelist"} {
		require.True(t, rt.Has(name), name)
	}
	v, _ := rt.Get("allow_minting")
	require.Equal(t, []byte{0}, v.Bytes())
}

func TestInstall_HashWithMutableMetadataRejected(t *testing.T) {
	args := baseInstall()
	args.IdentifierMode = IdentifierHash
	args.MetadataMutability = MetadataMutable

	d, err := newCollection(t).Install(contracttest.Wasm, args, contracttest.Options(t))
	require.ErrorIs(t, err, ErrHashMutableConflict)
	require.Nil(t, d)
}

func TestInstall_CustomNamedKeys(t *testing.T) {
	args := baseInstall()
	args.NamedKeyConvention = contract.Some(NamedKeyV1_0Custom)

	_, err := newCollection(t).Install(contracttest.Wasm, args, contracttest.Options(t))
	require.ErrorIs(t, err, ErrMissingCustomKeys)

	args.AccessKeyName = "punks_access"
	args.HashKeyName = "punks_hash"
	d, err := newCollection(t).Install(contracttest.Wasm, args, contracttest.Options(t))
	require.NoError(t, err)
	require.True(t, d.Session.Args().Has("access_key_name"))
	require.True(t, d.Session.Args().Has("hash_key_name"))
}

func TestInstall_JSONSchema(t *testing.T) {
	args := baseInstall()
	args.MetadataKind = MetadataCustomValidated
	args.JSONSchema = &MetadataSchema{Properties: map[string]MetadataProperty{
		"name": {Name: "name", Description: "token name", Required: true},
	}}

	d, err := newCollection(t).Install(contracttest.Wasm, args, contracttest.Options(t))
	require.NoError(t, err)
	v, ok := d.Session.Args().Get("json_schema")
	require.True(t, ok)
	require.JSONEq(t, `{"properties":{"name":{"name":"name","description":"token name","required":true}}}`, v.Parsed().(string))

	args.JSONSchema = &MetadataSchema{}
	_, err = newCollection(t).Install(contracttest.Wasm, args, contracttest.Options(t))
	require.Error(t, err)
}

func TestMint_EntryPoint(t *testing.T) {
	owner := contracttest.AccountKey(t, 2)
	d, err := newCollection(t).Mint(MintArgs{
		Owner: owner,
		Meta:  map[string]string{"name": "punk #1"},
	}, CallConfig{}, nil, contracttest.Options(t))
	require.NoError(t, err)
	require.Equal(t, "mint", d.EntryPoint())
	require.Equal(t, []string{"token_owner", "token_meta_data"}, contracttest.ArgNames(d))

	meta, _ := d.Session.Args().Get("token_meta_data")
	require.JSONEq(t, `{"name":"punk #1"}`, meta.Parsed().(string))
}

func TestMint_ConflictingArguments(t *testing.T) {
	_, err := newCollection(t).Mint(MintArgs{Owner: contracttest.AccountKey(t, 2), Meta: "{}"},
		CallConfig{UseSessionCode: false}, contracttest.Wasm, contracttest.Options(t))
	require.ErrorIs(t, err, ErrConflictingArguments)
	require.EqualError(t, err, "Conflicting arguments provided")
}

func TestMint_SessionCode(t *testing.T) {
	c := newCollection(t)
	args := MintArgs{Owner: contracttest.AccountKey(t, 2), Meta: "{}"}

	_, err := c.Mint(args, CallConfig{UseSessionCode: true}, nil, contracttest.Options(t))
	require.ErrorIs(t, err, contract.ErrMissingWasm)

	_, err = c.Mint(args, CallConfig{UseSessionCode: true}, contracttest.Wasm, contracttest.Options(t))
	require.ErrorIs(t, err, ErrMissingCollection)

	args.CollectionName = "casper-punks"
	d, err := c.Mint(args, CallConfig{UseSessionCode: true}, contracttest.Wasm, contracttest.Options(t))
	require.NoError(t, err)
	require.NotNil(t, d.Session.ModuleBytes)
	require.Equal(t, []string{"token_owner", "token_meta_data", "nft_contract_hash", "collection_name"}, contracttest.ArgNames(d))

	hashKey, _ := d.Session.Args().Get("nft_contract_hash")
	require.Equal(t, byte(types.KeyHash), hashKey.Bytes()[0])
}

func TestMint_ValidatesMetadataSchema(t *testing.T) {
	schema, err := MetadataSchema{Properties: map[string]MetadataProperty{
		"name":  {Name: "name", Required: true},
		"color": {Name: "color"},
	}}.Compile()
	require.NoError(t, err)
	c := newCollection(t, WithMetadataSchema(schema))
	owner := contracttest.AccountKey(t, 2)

	_, err = c.Mint(MintArgs{Owner: owner, Meta: map[string]string{"color": "red"}}, CallConfig{}, nil, contracttest.Options(t))
	require.ErrorIs(t, err, ErrInvalidMetadata)

	_, err = c.Mint(MintArgs{Owner: owner, Meta: map[string]string{"name": "punk"}}, CallConfig{}, nil, contracttest.Options(t))
	require.NoError(t, err)

	_, err = c.SetTokenMetadata(TokenMetadataArgs{Token: ByID(1), Metadata: map[string]int{"name": 3}}, contracttest.Options(t))
	require.ErrorIs(t, err, ErrInvalidMetadata)
}

func TestTransfer(t *testing.T) {
	c := newCollection(t)
	src := contracttest.AccountKey(t, 2)
	dst := contracttest.AccountKey(t, 3)

	d, err := c.Transfer(TransferArgs{Token: ByID(0), Source: src, Target: dst}, CallConfig{}, nil, contracttest.Options(t))
	require.NoError(t, err)
	require.Equal(t, "transfer", d.EntryPoint())
	require.Equal(t, []string{"target_key", "source_key", "is_hash_identifier_mode", "token_id"}, contracttest.ArgNames(d))

	d, err = c.Transfer(TransferArgs{Token: ByHash("abc"), Source: src, Target: dst}, CallConfig{UseSessionCode: true}, contracttest.Wasm, contracttest.Options(t))
	require.NoError(t, err)
	require.Equal(t, []string{"target_key", "source_key", "is_hash_identifier_mode", "token_hash", "nft_contract_hash"}, contracttest.ArgNames(d))
	mode, _ := d.Session.Args().Get("is_hash_identifier_mode")
	require.Equal(t, []byte{1}, mode.Bytes())

	_, err = c.Transfer(TransferArgs{Token: ByID(1), Source: src, Target: dst}, CallConfig{}, contracttest.Wasm, contracttest.Options(t))
	require.ErrorIs(t, err, ErrConflictingArguments)

	_, err = c.Transfer(TransferArgs{Source: src, Target: dst}, CallConfig{}, nil, contracttest.Options(t))
	require.ErrorIs(t, err, ErrTokenIdentifier)
}

func TestTokenEntryPoints(t *testing.T) {
	c := newCollection(t)
	opts := contracttest.Options(t)
	operator := contracttest.AccountKey(t, 4)

	d, err := c.Approve(ApproveArgs{Operator: operator, Token: ByID(7)}, opts)
	require.NoError(t, err)
	require.Equal(t, []string{"operator", "token_id"}, contracttest.ArgNames(d))

	d, err = c.Burn(ByHash("abc"), opts)
	require.NoError(t, err)
	require.Equal(t, []string{"token_hash"}, contracttest.ArgNames(d))

	_, err = c.Burn(TokenRef{ID: contract.Some(uint64(1)), Hash: contract.Some("abc")}, opts)
	require.ErrorIs(t, err, ErrTokenIdentifier)

	d, err = c.ApproveAll(ApproveAllArgs{TokenOwner: contracttest.AccountKey(t, 1), ApproveAll: true, Operator: operator}, opts)
	require.NoError(t, err)
	require.Equal(t, "set_approval_for_all", d.EntryPoint())

	d, err = c.SetTokenMetadata(TokenMetadataArgs{Token: ByID(2), Metadata: map[string]string{"name": "x"}}, opts)
	require.NoError(t, err)
	require.Equal(t, []string{"token_id", "token_meta_data"}, contracttest.ArgNames(d))
}

func TestAdminEntryPoints(t *testing.T) {
	c := newCollection(t)
	opts := contracttest.Options(t)
	owner := contracttest.AccountKey(t, 2)

	d, err := c.SetVariables(ConfigurableVariables{AllowMinting: contract.Some(true)}, opts)
	require.NoError(t, err)
	require.Equal(t, []string{"allow_minting"}, contracttest.ArgNames(d))

	d, err = c.Register(owner, opts)
	require.NoError(t, err)
	require.Equal(t, "register_owner", d.EntryPoint())

	d, err = c.RegisterTokenOwner(owner, opts)
	require.NoError(t, err)
	require.Equal(t, "register_token_owner", d.EntryPoint())

	d, err = c.Revoke(opts)
	require.NoError(t, err)
	require.Empty(t, contracttest.ArgNames(d))

	d, err = c.Migrate("casper-punks", opts)
	require.NoError(t, err)
	require.Equal(t, "migrate", d.EntryPoint())
}

func TestStoreHelpers(t *testing.T) {
	c := newCollection(t)
	opts := contracttest.Options(t)

	d, err := c.StoreBalanceOf(StoreBalanceOfArgs{TokenOwner: contracttest.AccountKey(t, 2), KeyName: "balance"}, contracttest.Wasm, opts)
	require.NoError(t, err)
	require.Equal(t, []string{"nft_contract_hash", "token_owner", "key_name"}, contracttest.ArgNames(d))

	d, err = c.StoreOwnerOf(StoreTokenArgs{Token: ByHash("abc"), KeyName: "owner"}, contracttest.Wasm, opts)
	require.NoError(t, err)
	require.Equal(t, []string{"nft_contract_hash", "key_name", "is_hash_identifier_mode", "token_hash"}, contracttest.ArgNames(d))

	_, err = c.StoreGetApproved(StoreTokenArgs{Token: ByID(1), KeyName: "approved"}, nil, opts)
	require.ErrorIs(t, err, contract.ErrMissingWasm)
}
