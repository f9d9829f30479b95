package nft

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"casperdash/internal/casper/types"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

const (
	testContract = "hash-1111111111111111111111111111111111111111111111111111111111111111"
	ownerHex     = "2222222222222222222222222222222222222222222222222222222222222222"
)

type fakeQuerier struct {
	mu    sync.Mutex
	dict  map[string]string
	data  map[string]string
	calls []string
}

func (f *fakeQuerier) QueryContractDictionary(_ context.Context, _, dictionary, key string) (*types.StoredCLValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dictionary+"/"+key)
	v, ok := f.dict[dictionary+"/"+key]
	if !ok {
		return nil, errors.New("ValueNotFound")
	}
	return &types.StoredCLValue{Parsed: json.RawMessage(v)}, nil
}

func (f *fakeQuerier) QueryContractData(_ context.Context, _ string, path []string) (*types.StoredCLValue, error) {
	v, ok := f.data[strings.Join(path, "/")]
	if !ok {
		return nil, errors.New("ValueNotFound")
	}
	return &types.StoredCLValue{Parsed: json.RawMessage(v)}, nil
}

func testOwner(t *testing.T) types.PublicKey {
	t.Helper()
	pk, err := types.ParsePublicKey("01" + "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29")
	require.NoError(t, err)
	return pk
}

func newService(t *testing.T, c Collection, q Querier, opts ...Option) *Service {
	t.Helper()
	if c.ContractHash == "" {
		c.ContractHash = testContract
	}
	if c.Name == "" {
		c.Name = "Test Collection"
	}
	s, err := NewService(c, q, opts...)
	require.NoError(t, err)
	return s
}

func TestOwnedTokenIndexKey(t *testing.T) {
	owner := testOwner(t)
	acct := owner.AccountHash()

	data := append([]byte{0}, acct[:]...)
	data = append(data, 1, 2) // U256(2): one byte length, then value
	want := blake2b.Sum256(data)

	require.Equal(t, hex.EncodeToString(want[:]), OwnedTokenIndexKey(owner, 2))
	require.NotEqual(t, OwnedTokenIndexKey(owner, 1), OwnedTokenIndexKey(owner, 2))
}

func TestTokenIDsByOwner_CEP47IsStable(t *testing.T) {
	owner := testOwner(t)
	q := &fakeQuerier{dict: map[string]string{
		"balances/" + owner.AccountHashHex(): `"3"`,
	}}
	for i, id := range []string{`"10"`, `"11"`, `"12"`} {
		q.dict["owned_tokens_by_index/"+OwnedTokenIndexKey(owner, uint64(i))] = id
	}
	s := newService(t, Collection{Standard: CEP47}, q)

	first := s.TokenIDsByOwner(context.Background(), owner)
	second := s.TokenIDsByOwner(context.Background(), owner)
	require.Equal(t, []string{"10", "11", "12"}, first)
	require.Equal(t, first, second)

	balance, err := s.BalanceOf(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, uint64(3), balance)
}

func TestTokenIDsByOwner_CEP78(t *testing.T) {
	owner := testOwner(t)
	q := &fakeQuerier{dict: map[string]string{
		"owned_tokens/" + owner.AccountHashHex(): `[4, 9]`,
	}}
	s := newService(t, Collection{Standard: CEP78}, q)

	require.Equal(t, []string{"4", "9"}, s.TokenIDsByOwner(context.Background(), owner))
}

func TestTokenIDsByOwner_ErrorYieldsEmptyList(t *testing.T) {
	owner := testOwner(t)
	q := &fakeQuerier{dict: map[string]string{
		"balances/" + owner.AccountHashHex(): `"2"`,
		"owned_tokens_by_index/" + OwnedTokenIndexKey(owner, 0): `"1"`,
	}}
	s := newService(t, Collection{Standard: CEP47}, q)

	ids := s.TokenIDsByOwner(context.Background(), owner)
	require.NotNil(t, ids)
	require.Empty(t, ids)
}

func TestDetails_FailingLookupIsLeftOut(t *testing.T) {
	q := &fakeQuerier{dict: map[string]string{
		"metadata_raw/7": `"{\"name\":\"Punk #7\"}"`,
		"royalties/7":    `"5"`,
	}}
	s := newService(t, Collection{
		Standard:     CEP78,
		MetadataKind: MetadataRaw,
		Creator:      "casperdash",
		NamedKeys: NamedKeys{Extra: []NamedKeyConfig{
			{Dictionary: "royalties"},
		}},
	}, q)

	token, err := s.Details(context.Background(), "7")
	require.NoError(t, err)
	require.Equal(t, "7", token.TokenID)
	require.Equal(t, "casperdash", token.Creator)
	require.Equal(t, []Attribute{{Key: "name", Name: "name", Value: "Punk #7"}}, token.Metadata)
	require.Empty(t, token.OwnerAccountHash)
	require.Equal(t, map[string]any{"royalties": "5"}, token.Extra)
	require.Contains(t, q.calls, "token_owners/7")
}

func TestDetails_OwnerIsAccountHash(t *testing.T) {
	q := &fakeQuerier{dict: map[string]string{
		"metadata/1": `[]`,
		"owners/1":   `{"Account":"account-hash-` + ownerHex + `"}`,
	}}
	s := newService(t, Collection{Standard: CEP47}, q)

	token, err := s.Details(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "account-hash-"+ownerHex, token.OwnerAccountHash)
	require.Empty(t, token.Metadata)
}

func TestDetails_JSONAndKeyValueMetadataAgree(t *testing.T) {
	meta := &MetadataConfig{Attributes: []AttributeConfig{
		{Key: "image", Name: "Image", Transform: "ipfs"},
		{Key: "Name", Name: "Title", StrictKey: "name"},
	}}
	kv := &fakeQuerier{dict: map[string]string{
		"metadata/1": `[{"key":"Name","value":"Ghost"},{"key":"image","value":"ipfs://bafy"},{"key":"level","value":"3"}]`,
	}}
	js := &fakeQuerier{dict: map[string]string{
		"metadata_nft721/1": `"{\"Name\":\"Ghost\",\"image\":\"ipfs://bafy\",\"level\":\"3\"}"`,
	}}

	cep47 := newService(t, Collection{Standard: CEP47, NamedKeys: NamedKeys{Metadata: meta}}, kv)
	cep78 := newService(t, Collection{Standard: CEP78, MetadataKind: MetadataNFT721, NamedKeys: NamedKeys{Metadata: meta}}, js)

	a, err := cep47.Details(context.Background(), "1")
	require.NoError(t, err)
	b, err := cep78.Details(context.Background(), "1")
	require.NoError(t, err)

	want := []Attribute{
		{Key: "name", Name: "Title", Value: "Ghost"},
		{Key: "image", Name: "Image", Value: IPFSGateway + "bafy"},
		{Key: "level", Name: "level", Value: "3"},
	}
	require.Equal(t, want, a.Metadata)
	require.Equal(t, want, b.Metadata)
}

func TestDetails_UndecodableMetadataIsEmpty(t *testing.T) {
	q := &fakeQuerier{dict: map[string]string{
		"metadata/1": `"not json"`,
	}}
	s := newService(t, Collection{Standard: CEP78}, q)

	token, err := s.Details(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, token.Metadata)
	require.Empty(t, token.Metadata)
}

func TestDetails_MetadataFromURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/docs/5.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Remote","image":"ipfs://img"}`))
	}))
	defer srv.Close()

	fetcher, err := NewHTTPFetcher(srv.Client(), 100, 8)
	require.NoError(t, err)

	q := &fakeQuerier{dict: map[string]string{
		"metadata_cep78/5": `"{\"token_uri\":\"docs/5.json\"}"`,
	}}
	s := newService(t, Collection{
		Standard:     CEP78,
		MetadataKind: MetadataCEP78,
		NamedKeys: NamedKeys{Metadata: &MetadataConfig{
			FromURI:    true,
			URI:        &URIConfig{Key: "token_uri", Transform: "test_gateway"},
			Attributes: []AttributeConfig{{Key: "image", Name: "Image", Transform: "ipfs"}},
		}},
	}, q,
		WithFetcher(fetcher),
		WithTransform("test_gateway", func(v any) (any, error) {
			return srv.URL + "/" + v.(string), nil
		}),
	)

	token, err := s.Details(context.Background(), "5")
	require.NoError(t, err)
	require.Equal(t, []Attribute{
		{Key: "name", Name: "name", Value: "Remote"},
		{Key: "image", Name: "Image", Value: IPFSGateway + "img"},
	}, token.Metadata)

	q.dict["metadata_cep78/6"] = `"{\"name\":\"no uri\"}"`
	_, err = s.Details(context.Background(), "6")
	require.ErrorIs(t, err, ErrURINotFound)
}

func TestInfoByTokenIDs_OneEntryPerToken(t *testing.T) {
	q := &fakeQuerier{dict: map[string]string{
		"metadata/1": `"{\"uri\":\"a\"}"`,
		"metadata/3": `"{\"uri\":\"c\"}"`,
	}}
	fetch := fetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		return []byte(`{"doc":"` + url + `"}`), nil
	})
	s := newService(t, Collection{
		Standard: CEP78,
		NamedKeys: NamedKeys{Metadata: &MetadataConfig{
			FromURI: true,
			URI:     &URIConfig{Key: "uri"},
		}},
	}, q, WithFetcher(fetch))

	info := ContractInfo{Name: "Punks", Symbol: "PNK"}
	tokens := s.InfoByTokenIDs(context.Background(), []string{"1", "2", "3"}, info)
	require.Len(t, tokens, 3)
	require.Equal(t, []string{"1", "2", "3"}, []string{tokens[0].TokenID, tokens[1].TokenID, tokens[2].TokenID})

	require.Equal(t, Token{TokenID: "2", ContractInfo: info}, tokens[1])
	require.Equal(t, "Punks", tokens[0].Name)
	require.Equal(t, []Attribute{{Key: "doc", Name: "doc", Value: "c"}}, tokens[2].Metadata)

	require.Empty(t, s.InfoByTokenIDs(context.Background(), nil, info))
}

type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func TestContractInfo_FailedKeyIsNil(t *testing.T) {
	q := &fakeQuerier{data: map[string]string{
		"collection_name":    `"Casper Punks"`,
		"total_token_supply": `1000`,
	}}
	s := newService(t, Collection{Standard: CEP78}, q)

	info := s.ContractInfo(context.Background())
	require.Equal(t, "Casper Punks", info.Name)
	require.Nil(t, info.Symbol)
	require.Equal(t, json.Number("1000"), info.TotalSupply)
}

func TestByPublicKey_SetsBalance(t *testing.T) {
	owner := testOwner(t)
	q := &fakeQuerier{dict: map[string]string{
		"owned_tokens/" + owner.AccountHashHex(): `[1, 2]`,
		"metadata/1": `"{}"`,
		"metadata/2": `"{}"`,
	}}
	s := newService(t, Collection{Standard: CEP78}, q)

	tokens := s.ByPublicKey(context.Background(), owner, ContractInfo{Symbol: "X"})
	require.Len(t, tokens, 2)
	for _, tok := range tokens {
		require.NotNil(t, tok.Balances)
		require.Equal(t, 2, *tok.Balances)
		require.Equal(t, "X", tok.Symbol)
	}
}

func TestNewService_Validation(t *testing.T) {
	q := &fakeQuerier{}

	_, err := NewService(Collection{ContractHash: testContract, Standard: "cep-99"}, q)
	require.Error(t, err)

	_, err = NewService(Collection{ContractHash: "nope", Standard: CEP47}, q)
	require.ErrorIs(t, err, types.ErrInvalidHash)

	_, err = NewService(Collection{
		ContractHash: testContract,
		Standard:     CEP78,
		NamedKeys: NamedKeys{Metadata: &MetadataConfig{Attributes: []AttributeConfig{
			{Key: "a", Name: "A", Transform: "rot13"},
		}}},
	}, q)
	require.ErrorIs(t, err, ErrUnknownTransform)

	_, err = NewService(Collection{
		ContractHash: testContract,
		Standard:     CEP78,
		NamedKeys: NamedKeys{Metadata: &MetadataConfig{
			FromURI: true,
			URI:     &URIConfig{Key: "uri"},
		}},
	}, q)
	require.ErrorIs(t, err, ErrNoFetcher)
}

func TestRegistry_LoadAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
collections:
  - contract_hash: `+testContract+`
    name: Punks
    standard: cep-78
    metadata_kind: raw
    named_keys:
      metadata:
        attributes:
          - key: image
            name: Image
            transform: ipfs
  - contract_hash: 3333333333333333333333333333333333333333333333333333333333333333
    name: Legacy
    standard: cep-47
`), 0o600))

	collections, err := LoadCollections(path)
	require.NoError(t, err)
	require.Len(t, collections, 2)
	require.Equal(t, MetadataRaw, collections[0].MetadataKind)
	require.Equal(t, "ipfs", collections[0].NamedKeys.Metadata.Attributes[0].Transform)

	owner := testOwner(t)
	q := &fakeQuerier{
		dict: map[string]string{
			"owned_tokens/" + owner.AccountHashHex(): `[8]`,
			"metadata_raw/8": `"{\"image\":\"ipfs://pic\"}"`,
		},
		data: map[string]string{"collection_name": `"Punks"`},
	}
	r, err := NewRegistry(q, collections)
	require.NoError(t, err)

	s, ok := r.Get(strings.TrimPrefix(testContract, "hash-"))
	require.True(t, ok)
	require.Equal(t, "Punks", s.Collection().Name)
	_, ok = r.Get("contract-" + strings.Repeat("44", 32))
	require.False(t, ok)

	all := r.OwnerTokens(context.Background(), owner)
	require.Len(t, all, 2)
	require.Equal(t, "Punks", all[0].Name)
	require.Len(t, all[0].Tokens, 1)
	require.Equal(t, IPFSGateway+"pic", all[0].Tokens[0].Metadata[0].Value)
	require.Equal(t, 1, *all[0].Info.Balances)
	require.Empty(t, all[1].Tokens)

	_, err = NewRegistry(q, append(collections, collections[0]))
	require.Error(t, err)
}

func TestLoadCollections_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collections.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collections:\n  - contract_hsh: x\n"), 0o600))

	_, err := LoadCollections(path)
	require.Error(t, err)
}
