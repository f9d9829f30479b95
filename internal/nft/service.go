package nft

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"

	"casperdash/internal/casper/types"
	"casperdash/internal/metrics"

	"golang.org/x/sync/errgroup"
)

var (
	ErrURINotFound = errors.New("cant find uri")
	ErrNoFetcher   = errors.New("no metadata fetcher configured")
)

// Querier reads contract state. *chain.Service satisfies it.
type Querier interface {
	QueryContractDictionary(ctx context.Context, contractHash, dictionaryName, itemKey string) (*types.StoredCLValue, error)
	QueryContractData(ctx context.Context, contractHash string, path []string) (*types.StoredCLValue, error)
}

// ContractInfo holds collection level named keys. A value that could not be
// read is nil.
type ContractInfo struct {
	Name        any  `json:"name"`
	Symbol      any  `json:"symbol"`
	TotalSupply any  `json:"totalSupply"`
	Balances    *int `json:"balances,omitempty"`
}

// Token is the normalized record of one NFT
type Token struct {
	TokenID          string         `json:"tokenId"`
	ContractName     string         `json:"contractName,omitempty"`
	ContractAddress  string         `json:"contractAddress,omitempty"`
	Creator          string         `json:"creator,omitempty"`
	Action           string         `json:"action,omitempty"`
	Metadata         []Attribute    `json:"metadata,omitempty"`
	OwnerAccountHash string         `json:"ownerAccountHash,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
	ContractInfo
}

// Service resolves NFT state for one collection
type Service struct {
	collection Collection
	querier    Querier
	transforms Transforms
	fetcher    Fetcher
}

type Option func(*Service)

// WithTransform registers (or replaces) a named transform
func WithTransform(name string, fn Transform) Option {
	return func(s *Service) {
		s.transforms[name] = fn
	}
}

// WithFetcher sets the fetcher used for metadata stored behind a URI
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		s.fetcher = f
	}
}

// NewService validates the collection and returns a query service for it
func NewService(c Collection, q Querier, opts ...Option) (*Service, error) {
	s := &Service{
		collection: c,
		querier:    q,
		transforms: DefaultTransforms(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := c.Validate(s.transforms); err != nil {
		return nil, err
	}
	if m := c.NamedKeys.Metadata; m != nil && m.FromURI && s.fetcher == nil {
		return nil, fmt.Errorf("collection %q: %w", c.Name, ErrNoFetcher)
	}
	return s, nil
}

func (s *Service) Collection() Collection {
	return s.collection
}

// BalanceOf returns the number of tokens held by owner
func (s *Service) BalanceOf(ctx context.Context, owner types.PublicKey) (uint64, error) {
	v, err := s.lookup(ctx, balancesDictionary, owner.AccountHashHex())
	if err != nil {
		return 0, err
	}
	text, err := scalarString(v)
	if err != nil {
		return 0, fmt.Errorf("balance of %s: %w", owner, err)
	}
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("balance of %s: %w", owner, err)
	}
	return n, nil
}

// OwnedTokenIndexKey is the CEP-47 owned_tokens_by_index item key for the
// index-th token of owner
func OwnedTokenIndexKey(owner types.PublicKey, index uint64) string {
	data := owner.AccountKey().Bytes()
	data = append(data, types.U256(new(big.Int).SetUint64(index)).Bytes()...)
	h := types.Blake2b256(data)
	return hex.EncodeToString(h[:])
}

// TokenIDsByOwner lists the token ids held by owner. Any failure is logged
// and yields an empty list.
func (s *Service) TokenIDsByOwner(ctx context.Context, owner types.PublicKey) []string {
	ids, err := s.tokenIDsByOwner(ctx, owner)
	if err != nil {
		slog.Error("Failed to list owner tokens",
			"contract_hash", s.collection.ContractHash,
			"owner", owner.String(),
			"error", err)
		metrics.ErrorsTotal.WithLabelValues("nft").Inc()
		return []string{}
	}
	return ids
}

func (s *Service) tokenIDsByOwner(ctx context.Context, owner types.PublicKey) ([]string, error) {
	if s.collection.Standard == CEP78 {
		v, err := s.lookup(ctx, ownedTokensDictionary, owner.AccountHashHex())
		if err != nil {
			return nil, err
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			return nil, fmt.Errorf("owned tokens: %w", err)
		}
		ids := make([]string, 0, len(items))
		for _, item := range items {
			id, err := scalarString(item)
			if err != nil {
				return nil, fmt.Errorf("owned tokens: %w", err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	balance, err := s.BalanceOf(ctx, owner)
	if err != nil {
		return nil, err
	}
	ids := make([]string, balance)
	g, gctx := errgroup.WithContext(ctx)
	for i := range ids {
		g.Go(func() error {
			v, err := s.lookup(gctx, ownedByIndexDictionary, OwnedTokenIndexKey(owner, uint64(i)))
			if err != nil {
				return err
			}
			id, err := scalarString(v)
			if err != nil {
				return fmt.Errorf("owned token %d: %w", i, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

type tokenLookup struct {
	dictionary string
	attribute  string
	transform  string
}

func (s *Service) tokenLookups() []tokenLookup {
	lookups := []tokenLookup{
		{dictionary: s.collection.metadataDictionary(), attribute: metadataDictionary},
		{dictionary: s.collection.ownerDictionary(), attribute: ownerAttribute, transform: accountHashTransformName},
	}
	for _, e := range s.collection.NamedKeys.Extra {
		attr := e.Attribute
		if attr == "" {
			attr = e.Dictionary
		}
		lookups = append(lookups, tokenLookup{dictionary: e.Dictionary, attribute: attr, transform: e.Transform})
	}
	return lookups
}

// Details reads every configured dictionary for tokenID concurrently. A
// failing lookup is logged and its attribute left out of the record.
func (s *Service) Details(ctx context.Context, tokenID string) (*Token, error) {
	lookups := s.tokenLookups()
	values := make([]json.RawMessage, len(lookups))

	var g errgroup.Group
	for i, l := range lookups {
		g.Go(func() error {
			v, err := s.lookup(ctx, l.dictionary, tokenID)
			if err != nil {
				slog.Warn("Token lookup failed",
					"contract_hash", s.collection.ContractHash,
					"token_id", tokenID,
					"dictionary", l.dictionary,
					"error", err)
				return nil
			}
			values[i] = v
			return nil
		})
	}
	_ = g.Wait()

	token := &Token{
		TokenID:         tokenID,
		ContractName:    s.collection.Name,
		ContractAddress: s.collection.ContractHash,
		Creator:         s.collection.Creator,
		Action:          s.collection.Action,
		Metadata:        []Attribute{},
	}
	for i, l := range lookups {
		if values[i] == nil {
			continue
		}
		if l.attribute == metadataDictionary {
			token.Metadata = s.decodeMetadata(values[i])
			continue
		}
		v, err := decodeValue(values[i])
		if err != nil {
			slog.Warn("Failed to decode token value", "token_id", tokenID, "dictionary", l.dictionary, "error", err)
			continue
		}
		if v, err = s.transforms.Apply(l.transform, v); err != nil {
			slog.Warn("Token value transform failed", "token_id", tokenID, "dictionary", l.dictionary, "error", err)
			continue
		}
		if l.attribute == ownerAttribute {
			token.OwnerAccountHash = fmt.Sprint(v)
			continue
		}
		if token.Extra == nil {
			token.Extra = make(map[string]any)
		}
		token.Extra[l.attribute] = v
	}

	if m := s.collection.NamedKeys.Metadata; m != nil && m.FromURI {
		attrs, err := s.metadataFromURI(ctx, token.Metadata)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", tokenID, err)
		}
		token.Metadata = attrs
	}

	metrics.TokensResolved.Inc()
	return token, nil
}

func (s *Service) metadataFromURI(ctx context.Context, inline []Attribute) ([]Attribute, error) {
	uri := s.collection.NamedKeys.Metadata.URI
	var found *Attribute
	for i := range inline {
		if inline[i].Key == uri.Key {
			found = &inline[i]
			break
		}
	}
	if found == nil {
		return nil, ErrURINotFound
	}

	location, err := s.transforms.Apply(uri.Transform, found.Value)
	if err != nil {
		return nil, fmt.Errorf("metadata uri: %w", err)
	}
	body, err := s.fetcher.Fetch(ctx, fmt.Sprint(location))
	if err != nil {
		return nil, err
	}
	return s.decodeObject(body)
}

// InfoByTokenIDs returns one record per id in input order. A token whose
// details cannot be read is reduced to its id plus info.
func (s *Service) InfoByTokenIDs(ctx context.Context, ids []string, info ContractInfo) []Token {
	out := make([]Token, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			token, err := s.Details(ctx, id)
			if err != nil {
				slog.Error("Failed to get token details", "token_id", id, "error", err)
				out[i] = Token{TokenID: id, ContractInfo: info}
				return nil
			}
			token.ContractInfo = info
			out[i] = *token
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ContractInfo reads the collection name, symbol and total supply
func (s *Service) ContractInfo(ctx context.Context) ContractInfo {
	nameKey, symbolKey, supplyKey := s.collection.infoNamedKeys()
	keys := []string{nameKey, symbolKey, supplyKey}
	values := make([]any, len(keys))

	var g errgroup.Group
	for i, key := range keys {
		g.Go(func() error {
			v, err := s.querier.QueryContractData(ctx, s.collection.ContractHash, []string{key})
			if err != nil {
				slog.Warn("Failed to read contract named key",
					"contract_hash", s.collection.ContractHash,
					"named_key", key,
					"error", err)
				return nil
			}
			if values[i], err = decodeValue(v.Parsed); err != nil {
				slog.Warn("Failed to decode contract named key", "named_key", key, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return ContractInfo{Name: values[0], Symbol: values[1], TotalSupply: values[2]}
}

// ByPublicKey returns every token of owner with info attached and the
// balance set to the number of tokens found
func (s *Service) ByPublicKey(ctx context.Context, owner types.PublicKey, info ContractInfo) []Token {
	ids := s.TokenIDsByOwner(ctx, owner)
	balance := len(ids)
	info.Balances = &balance
	return s.InfoByTokenIDs(ctx, ids, info)
}

func (s *Service) lookup(ctx context.Context, dictionary, key string) (json.RawMessage, error) {
	v, err := s.querier.QueryContractDictionary(ctx, s.collection.ContractHash, dictionary, key)
	if err != nil {
		metrics.DictionaryLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.DictionaryLookups.WithLabelValues("ok").Inc()
	return v.Parsed, nil
}
