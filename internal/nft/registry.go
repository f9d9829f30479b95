package nft

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"casperdash/internal/casper/types"
	"casperdash/internal/metrics"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type collectionsFile struct {
	Collections []Collection `yaml:"collections"`
}

// LoadCollections reads collection definitions from a YAML file
func LoadCollections(path string) ([]Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collections file: %w", err)
	}
	defer f.Close()

	var file collectionsFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse collections file %s: %w", path, err)
	}
	return file.Collections, nil
}

// CollectionTokens is one collection's slice of an owner's tokens
type CollectionTokens struct {
	ContractHash string       `json:"contractHash"`
	Name         string       `json:"name"`
	Standard     Standard     `json:"standard"`
	Info         ContractInfo `json:"info"`
	Tokens       []Token      `json:"tokens"`
}

// Registry holds one Service per configured collection
type Registry struct {
	services []*Service
	byHash   map[types.Hash]*Service
}

// NewRegistry builds a service for every collection. Duplicate contract
// hashes are rejected.
func NewRegistry(q Querier, collections []Collection, opts ...Option) (*Registry, error) {
	r := &Registry{byHash: make(map[types.Hash]*Service, len(collections))}
	for _, c := range collections {
		s, err := NewService(c, q, opts...)
		if err != nil {
			return nil, err
		}
		h, _ := types.ParseHash(c.ContractHash)
		if _, dup := r.byHash[h]; dup {
			return nil, fmt.Errorf("collection %q: duplicate contract hash %s", c.Name, h)
		}
		r.byHash[h] = s
		r.services = append(r.services, s)
	}
	metrics.TrackedCollections.Set(float64(len(r.services)))
	slog.Info("NFT collections loaded", "count", len(r.services))
	return r, nil
}

func (r *Registry) Collections() []Collection {
	out := make([]Collection, len(r.services))
	for i, s := range r.services {
		out[i] = s.collection
	}
	return out
}

// Get finds the service for a contract hash in any of the accepted forms
func (r *Registry) Get(contractHash string) (*Service, bool) {
	h, err := types.ParseHash(contractHash)
	if err != nil {
		return nil, false
	}
	s, ok := r.byHash[h]
	return s, ok
}

// OwnerTokens queries every collection for owner, in registry order
func (r *Registry) OwnerTokens(ctx context.Context, owner types.PublicKey) []CollectionTokens {
	out := make([]CollectionTokens, len(r.services))
	var g errgroup.Group
	for i, s := range r.services {
		g.Go(func() error {
			info := s.ContractInfo(ctx)
			tokens := s.ByPublicKey(ctx, owner, info)
			n := len(tokens)
			info.Balances = &n
			out[i] = CollectionTokens{
				ContractHash: s.collection.ContractHash,
				Name:         s.collection.Name,
				Standard:     s.collection.Standard,
				Info:         info,
				Tokens:       tokens,
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
