package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"casperdash/internal/casper/rpc"
	"casperdash/internal/casper/types"

	"golang.org/x/sync/errgroup"
)

var ErrNotCLValue = errors.New("stored value is not a CL value")

// Node is the subset of the node RPC used by the query service
type Node interface {
	GetLatestBlock(ctx context.Context) (*rpc.BlockResult, error)
	PutDeploy(ctx context.Context, deploy any) (string, error)
	GetDeploy(ctx context.Context, deployHash string) (*rpc.DeployResult, error)
	GetDictionaryItem(ctx context.Context, stateRootHash string, id rpc.DictionaryIdentifier) (*rpc.StoredValueResult, error)
	GetStateItem(ctx context.Context, stateRootHash, key string, path []string) (*rpc.StoredValueResult, error)
}

// DeployState is the coarse status reported for a batch of deploys
type DeployState string

const (
	DeployPending   DeployState = "pending"
	DeployFailed    DeployState = "failed"
	DeployCompleted DeployState = "completed"
)

// DeployStatus pairs a deploy hash with its coarse state
type DeployStatus struct {
	Hash   string      `json:"hash"`
	Status DeployState `json:"status"`
}

// Service wraps the node RPC with the read helpers used across the repo
type Service struct {
	node Node
}

// NewService creates a query service on top of a node client
func NewService(node Node) *Service {
	return &Service{node: node}
}

// StateRootHash returns the state root hash of the latest block
func (s *Service) StateRootHash(ctx context.Context) (string, error) {
	block, err := s.node.GetLatestBlock(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get state root hash: %w", err)
	}
	return block.Block.Header.StateRootHash, nil
}

// LatestBlockHash returns the hash of the latest block
func (s *Service) LatestBlockHash(ctx context.Context) (string, error) {
	block, err := s.node.GetLatestBlock(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get latest block hash: %w", err)
	}
	return block.Block.Hash, nil
}

// CurrentEraID returns the era of the latest block
func (s *Service) CurrentEraID(ctx context.Context) (uint64, error) {
	block, err := s.node.GetLatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current era: %w", err)
	}
	return block.Block.Header.EraID, nil
}

// PutDeploy forwards a deploy in JSON form (as signed by a wallet) to the node
func (s *Service) PutDeploy(ctx context.Context, deployJSON json.RawMessage) (string, error) {
	if !json.Valid(deployJSON) {
		return "", fmt.Errorf("failed to put deploy: invalid JSON")
	}
	hash, err := s.node.PutDeploy(ctx, deployJSON)
	if err != nil {
		slog.Error("Failed to put deploy", "error", err)
		return "", fmt.Errorf("failed to put deploy: %w", err)
	}
	return hash, nil
}

// DeployResult returns the raw deploy and its execution results
func (s *Service) DeployResult(ctx context.Context, deployHash string) (*rpc.DeployResult, error) {
	return s.node.GetDeploy(ctx, deployHash)
}

// DeploysStatus reports pending/failed/completed for each hash. A hash whose
// lookup fails is reported as pending.
func (s *Service) DeploysStatus(ctx context.Context, hashes []string) []DeployStatus {
	out := make([]DeployStatus, len(hashes))
	var g errgroup.Group
	for i, hash := range hashes {
		g.Go(func() error {
			out[i] = DeployStatus{Hash: hash, Status: DeployPending}
			res, err := s.node.GetDeploy(ctx, hash)
			if err != nil {
				slog.Debug("Deploy lookup failed, reporting pending", "deploy_hash", hash, "error", err)
				return nil
			}
			out[i].Status = classify(res.ExecutionResults)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func classify(results []types.DeployExecutionInfo) DeployState {
	if len(results) == 0 {
		return DeployPending
	}
	for _, r := range results {
		if r.Result.Failure != nil {
			return DeployFailed
		}
	}
	return DeployCompleted
}

// StateValue reads a global state entry
func (s *Service) StateValue(ctx context.Context, stateRootHash, key string, path []string) (*types.StoredValue, error) {
	res, err := s.node.GetStateItem(ctx, stateRootHash, key, path)
	if err != nil {
		return nil, err
	}
	return &res.StoredValue, nil
}

// StateKeyValue returns the parsed CL value found at key/path
func (s *Service) StateKeyValue(ctx context.Context, stateRootHash, key, path string) (json.RawMessage, error) {
	v, err := s.StateValue(ctx, stateRootHash, key, []string{path})
	if err != nil {
		return nil, err
	}
	if v.CLValue == nil {
		return nil, fmt.Errorf("%s/%s: %w", key, path, ErrNotCLValue)
	}
	return v.CLValue.Parsed, nil
}

// StateKeysValue reads several named-key paths of the same key concurrently
func (s *Service) StateKeysValue(ctx context.Context, stateRootHash, key string, paths []string) (map[string]json.RawMessage, error) {
	var mu sync.Mutex
	out := make(map[string]json.RawMessage, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		g.Go(func() error {
			v, err := s.StateKeyValue(ctx, stateRootHash, key, path)
			if err != nil {
				return err
			}
			mu.Lock()
			out[path] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DictionaryValue reads a dictionary item by its seed URef
func (s *Service) DictionaryValue(ctx context.Context, stateRootHash, itemKey, seedURef string) (json.RawMessage, error) {
	res, err := s.node.GetDictionaryItem(ctx, stateRootHash, rpc.DictionaryIdentifier{
		URef: &rpc.URefDictionary{SeedURef: seedURef, DictionaryItemKey: itemKey},
	})
	if err != nil {
		slog.Error("Failed to read dictionary item", "seed_uref", seedURef, "item_key", itemKey, "error", err)
		return nil, err
	}
	if res.StoredValue.CLValue == nil {
		return nil, ErrNotCLValue
	}
	return res.StoredValue.CLValue.Parsed, nil
}

// QueryContractDictionary reads a contract dictionary item at the latest state root
func (s *Service) QueryContractDictionary(ctx context.Context, contractHash, dictionaryName, itemKey string) (*types.StoredCLValue, error) {
	root, err := s.StateRootHash(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.node.GetDictionaryItem(ctx, root, rpc.DictionaryIdentifier{
		ContractNamedKey: &rpc.ContractNamedKey{
			Key:               contractKey(contractHash),
			DictionaryName:    dictionaryName,
			DictionaryItemKey: itemKey,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dictionary %s[%s]: %w", dictionaryName, itemKey, err)
	}
	if res.StoredValue.CLValue == nil {
		return nil, fmt.Errorf("dictionary %s[%s]: %w", dictionaryName, itemKey, ErrNotCLValue)
	}
	return res.StoredValue.CLValue, nil
}

// QueryContractData reads a named key (or path of named keys) of a contract
func (s *Service) QueryContractData(ctx context.Context, contractHash string, path []string) (*types.StoredCLValue, error) {
	root, err := s.StateRootHash(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.StateValue(ctx, root, contractKey(contractHash), path)
	if err != nil {
		return nil, fmt.Errorf("contract data %v: %w", path, err)
	}
	if v.CLValue == nil {
		return nil, fmt.Errorf("contract data %v: %w", path, ErrNotCLValue)
	}
	return v.CLValue, nil
}

// RecipientKey converts a public key into the account key used as a recipient
func RecipientKey(pk types.PublicKey) types.Key {
	return pk.AccountKey()
}

// AccountHashBase64 returns the base64 encoding of the serialized account key
func AccountHashBase64(pk types.PublicKey) string {
	return base64.StdEncoding.EncodeToString(RecipientKey(pk).Bytes())
}

// contractKey normalizes a contract hash to the "hash-" form expected by the node
func contractKey(contractHash string) string {
	h, err := types.ParseHash(contractHash)
	if err != nil {
		return contractHash
	}
	return "hash-" + h.Hex()
}
