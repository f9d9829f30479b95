package rpc

import (
	"encoding/json"

	"casperdash/internal/casper/types"
)

// BlockHeader is the subset of the block header used by this repository
type BlockHeader struct {
	StateRootHash string `json:"state_root_hash"`
	EraID         uint64 `json:"era_id"`
	Height        uint64 `json:"height"`
	Timestamp     string `json:"timestamp"`
}

type Block struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"header"`
}

// BlockResult is the chain_get_block response
type BlockResult struct {
	APIVersion string `json:"api_version"`
	Block      *Block `json:"block"`
}

// PutDeployResult is the account_put_deploy response
type PutDeployResult struct {
	APIVersion string `json:"api_version"`
	DeployHash string `json:"deploy_hash"`
}

// DeployResult is the info_get_deploy response. An empty ExecutionResults
// means the deploy has not been executed yet.
type DeployResult struct {
	APIVersion       string                      `json:"api_version"`
	Deploy           json.RawMessage             `json:"deploy"`
	ExecutionResults []types.DeployExecutionInfo `json:"execution_results"`
}

// SpeculativeExecResult is the speculative_exec response
type SpeculativeExecResult struct {
	APIVersion      string                `json:"api_version"`
	BlockHash       string                `json:"block_hash"`
	ExecutionResult types.ExecutionResult `json:"execution_result"`
}

// StoredValueResult is returned by state_get_item and state_get_dictionary_item
type StoredValueResult struct {
	APIVersion    string            `json:"api_version"`
	DictionaryKey string            `json:"dictionary_key,omitempty"`
	StoredValue   types.StoredValue `json:"stored_value"`
	MerkleProof   string            `json:"merkle_proof"`
}

// DictionaryIdentifier selects a dictionary item; exactly one field is set
type DictionaryIdentifier struct {
	ContractNamedKey *ContractNamedKey `json:"ContractNamedKey,omitempty"`
	URef             *URefDictionary   `json:"URef,omitempty"`
}

type ContractNamedKey struct {
	Key               string `json:"key"`
	DictionaryName    string `json:"dictionary_name"`
	DictionaryItemKey string `json:"dictionary_item_key"`
}

type URefDictionary struct {
	SeedURef          string `json:"seed_uref"`
	DictionaryItemKey string `json:"dictionary_item_key"`
}
