package types

import "encoding/json"

// ExecutionResult is the outcome of executing a deploy. Exactly one of
// Success or Failure is set.
type ExecutionResult struct {
	Success *ExecutionSuccess `json:"Success,omitempty"`
	Failure *ExecutionFailure `json:"Failure,omitempty"`
}

type ExecutionSuccess struct {
	Effect    json.RawMessage `json:"effect,omitempty"`
	Transfers json.RawMessage `json:"transfers,omitempty"`
	Cost      string          `json:"cost"`
}

type ExecutionFailure struct {
	Effect       json.RawMessage `json:"effect,omitempty"`
	Transfers    json.RawMessage `json:"transfers,omitempty"`
	Cost         string          `json:"cost"`
	ErrorMessage string          `json:"error_message"`
}

// DeployExecutionInfo pairs an execution result with the block it ran in
type DeployExecutionInfo struct {
	BlockHash string          `json:"block_hash"`
	Result    ExecutionResult `json:"result"`
}

// StoredValue is a global state entry. Only CL values are decoded; other
// variants are kept raw.
type StoredValue struct {
	CLValue  *StoredCLValue  `json:"CLValue,omitempty"`
	Account  json.RawMessage `json:"Account,omitempty"`
	Contract json.RawMessage `json:"Contract,omitempty"`
}

// StoredCLValue is a CL value as returned by the node
type StoredCLValue struct {
	CLType json.RawMessage `json:"cl_type"`
	Bytes  string          `json:"bytes"`
	Parsed json.RawMessage `json:"parsed"`
}
